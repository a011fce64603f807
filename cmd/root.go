/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/notargets/fvmesh/mesh/readers"
)

var (
	cfgFile string
	logger  = zap.NewNop()
	stopper interface{ Stop() }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fvmesh",
	Short: "Convert Gmsh meshes into finite volume topology",
	Long: `
Reads Gmsh 2.x ASCII meshes, whole or one partition at a time, and derives
the vertex, face and cell connectivity a finite volume solver consumes.

fvmesh import -F mesh.msh -d 2
fvmesh partition -F mesh.msh -d 3 -n 8 -o mesh_8.msh`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		config := zap.NewProductionConfig()
		if viper.GetBool("verbose") {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		if logger, err = config.Build(); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logger.With(zap.String("run", uuid.NewString()))
		if dir := viper.GetString("profile"); len(dir) != 0 {
			stopper = profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.Quiet)
		}
		return
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stopper != nil {
			stopper.Stop()
		}
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fvmesh.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug level logging")
	rootCmd.PersistentFlags().String("profile", "", "write a CPU profile into this directory")
	rootCmd.PersistentFlags().String("tempDir", "", "directory for spooled mesh sections")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	viper.BindPFlag("tempDir", rootCmd.PersistentFlags().Lookup("tempDir"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".fvmesh" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".fvmesh")
	}

	viper.SetEnvPrefix("fvmesh")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// sourceConfig collects the object store settings, FVMESH_S3_ENDPOINT and
// friends or the s3 block of the config file
func sourceConfig(overrides map[string]string) (sc readers.SourceConfig) {
	sc = readers.SourceConfig{
		S3Endpoint:  viper.GetString("s3.endpoint"),
		S3AccessKey: viper.GetString("s3.accessKey"),
		S3SecretKey: viper.GetString("s3.secretKey"),
		S3Region:    viper.GetString("s3.region"),
		S3Secure:    viper.GetBool("s3.secure"),
	}
	for key, val := range overrides {
		switch strings.ToLower(key) {
		case "endpoint":
			sc.S3Endpoint = val
		case "accesskey":
			sc.S3AccessKey = val
		case "secretkey":
			sc.S3SecretKey = val
		case "region":
			sc.S3Region = val
		case "secure":
			sc.S3Secure = val == "true"
		}
	}
	return
}
