package readers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pierrec/lz4/v4"
)

// SourceConfig carries the object store settings for s3:// locations
type SourceConfig struct {
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3Secure    bool
}

// readCloser closes every layer of a decompression stack, innermost last
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() (err error) {
	for i := len(rc.closers) - 1; i >= 0; i-- {
		if cerr := rc.closers[i].Close(); err == nil {
			err = cerr
		}
	}
	return
}

/*
OpenSource opens a mesh file from a local path or an s3://bucket/key object.
Files ending in .gz, .zst or .lz4 are decompressed on the fly, so
"s3://meshes/wing.msh.zst" reads as plain Gmsh text.
*/
func OpenSource(ctx context.Context, location string, cfg SourceConfig) (rc io.ReadCloser, err error) {
	var raw io.ReadCloser
	if bucket, key, isS3 := parseS3Location(location); isS3 {
		if raw, err = openS3(ctx, bucket, key, cfg); err != nil {
			return
		}
	} else {
		if raw, err = os.Open(location); err != nil {
			return
		}
	}
	if rc, err = Decompress(raw, location); err != nil {
		raw.Close()
	}
	return
}

// Decompress wraps raw with the decoder matching the extension of name.
// Closing the result closes raw.
func Decompress(raw io.ReadCloser, name string) (rc io.ReadCloser, err error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".gz":
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(raw); err != nil {
			return nil, fmt.Errorf("opening gzip stream %s: %w", name, err)
		}
		rc = &readCloser{Reader: gz, closers: []io.Closer{raw, gz}}
	case ".zst", ".zstd":
		var dec *zstd.Decoder
		if dec, err = zstd.NewReader(raw); err != nil {
			return nil, fmt.Errorf("opening zstd stream %s: %w", name, err)
		}
		dc := dec.IOReadCloser()
		rc = &readCloser{Reader: dc, closers: []io.Closer{raw, dc}}
	case ".lz4":
		rc = &readCloser{Reader: lz4.NewReader(raw), closers: []io.Closer{raw}}
	default:
		rc = raw
	}
	return
}

func parseS3Location(location string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(location, "s3://")
	if !found {
		return
	}
	bucket, key, ok = strings.Cut(rest, "/")
	ok = ok && bucket != "" && key != ""
	return
}

func openS3(ctx context.Context, bucket, key string, cfg SourceConfig) (io.ReadCloser, error) {
	if cfg.S3Endpoint == "" {
		return nil, fmt.Errorf("no s3 endpoint configured for s3://%s/%s", bucket, key)
	}
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3Secure,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating s3 client for %s: %w", cfg.S3Endpoint, err)
	}
	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("opening s3://%s/%s: %w", bucket, key, err)
	}
	return obj, nil
}
