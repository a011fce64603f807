package readers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/notargets/fvmesh/mesh"
)

// Increase scanner buffer for large files
const maxScanTokenSize = 1024 * 1024 * 10 // 10MB

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)
	return scanner
}

// Section is the body of one Gmsh section, spooled to a temporary file
type Section struct {
	Name      string
	StartLine int // Source line number of the first body line
	Lines     int
	file      *os.File
}

// Reader rewinds the spooled body and returns it for a single pass
func (s *Section) Reader() (io.Reader, error) {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return s.file, nil
}

// Close removes the spool file
func (s *Section) Close() (err error) {
	if s == nil || s.file == nil {
		return
	}
	name := s.file.Name()
	err = s.file.Close()
	if rmErr := os.Remove(name); err == nil {
		err = rmErr
	}
	s.file = nil
	return
}

// Sections holds the parts of a Gmsh file the topology is built from
type Sections struct {
	Header   Header
	Nodes    *Section
	Elements *Section
	Skipped  []string // Names of the sections that were passed over
}

func (ss *Sections) Close() error {
	err := ss.Nodes.Close()
	if err2 := ss.Elements.Close(); err == nil {
		err = err2
	}
	return err
}

type ExtractOptions struct {
	MinVersion float64
	TempDir    string // Spool directory, os.TempDir() when empty
	Logger     *zap.Logger
}

/*
ExtractSections reads a Gmsh 2.x source once, checking the $MeshFormat header
against opts.MinVersion before anything else is read. The $Nodes and $Elements
bodies are spooled to temporary files so that either can be consumed first,
all other sections are skipped.
The caller must Close the returned Sections.
*/
func ExtractSections(r io.Reader, opts ExtractOptions) (ss *Sections, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		scanner    = newScanner(r)
		lineNum    int
		haveHeader bool
	)
	ss = &Sections{}
	defer func() {
		if err != nil {
			ss.Close()
			ss = nil
		}
	}()
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "$") {
			err = &mesh.RecordError{Section: "top level", Line: lineNum, Record: line,
				Err: mesh.Malformed("text outside of a section")}
			return
		}
		name := line[1:]
		if !haveHeader && name != "MeshFormat" {
			err = fmt.Errorf("%w: $MeshFormat must come first, found $%s at line %d",
				mesh.ErrMissingSection, name, lineNum)
			return
		}
		switch name {
		case "MeshFormat":
			if haveHeader {
				err = mesh.Malformed("second $MeshFormat at line %d", lineNum)
				return
			}
			if ss.Header, lineNum, err = readHeader(scanner, lineNum); err != nil {
				return
			}
			if err = ss.Header.Check(opts.MinVersion); err != nil {
				return
			}
			haveHeader = true
			logger.Debug("mesh format", zap.String("version", ss.Header.VersionString),
				zap.Int("dataSize", ss.Header.DataSize))
		case "Nodes", "Elements":
			if (name == "Nodes" && ss.Nodes != nil) || (name == "Elements" && ss.Elements != nil) {
				err = mesh.Malformed("second $%s at line %d", name, lineNum)
				return
			}
			var sec *Section
			sec, lineNum, err = spoolSection(scanner, name, lineNum, opts.TempDir)
			if name == "Nodes" {
				ss.Nodes = sec
			} else {
				ss.Elements = sec
			}
			if err != nil {
				return
			}
			logger.Debug("spooled section", zap.String("section", name),
				zap.Int("lines", sec.Lines))
		default:
			if lineNum, err = skipSection(scanner, name, lineNum); err != nil {
				return
			}
			ss.Skipped = append(ss.Skipped, name)
		}
	}
	if err = scanner.Err(); err != nil {
		err = fmt.Errorf("scanner error: %w", err)
		return
	}
	switch {
	case !haveHeader:
		err = fmt.Errorf("%w: no $MeshFormat section found", mesh.ErrMissingSection)
	case ss.Nodes == nil:
		err = fmt.Errorf("%w: no $Nodes section found", mesh.ErrMissingSection)
	case ss.Elements == nil:
		err = fmt.Errorf("%w: no $Elements section found", mesh.ErrMissingSection)
	}
	return
}

func readHeader(scanner *bufio.Scanner, lineNum int) (h Header, n int, err error) {
	n = lineNum
	if !scanner.Scan() {
		err = fmt.Errorf("%w: unexpected EOF in MeshFormat", mesh.ErrMissingSection)
		return
	}
	n++
	if h, err = parseHeader(scanner.Text()); err != nil {
		err = &mesh.RecordError{Section: "MeshFormat", Line: n, Record: scanner.Text(), Err: err}
		return
	}
	if !scanner.Scan() {
		err = fmt.Errorf("%w: unexpected EOF in MeshFormat", mesh.ErrMissingSection)
		return
	}
	n++
	if strings.TrimSpace(scanner.Text()) != "$EndMeshFormat" {
		err = &mesh.RecordError{Section: "MeshFormat", Line: n, Record: scanner.Text(),
			Err: mesh.Malformed("expected $EndMeshFormat")}
	}
	return
}

func spoolSection(scanner *bufio.Scanner, name string, lineNum int,
	tempDir string) (sec *Section, n int, err error) {
	n = lineNum
	var f *os.File
	if f, err = os.CreateTemp(tempDir, "fvmesh-"+strings.ToLower(name)+"-*"); err != nil {
		return
	}
	sec = &Section{Name: name, StartLine: lineNum + 1, file: f}
	var (
		w      = bufio.NewWriter(f)
		endTag = "$End" + name
	)
	for scanner.Scan() {
		n++
		line := scanner.Text()
		if strings.TrimSpace(line) == endTag {
			err = w.Flush()
			return
		}
		w.WriteString(line)
		if err = w.WriteByte('\n'); err != nil {
			return
		}
		sec.Lines++
	}
	if err = scanner.Err(); err == nil {
		err = fmt.Errorf("%w: unexpected EOF in %s, no %s", mesh.ErrMissingSection, name, endTag)
	}
	return
}

func skipSection(scanner *bufio.Scanner, name string, lineNum int) (n int, err error) {
	n = lineNum
	endTag := "$End" + name
	for scanner.Scan() {
		n++
		if strings.TrimSpace(scanner.Text()) == endTag {
			return
		}
	}
	if err = scanner.Err(); err == nil {
		err = fmt.Errorf("%w: unexpected EOF in %s, no %s", mesh.ErrMissingSection, name, endTag)
	}
	return
}
