package archive

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/blakesmith/ar"

	"github.com/dpkgo/dpkgo/pkg/errors"
)

// Member names spec.md §6.1 fixes for the ar envelope, in write order.
const (
	DebianBinaryMember = "debian-binary"
	ControlMember      = "control.tar.zst"
	DataMember         = "data.tar.zst"

	debianBinaryContent = "2.0\n"
)

// WriteDeb assembles the three-member ar envelope a .deb archive is:
// debian-binary, then the control and data tar members, bit-exact per
// spec.md §6.1 (fixed member order, no other members permitted).
func WriteDeb(outputPath, controlTarPath, dataTarPath string) error {
	out, err := os.Create(filepath.Clean(outputPath))
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "creating "+outputPath)
	}

	defer out.Close()

	writer := ar.NewWriter(out)
	if err := writer.WriteGlobalHeader(); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "writing ar global header")
	}

	modtime := time.Now()

	if err := writeArBytes(writer, DebianBinaryMember, []byte(debianBinaryContent), modtime); err != nil {
		return err
	}

	if err := writeArFile(writer, ControlMember, controlTarPath, modtime); err != nil {
		return err
	}

	return writeArFile(writer, DataMember, dataTarPath, modtime)
}

func writeArBytes(writer *ar.Writer, name string, body []byte, modtime time.Time) error {
	header := ar.Header{
		Name:    name,
		Size:    int64(len(body)),
		Mode:    0o644,
		ModTime: modtime,
	}

	if err := writer.WriteHeader(&header); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "writing ar header for "+name)
	}

	if _, err := writer.Write(body); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "writing ar member "+name)
	}

	return nil
}

// writeArFile streams a file from disk into the ar archive without
// reading the entire member into memory.
func writeArFile(writer *ar.Writer, name, sourcePath string, modtime time.Time) error {
	f, err := os.Open(filepath.Clean(sourcePath))
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "opening "+sourcePath)
	}

	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "statting "+sourcePath)
	}

	header := ar.Header{
		Name:    name,
		ModTime: modtime,
		Mode:    0o644,
		Size:    info.Size(),
	}

	if err := writer.WriteHeader(&header); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "writing ar header for "+name)
	}

	if _, err := io.Copy(writer, f); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "writing ar member "+name)
	}

	return nil
}

// DebMember is one member extracted from a .deb's ar envelope.
type DebMember struct {
	Name string
	Data []byte
}

// ReadDeb parses a .deb archive's ar envelope and returns its members
// in on-disk order, without interpreting the control/data tar payloads
// themselves — that is the caller's job via CreateTarZst's counterpart
// extraction helpers.
func ReadDeb(path string) ([]DebMember, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeIO, "opening "+path)
	}

	defer f.Close()

	reader := ar.NewReader(f)

	var members []DebMember

	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeParse, "reading ar member of "+path)
		}

		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeIO, "reading ar member "+header.Name)
		}

		members = append(members, DebMember{Name: header.Name, Data: data})
	}

	return members, nil
}
