package declaration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileSystem is the file access the writer needs
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
}

// OSFileSystem reads and writes the local disk
type OSFileSystem struct{}

// ReadFile implements FileSystem
func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) //nolint:gosec // G304: paths come from the configured project root
}

// WriteFile implements FileSystem
func (OSFileSystem) WriteFile(name string, data []byte) error {
	return os.WriteFile(name, data, 0o644) //nolint:gosec // G306: generated declarations are meant to be readable
}

// FileError attributes a failure to the file it happened on
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// WriteIfChanged writes contents to path unless the file already holds
// exactly that content. A missing file counts as different; any other read
// failure is returned. It reports whether a write happened.
func WriteIfChanged(fsys FileSystem, path, contents string) (bool, error) {
	old, err := fsys.ReadFile(path)
	switch {
	case err == nil:
		if string(old) == contents {
			return false, nil
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return false, &FileError{Path: path, Op: "read", Err: err}
	}

	if err := fsys.WriteFile(path, []byte(contents)); err != nil {
		return false, &FileError{Path: path, Op: "write", Err: err}
	}
	return true, nil
}
