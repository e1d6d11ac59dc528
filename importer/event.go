package importer

import (
	"io"
	"path/filepath"
)

// Event announces a file to import.
type Event struct {
	// Name is the path of the file.
	Name string `json:"name"`

	// for test
	source io.Reader
}

// FullPath returns the absolute path of the file.
func (e *Event) FullPath() string {
	abs, err := filepath.Abs(e.Name)
	if err != nil {
		return e.Name
	}
	return abs
}
