package render

import (
	"os"
)

// FileWriter persists rendered pages.
type FileWriter interface {
	WriteFile(path string, data []byte) error
}

// OSWriter writes files with os.WriteFile.
type OSWriter struct {
	Perm os.FileMode
}

func (w OSWriter) WriteFile(path string, data []byte) error {
	perm := w.Perm
	if perm == 0 {
		perm = 0o644
	}
	return os.WriteFile(path, data, perm)
}
