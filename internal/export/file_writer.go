package export

import (
	"encoding/json"
	"os"
)

// FileWriter appends sync records to a JSONL file.
type FileWriter struct {
	file *os.File
	enc  *json.Encoder
}

// NewFileWriter creates a FileWriter for path, truncating any existing file.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f, enc: json.NewEncoder(f)}, nil
}

// Write logs a single sync record.
func (w *FileWriter) Write(row SyncRow) error {
	return w.enc.Encode(row)
}

// WriteBatch logs multiple sync records.
func (w *FileWriter) WriteBatch(rows []SyncRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *FileWriter) Close() error {
	return w.file.Close()
}
