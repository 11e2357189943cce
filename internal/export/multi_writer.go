package export

// MultiWriter fans every sync record out to several writers.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter wraps the given writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write forwards the record to every writer; the first error wins but all
// writers are attempted.
func (m *MultiWriter) Write(row SyncRow) error {
	var firstErr error
	for _, w := range m.writers {
		if err := w.Write(row); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WriteBatch forwards a batch, using native batch support where available.
func (m *MultiWriter) WriteBatch(rows []SyncRow) error {
	var firstErr error
	for _, w := range m.writers {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil && firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
