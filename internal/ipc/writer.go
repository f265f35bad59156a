package ipc

import (
	"encoding/json"
	"io"
	"sync"

	"soundconverter/internal/jobs"
)

// Writer serializes events onto the output stream, one JSON object per line.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Writer{enc: enc}
}

// Emit writes one event.
func (w *Writer) Emit(event any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(event)
}

// Progress implements jobs.Sink.
func (w *Writer) Progress(p jobs.Progress) {
	_ = w.Emit(ProgressEvent{
		Event:       EventProgress,
		Operation:   string(p.Operation),
		Status:      string(p.Status),
		Index:       p.Index,
		Total:       p.Total,
		File:        p.File,
		Destination: p.Destination,
	})
}

var _ jobs.Sink = (*Writer)(nil)
