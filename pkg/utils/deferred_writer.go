// Package utils holds small io helpers shared by commands.
package utils

import (
	"bytes"
	"io"
	"sync"
)

// DeferredWriter collects a complete frame of output in memory so it can be
// written to the terminal in one call. Safe for concurrent use.
type DeferredWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write appends p to the pending frame.
func (d *DeferredWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Write(p)
}

// Len reports the number of pending bytes.
func (d *DeferredWriter) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Len()
}

// Reset drops the pending frame.
func (d *DeferredWriter) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf.Reset()
}

// Flush writes prefix followed by the pending frame to w and empties the
// buffer. Nothing is written when the frame is empty.
func (d *DeferredWriter) Flush(w io.Writer, prefix string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.buf.Len() == 0 {
		return nil
	}

	frame := make([]byte, 0, len(prefix)+d.buf.Len())
	frame = append(frame, prefix...)
	frame = append(frame, d.buf.Bytes()...)
	d.buf.Reset()

	_, err := w.Write(frame)
	return err
}
