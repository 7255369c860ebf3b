// Package iojson reads and writes the JSON documents exchanged on the command
// line: pretty documents for humans, one object per line for pipes, and a
// fixed error envelope for scripts.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// Error is the envelope written when a command fails in JSON mode.
type Error struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Encode writes obj to w as indented JSON followed by a newline.
func Encode(w io.Writer, obj any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(obj); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteLine writes obj to w as a single compact JSON line.
func WriteLine(w io.Writer, obj any) error {
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		return fmt.Errorf("encode json line: %w", err)
	}
	return nil
}

// WriteError writes msg and data to w in the Error envelope. When data
// cannot be encoded, the envelope is written without it and the encoding
// failure is reported under "json_error".
func WriteError(w io.Writer, msg string, data map[string]any) error {
	err := WriteLine(w, Error{Message: msg, Data: data})
	if err == nil {
		return nil
	}
	return WriteLine(w, Error{
		Message: msg,
		Data:    map[string]any{"json_error": err.Error()},
	})
}

// Decode reads a single JSON document from r into a T.
func Decode[T any](r io.Reader) (T, error) {
	var out T
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return out, fmt.Errorf("decode json: %w", err)
	}
	return out, nil
}
