// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package trace captures the frames exchanged with an Aurora device as a
// stream of CBOR records and plays them back as a transport.
package trace

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Direction of a captured frame
type Direction uint8

// Directions
const (
	Sent Direction = iota
	Received
)

// String returns ">>" for sent frames and "<<" for received ones
func (d Direction) String() string {
	if d == Sent {
		return ">>"
	}
	return "<<"
}

// Record is one captured frame. Data excludes the terminator for received
// frames and includes it for sent ones, exactly as seen by the transport.
type Record struct {
	UnixNano int64     `cbor:"0,keyasint"`
	Dir      Direction `cbor:"1,keyasint"`
	Data     []byte    `cbor:"2,keyasint"`
	Err      string    `cbor:"3,keyasint,omitempty"`
}

// Time returns the capture timestamp
func (r Record) Time() time.Time {
	return time.Unix(0, r.UnixNano)
}

// Writer appends records to a CBOR sequence.
type Writer struct {
	mu  sync.Mutex
	enc *cbor.Encoder
}

// NewWriter creates a record writer on w
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: cbor.NewEncoder(w)}
}

// Write encodes one record
func (w *Writer) Write(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode trace record: %w", err)
	}
	return nil
}

// Reader decodes records from a CBOR sequence.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a record reader on r
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF after the last one
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to decode trace record: %w", err)
	}
	return rec, nil
}

// ReadAll decodes every record in r
func ReadAll(r io.Reader) ([]Record, error) {
	rd := NewReader(r)
	var out []Record
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
