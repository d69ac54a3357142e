// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package trace

import (
	"io"
	"time"

	"github.com/Thermoquad/aurorastat/pkg/aurora"
)

// Recorder is an aurora.Transport that captures every frame passing
// through to the wrapped transport.
type Recorder struct {
	inner  aurora.Transport
	w      *Writer
	closer io.Closer
	now    func() time.Time
}

// NewRecorder wraps t. If out is an io.Closer it is closed with the
// recorder.
func NewRecorder(t aurora.Transport, out io.Writer) *Recorder {
	r := &Recorder{inner: t, w: NewWriter(out), now: time.Now}
	if c, ok := out.(io.Closer); ok {
		r.closer = c
	}
	return r
}

func (r *Recorder) record(dir Direction, data []byte, err error) error {
	rec := Record{UnixNano: r.now().UnixNano(), Dir: dir, Data: data}
	if err != nil {
		rec.Err = err.Error()
	}
	return r.w.Write(rec)
}

// Write records p and forwards it
func (r *Recorder) Write(p []byte) (int, error) {
	n, err := r.inner.Write(p)
	if rerr := r.record(Sent, p, err); rerr != nil && err == nil {
		return n, rerr
	}
	return n, err
}

// ReadUntil forwards the read and records the frame or error
func (r *Recorder) ReadUntil(terminator byte) ([]byte, error) {
	frame, err := r.inner.ReadUntil(terminator)
	if rerr := r.record(Received, frame, err); rerr != nil && err == nil {
		return frame, rerr
	}
	return frame, err
}

// Close closes the wrapped transport and the capture output
func (r *Recorder) Close() error {
	err := r.inner.Close()
	if r.closer != nil {
		if cerr := r.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// SetBaudRate forwards to the wrapped transport
func (r *Recorder) SetBaudRate(baud int) error {
	if s, ok := r.inner.(aurora.BaudRateSetter); ok {
		return s.SetBaudRate(baud)
	}
	return aurora.ErrBaudRateUnsupported
}
