// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import (
	"bytes"
	"fmt"
	"io"
)

// Transport is the byte link to the device. ReadUntil blocks until the
// terminator arrives and returns the frame without it.
type Transport interface {
	Write(p []byte) (int, error)
	ReadUntil(terminator byte) ([]byte, error)
	Close() error
}

// BaudRateSetter is implemented by transports that can change the host
// side line speed, which the session uses after a successful COMM.
type BaudRateSetter interface {
	SetBaudRate(baud int) error
}

// maxFrameSize bounds a single reply so a device that never sends the
// terminator cannot grow the buffer without limit.
const maxFrameSize = 4096

// StreamTransport adapts an io.ReadWriteCloser to Transport.
//
// A Read that returns (0, nil) is treated as a read timeout, matching serial
// ports configured with a read timeout.
type StreamTransport struct {
	rw      io.ReadWriteCloser
	pending []byte
	buf     []byte
}

// NewStreamTransport wraps rw.
func NewStreamTransport(rw io.ReadWriteCloser) *StreamTransport {
	return &StreamTransport{
		rw:  rw,
		buf: make([]byte, 256),
	}
}

// Write writes p in full.
func (t *StreamTransport) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := t.rw.Write(p[written:])
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// ReadUntil returns the next frame up to terminator. Bytes after the
// terminator are kept for the following call.
func (t *StreamTransport) ReadUntil(terminator byte) ([]byte, error) {
	for {
		if i := bytes.IndexByte(t.pending, terminator); i >= 0 {
			frame := make([]byte, i)
			copy(frame, t.pending[:i])
			t.pending = t.pending[i+1:]
			return frame, nil
		}
		if len(t.pending) > maxFrameSize {
			t.pending = t.pending[:0]
			return nil, fmt.Errorf("no terminator within %d bytes", maxFrameSize)
		}

		n, err := t.rw.Read(t.buf)
		if n > 0 {
			t.pending = append(t.pending, t.buf[:n]...)
			continue
		}
		if err != nil {
			return nil, err
		}
		return nil, ErrReadTimeout
	}
}

// Close closes the underlying stream.
func (t *StreamTransport) Close() error {
	return t.rw.Close()
}

// SetBaudRate forwards to the underlying stream when it supports it.
func (t *StreamTransport) SetBaudRate(baud int) error {
	if s, ok := t.rw.(BaudRateSetter); ok {
		return s.SetBaudRate(baud)
	}
	return ErrBaudRateUnsupported
}
