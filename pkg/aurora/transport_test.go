// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedStream returns its input a few bytes per Read and collects writes.
type chunkedStream struct {
	in      []byte
	chunk   int
	out     bytes.Buffer
	closed  bool
	timeout bool
	baud    int
}

func (c *chunkedStream) Read(p []byte) (int, error) {
	if len(c.in) == 0 {
		if c.timeout {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := c.chunk
	if n > len(c.in) {
		n = len(c.in)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, c.in[:n])
	c.in = c.in[n:]
	return n, nil
}

func (c *chunkedStream) Write(p []byte) (int, error) { return c.out.Write(p) }
func (c *chunkedStream) Close() error                { c.closed = true; return nil }
func (c *chunkedStream) SetBaudRate(baud int) error  { c.baud = baud; return nil }

// plainStream is a stream with no line speed, like a WebSocket bridge.
type plainStream struct {
	in  *strings.Reader
	out bytes.Buffer
}

func newPlainStream(replies string) *plainStream {
	return &plainStream{in: strings.NewReader(replies)}
}

func (p *plainStream) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *plainStream) Write(b []byte) (int, error) { return p.out.Write(b) }
func (p *plainStream) Close() error                { return nil }

func TestStreamTransport_SetBaudRateUnsupported(t *testing.T) {
	tr := NewStreamTransport(newPlainStream(""))
	assert.ErrorIs(t, tr.SetBaudRate(115200), ErrBaudRateUnsupported)
}

func TestStreamTransport_ReadUntilAcrossChunks(t *testing.T) {
	stream := &chunkedStream{in: []byte("OKAYA896\r010A001C1B5\r"), chunk: 3}
	tr := NewStreamTransport(stream)

	frame, err := tr.ReadUntil(Terminator)
	require.NoError(t, err)
	assert.Equal(t, "OKAYA896", string(frame))

	frame, err = tr.ReadUntil(Terminator)
	require.NoError(t, err)
	assert.Equal(t, "010A001C1B5", string(frame))

	_, err = tr.ReadUntil(Terminator)
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamTransport_ReadTimeout(t *testing.T) {
	stream := &chunkedStream{in: []byte("OKAY"), chunk: 8, timeout: true}
	tr := NewStreamTransport(stream)

	_, err := tr.ReadUntil(Terminator)
	assert.ErrorIs(t, err, ErrReadTimeout)
}

func TestStreamTransport_FrameTooLong(t *testing.T) {
	stream := &chunkedStream{in: []byte(strings.Repeat("A", maxFrameSize+512)), chunk: 256}
	tr := NewStreamTransport(stream)

	_, err := tr.ReadUntil(Terminator)
	require.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
}

func TestStreamTransport_WriteAndClose(t *testing.T) {
	stream := &chunkedStream{}
	tr := NewStreamTransport(stream)

	n, err := tr.Write([]byte("INIT \r"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "INIT \r", stream.out.String())

	require.NoError(t, tr.SetBaudRate(115200))
	assert.Equal(t, 115200, stream.baud)

	require.NoError(t, tr.Close())
	assert.True(t, stream.closed)
}

func TestStreamTransport_SessionEndToEnd(t *testing.T) {
	stream := &chunkedStream{in: []byte("OKAY\r020A01F0B0312345\r"), chunk: 5}
	s := New(NewStreamTransport(stream))

	entries, err := s.PortHandleStatus("")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "0B", entries[1].Handle)
	assert.Equal(t, "INIT \rPHSR \r", stream.out.String())
}
