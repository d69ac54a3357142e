// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package trace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Player is an aurora.Transport that answers reads from a capture.
//
// Writes are accepted and kept. In strict mode each write must match the
// next captured sent frame.
type Player struct {
	mu      sync.Mutex
	records []Record
	pos     int
	strict  bool
	writes  [][]byte
	closed  bool
}

// NewPlayer creates a player over records
func NewPlayer(records []Record, strict bool) *Player {
	return &Player{records: records, strict: strict}
}

// Write consumes the next sent record in strict mode
func (p *Player) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, io.ErrClosedPipe
	}
	p.writes = append(p.writes, append([]byte(nil), b...))
	if !p.strict {
		return len(b), nil
	}

	for p.pos < len(p.records) && p.records[p.pos].Dir != Sent {
		p.pos++
	}
	if p.pos >= len(p.records) {
		return 0, fmt.Errorf("capture has no more sent frames")
	}
	want := p.records[p.pos]
	p.pos++
	if !bytes.Equal(want.Data, b) {
		return 0, fmt.Errorf("write %q does not match captured %q", b, want.Data)
	}
	return len(b), nil
}

// ReadUntil returns the next received frame. A captured read error is
// returned as an error with the same text.
func (p *Player) ReadUntil(terminator byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, io.ErrClosedPipe
	}
	for p.pos < len(p.records) && p.records[p.pos].Dir != Received {
		p.pos++
	}
	if p.pos >= len(p.records) {
		return nil, io.EOF
	}
	rec := p.records[p.pos]
	p.pos++
	if rec.Err != "" {
		return nil, errors.New(rec.Err)
	}
	return append([]byte(nil), rec.Data...), nil
}

// Close marks the player closed
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Writes returns every frame written so far
func (p *Player) Writes() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.writes))
	copy(out, p.writes)
	return out
}
