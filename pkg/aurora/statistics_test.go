// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *Reply {
	t.Helper()
	r, err := ParseAny([]byte(raw))
	require.NoError(t, err)
	return r
}

func TestStatistics_Update(t *testing.T) {
	s := NewStatistics()

	s.Update(true, mustParse(t, "OKAY"), nil)
	s.Update(true, mustParse(t, "001414"), nil)
	s.Update(true, mustParse(t, "HELLO24CA"), nil)
	errReply := mustParse(t, "ERROR1314")
	s.Update(true, errReply, errReply.Err("INIT "))
	s.Update(true, nil, malformed("x", "bad"))
	s.Update(true, nil, truncated("0", "short"))
	s.Update(true, nil, &FrameError{Kind: ErrChecksumMismatch})
	s.Update(true, nil, &TransportError{Op: "read", Err: errors.New("eof")})
	s.Update(false, nil, &ValidationError{})

	snap := s.Snapshot()
	assert.Equal(t, uint64(8), snap.Commands)
	assert.Equal(t, uint64(1), snap.OkayReplies)
	assert.Equal(t, uint64(1), snap.StatusReplies)
	assert.Equal(t, uint64(1), snap.DataReplies)
	assert.Equal(t, uint64(1), snap.ErrorReplies)
	assert.Equal(t, uint64(1), snap.MalformedReplies)
	assert.Equal(t, uint64(1), snap.TruncatedReplies)
	assert.Equal(t, uint64(1), snap.ChecksumErrors)
	assert.Equal(t, uint64(1), snap.TransportErrors)
	assert.Equal(t, uint64(1), snap.Rejected)
	assert.Equal(t, map[string]uint64{"13": 1, "14": 1}, snap.ErrorCodes)
}

func TestStatistics_SnapshotIsIndependent(t *testing.T) {
	s := NewStatistics()
	errReply := mustParse(t, "ERROR0C")
	s.Update(true, errReply, errReply.Err("TSTART "))

	snap := s.Snapshot()
	snap.ErrorCodes["0C"] = 99
	s.Update(true, errReply, errReply.Err("TSTART "))

	assert.Equal(t, uint64(2), s.Snapshot().ErrorCodes["0C"])
}

func TestStatistics_String(t *testing.T) {
	s := NewStatistics()
	s.Update(true, mustParse(t, "OKAY"), nil)
	errReply := mustParse(t, "ERROR0C")
	s.Update(true, errReply, errReply.Err("TSTART "))

	out := s.String()
	assert.Contains(t, out, "=== Statistics")
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "Device Errors:")
	assert.Contains(t, out, "0C Command is invalid while in the current operating mode")
	assert.NotContains(t, out, "Malformed:")
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.Update(true, mustParse(t, "OKAY"), nil)
	s.Update(false, nil, &ValidationError{})
	s.Reset()

	snap := s.Snapshot()
	assert.Zero(t, snap.Commands)
	assert.Zero(t, snap.OkayReplies)
	assert.Zero(t, snap.Rejected)
	assert.Empty(t, snap.ErrorCodes)
}
