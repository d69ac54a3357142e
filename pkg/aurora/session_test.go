// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// ============================================================
// Test transport
// ============================================================

// scriptedTransport answers each read with the next canned reply and
// records every write.
type scriptedTransport struct {
	mu      sync.Mutex
	replies []string
	writes  []string
	readErr error
	closes  int
}

func newScripted(replies ...string) *scriptedTransport {
	return &scriptedTransport{replies: replies}
}

func (t *scriptedTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = append(t.writes, string(p))
	return len(p), nil
}

func (t *scriptedTransport) ReadUntil(terminator byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.readErr != nil {
		return nil, t.readErr
	}
	if len(t.replies) == 0 {
		return nil, io.EOF
	}
	r := t.replies[0]
	t.replies = t.replies[1:]
	return []byte(r), nil
}

func (t *scriptedTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closes++
	return nil
}

func (t *scriptedTransport) Writes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.writes...)
}

// baudTransport adds BaudRateSetter.
type baudTransport struct {
	*scriptedTransport
	baud int
}

func (t *baudTransport) SetBaudRate(baud int) error {
	t.baud = baud
	return nil
}

// ============================================================
// State machine
// ============================================================

func TestSession_NewStartsUninitialized(t *testing.T) {
	s := New(newScripted())
	assert.Equal(t, StateUninitialized, s.State())
	assert.Empty(t, s.PortHandles())
}

func TestSession_NewNilTransportPanics(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}

func TestSession_Init(t *testing.T) {
	tr := newScripted("OKAYA896")
	s := New(tr)

	require.NoError(t, s.Init())
	assert.Equal(t, StateInitialized, s.State())
	assert.Equal(t, []string{"INIT \r"}, tr.Writes())
}

func TestSession_InitDeviceErrorLeavesState(t *testing.T) {
	tr := newScripted("ERROR133A42")
	s := New(tr)

	err := s.Init()
	require.Error(t, err)
	assert.True(t, IsDeviceError(err))
	assert.Equal(t, StateUninitialized, s.State())
}

func TestSession_InitUnexpectedReplyKind(t *testing.T) {
	s := New(newScripted("001414"))
	err := s.Init()
	assert.ErrorIs(t, err, ErrMalformedReply)
	assert.Equal(t, StateUninitialized, s.State())
}

func TestSession_TrackingTransitions(t *testing.T) {
	tr := newScripted("OKAY", "OKAY", "OKAY")
	s := New(tr)

	require.NoError(t, s.Init())
	require.NoError(t, s.TStart())
	assert.Equal(t, StateTracking, s.State())
	require.NoError(t, s.TStop())
	assert.Equal(t, StateInitialized, s.State())
	assert.Equal(t, []string{"INIT \r", "TSTART \r", "TSTOP \r"}, tr.Writes())
}

func TestSession_TStartErrorLeavesState(t *testing.T) {
	s := New(newScripted("OKAY", "ERROR0C"))
	require.NoError(t, s.Init())

	err := s.TStart()
	var devErr *DeviceError
	require.True(t, errors.As(err, &devErr))
	assert.True(t, devErr.HasCode("0C"))
	assert.Equal(t, StateInitialized, s.State())
}

// ============================================================
// PHSR
// ============================================================

func TestSession_PHSR_AutoInitOnce(t *testing.T) {
	tr := newScripted("OKAY", "010A001C1B5", "001414")
	s := New(tr)

	entries, err := s.PortHandleStatus("")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "0A", entries[0].Handle)
	assert.Equal(t, StateInitialized, s.State())
	assert.Equal(t, []string{"INIT \r", "PHSR \r"}, tr.Writes())

	// Already initialized: no second INIT
	entries, err = s.PortHandleStatus("00")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, []string{"INIT \r", "PHSR \r", "PHSR 00\r"}, tr.Writes())
	assert.Empty(t, s.PortHandles())
}

func TestSession_PHSR_AfterInitSendsNoInit(t *testing.T) {
	tr := newScripted("OKAY", "040A01F0B01F0C01F0D01F2DDB")
	s := New(tr)

	require.NoError(t, s.Init())
	entries, err := s.PortHandleStatus("")
	require.NoError(t, err)
	assert.Len(t, entries, 4)
	assert.Equal(t, []string{"INIT \r", "PHSR \r"}, tr.Writes())
	assert.Len(t, s.PortHandles(), 4)
}

func TestSession_PHSR_AutoInitDisabled(t *testing.T) {
	tr := newScripted("010A001C1B5")
	s := New(tr, WithAutoInit(false))

	_, err := s.PortHandleStatus("")
	assert.ErrorIs(t, err, ErrNotInitialized)
	var stErr *StateError
	require.True(t, errors.As(err, &stErr))
	assert.Equal(t, StateUninitialized, stErr.State)
	assert.Empty(t, tr.Writes())
}

func TestSession_PHSR_AutoInitFailure(t *testing.T) {
	tr := newScripted("ERROR133A42")
	s := New(tr)

	_, err := s.PortHandleStatus("")
	require.Error(t, err)
	assert.True(t, IsDeviceError(err))
	assert.Contains(t, err.Error(), "auto-init")
	assert.Equal(t, []string{"INIT \r"}, tr.Writes())
	assert.Equal(t, StateUninitialized, s.State())
}

func TestSession_PHSR_InvalidOptionWritesNothing(t *testing.T) {
	tr := newScripted("OKAY")
	s := New(tr)

	_, err := s.PortHandleStatus("07")
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Empty(t, tr.Writes())
	assert.Equal(t, StateUninitialized, s.State())
	assert.Equal(t, uint64(1), s.Statistics().Snapshot().Rejected)
}

func TestSession_PHSR_FilteredKeepsHandleTable(t *testing.T) {
	tr := newScripted("OKAY", "020A0310B0016ED3", "010A031ECFD")
	s := New(tr)
	require.NoError(t, s.Init())

	_, err := s.PortHandleStatus("")
	require.NoError(t, err)
	require.Len(t, s.PortHandles(), 2)

	entries, err := s.PortHandleStatus("04")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Len(t, s.PortHandles(), 2)
}

func TestSession_PortHandlesIsACopy(t *testing.T) {
	s := New(newScripted("OKAY", "010A001C1B5"))
	require.NoError(t, s.Init())
	_, err := s.PortHandleStatus("")
	require.NoError(t, err)

	handles := s.PortHandles()
	handles[0].Handle = "FF"
	assert.Equal(t, "0A", s.PortHandles()[0].Handle)
}

// ============================================================
// Other commands
// ============================================================

func TestSession_BeepInvalidWritesNothing(t *testing.T) {
	tr := newScripted("OKAY")
	s := New(tr)

	err := s.Beep(0)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Empty(t, tr.Writes())
}

func TestSession_LED(t *testing.T) {
	tr := newScripted("OKAY")
	s := New(tr)
	require.NoError(t, s.LED("0a", 2, "s"))
	assert.Equal(t, []string{"LED 0A2S\r"}, tr.Writes())
}

func TestSession_Echo(t *testing.T) {
	tr := newScripted("HELLO24CA")
	s := New(tr)

	out, err := s.Echo("HELLO")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", out)
	assert.Equal(t, []string{"ECHO HELLO\r"}, tr.Writes())
}

func TestSession_VerAndAPIRev(t *testing.T) {
	tr := newScripted("Aurora 1.2.3ABCD", "G.001.005E9A1")
	s := New(tr)

	ver, err := s.Ver(4)
	require.NoError(t, err)
	assert.Equal(t, "Aurora 1.2.3", ver)

	rev, err := s.APIRev()
	require.NoError(t, err)
	assert.Equal(t, "G.001.005", rev)
	assert.Equal(t, []string{"VER 4\r", "APIREV \r"}, tr.Writes())
}

func TestSession_Reset(t *testing.T) {
	tr := newScripted("OKAY", "010A001C1B5", "RESETBE6F")
	s := New(tr)

	_, err := s.PortHandleStatus("")
	require.NoError(t, err)
	require.NoError(t, s.Reset())
	assert.Equal(t, StateUninitialized, s.State())
	assert.Empty(t, s.PortHandles())
	assert.Equal(t, "RESET EFFF\r", tr.Writes()[2])
}

func TestSession_ResetUnexpectedData(t *testing.T) {
	s := New(newScripted("OKAY", "HELLO24CA"))
	require.NoError(t, s.Init())
	err := s.Reset()
	assert.ErrorIs(t, err, ErrMalformedReply)
	assert.Equal(t, StateInitialized, s.State())
}

func TestSession_CommSwitchesHostBaud(t *testing.T) {
	tr := &baudTransport{scriptedTransport: newScripted("OKAY")}
	s := New(tr)

	settings := DefaultCommSettings()
	settings.BaudRate = "5"
	require.NoError(t, s.Comm(settings))
	assert.Equal(t, 115200, tr.baud)
	assert.Equal(t, []string{"COMM 50000\r"}, tr.Writes())
}

func TestSession_CommErrorKeepsHostBaud(t *testing.T) {
	tr := &baudTransport{scriptedTransport: newScripted("ERROR04")}
	s := New(tr)

	settings := DefaultCommSettings()
	settings.BaudRate = "5"
	assert.Error(t, s.Comm(settings))
	assert.Equal(t, 0, tr.baud)
}

func TestSession_CommOverStreamWithoutBaudSupport(t *testing.T) {
	stream := newPlainStream("OKAYA896\r")
	s := New(NewStreamTransport(stream))

	settings := DefaultCommSettings()
	settings.BaudRate = "5"
	require.NoError(t, s.Comm(settings))
	assert.Equal(t, "COMM 50000\r", stream.out.String())
}

type failingBaudTransport struct {
	*scriptedTransport
}

func (t *failingBaudTransport) SetBaudRate(baud int) error {
	return errors.New("ioctl failed")
}

func TestSession_CommBaudFailureIsTransportError(t *testing.T) {
	s := New(&failingBaudTransport{scriptedTransport: newScripted("OKAY")})

	settings := DefaultCommSettings()
	settings.BaudRate = "5"
	err := s.Comm(settings)
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "set baud rate", tErr.Op)
}

func TestSession_SendRawCommSwitchesHostBaud(t *testing.T) {
	tr := &baudTransport{scriptedTransport: newScripted("OKAY", "OKAY")}
	s := New(tr)

	r, err := s.SendRaw("COMM 60000")
	require.NoError(t, err)
	assert.Equal(t, ReplyOkay, r.Kind)
	assert.Equal(t, 921600, tr.baud)

	// An invalid baud code is left for the device to reject
	_, err = s.SendRaw("COMM 90000")
	require.NoError(t, err)
	assert.Equal(t, 921600, tr.baud)
}

func TestSession_NotImplemented(t *testing.T) {
	tr := newScripted()
	s := New(tr)

	calls := map[string]error{
		CmdBX:          s.BX("0801"),
		CmdTX:          s.TX("0801"),
		CmdPEna:        s.PEna("0A", "D"),
		CmdPInit:       s.PInit("0A"),
		CmdSerialBreak: s.SerialBreak(),
	}
	for keyword, err := range calls {
		assert.ErrorIs(t, err, ErrNotImplemented, keyword)
		var niErr *NotImplementedError
		require.True(t, errors.As(err, &niErr))
		assert.Equal(t, keyword, niErr.Command)
		assert.True(t, IsUnimplemented(keyword))
	}
	assert.Empty(t, tr.Writes())
	assert.False(t, IsUnimplemented(CmdInit))
}

// ============================================================
// Checksums
// ============================================================

func TestSession_AlgorithmBChainsAcrossCommands(t *testing.T) {
	tr := newScripted("OKAY", "OKAY")
	s := New(tr, WithChecksum(AlgorithmB, 0), WithChecksumAll(true))

	require.NoError(t, s.Init())
	require.NoError(t, s.Beep(1))
	assert.Equal(t, []string{"INIT 2824\r", "BEEP 10669\r"}, tr.Writes())
	assert.Equal(t, uint16(0x0669), s.ChecksumAccumulator())
}

func TestSession_AlgorithmBRejectedCommandKeepsAccumulator(t *testing.T) {
	tr := newScripted("OKAY")
	s := New(tr, WithChecksum(AlgorithmB, 0), WithChecksumAll(true))

	require.NoError(t, s.Init())
	require.Error(t, s.Beep(12))
	assert.Equal(t, uint16(0x2824), s.ChecksumAccumulator())
}

func TestSession_ResetRestoresAccumulator(t *testing.T) {
	tr := newScripted("OKAY", "RESETBE6F")
	s := New(tr, WithChecksum(AlgorithmB, 0xFFFF))

	require.NoError(t, s.Init())
	require.NoError(t, s.Reset())
	assert.Equal(t, "RESET EFFF\r", tr.Writes()[1])
	assert.Equal(t, uint16(0xFFFF), s.ChecksumAccumulator())
}

func TestSession_VerifyReplies(t *testing.T) {
	s := New(newScripted("OKAY0000", "OKAYA896"), WithReplyVerification(true))

	err := s.Init()
	assert.ErrorIs(t, err, ErrChecksumMismatch)
	assert.Equal(t, StateUninitialized, s.State())

	require.NoError(t, s.Init())
	stats := s.Statistics().Snapshot()
	assert.Equal(t, uint64(1), stats.ChecksumErrors)
	assert.Equal(t, uint64(1), stats.OkayReplies)
}

// ============================================================
// Raw commands
// ============================================================

func TestSession_SendRawUpdatesState(t *testing.T) {
	tr := newScripted("OKAY", "010A001C1B5", "OKAY", "RESETBE6F")
	s := New(tr)

	r, err := s.SendRaw("INIT ")
	require.NoError(t, err)
	assert.Equal(t, ReplyOkay, r.Kind)
	assert.Equal(t, StateInitialized, s.State())

	r, err = s.SendRaw("PHSR 00")
	require.NoError(t, err)
	assert.Equal(t, ReplyStatusList, r.Kind)
	assert.Len(t, s.PortHandles(), 1)

	_, err = s.SendRaw("tstart ")
	require.NoError(t, err)
	assert.Equal(t, StateTracking, s.State())

	r, err = s.SendRaw("RESET")
	require.NoError(t, err)
	assert.Equal(t, ReplyData, r.Kind)
	assert.Equal(t, StateUninitialized, s.State())
	assert.Empty(t, s.PortHandles())

	assert.Equal(t, []string{"INIT \r", "PHSR 00\r", "tstart \r", "RESET\r"}, tr.Writes())
}

func TestSession_SendRawDeviceError(t *testing.T) {
	s := New(newScripted("ERROR01"))
	r, err := s.SendRaw("BOGUS")
	require.NotNil(t, r)
	assert.Equal(t, ReplyError, r.Kind)
	assert.True(t, IsDeviceError(err))
}

// ============================================================
// Transport and lifecycle
// ============================================================

func TestSession_ReadErrorIsTransportError(t *testing.T) {
	tr := newScripted()
	tr.readErr = ErrReadTimeout
	s := New(tr)

	err := s.Init()
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "read", tErr.Op)
	assert.ErrorIs(t, err, ErrReadTimeout)
	assert.Equal(t, StateUninitialized, s.State())
	assert.Equal(t, uint64(1), s.Statistics().Snapshot().TransportErrors)
}

func TestSession_CloseOnce(t *testing.T) {
	tr := newScripted("OKAY")
	s := New(tr)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, tr.closes)

	assert.ErrorIs(t, s.Init(), ErrSessionClosed)
	assert.Empty(t, tr.Writes())
}

func TestSession_DebugTrace(t *testing.T) {
	var buf bytes.Buffer
	s := New(newScripted("OKAY"), WithDebug(&buf))
	assert.True(t, s.Debug())

	require.NoError(t, s.Init())
	assert.Contains(t, buf.String(), "INIT <CR>")
	assert.Contains(t, buf.String(), "OKAY")

	s.SetDebug(false)
	buf.Reset()
	assert.False(t, s.Debug())
}

func TestSession_LoggerReceivesEvents(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	s := New(newScripted("ERROR0C"), WithLogger(log))

	require.Error(t, s.Init())
	assert.Contains(t, buf.String(), `"component":"aurora"`)
	assert.Contains(t, buf.String(), "device error")
}

func TestSession_ConcurrentCommandsAreSerialised(t *testing.T) {
	const n = 20
	replies := make([]string, n)
	for i := range replies {
		replies[i] = "OKAY"
	}
	tr := newScripted(replies...)
	s := New(tr)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return s.Beep(1)
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, tr.Writes(), n)
	assert.Equal(t, uint64(n), s.Statistics().Snapshot().OkayReplies)
}
