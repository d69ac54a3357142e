// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// parseFunc is Parse or ParseData.
type parseFunc func([]byte) (*Reply, error)

// Session owns the protocol state for one connection to the device.
//
// The device is strictly half duplex, so every exported method holds the
// session lock for the full write/read exchange. Session is safe for
// concurrent use; callers are serialised.
type Session struct {
	mu sync.Mutex

	transport Transport
	config    Config
	encoder   *Encoder
	stats     *Statistics
	log       zerolog.Logger

	state   State
	handles []PortHandleEntry
	crc     uint16 // AlgorithmB running accumulator

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// New creates a Session over t. The session takes responsibility for
// closing t.
//
// Example:
//
//	s := aurora.New(aurora.NewStreamTransport(port),
//	    aurora.WithChecksum(aurora.AlgorithmB, 0),
//	    aurora.WithLogger(log),
//	)
//	defer s.Close()
func New(t Transport, opts ...Option) *Session {
	if t == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Debug && cfg.Trace == nil {
		cfg.Trace = os.Stderr
	}

	s := &Session{
		transport: t,
		config:    cfg,
		stats:     cfg.Statistics,
		log:       cfg.Logger.With().Str("component", "aurora").Logger(),
		state:     StateUninitialized,
		crc:       cfg.InitialChecksum,
	}
	if s.stats == nil {
		s.stats = NewStatistics()
	}
	s.encoder = &Encoder{
		Algorithm:   cfg.Algorithm,
		Accumulator: &s.crc,
		ChecksumAll: cfg.ChecksumAll,
	}
	return s
}

// State returns the current state machine position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PortHandles returns a copy of the handles from the last enumeration.
func (s *Session) PortHandles() []PortHandleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PortHandleEntry, len(s.handles))
	copy(out, s.handles)
	return out
}

// ChecksumAccumulator returns the AlgorithmB running value.
func (s *Session) ChecksumAccumulator() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crc
}

// Statistics returns the session's statistics tracker.
func (s *Session) Statistics() *Statistics {
	return s.stats
}

// Debug reports whether the trace is enabled.
func (s *Session) Debug() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Debug
}

// SetDebug turns the trace on or off. With no trace writer configured the
// trace goes to stderr.
func (s *Session) SetDebug(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Debug = enabled
	if enabled && s.config.Trace == nil {
		s.config.Trace = os.Stderr
	}
}

// Close releases the transport. It is safe to call more than once and
// always closes the transport, whatever happened to earlier commands.
// Close does not wait for the session lock, so it also unblocks a read
// stuck waiting for a terminator.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if err := s.transport.Close(); err != nil {
			s.closeErr = &TransportError{Op: "close", Err: err}
		}
		s.log.Debug().Msg("session closed")
	})
	return s.closeErr
}

// exchange encodes c, writes it, reads one reply and parses it. On an
// ERROR reply both the reply and a *DeviceError are returned. The caller
// must hold s.mu.
func (s *Session) exchange(c *Command, parse parseFunc) (*Reply, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}

	wire, err := s.encoder.Encode(c)
	if err != nil {
		s.stats.Update(false, nil, err)
		s.log.Warn().Err(err).Str("command", c.Keyword).Msg("command rejected")
		return nil, err
	}
	text := strings.TrimSuffix(string(wire), "\r")

	s.log.Debug().Str("command", text).Msg("send")
	s.trace(FormatTraceCommand(time.Now(), wire))

	if _, err := s.transport.Write(wire); err != nil {
		err = &TransportError{Op: "write", Command: text, Err: err}
		s.stats.Update(true, nil, err)
		s.log.Warn().Err(err).Msg("write failed")
		return nil, err
	}

	raw, err := s.transport.ReadUntil(Terminator)
	if err != nil {
		err = &TransportError{Op: "read", Command: text, Err: err}
		s.stats.Update(true, nil, err)
		s.log.Warn().Err(err).Msg("read failed")
		return nil, err
	}
	s.log.Debug().Str("command", text).Str("reply", string(raw)).Msg("receive")

	r, err := parse(raw)
	if err == nil && s.config.VerifyReplies {
		err = r.VerifyChecksum()
		if err != nil {
			r = nil
		}
	}
	if err != nil {
		s.trace(FormatTraceReply(time.Now(), raw, nil, err))
		s.stats.Update(true, nil, err)
		s.log.Warn().Err(err).Str("command", text).Msg("bad reply")
		return nil, err
	}

	err = r.Err(text)
	s.trace(FormatTraceReply(time.Now(), raw, r, err))
	s.stats.Update(true, r, err)
	if err != nil {
		codes := make([]string, len(r.Codes))
		for i, c := range r.Codes {
			codes[i] = c.Code
		}
		s.log.Warn().Str("command", text).Strs("codes", codes).Msg("device error")
		return r, err
	}
	return r, nil
}

// expect runs exchange and checks the reply kind.
func (s *Session) expect(c *Command, parse parseFunc, kind ReplyKind) (*Reply, error) {
	r, err := s.exchange(c, parse)
	if err != nil {
		return r, err
	}
	if r.Kind != kind {
		return r, malformed(r.Raw, "expected %s reply to %s, got %s", kind, c.Keyword, r.Kind)
	}
	return r, nil
}

func (s *Session) trace(line string) {
	if s.config.Debug && s.config.Trace != nil {
		fmt.Fprint(s.config.Trace, line)
	}
}

func (s *Session) setState(next State, reason string) {
	if s.state == next {
		return
	}
	s.log.Debug().Str("from", s.state.String()).Str("to", next.String()).Str("on", reason).Msg("state change")
	s.state = next
}

func (s *Session) setHandles(entries []PortHandleEntry) {
	s.handles = make([]PortHandleEntry, len(entries))
	copy(s.handles, entries)
	s.log.Debug().Int("count", len(entries)).Msg("port handles replaced")
}

// applyOkay performs the state change a successful reply to keyword causes.
func (s *Session) applyOkay(keyword string, r *Reply) {
	switch keyword {
	case CmdInit:
		s.setState(StateInitialized, keyword)
	case CmdTStart:
		s.setState(StateTracking, keyword)
	case CmdTStop:
		s.setState(StateInitialized, keyword)
	case CmdReset:
		s.setState(StateUninitialized, keyword)
		s.handles = nil
		s.crc = s.config.InitialChecksum
	case CmdPHSR:
		if r != nil && r.Kind == ReplyStatusList {
			s.setHandles(r.Entries)
		}
	}
}

// Init sends INIT and moves to the initialized state on OKAY.
func (s *Session) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.init()
}

func (s *Session) init() error {
	r, err := s.expect(NewInitCommand(), Parse, ReplyOkay)
	if err != nil {
		return err
	}
	s.applyOkay(CmdInit, r)
	return nil
}

// Beep sounds the system beeper count times (1-9).
func (s *Session) Beep(count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.expect(NewBeepCommand(count), Parse, ReplyOkay)
	return err
}

// Comm changes the serial settings. After OKAY the host side is switched
// to the new baud rate if the transport supports it.
func (s *Session) Comm(settings CommSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.expect(NewCommCommand(settings), Parse, ReplyOkay); err != nil {
		return err
	}

	return s.followBaudRate(settings.BaudRate)
}

// followBaudRate switches the host side to the baud rate selected by code
// after the device accepted COMM.
func (s *Session) followBaudRate(code string) error {
	baud, _ := BaudRate(code)
	setter, ok := s.transport.(BaudRateSetter)
	if !ok {
		s.log.Info().Int("baud", baud).Msg("device switched baud rate; transport cannot follow")
		return nil
	}
	// The device applies new settings after sending OKAY.
	time.Sleep(100 * time.Millisecond)
	if err := setter.SetBaudRate(baud); err != nil {
		if errors.Is(err, ErrBaudRateUnsupported) {
			s.log.Info().Int("baud", baud).Msg("device switched baud rate; transport cannot follow")
			return nil
		}
		return &TransportError{Op: "set baud rate", Command: CmdComm, Err: err}
	}
	s.log.Debug().Int("baud", baud).Msg("host baud rate changed")
	return nil
}

// Echo sends text and returns what the device echoed.
func (s *Session) Echo(text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.expect(NewEchoCommand(text), ParseData, ReplyData)
	if err != nil {
		return "", err
	}
	return r.Data, nil
}

// LED sets LED led (1-3) on the tool at handle to state B, F or S.
func (s *Session) LED(handle string, led int, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.expect(NewLEDCommand(handle, led, state), Parse, ReplyOkay)
	return err
}

// PortHandleStatus sends PHSR and returns the port handle entries. From the
// uninitialized state INIT is sent first when auto-init is enabled.
//
// The default form (option "" or "00") lists every allocated handle and
// replaces the session's handle table; filtered options leave it alone.
func (s *Session) PortHandleStatus(option string) ([]PortHandleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := NewPHSRCommand(option)
	if err := c.Validate(); err != nil {
		s.stats.Update(false, nil, err)
		return nil, err
	}

	if s.state == StateUninitialized {
		if !s.config.AutoInit {
			return nil, &StateError{Command: CmdPHSR, State: s.state, Err: ErrNotInitialized}
		}
		s.log.Debug().Msg("auto-init before PHSR")
		if err := s.init(); err != nil {
			return nil, fmt.Errorf("auto-init: %w", err)
		}
	}

	r, err := s.expect(c, Parse, ReplyStatusList)
	if err != nil {
		return nil, err
	}
	if option == "" || option == "00" {
		s.applyOkay(CmdPHSR, r)
	}
	out := make([]PortHandleEntry, len(r.Entries))
	copy(out, r.Entries)
	return out, nil
}

// TStart starts tracking mode.
func (s *Session) TStart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.expect(NewTStartCommand(), Parse, ReplyOkay)
	if err != nil {
		return err
	}
	s.applyOkay(CmdTStart, r)
	return nil
}

// TStop stops tracking mode.
func (s *Session) TStop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.expect(NewTStopCommand(), Parse, ReplyOkay)
	if err != nil {
		return err
	}
	s.applyOkay(CmdTStop, r)
	return nil
}

// Ver returns the firmware revision text for reply option 0, 4, 5, 7 or 8.
func (s *Session) Ver(option int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.expect(NewVerCommand(option), ParseData, ReplyData)
	if err != nil {
		return "", err
	}
	return r.Data, nil
}

// APIRev returns the API revision string.
func (s *Session) APIRev() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.expect(NewAPIRevCommand(), ParseData, ReplyData)
	if err != nil {
		return "", err
	}
	return r.Data, nil
}

// Reset resets the device. The device answers "RESET" rather than OKAY.
// The session returns to the uninitialized state with no port handles.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.expect(NewResetCommand(), ParseData, ReplyData)
	if err != nil {
		return err
	}
	if r.Data != CmdReset && r.Data != PrefixOkay {
		return malformed(r.Raw, "expected RESET reply, got %q", r.Data)
	}
	s.applyOkay(CmdReset, r)
	return nil
}

// SendRaw sends text verbatim (plus any session-wide checksum) and parses
// the reply structurally. Replies that are neither OKAY, ERROR nor a
// status list come back as ReplyData. Known keywords update session state
// the same way their dedicated methods do, including the host baud change
// after COMM.
func (s *Session) SendRaw(text string) (*Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.exchange(NewRawCommand(text), ParseAny)
	if err != nil {
		return r, err
	}
	keyword := rawKeyword(text)
	switch {
	case keyword == CmdReset && r.Kind == ReplyData && r.Data == CmdReset:
		s.applyOkay(keyword, r)
	case keyword == CmdComm && r.Kind == ReplyOkay:
		if code := rawParams(text, keyword); code != "" {
			if _, ok := BaudRate(code[:1]); ok {
				return r, s.followBaudRate(code[:1])
			}
		}
	case keyword == CmdPHSR && r.Kind == ReplyStatusList:
		if opt := rawParams(text, keyword); opt == "" || opt == "00" {
			s.applyOkay(keyword, r)
		}
	case r.Kind == ReplyOkay:
		s.applyOkay(keyword, r)
	}
	return r, nil
}

// rawParams returns the text following keyword in raw command text.
func rawParams(text, keyword string) string {
	return strings.TrimSpace(strings.TrimSpace(text)[len(keyword):])
}

// rawKeyword extracts the upper-cased command keyword from raw text.
func rawKeyword(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, " :"); i >= 0 {
		text = text[:i]
	}
	return strings.ToUpper(text)
}
