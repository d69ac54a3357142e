// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import (
	"io"

	"github.com/rs/zerolog"
)

// Config holds the session configuration.
type Config struct {
	// Algorithm is used for every command checksum.
	Algorithm Algorithm

	// InitialChecksum seeds the AlgorithmB accumulator.
	InitialChecksum uint16

	// ChecksumAll appends a checksum to every command.
	ChecksumAll bool

	// AutoInit sends INIT before PHSR when the session is uninitialized.
	AutoInit bool

	// VerifyReplies checks each reply's trailing checksum.
	VerifyReplies bool

	// Debug enables the human-readable trace written to Trace.
	Debug bool
	Trace io.Writer

	Logger     zerolog.Logger
	Statistics *Statistics
}

func defaultConfig() Config {
	return Config{
		Algorithm:       AlgorithmA,
		InitialChecksum: ReplyChecksumSeed,
		AutoInit:        true,
		Logger:          zerolog.Nop(),
	}
}

// Option is a functional option for configuring the Session.
type Option func(*Config)

// WithChecksum selects the command checksum algorithm and, for AlgorithmB,
// the initial accumulator value.
//
// Example:
//
//	s := aurora.New(t, aurora.WithChecksum(aurora.AlgorithmB, 0x0000))
func WithChecksum(alg Algorithm, seed uint16) Option {
	return func(c *Config) {
		c.Algorithm = alg
		c.InitialChecksum = seed
	}
}

// WithChecksumAll appends a checksum to every command, not only RESET.
func WithChecksumAll(enabled bool) Option {
	return func(c *Config) {
		c.ChecksumAll = enabled
	}
}

// WithAutoInit controls whether PHSR from the uninitialized state sends
// INIT first. Default is true. When disabled PHSR returns a *StateError.
func WithAutoInit(enabled bool) Option {
	return func(c *Config) {
		c.AutoInit = enabled
	}
}

// WithReplyVerification checks the checksum on every reply. A mismatch is
// returned as a *FrameError wrapping ErrChecksumMismatch.
func WithReplyVerification(enabled bool) Option {
	return func(c *Config) {
		c.VerifyReplies = enabled
	}
}

// WithDebug writes a trace of every command and reply to w.
//
// Example:
//
//	s := aurora.New(t, aurora.WithDebug(os.Stderr))
func WithDebug(w io.Writer) Option {
	return func(c *Config) {
		c.Debug = w != nil
		c.Trace = w
	}
}

// WithLogger sets a zerolog logger for session events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithStatistics shares a statistics tracker with the session.
func WithStatistics(s *Statistics) Option {
	return func(c *Config) {
		c.Statistics = s
	}
}
