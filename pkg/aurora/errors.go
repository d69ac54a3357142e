// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is
var (
	ErrMalformedReply   = errors.New("malformed reply")
	ErrTruncatedReply   = errors.New("truncated reply")
	ErrChecksumMismatch = errors.New("reply checksum mismatch")
	ErrNotImplemented   = errors.New("command not implemented")
	ErrReadTimeout      = errors.New("read timeout before terminator")
	ErrSessionClosed    = errors.New("session closed")
	ErrNotInitialized   = errors.New("device is not initialized")

	// ErrBaudRateUnsupported is returned by BaudRateSetter wrappers whose
	// underlying stream has no line speed.
	ErrBaudRateUnsupported = errors.New("transport cannot change baud rate")
)

// ValidationError reports a parameter rejected before transmission.
type ValidationError struct {
	Command string
	Param   string
	Value   string
	Valid   []string
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	if v.Message != "" {
		return fmt.Sprintf("%s: invalid %s %q: %s", v.Command, v.Param, v.Value, v.Message)
	}
	return fmt.Sprintf("%s: invalid %s %q (valid: %s)",
		v.Command, v.Param, v.Value, strings.Join(v.Valid, ", "))
}

// EncodingError reports a non-ASCII byte in command text.
type EncodingError struct {
	Offset int
	Byte   byte
}

// Error implements the error interface
func (e *EncodingError) Error() string {
	return fmt.Sprintf("non-ASCII byte 0x%02X at offset %d", e.Byte, e.Offset)
}

// TransportError wraps a write, read or close failure.
type TransportError struct {
	Op      string // "write", "read" or "close"
	Command string
	Err     error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport %s (%s): %v", e.Op, e.Command, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FrameError reports a reply that does not match any known frame shape.
// Kind is one of ErrMalformedReply, ErrTruncatedReply or ErrChecksumMismatch.
type FrameError struct {
	Kind   error
	Raw    string
	Reason string
}

// Error implements the error interface
func (e *FrameError) Error() string {
	return fmt.Sprintf("%v: %s (reply %q)", e.Kind, e.Reason, e.Raw)
}

func (e *FrameError) Unwrap() error {
	return e.Kind
}

func malformed(raw, format string, args ...interface{}) *FrameError {
	return &FrameError{Kind: ErrMalformedReply, Raw: raw, Reason: fmt.Sprintf(format, args...)}
}

func truncated(raw, format string, args ...interface{}) *FrameError {
	return &FrameError{Kind: ErrTruncatedReply, Raw: raw, Reason: fmt.Sprintf(format, args...)}
}

// MalformedStatusError reports a port status code that is not 3 hex digits.
type MalformedStatusError struct {
	Code string
}

// Error implements the error interface
func (e *MalformedStatusError) Error() string {
	return fmt.Sprintf("malformed port status %q (want %d hex digits)", e.Code, StatusCodeLen)
}

// DeviceError is returned when the device answers with ERROR.
type DeviceError struct {
	Command string
	Raw     string
	Codes   []ErrorCode
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	parts := make([]string, len(e.Codes))
	for i, c := range e.Codes {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%s: device error: %s", e.Command, strings.Join(parts, "; "))
}

// HasCode reports whether code is among the returned codes.
func (e *DeviceError) HasCode(code string) bool {
	for _, c := range e.Codes {
		if strings.EqualFold(c.Code, code) {
			return true
		}
	}
	return false
}

// NotImplementedError marks a protocol command that exists but has no wire
// behavior here.
type NotImplementedError struct {
	Command string
}

// Error implements the error interface
func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, ErrNotImplemented)
}

// Is matches ErrNotImplemented
func (e *NotImplementedError) Is(target error) bool {
	return target == ErrNotImplemented
}

// StateError reports a command issued in a state that does not allow it.
type StateError struct {
	Command string
	State   State
	Err     error
}

// Error implements the error interface
func (e *StateError) Error() string {
	return fmt.Sprintf("%s not allowed in state %s: %v", e.Command, e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// IsDeviceError returns true if err is or wraps a *DeviceError.
func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}
