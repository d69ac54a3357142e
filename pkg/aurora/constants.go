// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package aurora implements the host side of the NDI Aurora serial protocol.
//
// Aurora is an ASCII command/reply protocol. Every command is a CR-terminated
// line and the device answers each one with exactly one CR-terminated reply:
// OKAY, ERROR followed by two-character error codes, or a structured status
// frame such as the PHSR port handle list. This package provides the command
// codec, checksum engine, reply parser, port status decoder and a Session
// that serialises request/reply exchanges over a Transport.
package aurora

// Framing
const (
	Terminator = '\r'

	ChecksumLen   = 4
	ErrorCodeLen  = 2
	HandleLen     = 2
	StatusCodeLen = 3
	CountLen      = 2

	// HandleRecordLen is one PHSR entry: handle followed by status code.
	HandleRecordLen = HandleLen + StatusCodeLen
)

// Reply prefixes
const (
	PrefixOkay  = "OKAY"
	PrefixError = "ERROR"
)

// Checksum configuration
const (
	crcPolynomialA = 0xA001
	crcInitialA    = 0xFFFF
	crcParityXor   = 0xC001

	// ReplyChecksumSeed is the accumulator value the device starts from when
	// checksumming a reply.
	ReplyChecksumSeed = 0x0000
)

// Command keywords
const (
	CmdAPIRev = "APIREV"
	CmdBeep   = "BEEP"
	CmdBX     = "BX"
	CmdComm   = "COMM"
	CmdDStart = "DSTART"
	CmdDStop  = "DSTOP"
	CmdEcho   = "ECHO"
	CmdGet    = "GET"
	CmdInit   = "INIT"
	CmdLED    = "LED"
	CmdPDis   = "PDIS"
	CmdPEna   = "PENA"
	CmdPHF    = "PHF"
	CmdPHInf  = "PHINF"
	CmdPHSR   = "PHSR"
	CmdPInit  = "PINIT"
	CmdPPRD   = "PPRD"
	CmdPPWR   = "PPWR"
	CmdPSel   = "PSEL"
	CmdPSOut  = "PSOUT"
	CmdPSrch  = "PSRCH"
	CmdPURD   = "PURD"
	CmdPUWR   = "PUWR"
	CmdPVWR   = "PVWR"
	CmdReset  = "RESET"
	CmdSet    = "SET"
	CmdSFList = "SFLIST"
	CmdTStart = "TSTART"
	CmdTStop  = "TSTOP"
	CmdTTCfg  = "TTCFG"
	CmdTX     = "TX"
	CmdVer    = "VER"
	CmdVSel   = "VSEL"

	// CmdSerialBreak is not a text command; the device resets on a serial
	// break condition.
	CmdSerialBreak = "BREAK"
)

// Port handle range
const (
	MinPortHandle = 0x0A
	MaxPortHandle = 0xFF
)

// MinEchoLen is the shortest payload ECHO accepts.
const MinEchoLen = 4

// State is the session state machine position.
type State int

// Session states
const (
	StateUninitialized State = iota
	StateInitialized
	StateTracking
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateInitialized:
		return "INITIALIZED"
	case StateTracking:
		return "TRACKING"
	default:
		return "UNKNOWN"
	}
}
