// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import (
	"errors"
	"strconv"
	"strings"
)

// ReplyKind classifies a reply frame.
type ReplyKind int

// Reply kinds
const (
	ReplyOkay ReplyKind = iota
	ReplyError
	ReplyStatusList
	ReplyData
)

// String returns the reply kind name
func (k ReplyKind) String() string {
	switch k {
	case ReplyOkay:
		return "OKAY"
	case ReplyError:
		return "ERROR"
	case ReplyStatusList:
		return "STATUS_LIST"
	case ReplyData:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// PortHandleEntry is one handle/status pair from a PHSR reply.
type PortHandleEntry struct {
	Handle string
	Status string
}

// Decode decodes the entry's status code.
func (e PortHandleEntry) Decode() (PortStatus, error) {
	return DecodePortStatus(e.Status)
}

// Reply is a parsed reply frame. Which fields are set depends on Kind.
type Reply struct {
	Kind ReplyKind
	Raw  string

	// ReplyError
	Codes []ErrorCode

	// ReplyStatusList
	Count   int
	Entries []PortHandleEntry

	// ReplyData
	Data string

	// Checksum is the trailing 4-hex-digit field, empty if absent.
	Checksum string
}

// Parse classifies a reply with the terminator already stripped (a single
// trailing CR is tolerated). Classification uses only the OKAY and ERROR
// prefixes; anything else is decoded as a PHSR-style status list.
func Parse(raw []byte) (*Reply, error) {
	s := trimTerminator(raw)

	switch {
	case strings.HasPrefix(s, PrefixError):
		return parseError(s)
	case strings.HasPrefix(s, PrefixOkay):
		return parseOkay(s)
	default:
		return parseStatusList(s)
	}
}

// ParseData is Parse for commands whose success reply is free text
// (ECHO, VER, APIREV). ERROR replies are handled exactly as in Parse;
// anything else becomes a ReplyData frame.
func ParseData(raw []byte) (*Reply, error) {
	s := trimTerminator(raw)
	if strings.HasPrefix(s, PrefixError) {
		return parseError(s)
	}
	if len(s) < ChecksumLen {
		return nil, truncated(s, "data reply shorter than its checksum")
	}
	split := len(s) - ChecksumLen
	crc := s[split:]
	if !isHex(crc) {
		return nil, malformed(s, "checksum %q is not hex", crc)
	}
	return &Reply{Kind: ReplyData, Raw: s, Data: s[:split], Checksum: crc}, nil
}

// ParseAny parses raw as a structured reply, falling back to ParseData
// for replies that are neither OKAY, ERROR nor a status list.
func ParseAny(raw []byte) (*Reply, error) {
	r, err := Parse(raw)
	if errors.Is(err, ErrMalformedReply) || errors.Is(err, ErrTruncatedReply) {
		if dr, derr := ParseData(raw); derr == nil {
			return dr, nil
		}
	}
	return r, err
}

func parseOkay(s string) (*Reply, error) {
	rest := s[len(PrefixOkay):]
	if rest != "" && (len(rest) != ChecksumLen || !isHex(rest)) {
		return nil, malformed(s, "unexpected data %q after OKAY", rest)
	}
	return &Reply{Kind: ReplyOkay, Raw: s, Checksum: rest}, nil
}

// parseError splits ERROR<codes>[<checksum>]. A remainder too short to hold
// a code and a checksum is read as codes only.
func parseError(s string) (*Reply, error) {
	rest := s[len(PrefixError):]
	if rest == "" {
		return nil, truncated(s, "ERROR without error code")
	}

	codes, crc := rest, ""
	if len(rest) >= ErrorCodeLen+ChecksumLen {
		split := len(rest) - ChecksumLen
		codes, crc = rest[:split], rest[split:]
		if !isHex(crc) {
			return nil, malformed(s, "checksum %q is not hex", crc)
		}
	}
	if len(codes)%ErrorCodeLen != 0 {
		return nil, truncated(s, "error codes %q are not whole %d-character pairs", codes, ErrorCodeLen)
	}

	r := &Reply{Kind: ReplyError, Raw: s, Checksum: crc}
	for i := 0; i < len(codes); i += ErrorCodeLen {
		r.Codes = append(r.Codes, LookupErrorCode(codes[i:i+ErrorCodeLen]))
	}
	return r, nil
}

// parseStatusList decodes <count><handle><status>{count}<checksum>.
func parseStatusList(s string) (*Reply, error) {
	if s == "" {
		return nil, truncated(s, "empty reply")
	}
	if len(s) < CountLen {
		return nil, truncated(s, "reply shorter than the handle count")
	}
	count, err := strconv.ParseUint(s[:CountLen], 16, 8)
	if err != nil {
		return nil, malformed(s, "handle count %q is not hex", s[:CountLen])
	}

	want := CountLen + int(count)*HandleRecordLen + ChecksumLen
	if len(s) < want {
		return nil, truncated(s, "%d handles need %d characters, got %d", count, want, len(s))
	}
	if len(s) > want {
		return nil, malformed(s, "%d unexpected trailing characters", len(s)-want)
	}

	r := &Reply{
		Kind:    ReplyStatusList,
		Raw:     s,
		Count:   int(count),
		Entries: make([]PortHandleEntry, 0, count),
	}
	seen := make(map[string]bool, count)
	off := CountLen
	for i := 0; i < int(count); i++ {
		handle := strings.ToUpper(s[off : off+HandleLen])
		status := strings.ToUpper(s[off+HandleLen : off+HandleRecordLen])
		if _, err := ParsePortHandle(handle); err != nil {
			return nil, malformed(s, "entry %d: %v", i, err)
		}
		if !isHex(status) {
			return nil, malformed(s, "entry %d: status %q is not hex", i, status)
		}
		if seen[handle] {
			return nil, malformed(s, "entry %d: duplicate port handle %s", i, handle)
		}
		seen[handle] = true
		r.Entries = append(r.Entries, PortHandleEntry{Handle: handle, Status: status})
		off += HandleRecordLen
	}

	r.Checksum = s[off:]
	if !isHex(r.Checksum) {
		return nil, malformed(s, "checksum %q is not hex", r.Checksum)
	}
	return r, nil
}

// VerifyChecksum checks the trailing checksum against the reply body.
// Replies without a checksum field pass.
func (r *Reply) VerifyChecksum() error {
	if r.Checksum == "" {
		return nil
	}
	body := r.Raw[:len(r.Raw)-len(r.Checksum)]
	crc, err := ReplyChecksum(body)
	if err != nil {
		return err
	}
	if want := FormatChecksum(crc); !strings.EqualFold(want, r.Checksum) {
		return &FrameError{
			Kind:   ErrChecksumMismatch,
			Raw:    r.Raw,
			Reason: "expected " + want + ", got " + r.Checksum,
		}
	}
	return nil
}

// Err converts an ERROR reply into a *DeviceError; other kinds return nil.
func (r *Reply) Err(command string) error {
	if r.Kind != ReplyError {
		return nil
	}
	return &DeviceError{Command: command, Raw: r.Raw, Codes: r.Codes}
}

func trimTerminator(raw []byte) string {
	s := string(raw)
	if n := len(s); n > 0 && s[n-1] == Terminator {
		s = s[:n-1]
	}
	return s
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
