// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import (
	"fmt"
	"strconv"
	"strings"
)

// Param is one command parameter. Options, when set, is the closed set the
// value must come from; Check, when set, validates free-form values.
// Optional parameters with an empty value are left off the wire.
type Param struct {
	Name     string
	Value    string
	Options  *OptionSet
	Check    func(string) string
	Optional bool
}

// Command is a keyword plus its parameters, ready for encoding.
type Command struct {
	Keyword string

	// Params are concatenated with Separator between them. The device
	// syntax for every modeled command is concatenation (empty separator).
	Params    []Param
	Separator string

	// Checksum requests an appended checksum before the terminator.
	Checksum bool

	raw bool
}

// Text builds the command text without checksum or terminator.
func (c *Command) Text() string {
	if c.raw {
		return c.Keyword
	}
	values := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		if p.Optional && p.Value == "" {
			continue
		}
		values = append(values, p.Value)
	}
	return c.Keyword + " " + strings.Join(values, c.Separator)
}

// Validate checks every parameter against its option set or check
// function. The first failure is returned as a *ValidationError.
func (c *Command) Validate() error {
	for _, p := range c.Params {
		if p.Optional && p.Value == "" {
			continue
		}
		if p.Options != nil && !p.Options.Contains(p.Value) {
			return &ValidationError{
				Command: c.Keyword,
				Param:   p.Name,
				Value:   p.Value,
				Valid:   p.Options.Values(),
			}
		}
		if p.Check != nil {
			if msg := p.Check(p.Value); msg != "" {
				return &ValidationError{
					Command: c.Keyword,
					Param:   p.Name,
					Value:   p.Value,
					Message: msg,
				}
			}
		}
	}
	if strings.ContainsRune(c.Text(), Terminator) {
		return &ValidationError{
			Command: c.Keyword,
			Param:   "text",
			Value:   c.Text(),
			Message: "must not contain a carriage return",
		}
	}
	return nil
}

// Encoder turns commands into wire bytes.
//
// With AlgorithmB the accumulator is read as the seed and the result is
// written back through the pointer, so consecutive Encode calls chain.
type Encoder struct {
	Algorithm   Algorithm
	Accumulator *uint16

	// ChecksumAll appends a checksum to every command, not just the ones
	// that require it.
	ChecksumAll bool
}

// NewEncoder creates an encoder. acc may be nil when alg is AlgorithmA.
func NewEncoder(alg Algorithm, acc *uint16) *Encoder {
	return &Encoder{Algorithm: alg, Accumulator: acc}
}

// Encode validates c and returns "<text>[<checksum>]\r". Nothing is
// returned for an invalid command.
func (e *Encoder) Encode(c *Command) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	text := c.Text()
	if err := checkASCII([]byte(text)); err != nil {
		return nil, err
	}

	if c.Checksum || e.ChecksumAll {
		if e.Algorithm == AlgorithmB && e.Accumulator == nil {
			return nil, fmt.Errorf("algorithm B requires a running accumulator")
		}
		var seed uint16
		if e.Accumulator != nil {
			seed = *e.Accumulator
		}
		crc, err := Checksum(e.Algorithm, []byte(text), seed)
		if err != nil {
			return nil, err
		}
		if e.Algorithm == AlgorithmB {
			*e.Accumulator = crc
		}
		text += FormatChecksum(crc)
	}

	out := make([]byte, 0, len(text)+1)
	out = append(out, text...)
	out = append(out, Terminator)
	return out, nil
}

// Command builders

// NewInitCommand creates INIT. Initializes the system.
func NewInitCommand() *Command {
	return &Command{Keyword: CmdInit}
}

// NewBeepCommand creates BEEP with a count of 1-9.
func NewBeepCommand(count int) *Command {
	return &Command{
		Keyword: CmdBeep,
		Params:  []Param{{Name: "count", Value: strconv.Itoa(count), Options: BeepOptions}},
	}
}

// CommSettings holds the five COMM fields as option codes.
type CommSettings struct {
	BaudRate  string
	DataBits  string
	Parity    string
	StopBits  string
	Handshake string
}

// DefaultCommSettings is 9600 8N1 with handshaking off.
func DefaultCommSettings() CommSettings {
	return CommSettings{
		BaudRate:  BaudRateOptions.Default,
		DataBits:  DataBitsOptions.Default,
		Parity:    ParityOptions.Default,
		StopBits:  StopBitsOptions.Default,
		Handshake: HandshakeOptions.Default,
	}
}

// NewCommCommand creates COMM. The fields are sent as five concatenated
// digits, e.g. "COMM 50001".
func NewCommCommand(s CommSettings) *Command {
	return &Command{
		Keyword: CmdComm,
		Params: []Param{
			{Name: "baud rate", Value: s.BaudRate, Options: BaudRateOptions},
			{Name: "data bits", Value: s.DataBits, Options: DataBitsOptions},
			{Name: "parity", Value: s.Parity, Options: ParityOptions},
			{Name: "stop bits", Value: s.StopBits, Options: StopBitsOptions},
			{Name: "hardware handshaking", Value: s.Handshake, Options: HandshakeOptions},
		},
	}
}

// NewEchoCommand creates ECHO. The device returns text unchanged.
func NewEchoCommand(text string) *Command {
	return &Command{
		Keyword: CmdEcho,
		Params:  []Param{{Name: "text", Value: text, Check: checkEchoText}},
	}
}

// NewLEDCommand creates LED for a port handle, LED number and state.
func NewLEDCommand(handle string, led int, state string) *Command {
	return &Command{
		Keyword: CmdLED,
		Params: []Param{
			{Name: "port handle", Value: strings.ToUpper(handle), Check: checkPortHandle},
			{Name: "LED number", Value: strconv.Itoa(led), Options: LEDNumberOptions},
			{Name: "LED state", Value: strings.ToUpper(state), Options: LEDStateOptions},
		},
	}
}

// NewPHSRCommand creates PHSR. An empty option sends the default form.
func NewPHSRCommand(option string) *Command {
	return &Command{
		Keyword: CmdPHSR,
		Params:  []Param{{Name: "reply option", Value: option, Options: PHSROptions, Optional: true}},
	}
}

// NewTStartCommand creates TSTART.
func NewTStartCommand() *Command {
	return &Command{Keyword: CmdTStart}
}

// NewTStopCommand creates TSTOP.
func NewTStopCommand() *Command {
	return &Command{Keyword: CmdTStop}
}

// NewVerCommand creates VER with reply option 0, 4, 5, 7 or 8.
func NewVerCommand(option int) *Command {
	return &Command{
		Keyword: CmdVer,
		Params:  []Param{{Name: "reply option", Value: strconv.Itoa(option), Options: VerOptions}},
	}
}

// NewAPIRevCommand creates APIREV.
func NewAPIRevCommand() *Command {
	return &Command{Keyword: CmdAPIRev}
}

// NewResetCommand creates RESET. RESET always carries a checksum.
func NewResetCommand() *Command {
	return &Command{Keyword: CmdReset, Checksum: true}
}

// NewRawCommand wraps text that is sent verbatim.
func NewRawCommand(text string) *Command {
	return &Command{Keyword: text, raw: true}
}

func checkEchoText(v string) string {
	if len(v) < MinEchoLen {
		return fmt.Sprintf("must be at least %d characters", MinEchoLen)
	}
	return ""
}

func checkPortHandle(v string) string {
	if _, err := ParsePortHandle(v); err != nil {
		return err.Error()
	}
	return ""
}

// ParsePortHandle parses a two-digit hex handle in the range 0A-FF.
func ParsePortHandle(v string) (uint8, error) {
	if len(v) != HandleLen {
		return 0, fmt.Errorf("port handle must be %d hex digits", HandleLen)
	}
	n, err := strconv.ParseUint(v, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("port handle must be hex")
	}
	if n < MinPortHandle || n > MaxPortHandle {
		return 0, fmt.Errorf("port handle must be in %02X-%02X", MinPortHandle, MaxPortHandle)
	}
	return uint8(n), nil
}
