// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import "strconv"

// Choice is one allowed parameter value and what it means.
type Choice struct {
	Value string
	Label string
}

// OptionSet is the closed set of values a command parameter accepts.
type OptionSet struct {
	Name    string
	Choices []Choice
	Default string
}

// Contains reports whether v is one of the set's values.
func (o *OptionSet) Contains(v string) bool {
	for _, c := range o.Choices {
		if c.Value == v {
			return true
		}
	}
	return false
}

// Values lists the allowed values in declaration order.
func (o *OptionSet) Values() []string {
	out := make([]string, len(o.Choices))
	for i, c := range o.Choices {
		out[i] = c.Value
	}
	return out
}

// Label returns the description of v, or "" if v is not in the set.
func (o *OptionSet) Label(v string) string {
	for _, c := range o.Choices {
		if c.Value == v {
			return c.Label
		}
	}
	return ""
}

// COMM parameter sets
var (
	BaudRateOptions = &OptionSet{
		Name: "baud rate",
		Choices: []Choice{
			{"0", "9600"},
			{"1", "14400"},
			{"2", "19200"},
			{"3", "38400"},
			{"4", "57600"},
			{"5", "115200"},
			{"6", "921600"},
			{"7", "1228739"},
		},
		Default: "0",
	}

	DataBitsOptions = &OptionSet{
		Name:    "data bits",
		Choices: []Choice{{"0", "8 bits"}, {"1", "7 bits"}},
		Default: "0",
	}

	ParityOptions = &OptionSet{
		Name:    "parity",
		Choices: []Choice{{"0", "none"}, {"1", "odd"}, {"2", "even"}},
		Default: "0",
	}

	StopBitsOptions = &OptionSet{
		Name:    "stop bits",
		Choices: []Choice{{"0", "1 bit"}, {"1", "2 bits"}},
		Default: "0",
	}

	HandshakeOptions = &OptionSet{
		Name:    "hardware handshaking",
		Choices: []Choice{{"0", "off"}, {"1", "on"}},
		Default: "0",
	}
)

// Other command parameter sets
var (
	BeepOptions = &OptionSet{
		Name: "beep count",
		Choices: []Choice{
			{"1", ""}, {"2", ""}, {"3", ""}, {"4", ""}, {"5", ""},
			{"6", ""}, {"7", ""}, {"8", ""}, {"9", ""},
		},
		Default: "1",
	}

	LEDNumberOptions = &OptionSet{
		Name:    "LED number",
		Choices: []Choice{{"1", "LED 1"}, {"2", "LED 2"}, {"3", "LED 3"}},
		Default: "1",
	}

	LEDStateOptions = &OptionSet{
		Name:    "LED state",
		Choices: []Choice{{"B", "blank"}, {"F", "flash"}, {"S", "solid"}},
		Default: "B",
	}

	VerOptions = &OptionSet{
		Name: "reply option",
		Choices: []Choice{
			{"0", "system control processor"},
			{"4", "system control unit processor, enhanced"},
			{"5", "combined firmware revision"},
			{"7", "system control processor, GUI format"},
			{"8", "sensor interface unit firmware"},
		},
		Default: "0",
	}

	// PHSROptions leaves the default empty so the bare command is sent.
	PHSROptions = &OptionSet{
		Name: "reply option",
		Choices: []Choice{
			{"00", "all allocated port handles"},
			{"01", "port handles that need to be freed"},
			{"02", "occupied port handles that are not initialized"},
			{"03", "initialized port handles that are not enabled"},
			{"04", "enabled port handles"},
		},
		Default: "",
	}
)

// BaudRate returns the host baud rate for a COMM baud rate code.
func BaudRate(code string) (int, bool) {
	label := BaudRateOptions.Label(code)
	if label == "" {
		return 0, false
	}
	n, err := strconv.Atoi(label)
	if err != nil {
		return 0, false
	}
	return n, true
}

// BaudRateCode is the inverse of BaudRate.
func BaudRateCode(baud int) (string, bool) {
	want := strconv.Itoa(baud)
	for _, c := range BaudRateOptions.Choices {
		if c.Label == want {
			return c.Value, true
		}
	}
	return "", false
}
