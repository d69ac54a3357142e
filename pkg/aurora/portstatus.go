// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import (
	"strconv"
	"strings"
)

// Port status bits, least significant first
const (
	PortOccupied    = 1 << 0
	PortGPIO1Closed = 1 << 1
	PortGPIO2Closed = 1 << 2
	PortGPIO3Closed = 1 << 3
	PortInitialized = 1 << 4
	PortEnabled     = 1 << 5

	portStatusMask = 0x3F
)

// PortStatus is the decoded form of a 3-hex-digit port status code.
type PortStatus struct {
	Code        string
	Occupied    bool
	GPIO1Closed bool
	GPIO2Closed bool
	GPIO3Closed bool
	Initialized bool
	Enabled     bool
}

// DecodePortStatus interprets the low six bits of a status code.
func DecodePortStatus(code string) (PortStatus, error) {
	if len(code) != StatusCodeLen {
		return PortStatus{}, &MalformedStatusError{Code: code}
	}
	v, err := strconv.ParseUint(code, 16, 16)
	if err != nil {
		return PortStatus{}, &MalformedStatusError{Code: code}
	}
	bits := v & portStatusMask
	return PortStatus{
		Code:        strings.ToUpper(code),
		Occupied:    bits&PortOccupied != 0,
		GPIO1Closed: bits&PortGPIO1Closed != 0,
		GPIO2Closed: bits&PortGPIO2Closed != 0,
		GPIO3Closed: bits&PortGPIO3Closed != 0,
		Initialized: bits&PortInitialized != 0,
		Enabled:     bits&PortEnabled != 0,
	}, nil
}

// String describes the set bits, e.g. "occupied, initialized".
func (s PortStatus) String() string {
	var parts []string
	if s.Occupied {
		parts = append(parts, "occupied")
	} else {
		parts = append(parts, "unoccupied")
	}
	if s.GPIO1Closed {
		parts = append(parts, "GPIO 1 closed")
	}
	if s.GPIO2Closed {
		parts = append(parts, "GPIO 2 closed")
	}
	if s.GPIO3Closed {
		parts = append(parts, "GPIO 3 closed")
	}
	if s.Initialized {
		parts = append(parts, "initialized")
	}
	if s.Enabled {
		parts = append(parts, "enabled")
	}
	return strings.Join(parts, ", ")
}
