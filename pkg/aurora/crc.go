// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import (
	"fmt"

	"github.com/sigurn/crc16"
)

// Algorithm selects one of the two checksum strategies.
type Algorithm int

// Checksum algorithms
const (
	// AlgorithmA is the bit-reversed 0xA001 polynomial seeded with 0xFFFF on
	// every call. The seed argument is ignored.
	AlgorithmA Algorithm = iota

	// AlgorithmB is the parity-table accumulator. It starts from the
	// caller's running value and the result must be stored back as the
	// next seed.
	AlgorithmB
)

// String returns the algorithm name
func (a Algorithm) String() string {
	switch a {
	case AlgorithmA:
		return "A"
	case AlgorithmB:
		return "B"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm maps "a"/"b" (any case) to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "a", "A":
		return AlgorithmA, nil
	case "b", "B":
		return AlgorithmB, nil
	}
	return 0, fmt.Errorf("unknown checksum algorithm %q (use a or b)", s)
}

// CRC-16/MODBUS is reflected 0x8005 (0xA001) with initial value 0xFFFF.
var modbusTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// oddParity[n] is 1 when nibble n has an odd number of set bits.
var oddParity = [16]uint16{0, 1, 1, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0, 1, 1, 0}

// Checksum computes the 16-bit checksum of data with the given algorithm.
// Only 7-bit ASCII input is accepted; anything else is an *EncodingError.
func Checksum(alg Algorithm, data []byte, seed uint16) (uint16, error) {
	if err := checkASCII(data); err != nil {
		return 0, err
	}
	switch alg {
	case AlgorithmA:
		return crc16.Checksum(data, modbusTable), nil
	case AlgorithmB:
		return calculateParityCRC(data, seed), nil
	default:
		return 0, fmt.Errorf("unknown checksum algorithm %d", int(alg))
	}
}

// calculatePolyCRC is the bitwise form of AlgorithmA and must agree with
// modbusTable.
func calculatePolyCRC(data []byte) uint16 {
	crc := uint16(crcInitialA)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ crcPolynomialA
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// calculateParityCRC folds each byte into the running value crc.
func calculateParityCRC(data []byte, crc uint16) uint16 {
	for _, b := range data {
		d := (uint16(b) ^ (crc & 0xFF)) & 0xFF
		crc >>= 8
		if oddParity[d&0x0F]^oddParity[d>>4] != 0 {
			crc ^= crcParityXor
		}
		d <<= 6
		crc ^= d
		d <<= 1
		crc ^= d
	}
	return crc
}

// FormatChecksum renders a checksum as four uppercase hex digits.
func FormatChecksum(crc uint16) string {
	return fmt.Sprintf("%04X", crc)
}

// ReplyChecksum computes the checksum the device appends to a reply body.
func ReplyChecksum(body string) (uint16, error) {
	return Checksum(AlgorithmB, []byte(body), ReplyChecksumSeed)
}

func checkASCII(data []byte) error {
	for i, b := range data {
		if b > 0x7F {
			return &EncodingError{Offset: i, Byte: b}
		}
	}
	return nil
}
