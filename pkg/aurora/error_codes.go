// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import (
	"fmt"
	"strings"
)

// ErrorCode is one two-character code from an ERROR reply.
type ErrorCode struct {
	Code    string
	Message string
	Known   bool
}

// String returns "<code> <message>"
func (c ErrorCode) String() string {
	if !c.Known {
		return fmt.Sprintf("%s unknown error code", c.Code)
	}
	return fmt.Sprintf("%s %s", c.Code, c.Message)
}

var errorMessages = map[string]string{
	"01": "Invalid command",
	"02": "Command too long",
	"03": "Command too short",
	"04": "Invalid CRC calculated for command",
	"05": "Time-out on command execution",
	"06": "Unable to set up new communication parameters",
	"07": "Incorrect number of parameters",
	"08": "Invalid port handle selected",
	"09": "Invalid mode selected",
	"0A": "Invalid LED selected",
	"0B": "Invalid LED state selected",
	"0C": "Command is invalid while in the current operating mode",
	"0D": "No tool is assigned to the selected port handle",
	"0E": "Selected port handle not initialized",
	"0F": "Selected port handle not enabled",
	"10": "System not initialized",
	"11": "Unable to stop tracking",
	"12": "Unable to start tracking",
	"13": "Hardware error: unable to initialize the tool",
	"14": "Invalid Field Generator characterization parameters",
	"15": "Unable to initialize the system",
	"16": "Unable to start Diagnostic mode",
	"17": "Unable to stop Diagnostic mode",
	"19": "Unable to read device's firmware version information",
	"1A": "Internal system error",
	"1D": "Unable to search for SROM device IDs",
	"1E": "Unable to read SROM device data",
	"1F": "Unable to write SROM device data",
	"20": "Unable to select SROM device",
	"22": "Enabled tools are not supported by selected volume parameters",
	"23": "Command parameter out of range",
	"24": "Unable to select parameters by volume",
	"25": "Unable to determine the system's supported features list",
	"29": "Main processor firmware is corrupt",
	"2A": "No memory is available for dynamic allocation",
	"2B": "The requested port handle has not been allocated",
	"2C": "The requested port handle is unoccupied",
	"2D": "No more port handles available",
	"2E": "Incompatible firmware versions",
	"2F": "Invalid port description",
	"30": "Requested port is already assigned a port handle",
	"31": "Invalid input or output state",
	"32": "Invalid operation for the device associated with the specified port handle",
	"33": "Feature not available",
	"34": "User parameter does not exist",
	"35": "Invalid value type",
	"36": "User parameter value is out of range",
	"37": "User parameter array index is out of range",
	"38": "User parameter size is incorrect",
	"39": "Permission denied",
	"3B": "File not found",
	"3C": "Error writing to file",
	"3D": "Error removing file",
	"42": "Invalid or corrupted tool definition file",
	"43": "Tool exceeds maximum markers, faces, or groups",
	"44": "Device not present",
}

// LookupErrorCode resolves a two-character code. Unknown codes come back
// with Known set to false rather than as an error.
func LookupErrorCode(code string) ErrorCode {
	code = strings.ToUpper(code)
	msg, ok := errorMessages[code]
	return ErrorCode{Code: code, Message: msg, Known: ok}
}
