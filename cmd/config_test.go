// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/aurorastat/pkg/aurora"
)

func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	cfgFile = ""
	t.Cleanup(func() {
		viper.Reset()
		cfgFile = ""
	})
}

// ============================================================
// Settings
// ============================================================

func TestLoadSettings_FlagDefaults(t *testing.T) {
	resetConfig(t)
	cfgFile = filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("{}\n"), 0o600))
	require.NoError(t, initConfig(rootCmd))

	s, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, 9600, s.Baud)
	assert.Equal(t, aurora.AlgorithmA, s.Algorithm)
	assert.Equal(t, uint16(0), s.ChecksumSeed)
	assert.False(t, s.ChecksumAll)
	assert.True(t, s.AutoInit)
	assert.False(t, s.VerifyReplies)
	assert.Equal(t, uint(3), s.OpenRetries)
	assert.Equal(t, "warn", s.LogLevel)
}

func TestLoadSettings_ConfigFile(t *testing.T) {
	resetConfig(t)
	cfgFile = filepath.Join(t.TempDir(), "aurorastat.yaml")
	content := "port: /dev/ttyUSB3\n" +
		"checksum: b\n" +
		"checksum-seed: 65535\n" +
		"checksum-all: true\n" +
		"read-timeout: 250ms\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0o600))
	require.NoError(t, initConfig(rootCmd))

	s, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB3", s.Port)
	assert.Equal(t, aurora.AlgorithmB, s.Algorithm)
	assert.Equal(t, uint16(0xFFFF), s.ChecksumSeed)
	assert.True(t, s.ChecksumAll)
	assert.Equal(t, 250*time.Millisecond, s.ReadTimeout)
}

func TestLoadSettings_Environment(t *testing.T) {
	resetConfig(t)
	cfgFile = filepath.Join(t.TempDir(), "aurorastat.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("checksum: a\n"), 0o600))
	t.Setenv("AURORASTAT_VERIFY_REPLIES", "true")
	t.Setenv("AURORASTAT_AUTO_INIT", "false")
	require.NoError(t, initConfig(rootCmd))

	s, err := loadSettings()
	require.NoError(t, err)
	assert.True(t, s.VerifyReplies)
	assert.False(t, s.AutoInit)
}

func TestLoadSettings_BadAlgorithm(t *testing.T) {
	resetConfig(t)
	viper.Set(flagChecksum, "crc32")
	_, err := loadSettings()
	assert.Error(t, err)
}

func TestInitConfig_MissingExplicitFile(t *testing.T) {
	resetConfig(t)
	cfgFile = filepath.Join(t.TempDir(), "absent.yaml")
	assert.Error(t, initConfig(rootCmd))
}

func TestSessionOptions_Count(t *testing.T) {
	s := settings{Algorithm: aurora.AlgorithmA}
	assert.Len(t, s.sessionOptions(), 5)

	s.Debug = true
	assert.Len(t, s.sessionOptions(), 6)
}

// ============================================================
// Exit codes
// ============================================================

func TestReportError_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			"device error",
			&aurora.DeviceError{Command: "INIT", Codes: []aurora.ErrorCode{aurora.LookupErrorCode("03")}},
			1,
		},
		{
			"wrapped device error",
			fmt.Errorf("auto-init: %w", &aurora.DeviceError{Command: "INIT"}),
			1,
		},
		{
			"transport error",
			&aurora.TransportError{Op: "read", Command: "BEEP 1", Err: errors.New("timeout")},
			2,
		},
		{
			"validation error",
			aurora.NewBeepCommand(0).Validate(),
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, reportError(tt.err))
		})
	}
}

func TestFormatEntry(t *testing.T) {
	line := formatEntry(aurora.PortHandleEntry{Handle: "0A", Status: "001"})
	assert.Equal(t, "  - Port Handle: 0A -> Status: 001 -> occupied\n", line)

	line = formatEntry(aurora.PortHandleEntry{Handle: "0B", Status: "0G1"})
	assert.Contains(t, line, "0B")
	assert.Contains(t, line, "0G1 (")
}
