// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// logger is the process-wide logger, configured by initLogger.
var logger = zerolog.Nop()

func initLogger() error {
	level, err := zerolog.ParseLevel(viper.GetString(flagLogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	return nil
}
