// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Thermoquad/aurorastat/pkg/aurora"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settings is the merged view of flags, environment and config file.
type settings struct {
	Port          string
	Baud          int
	URL           string
	Username      string
	NoSSLVerify   bool
	Algorithm     aurora.Algorithm
	ChecksumSeed  uint16
	ChecksumAll   bool
	AutoInit      bool
	VerifyReplies bool
	Debug         bool
	LogLevel      string
	Record        string
	OpenRetries   uint
	ReadTimeout   time.Duration
}

func initConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".aurorastat")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("AURORASTAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func loadSettings() (settings, error) {
	alg, err := aurora.ParseAlgorithm(viper.GetString(flagChecksum))
	if err != nil {
		return settings{}, err
	}

	return settings{
		Port:          viper.GetString(flagPort),
		Baud:          viper.GetInt(flagBaud),
		URL:           viper.GetString(flagURL),
		Username:      viper.GetString(flagUsername),
		NoSSLVerify:   viper.GetBool(flagNoSSLVerify),
		Algorithm:     alg,
		ChecksumSeed:  uint16(viper.GetUint(flagChecksumSeed)),
		ChecksumAll:   viper.GetBool(flagChecksumAll),
		AutoInit:      viper.GetBool(flagAutoInit),
		VerifyReplies: viper.GetBool(flagVerifyReplies),
		Debug:         viper.GetBool(flagDebug),
		LogLevel:      viper.GetString(flagLogLevel),
		Record:        viper.GetString(flagRecord),
		OpenRetries:   viper.GetUint(flagOpenRetries),
		ReadTimeout:   viper.GetDuration(flagReadTimeout),
	}, nil
}

// sessionOptions maps settings onto session options.
func (s settings) sessionOptions() []aurora.Option {
	opts := []aurora.Option{
		aurora.WithChecksum(s.Algorithm, s.ChecksumSeed),
		aurora.WithChecksumAll(s.ChecksumAll),
		aurora.WithAutoInit(s.AutoInit),
		aurora.WithReplyVerification(s.VerifyReplies),
		aurora.WithLogger(logger),
	}
	if s.Debug {
		opts = append(opts, aurora.WithDebug(os.Stderr))
	}
	return opts
}
