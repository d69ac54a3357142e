// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Statistics tracks command/reply counts and error rates for a session.
type Statistics struct {
	mu sync.Mutex

	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	Commands         uint64
	OkayReplies      uint64
	ErrorReplies     uint64
	StatusReplies    uint64
	DataReplies      uint64
	MalformedReplies uint64
	TruncatedReplies uint64
	ChecksumErrors   uint64
	TransportErrors  uint64
	Rejected         uint64 // validation or encoding failures, never sent

	// ErrorCodes counts each device error code seen in ERROR replies.
	ErrorCodes map[string]uint64

	// Rates (calculated)
	CommandRate float64 // commands/sec
	ErrorRate   float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
		ErrorCodes:     make(map[string]uint64),
	}
}

// Update records the outcome of one exchange. sent is false when the
// command was rejected before reaching the transport.
func (s *Statistics) Update(sent bool, reply *Reply, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastUpdateTime = time.Now()
	if !sent {
		s.Rejected++
		return
	}
	s.Commands++

	if reply != nil {
		switch reply.Kind {
		case ReplyOkay:
			s.OkayReplies++
		case ReplyError:
			s.ErrorReplies++
			for _, c := range reply.Codes {
				s.ErrorCodes[c.Code]++
			}
		case ReplyStatusList:
			s.StatusReplies++
		case ReplyData:
			s.DataReplies++
		}
	}

	var te *TransportError
	switch {
	case err == nil:
	case errors.As(err, &te):
		s.TransportErrors++
	case errors.Is(err, ErrChecksumMismatch):
		s.ChecksumErrors++
	case errors.Is(err, ErrTruncatedReply):
		s.TruncatedReplies++
	case errors.Is(err, ErrMalformedReply):
		s.MalformedReplies++
	}
}

// Snapshot returns a copy safe to read while the session keeps running.
func (s *Statistics) Snapshot() *Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := &Statistics{
		StartTime:        s.StartTime,
		LastUpdateTime:   s.LastUpdateTime,
		Commands:         s.Commands,
		OkayReplies:      s.OkayReplies,
		ErrorReplies:     s.ErrorReplies,
		StatusReplies:    s.StatusReplies,
		DataReplies:      s.DataReplies,
		MalformedReplies: s.MalformedReplies,
		TruncatedReplies: s.TruncatedReplies,
		ChecksumErrors:   s.ChecksumErrors,
		TransportErrors:  s.TransportErrors,
		Rejected:         s.Rejected,
		ErrorCodes:       make(map[string]uint64, len(s.ErrorCodes)),
	}
	for k, v := range s.ErrorCodes {
		out.ErrorCodes[k] = v
	}
	out.calculateRates()
	return out
}

// failures is every exchange that did not end in a usable reply.
func (s *Statistics) failures() uint64 {
	return s.ErrorReplies + s.MalformedReplies + s.TruncatedReplies + s.ChecksumErrors + s.TransportErrors
}

func (s *Statistics) calculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.CommandRate = float64(s.Commands) / elapsed
		s.ErrorRate = float64(s.failures()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	snap := s.Snapshot()

	var okPercent float64
	if snap.Commands > 0 {
		ok := snap.OkayReplies + snap.StatusReplies + snap.DataReplies
		okPercent = float64(ok) * 100.0 / float64(snap.Commands)
	}

	elapsed := time.Since(snap.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Commands:        %8d\n", snap.Commands)
	result += fmt.Sprintf("Successful:      %8d (%.1f%%)\n", snap.Commands-snap.failures(), okPercent)
	result += fmt.Sprintf("  OKAY:            %6d\n", snap.OkayReplies)
	result += fmt.Sprintf("  Status lists:    %6d\n", snap.StatusReplies)
	result += fmt.Sprintf("  Data:            %6d\n", snap.DataReplies)

	if snap.ErrorReplies > 0 {
		result += fmt.Sprintf("Device Errors:   %8d\n", snap.ErrorReplies)
		codes := make([]string, 0, len(snap.ErrorCodes))
		for c := range snap.ErrorCodes {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		for _, c := range codes {
			result += fmt.Sprintf("  %-40s %5d\n", LookupErrorCode(c).String(), snap.ErrorCodes[c])
		}
	}
	if snap.MalformedReplies > 0 {
		result += fmt.Sprintf("Malformed:       %8d\n", snap.MalformedReplies)
	}
	if snap.TruncatedReplies > 0 {
		result += fmt.Sprintf("Truncated:       %8d\n", snap.TruncatedReplies)
	}
	if snap.ChecksumErrors > 0 {
		result += fmt.Sprintf("CRC Errors:      %8d\n", snap.ChecksumErrors)
	}
	if snap.TransportErrors > 0 {
		result += fmt.Sprintf("Transport Errors:%8d\n", snap.TransportErrors)
	}
	if snap.Rejected > 0 {
		result += fmt.Sprintf("Rejected:        %8d\n", snap.Rejected)
	}

	result += fmt.Sprintf("Command Rate:    %8.1f cmds/sec\n", snap.CommandRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", snap.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.Commands = 0
	s.OkayReplies = 0
	s.ErrorReplies = 0
	s.StatusReplies = 0
	s.DataReplies = 0
	s.MalformedReplies = 0
	s.TruncatedReplies = 0
	s.ChecksumErrors = 0
	s.TransportErrors = 0
	s.Rejected = 0
	s.ErrorCodes = make(map[string]uint64)
	s.CommandRate = 0
	s.ErrorRate = 0
}
