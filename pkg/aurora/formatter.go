// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	sentColor  = color.New(color.FgHiBlue).SprintfFunc()
	okColor    = color.New(color.FgGreen).SprintfFunc()
	errColor   = color.New(color.FgRed).SprintfFunc()
	faintColor = color.New(color.FgHiBlack).SprintfFunc()
)

// FormatWire renders frame bytes with control characters made visible.
func FormatWire(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		switch {
		case c == Terminator:
			sb.WriteString("<CR>")
		case c == '\n':
			sb.WriteString("<LF>")
		case c < 0x20 || c > 0x7E:
			fmt.Fprintf(&sb, "<%02X>", c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// FormatReply formats a parsed reply into a human-readable string
func FormatReply(r *Reply) string {
	var sb strings.Builder
	switch r.Kind {
	case ReplyOkay:
		sb.WriteString("OKAY")
		writeChecksum(&sb, r.Checksum)
		sb.WriteString("\n")

	case ReplyError:
		sb.WriteString("ERROR")
		writeChecksum(&sb, r.Checksum)
		sb.WriteString("\n")
		for _, c := range r.Codes {
			if c.Known {
				fmt.Fprintf(&sb, "  * Code: %s - %s\n", c.Code, c.Message)
			} else {
				fmt.Fprintf(&sb, "  * Code: %s - Unknown error\n", c.Code)
			}
		}

	case ReplyStatusList:
		fmt.Fprintf(&sb, "Port handles: %d", r.Count)
		writeChecksum(&sb, r.Checksum)
		sb.WriteString("\n")
		for _, e := range r.Entries {
			status, err := e.Decode()
			if err != nil {
				fmt.Fprintf(&sb, "  - Port Handle: %s -> Status: %s (%v)\n", e.Handle, e.Status, err)
				continue
			}
			fmt.Fprintf(&sb, "  - Port Handle: %s -> Status: %s -> %s\n", e.Handle, e.Status, status)
		}

	case ReplyData:
		fmt.Fprintf(&sb, "%s", r.Data)
		writeChecksum(&sb, r.Checksum)
		sb.WriteString("\n")

	default:
		fmt.Fprintf(&sb, "%q\n", r.Raw)
	}
	return sb.String()
}

func writeChecksum(sb *strings.Builder, crc string) {
	if crc != "" {
		fmt.Fprintf(sb, " (CRC16 %s)", crc)
	}
}

// FormatTraceCommand renders an outgoing frame for the debug trace.
func FormatTraceCommand(ts time.Time, wire []byte) string {
	return fmt.Sprintf("%s %s %s\n",
		faintColor("[%s]", ts.Format("15:04:05.000")),
		sentColor(">>"),
		FormatWire(wire))
}

// FormatTraceReply renders an incoming frame and its decode result. err is
// the parse or device error, if any.
func FormatTraceReply(ts time.Time, raw []byte, r *Reply, err error) string {
	head := fmt.Sprintf("%s %s %s\n",
		faintColor("[%s]", ts.Format("15:04:05.000")),
		okColor("<<"),
		FormatWire(raw))

	if r == nil {
		if err != nil {
			return head + errColor("  ! %v", err) + "\n"
		}
		return head
	}

	body := FormatReply(r)
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	for i, l := range lines {
		if r.Kind == ReplyError {
			lines[i] = "  " + errColor("%s", l)
		} else {
			lines[i] = "  " + l
		}
	}
	out := head + strings.Join(lines, "\n") + "\n"
	if err != nil && r.Kind != ReplyError {
		out += errColor("  ! %v", err) + "\n"
	}
	return out
}
