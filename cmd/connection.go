// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/aurorastat/pkg/aurora"
	"github.com/Thermoquad/aurorastat/pkg/trace"
	"github.com/avast/retry-go"
	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// Connection provides a common interface for reading/writing bytes from serial or WebSocket
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
	mode *serial.Mode
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// SetBaudRate switches the host side of the line, used after COMM.
func (s *SerialConnection) SetBaudRate(baud int) error {
	mode := *s.mode
	mode.BaudRate = baud
	if err := s.port.SetMode(&mode); err != nil {
		return err
	}
	s.mode = &mode
	return nil
}

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// WebSocketConnection wraps a WebSocket connection for byte-level reading
type WebSocketConnection struct {
	conn        *websocket.Conn
	buf         []byte
	bufOffset   int
	closed      bool // Track if connection has failed/closed
	readTimeout time.Duration
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	// Return immediately if connection is known to be closed
	if w.closed {
		return 0, ErrConnectionClosed
	}

	// If we have buffered data, return it first
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	if w.readTimeout > 0 {
		if err := w.conn.SetReadDeadline(time.Now().Add(w.readTimeout)); err != nil {
			w.closed = true
			return 0, err
		}
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, err
		}

		// The bridge may forward the ASCII stream as either frame type
		if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
			continue
		}

		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	err := w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	return w.conn.Close()
}

// OpenSerialConnection opens a serial port at 8N1, the Aurora power-on default.
func OpenSerialConnection(portName string, baudRate int, readTimeout time.Duration) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", portName, err)
	}

	if readTimeout > 0 {
		if err := port.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to set read timeout: %v", err)
		}
	}
	port.ResetInputBuffer()

	return &SerialConnection{port: port, mode: mode}, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(ctx context.Context, wsURL, username, password string, skipSSLVerify bool) (*WebSocketConnection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return &WebSocketConnection{conn: conn}, nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("AURORA_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenConnection opens either a serial or WebSocket connection based on
// settings, retrying transient open failures.
func OpenConnection(ctx context.Context, s settings) (Connection, string, error) {
	if s.URL == "" && s.Port == "" {
		return nil, "", fmt.Errorf("either --port or --url must be specified")
	}

	password := ""
	if s.URL != "" && s.Username != "" {
		var err error
		password, err = GetPassword()
		if err != nil {
			return nil, "", err
		}
	}

	attempts := s.OpenRetries
	if attempts == 0 {
		attempts = 1
	}

	var conn Connection
	var connInfo string
	err := retry.Do(func() error {
		if s.URL != "" {
			ws, err := OpenWebSocketConnection(ctx, s.URL, s.Username, password, s.NoSSLVerify)
			if err != nil {
				return err
			}
			ws.readTimeout = s.ReadTimeout
			conn, connInfo = ws, fmt.Sprintf("WebSocket: %s", s.URL)
			return nil
		}

		c, err := OpenSerialConnection(s.Port, s.Baud, s.ReadTimeout)
		if err != nil {
			return err
		}
		conn, connInfo = c, fmt.Sprintf("Serial: %s @ %d baud", s.Port, s.Baud)
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn().Err(err).Uint("attempt", n+1).Msg("open failed, retrying")
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, "", err
	}
	return conn, connInfo, nil
}

// openSession opens the configured connection and wraps it in a session,
// recording the exchange when --record is set.
func openSession(ctx context.Context, s settings) (*aurora.Session, string, error) {
	conn, connInfo, err := OpenConnection(ctx, s)
	if err != nil {
		return nil, "", err
	}

	var t aurora.Transport = aurora.NewStreamTransport(conn)
	if s.Record != "" {
		f, err := os.Create(s.Record)
		if err != nil {
			conn.Close()
			return nil, "", fmt.Errorf("failed to create capture file: %w", err)
		}
		t = trace.NewRecorder(t, f)
		logger.Info().Str("file", s.Record).Msg("recording exchange")
	}

	logger.Debug().Str("connection", connInfo).Str("checksum", s.Algorithm.String()).Msg("session opened")
	return aurora.New(t, s.sessionOptions()...), connInfo, nil
}
