// Package printer provides the byte transports that carry encoder output
// to a physical device: a serial port, a BLE printer characteristic, and
// a wiring diagnostic that works over either.
package printer

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"
)

// A Transport moves raw bytes between the host and a printer. Write may
// return a short count without an error; the returned count is
// authoritative and callers own any resend bookkeeping. Read blocks until
// data arrives or the transport's own timeout elapses.
type Transport interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	// Flush blocks until written bytes have left the host buffer.
	Flush() error
	// ResetInput discards any pending unread input.
	ResetInput() error

	Close() error
}

// Loopback checks a transmit/receive wiring loop (TX shorted to RX, or a
// device in echo mode) by sending message and comparing the echo. A settle
// pause between write and read gives slow converters time to turn the
// bytes around.
func Loopback(t Transport, message []byte, settle time.Duration) error {
	if err := t.ResetInput(); err != nil {
		return fmt.Errorf("Couldn't drain stale input: %w", err)
	}

	n, err := t.Write(message)
	if err != nil {
		return fmt.Errorf("Couldn't send test message: %w", err)
	}
	if n != len(message) {
		return fmt.Errorf("Sent %d of %d test bytes", n, len(message))
	}
	if err := t.Flush(); err != nil {
		return fmt.Errorf("Couldn't flush test message: %w", err)
	}

	time.Sleep(settle)

	echo := make([]byte, len(message))
	n, err = t.Read(echo)
	if err != nil {
		return fmt.Errorf("Couldn't read echo: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("No echo received; check the wiring loop")
	}
	if n < len(message) {
		return fmt.Errorf("Echo returned %d of %d bytes", n, len(message))
	}
	if !bytes.Equal(echo, message) {
		return fmt.Errorf("Echo %q doesn't match sent %q", echo, message)
	}

	slog.Info("Loopback successful", "bytes", n)
	return nil
}
