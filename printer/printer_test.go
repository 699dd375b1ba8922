package printer

import (
	"bytes"
	"testing"
)

// echoTransport behaves like a serial port with TX shorted to RX: every
// written byte comes straight back on Read.
type echoTransport struct {
	loop   bytes.Buffer
	resets int
	garble bool
}

func (e *echoTransport) Write(p []byte) (int, error) {
	if e.garble {
		mangled := make([]byte, len(p))
		for i, b := range p {
			mangled[i] = b ^ 0xFF
		}
		return e.loop.Write(mangled)
	}
	return e.loop.Write(p)
}

func (e *echoTransport) Read(p []byte) (int, error) {
	return e.loop.Read(p)
}

func (e *echoTransport) Flush() error { return nil }

func (e *echoTransport) ResetInput() error {
	e.resets++
	e.loop.Reset()
	return nil
}

func (e *echoTransport) Close() error { return nil }

func TestLoopbackSucceedsOnCleanEcho(t *testing.T) {
	echo := &echoTransport{}
	if err := Loopback(echo, []byte("LOOP\n"), 0); err != nil {
		t.Fatalf("Loopback failed on a clean echo: %v", err)
	}
	if echo.resets != 1 {
		t.Errorf("Loopback drained input %d times, expected once", echo.resets)
	}
}

func TestLoopbackDrainsStaleInput(t *testing.T) {
	echo := &echoTransport{}
	echo.loop.WriteString("stale junk from before")
	if err := Loopback(echo, []byte("LOOP\n"), 0); err != nil {
		t.Fatalf("Loopback failed with stale input present: %v", err)
	}
}

func TestLoopbackDetectsMangledEcho(t *testing.T) {
	echo := &echoTransport{garble: true}
	if err := Loopback(echo, []byte("LOOP\n"), 0); err == nil {
		t.Fatal("Loopback passed despite a mangled echo")
	}
}

func TestLoopbackDetectsSilence(t *testing.T) {
	silent := &silentTransport{}
	if err := Loopback(silent, []byte("LOOP\n"), 0); err == nil {
		t.Fatal("Loopback passed with nothing wired to RX")
	}
}

// silentTransport accepts writes and never produces any input, like an
// unwired RX pin with a read timeout.
type silentTransport struct{}

func (s *silentTransport) Write(p []byte) (int, error) { return len(p), nil }
func (s *silentTransport) Read(p []byte) (int, error)  { return 0, nil }
func (s *silentTransport) Flush() error                { return nil }
func (s *silentTransport) ResetInput() error           { return nil }
func (s *silentTransport) Close() error                { return nil }
