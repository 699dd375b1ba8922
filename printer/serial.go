package printer

import (
	"fmt"
	"log/slog"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// SerialConfig describes the serial link to the printer. The framing is
// always 8N1; only the speed and the read patience vary between setups.
type SerialConfig struct {
	BaudRate    int
	ReadTimeout time.Duration
}

// DefaultSerialConfig matches a TM-T88III DIP-switched to 19200 baud.
func DefaultSerialConfig() SerialConfig {
	return SerialConfig{
		BaudRate:    19200,
		ReadTimeout: 3 * time.Second,
	}
}

// SerialTransport is a Transport over a local serial port.
type SerialTransport struct {
	port serial.Port
	name string
}

// OpenSerial opens the named port (COM7, /dev/ttyUSB0, ...) in 8N1
// framing at the configured speed.
func OpenSerial(name string, cfg SerialConfig) (*SerialTransport, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open serial port %s: %w", name, err)
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("Couldn't set read timeout on %s: %w", name, err)
	}

	slog.Info("Opened serial port", "port", name, "baud", cfg.BaudRate)
	return &SerialTransport{port: port, name: name}, nil
}

func (s *SerialTransport) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialTransport) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

// Flush blocks until the OS transmit buffer has drained onto the wire.
func (s *SerialTransport) Flush() error {
	return s.port.Drain()
}

// ResetInput discards bytes the device sent that nobody read.
func (s *SerialTransport) ResetInput() error {
	return s.port.ResetInputBuffer()
}

func (s *SerialTransport) Close() error {
	return s.port.Close()
}

func (s *SerialTransport) String() string {
	return fmt.Sprintf("SerialTransport(%s)", s.name)
}

// A PortInfo describes one serial port present on the system.
type PortInfo struct {
	// Device is the name to pass to OpenSerial.
	Device string
	// Description is the friendly name the OS reports, when it has one.
	Description string
}

// ListPorts enumerates the serial ports on the system with whatever
// detail the platform exposes. USB adapters report their product string;
// bare UARTs may report nothing beyond the device name.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("Couldn't enumerate serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		info := PortInfo{Device: d.Name}
		if d.IsUSB {
			info.Description = fmt.Sprintf("%s [%s:%s]", d.Product, d.VID, d.PID)
		}
		ports = append(ports, info)
	}
	return ports, nil
}
