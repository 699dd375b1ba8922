// BLE transport for battery thermal printers that accept ESC/POS raster
// data over the serial-port-profile service (0xFF00). Built for a single
// printer connection at a time; managing several devices at once would
// need a different structure.

package printer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tinygo.org/x/bluetooth"
)

type characteristicType byte

const (
	serviceType  characteristicType = 0x00
	writerType   characteristicType = 0x02
	notifierType characteristicType = 0x03
)

func bleUUID(t characteristicType) bluetooth.UUID {
	return bluetooth.NewUUID([16]byte{
		0x00, 0x00, 0xff, byte(t), 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0x80, 0x5f, 0x9b, 0x34, 0xfb,
	})
}

// BluetoothTransport is a Transport over a BLE printer's write
// characteristic. BLE links carry far less than a wired port per write,
// so pair this transport with a small encoder chunk size.
type BluetoothTransport struct {
	adapter  *bluetooth.Adapter
	device   bluetooth.Device
	writer   bluetooth.DeviceCharacteristic
	notifier bluetooth.DeviceCharacteristic

	inbox       chan []byte
	pending     []byte
	readTimeout time.Duration
}

// OpenBluetooth scans for the printer advertising the given local name,
// connects and resolves the write and notify characteristics. The scan
// blocks until the device appears.
func OpenBluetooth(name string, readTimeout time.Duration) (*BluetoothTransport, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("Couldn't enable the Bluetooth adapter: %w", err)
	}

	adapter.SetConnectHandler(func(d bluetooth.Device, connected bool) {
		if connected {
			slog.Info("Bluetooth device connected")
		} else {
			slog.Info("Bluetooth device disconnected")
		}
	})

	devices := make(chan bluetooth.ScanResult, 1)
	go func() {
		err := adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if result.LocalName() == name {
				slog.Info("Found device", "deviceName", result.LocalName())
				devices <- result
				adapter.StopScan()
			}
		})
		if err != nil {
			slog.Error("Failed to scan for devices", "err", err)
			close(devices)
		}
	}()

	found, ok := <-devices
	if !ok {
		return nil, errors.New("No devices found")
	}

	t := &BluetoothTransport{
		adapter:     adapter,
		inbox:       make(chan []byte, 16),
		readTimeout: readTimeout,
	}
	if err := t.connect(found.Address); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *BluetoothTransport) connect(address bluetooth.Address) error {
	slog.Debug("Connecting to device...")
	device, err := t.adapter.Connect(address, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("Couldn't connect to device: %w", err)
	}

	slog.Debug("Discovering service...")
	services, err := device.DiscoverServices([]bluetooth.UUID{bleUUID(serviceType)})
	if err != nil {
		device.Disconnect()
		return fmt.Errorf("Couldn't discover the printer service: %w", err)
	}

	slog.Debug("Discovering characteristics...")
	characteristics, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{bleUUID(writerType), bleUUID(notifierType)})
	if err != nil {
		device.Disconnect()
		return fmt.Errorf("Couldn't discover the printer characteristics: %w", err)
	}
	t.writer = characteristics[0]
	t.notifier = characteristics[1]
	t.device = device

	// Whatever the printer notifies (ready, battery, paper state) lands
	// in the inbox for Read to pick up.
	err = t.notifier.EnableNotifications(func(data []byte) {
		buffered := make([]byte, len(data))
		copy(buffered, data)
		select {
		case t.inbox <- buffered:
		default:
			slog.Debug("Dropped printer notification", "data", fmt.Sprintf("%x", buffered))
		}
	})
	if err != nil {
		device.Disconnect()
		return fmt.Errorf("Couldn't enable notifications: %w", err)
	}

	return nil
}

func (t *BluetoothTransport) Write(p []byte) (int, error) {
	n, err := t.writer.WriteWithoutResponse(p)
	if err != nil {
		slog.Error("Couldn't write data", "error", err)
	} else {
		slog.Debug("Wrote data to device", "size", n)
	}
	return n, err
}

// Read returns the next notification payload, waiting up to the read
// timeout. A timeout reads as zero bytes, like a quiet serial line.
func (t *BluetoothTransport) Read(p []byte) (int, error) {
	if len(t.pending) == 0 {
		select {
		case data := <-t.inbox:
			t.pending = data
		case <-time.After(t.readTimeout):
			return 0, nil
		}
	}
	n := copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

// Flush is a no-op: characteristic writes hand the payload to the stack
// synchronously.
func (t *BluetoothTransport) Flush() error {
	return nil
}

// ResetInput throws away buffered notifications.
func (t *BluetoothTransport) ResetInput() error {
	t.pending = nil
	for {
		select {
		case <-t.inbox:
		default:
			return nil
		}
	}
}

func (t *BluetoothTransport) Close() error {
	return t.device.Disconnect()
}
