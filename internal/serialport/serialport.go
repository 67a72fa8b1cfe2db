package serialport

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"
)

// DefaultProduct is the USB product string of the common FTDI RS-485 adapters.
const DefaultProduct = "FT232R USB UART"

// Bauds lists the line speeds Pelco D devices support.
var Bauds = []int{2400, 4800, 9600, 19200, 38400, 115200}

// ErrNotFound is returned when no adapter matches the requested product.
var ErrNotFound = errors.New("serialport: no matching adapter found")

// ValidBaud reports whether b is one of Bauds.
func ValidBaud(b int) bool {
	for _, v := range Bauds {
		if v == b {
			return true
		}
	}
	return false
}

// Config selects and configures the line.
type Config struct {
	// Port is the device path. When empty the first adapter whose USB
	// product string contains Product is used.
	Port    string
	Product string
	Baud    int
}

// Adapter describes a detected USB serial adapter.
type Adapter struct {
	Name    string
	Product string
	VID     string
	PID     string
	Serial  string
}

// List returns the USB serial adapters attached to the host.
func List() ([]Adapter, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate ports: %w", err)
	}
	var out []Adapter
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		out = append(out, Adapter{Name: p.Name, Product: p.Product, VID: p.VID, PID: p.PID, Serial: p.SerialNumber})
	}
	return out, nil
}

// Find returns the device path of the first adapter whose product string
// contains product.
func Find(product string) (string, error) {
	adapters, err := List()
	if err != nil {
		return "", err
	}
	return match(adapters, product)
}

func match(adapters []Adapter, product string) (string, error) {
	for _, a := range adapters {
		if strings.Contains(a.Product, product) {
			return a.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, product)
}

// Open opens the line at 8N1. The returned port has no read timeout set; the
// pelco session configures it.
func Open(cfg Config, logger *zap.Logger) (serial.Port, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !ValidBaud(cfg.Baud) {
		return nil, fmt.Errorf("serialport: unsupported baud rate %d", cfg.Baud)
	}

	name := cfg.Port
	if name == "" {
		product := cfg.Product
		if product == "" {
			product = DefaultProduct
		}
		var err error
		if name, err = Find(product); err != nil {
			return nil, err
		}
		logger.Info("serial adapter discovered", zap.String("port", name), zap.String("product", product))
	}

	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	logger.Info("serial port opened", zap.String("port", name), zap.Int("baud", cfg.Baud))
	return port, nil
}
