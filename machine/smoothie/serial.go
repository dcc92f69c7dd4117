package smoothie

import (
	"io"

	"github.com/tarm/serial"
)

// DefaultBaud is the Smoothieboard USB serial rate.
const DefaultBaud = 115200

// OpenSerial opens a serial port to the controller with blocking reads.
func OpenSerial(name string, baud int) (io.ReadWriteCloser, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, err
	}
	return port, nil
}
