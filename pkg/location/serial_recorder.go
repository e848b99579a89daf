package location

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"
)

// SerialRecorder copies NMEA sentences from a GPS receiver on a serial port
// into a log that NMEADecoder can read back later.
type SerialRecorder struct {
	port     string // Serial port to which the GPS device is connected
	baudRate int    // Baud rate for the serial communication
	open     func(*serial.Config) (io.ReadCloser, error)
}

// NewSerialRecorder creates a new instance of SerialRecorder with the specified port and baud rate.
func NewSerialRecorder(port string, baudRate int) *SerialRecorder {
	return &SerialRecorder{
		port:     port,
		baudRate: baudRate,
		open: func(c *serial.Config) (io.ReadCloser, error) {
			return serial.OpenPort(c)
		},
	}
}

// Record writes every checksum-valid RMC and GGA sentence to w until ctx is
// cancelled or the port is closed. It returns the number of sentences written.
func (r *SerialRecorder) Record(ctx context.Context, w io.Writer) (int, error) {
	s, err := r.open(&serial.Config{Name: r.port, Baud: r.baudRate})
	if err != nil {
		return 0, fmt.Errorf("failed to open serial port %s: %w", r.port, err)
	}

	// Closing the port unblocks the scanner on cancellation.
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer func() {
		if stop() {
			s.Close()
		}
	}()

	return copySentences(ctx, s, w)
}

func copySentences(ctx context.Context, r io.Reader, w io.Writer) (int, error) {
	written := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}
		sentence, err := nmea.Parse(line)
		if err != nil {
			continue
		}
		switch sentence.DataType() {
		case nmea.TypeRMC, nmea.TypeGGA:
		default:
			continue
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return written, fmt.Errorf("failed to write sentence: %w", err)
		}
		written++
	}

	if ctx.Err() != nil {
		return written, nil
	}
	if err := scanner.Err(); err != nil {
		return written, fmt.Errorf("failed to read from GPS device: %w", err)
	}
	return written, nil
}
