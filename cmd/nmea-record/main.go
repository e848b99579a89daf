// Command nmea-record logs the fixes of a serial GPS receiver to a file that
// immich-gpx accepts as a track.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RubixDev/immich-gpx/pkg/location"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	port := pflag.StringP("port", "p", "/dev/ttyUSB0", "serial port of the GPS receiver")
	baud := pflag.IntP("baud", "b", 9600, "baud rate of the GPS receiver")
	output := pflag.StringP("output", "o", "", "NMEA log to append to (default: track-<timestamp>.nmea)")
	pflag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	path := *output
	if path == "" {
		path = fmt.Sprintf("track-%s.nmea", time.Now().UTC().Format("20060102T150405Z"))
	}

	out, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to open output file")
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("port", *port).Int("baud", *baud).Str("path", path).Msg("Recording GPS fixes, press Ctrl+C to stop")

	recorder := location.NewSerialRecorder(*port, *baud)
	n, err := recorder.Record(ctx, out)
	if err != nil {
		log.Error().Err(err).Int("sentences", n).Msg("Recording stopped")
		out.Close()
		os.Exit(1)
	}
	log.Info().Int("sentences", n).Str("path", path).Msg("Recording finished")
}
