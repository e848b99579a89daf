package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/RubixDev/immich-gpx/internal/models"
	"github.com/RubixDev/immich-gpx/internal/repository"
	"github.com/RubixDev/immich-gpx/internal/services"
	"github.com/RubixDev/immich-gpx/internal/utils"
	"github.com/RubixDev/immich-gpx/pkg/file"
	"github.com/RubixDev/immich-gpx/pkg/immich"
	"github.com/RubixDev/immich-gpx/pkg/mqtt"
	"github.com/RubixDev/immich-gpx/pkg/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := newFlags()
	if err := flags.set.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitFatal
	}
	trackFiles := flags.set.Args()

	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	fileClient := file.NewFileService()

	// Load configuration from file and environment, then apply flags
	config, err := utils.LoadConfig(flags.configPath, fileClient)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return exitFatal
	}
	flags.apply(config)
	if err := config.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return exitFatal
	}

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log = log.Level(level)

	if len(trackFiles) == 0 {
		log.Error().Msg("No track files given")
		fmt.Fprintf(stderr, "usage: immich-gpx [flags] TRACK_FILE...\n%s", flags.set.FlagUsages())
		return exitFatal
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := immich.NewClient(config.Immich.Server, config.Immich.APIKey,
		immich.WithRetryPolicy(immich.RetryPolicy{
			MaxRetries: config.Immich.Retry.MaxRetries,
			MinWait:    config.Immich.Retry.MinWait,
			MaxWait:    config.Immich.Retry.MaxWait,
		}),
		immich.WithPaging(config.Immich.PageSize, config.Immich.StartPage, config.Immich.MaxPages),
		immich.WithHTTPClient(httpClient(config.Immich.RequestTimeout)),
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Immich client")
		return exitFatal
	}

	version, err := client.CheckCompatibility(ctx)
	if err != nil {
		log.Error().Err(err).Str("server", client.Server()).Msg("Immich server check failed")
		return exitFatal
	}
	log.Info().Str("server", client.Server()).Str("version", version.String()).Msg("Connected to Immich")

	reporter, cleanup, err := newReporter(config, fileClient, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to set up report sinks")
		return exitFatal
	}
	defer cleanup()

	syncService, err := services.NewSyncService(services.SyncConfig{
		Options: services.Options{
			MaxGap: config.Matching.MaxGap,
			Filters: services.Filters{
				OwnerID:                  config.Selection.OwnerID,
				OnlyMissingLocation:      config.Selection.OnlyMissingLocation,
				PartialLocationAsMissing: config.Selection.PartialLocationAsMissing,
				AuditFiltered:            config.Selection.AuditFiltered,
			},
			ConcurrencyLimit: config.Apply.ConcurrencyLimit,
			PerCallTimeout:   config.Apply.PerCallTimeout,
			PlanWorkers:      config.Planning.Workers,
		},
		CameraMake:        config.Immich.CameraMake,
		CameraModel:       config.Immich.CameraModel,
		DryRun:            config.Apply.DryRun,
		SkipInvalidTracks: config.Tracks.SkipInvalid,
		BackstepTolerance: config.Tracks.BackstepTolerance,
	}, fileClient, repository.NewImmichRepository(client, log), reporter, log)
	if err != nil {
		log.Error().Err(err).Msg("Invalid options")
		return exitFatal
	}

	summary, err := syncService.Run(ctx, trackFiles)
	if err != nil {
		log.Error().Err(err).Msg("Run failed")
		return exitFatal
	}

	printSummary(stdout, summary)
	return exitCode(summary)
}

func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// newReporter builds the report sinks enabled in config. The returned cleanup
// closes broker connections.
func newReporter(config *utils.Config, fileClient file.FileOperations, log zerolog.Logger) (*services.ReportService, func(), error) {
	cleanup := func() {}
	report := config.Report

	var storage s3.ObjectStorageClient
	if report.S3.Enabled {
		objectStorage := s3.NewObjectStorage()
		if err := objectStorage.Connect(report.S3.Endpoint, report.S3.AccessKeyID, report.S3.SecretAccessKey, report.S3.UseSSL); err != nil {
			return nil, cleanup, err
		}
		storage = objectStorage
	}

	var publisher services.SummaryPublisher
	if report.MQTT.Enabled {
		mqttClient := mqtt.NewMqttService(fileClient)
		// Suffix the client ID so parallel runs do not kick each other off the broker
		clientID := report.MQTT.ClientID + "-" + uuid.New().String()
		if err := mqttClient.Initialize(report.MQTT.Broker, clientID, report.MQTT.CACertificate); err != nil {
			return nil, cleanup, fmt.Errorf("failed to initialize MQTT connection: %w", err)
		}
		log.Info().Str("client_id", clientID).Msg("Connected to MQTT broker")
		publisher = mqttClient
		cleanup = func() { mqttClient.Disconnect(250) }
	}

	bucket := ""
	if report.S3.Enabled {
		bucket = report.S3.Bucket
	}
	topic := ""
	if report.MQTT.Enabled {
		topic = report.MQTT.Topic
	}

	return services.NewReportService(services.ReportConfig{
		OutputFile:  report.OutputFile,
		GeoJSONFile: report.GeoJSONFile,
		Bucket:      bucket,
		Prefix:      report.S3.Prefix,
		Topic:       topic,
		QOS:         byte(report.MQTT.QOS),
	}, fileClient, storage, publisher, log), cleanup, nil
}

func printSummary(w io.Writer, summary models.Summary) {
	if summary.DryRun {
		fmt.Fprintf(w, "dry run: %d planned, %d skipped\n", summary.Planned, summary.Skipped)
	} else {
		fmt.Fprintf(w, "%d updated, %d skipped, %d failed\n", summary.Updated, summary.Skipped, summary.Failed)
	}
	for _, reason := range slices.Sorted(maps.Keys(summary.SkipCounts)) {
		fmt.Fprintf(w, "  skipped %s: %d\n", reason, summary.SkipCounts[reason])
	}
	for _, f := range summary.Failures {
		fmt.Fprintf(w, "failed %s (%s): %s\n", f.AssetID, f.Kind, f.Error)
	}
	if summary.Canceled {
		fmt.Fprintln(w, "run was canceled before all updates were sent")
	}
}

func exitCode(summary models.Summary) int {
	if summary.Failed > 0 || summary.Canceled {
		return exitPartial
	}
	return exitOK
}
