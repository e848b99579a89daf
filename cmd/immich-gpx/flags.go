package main

import (
	"time"

	"github.com/RubixDev/immich-gpx/internal/utils"
	"github.com/spf13/pflag"
)

// cliFlags holds the command line. Flags override the configuration file and
// environment only when given explicitly.
type cliFlags struct {
	set        *pflag.FlagSet
	configPath string

	server         string
	dryRun         bool
	owner          string
	cameraBrand    string
	cameraModel    string
	page           int
	maxPages       int
	maxGap         time.Duration
	concurrency    int
	timeout        time.Duration
	includeLocated bool
	partialMissing bool
	audit          bool
	skipInvalid    bool
	reportFile     string
	geoJSONFile    string
	logLevel       string
}

func newFlags() *cliFlags {
	f := &cliFlags{set: pflag.NewFlagSet("immich-gpx", pflag.ContinueOnError)}
	fs := f.set

	fs.StringVarP(&f.configPath, "config", "c", "configs/config.yaml", "path to the YAML configuration file")
	fs.StringVar(&f.server, "server", "", "URL of the Immich server, e.g. https://immich.example.com")
	fs.BoolVarP(&f.dryRun, "dry-run", "n", false, "don't actually send updates to Immich")
	fs.StringVar(&f.owner, "owner", "", "only apply to assets owned by the user with this ID")
	fs.StringVar(&f.cameraBrand, "camera-brand", "", "only apply to assets taken with a camera of this brand")
	fs.StringVar(&f.cameraModel, "camera-model", "", "only apply to assets taken with this camera model")
	fs.IntVarP(&f.page, "page", "p", 1, "first page number when searching assets")
	fs.IntVar(&f.maxPages, "max-pages", 0, "number of search pages to fetch, 0 for all")
	fs.DurationVar(&f.maxGap, "max-gap", 5*time.Minute, "largest gap between track points that is interpolated")
	fs.IntVar(&f.concurrency, "concurrency", 4, "number of concurrent update requests")
	fs.DurationVar(&f.timeout, "timeout", 30*time.Second, "timeout of a single update request")
	fs.BoolVar(&f.includeLocated, "include-located", false, "also overwrite assets that already have a location")
	fs.BoolVar(&f.partialMissing, "partial-as-missing", false, "treat assets with only latitude or only longitude as missing a location")
	fs.BoolVar(&f.audit, "audit", false, "list filtered assets as skipped in the report")
	fs.BoolVar(&f.skipInvalid, "skip-invalid", false, "skip unreadable track files instead of aborting")
	fs.StringVarP(&f.reportFile, "report", "o", "", "write a JSON report to this file")
	fs.StringVar(&f.geoJSONFile, "geojson", "", "write a GeoJSON map of the track and matched assets to this file")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: trace, debug, info, warn or error")

	return f
}

// apply copies every explicitly set flag into config.
func (f *cliFlags) apply(config *utils.Config) {
	changed := f.set.Changed

	if changed("server") {
		config.Immich.Server = f.server
	}
	if changed("dry-run") {
		config.Apply.DryRun = f.dryRun
	}
	if changed("owner") {
		config.Selection.OwnerID = f.owner
	}
	if changed("camera-brand") {
		config.Immich.CameraMake = f.cameraBrand
	}
	if changed("camera-model") {
		config.Immich.CameraModel = f.cameraModel
	}
	if changed("page") {
		config.Immich.StartPage = f.page
	}
	if changed("max-pages") {
		config.Immich.MaxPages = f.maxPages
	}
	if changed("max-gap") {
		config.Matching.MaxGap = f.maxGap
	}
	if changed("concurrency") {
		config.Apply.ConcurrencyLimit = f.concurrency
	}
	if changed("timeout") {
		config.Apply.PerCallTimeout = f.timeout
	}
	if changed("include-located") {
		config.Selection.OnlyMissingLocation = !f.includeLocated
	}
	if changed("partial-as-missing") {
		config.Selection.PartialLocationAsMissing = f.partialMissing
	}
	if changed("audit") {
		config.Selection.AuditFiltered = f.audit
	}
	if changed("skip-invalid") {
		config.Tracks.SkipInvalid = f.skipInvalid
	}
	if changed("report") {
		config.Report.OutputFile = f.reportFile
	}
	if changed("geojson") {
		config.Report.GeoJSONFile = f.geoJSONFile
	}
	if changed("log-level") {
		config.LogLevel = f.logLevel
	}
}
