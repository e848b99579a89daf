package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/RubixDev/immich-gpx/internal/constants"
	"github.com/RubixDev/immich-gpx/internal/models"
	"github.com/RubixDev/immich-gpx/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlags_OverrideOnlyWhenSet(t *testing.T) {
	config := utils.DefaultConfig()
	config.Immich.Server = "https://from-file.example.com"
	config.Immich.CameraMake = "Canon"

	f := newFlags()
	require.NoError(t, f.set.Parse([]string{
		"-n", "--owner", "user-1", "--page", "3", "--max-gap", "15m",
		"--include-located", "track.gpx", "other.gpx",
	}))
	f.apply(config)

	assert.Equal(t, "https://from-file.example.com", config.Immich.Server)
	assert.Equal(t, "Canon", config.Immich.CameraMake)
	assert.True(t, config.Apply.DryRun)
	assert.Equal(t, "user-1", config.Selection.OwnerID)
	assert.Equal(t, 3, config.Immich.StartPage)
	assert.Equal(t, 15*time.Minute, config.Matching.MaxGap)
	assert.False(t, config.Selection.OnlyMissingLocation)
	assert.Equal(t, 4, config.Apply.ConcurrencyLimit)
	assert.Equal(t, []string{"track.gpx", "other.gpx"}, f.set.Args())
}

func TestRun_NoTrackFilesIsFatal(t *testing.T) {
	t.Setenv("IMMICH_SERVER", "https://immich.example.com")
	t.Setenv("IMMICH_API_KEY", "key")

	var stdout, stderr bytes.Buffer
	code := run([]string{"--config", ""}, &stdout, &stderr)
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, stderr.String(), "usage: immich-gpx")
}

func TestRun_MissingAPIKeyIsFatal(t *testing.T) {
	t.Setenv("IMMICH_SERVER", "https://immich.example.com")
	t.Setenv("IMMICH_API_KEY", "")

	var stdout, stderr bytes.Buffer
	code := run([]string{"--config", "", "track.gpx"}, &stdout, &stderr)
	assert.Equal(t, exitFatal, code)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(models.Summary{Updated: 3, Skipped: 1}))
	assert.Equal(t, exitPartial, exitCode(models.Summary{Updated: 3, Failed: 1}))
	assert.Equal(t, exitPartial, exitCode(models.Summary{Canceled: true}))
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, models.Summary{
		Updated:    1,
		Skipped:    2,
		Failed:     1,
		SkipCounts: map[constants.SkipReason]int{constants.SkipGapTooLarge: 1, constants.SkipAfterLastPoint: 1},
		Failures:   []models.FailureDetail{{AssetID: "a1", Kind: constants.FailureNotFound, Error: "not_found (status 404)"}},
	})

	assert.Equal(t, "1 updated, 2 skipped, 1 failed\n"+
		"  skipped after_last_point: 1\n"+
		"  skipped gap_too_large: 1\n"+
		"failed a1 (not_found): not_found (status 404)\n", out.String())
}
