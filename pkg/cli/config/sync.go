package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Sync holds sync command configuration
type Sync struct {
	DataDir    string
	MarkerPath string
	Timeout    time.Duration
	Attempts   int
	RetryWait  time.Duration
}

// Flags returns CLI flags for sync configuration
func (c *Sync) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory workbooks are mirrored into",
			Value:       "data",
			Destination: &c.DataDir,
			Sources:     cli.EnvVars("SHEETMIRROR_DATA_DIR"),
		},
		&cli.StringFlag{
			Name:        "marker",
			Usage:       "Change marker file path (default: <data-dir>/.files_changed)",
			Destination: &c.MarkerPath,
			Sources:     cli.EnvVars("SHEETMIRROR_MARKER"),
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Per-request HTTP timeout",
			Value:       30 * time.Second,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("SHEETMIRROR_TIMEOUT"),
		},
		&cli.IntFlag{
			Name:        "attempts",
			Usage:       "Download attempts per workbook",
			Value:       3,
			Destination: &c.Attempts,
			Sources:     cli.EnvVars("SHEETMIRROR_ATTEMPTS"),
		},
		&cli.DurationFlag{
			Name:        "retry-wait",
			Usage:       "Delay between download attempts",
			Value:       5 * time.Second,
			Destination: &c.RetryWait,
			Sources:     cli.EnvVars("SHEETMIRROR_RETRY_WAIT"),
		},
	}
}
