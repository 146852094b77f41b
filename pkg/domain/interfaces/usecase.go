package interfaces

import (
	"context"

	"github.com/m-mizutani/sheetmirror/pkg/domain/model"
)

// Resolver converts an opaque share link into a best-effort direct
// download URL. An error means resolution failed and the caller should
// fall back to the original link unmodified.
type Resolver interface {
	Resolve(ctx context.Context, shareURL string) (string, error)
}

// Fetcher downloads one workbook to a destination path, retrying
// internally. A nil return means the file is on disk and non-empty.
type Fetcher interface {
	Fetch(ctx context.Context, shareURL, destPath string) error
}

// SyncUseCase runs the full mirror pass over the workbook table
type SyncUseCase interface {
	// Run mirrors every configured workbook and writes the marker file.
	// The returned error covers process-level failures (e.g. the data
	// directory cannot be created); per-workbook failures are reported
	// through the Report.
	Run(ctx context.Context) (*model.Report, error)
}
