package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sheetmirror/pkg/domain/interfaces"
	"github.com/m-mizutani/sheetmirror/pkg/domain/model"
)

type syncUseCase struct {
	fetcher    interfaces.Fetcher
	resources  []model.Resource
	dataDir    string
	markerPath string
	lookupEnv  func(key string) (string, bool)
	now        func() time.Time
}

// SyncOption is a functional option for the sync use case
type SyncOption func(*syncUseCase)

// WithResources replaces the built-in workbook table
func WithResources(resources []model.Resource) SyncOption {
	return func(uc *syncUseCase) {
		uc.resources = resources
	}
}

// WithLookupEnv replaces the environment lookup, so tests can run
// without mutating the process environment.
func WithLookupEnv(lookup func(key string) (string, bool)) SyncOption {
	return func(uc *syncUseCase) {
		uc.lookupEnv = lookup
	}
}

// WithClock replaces the time source used for the marker file
func WithClock(now func() time.Time) SyncOption {
	return func(uc *syncUseCase) {
		uc.now = now
	}
}

// NewSync creates the sync use case. dataDir and markerPath are explicit
// parameters so tests can point the whole run at a temporary directory.
func NewSync(fetcher interfaces.Fetcher, dataDir, markerPath string, opts ...SyncOption) interfaces.SyncUseCase {
	uc := &syncUseCase{
		fetcher:    fetcher,
		resources:  model.DefaultResources(),
		dataDir:    dataDir,
		markerPath: markerPath,
		lookupEnv:  os.LookupEnv,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Run mirrors every workbook in the table, strictly sequentially. One
// workbook's failure never stops the others; the marker file is written
// unconditionally so change detection always sees an update.
func (uc *syncUseCase) Run(ctx context.Context) (*model.Report, error) {
	logger := ctxlog.From(ctx)

	report := &model.Report{
		RunID:     uuid.NewString(),
		StartedAt: uc.now(),
	}
	logger = logger.With("run_id", report.RunID)
	ctx = ctxlog.With(ctx, logger)

	logger.Info("starting workbook mirror run",
		"data_dir", uc.dataDir,
		"marker", uc.markerPath,
		"resources", len(uc.resources),
	)

	if err := os.MkdirAll(uc.dataDir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("dir", uc.dataDir))
	}

	for _, resource := range uc.resources {
		report.Results = append(report.Results, uc.syncResource(ctx, resource))
	}

	if err := uc.writeMarker(); err != nil {
		return nil, err
	}
	logger.Info("created marker file", "path", uc.markerPath)

	uc.logDataDir(ctx)

	report.FinishedAt = uc.now()
	logger.Info("mirror run completed", "success", report.OK())

	return report, nil
}

func (uc *syncUseCase) syncResource(ctx context.Context, resource model.Resource) model.ResourceResult {
	logger := ctxlog.From(ctx)
	logger.Info("processing workbook", "name", resource.Name)

	result := model.ResourceResult{Resource: resource}

	shareURL, ok := uc.lookupEnv(resource.EnvVar)
	if !ok || shareURL == "" {
		logger.Warn("environment variable not set, skipping workbook",
			"name", resource.Name,
			"env", resource.EnvVar,
		)
		result.Err = goerr.New("share link environment variable not set",
			goerr.V("name", resource.Name),
			goerr.V("env", resource.EnvVar),
		)
		return result
	}

	result.Path = filepath.Join(uc.dataDir, resource.Filename)
	if err := uc.fetcher.Fetch(ctx, shareURL, result.Path); err != nil {
		result.Err = err
		return result
	}

	if fi, err := os.Stat(result.Path); err == nil {
		result.Size = fi.Size()
	}
	return result
}

// writeMarker writes the marker file downstream change-detection tooling
// watches. It is written every run, success or not.
func (uc *syncUseCase) writeMarker() error {
	content := fmt.Sprintf("Files updated at %s\n", uc.now().Format(time.RFC3339))
	if err := os.WriteFile(uc.markerPath, []byte(content), 0644); err != nil {
		return goerr.Wrap(err, "failed to write marker file", goerr.V("path", uc.markerPath))
	}
	return nil
}

func (uc *syncUseCase) logDataDir(ctx context.Context) {
	logger := ctxlog.From(ctx)

	entries, err := os.ReadDir(uc.dataDir)
	if err != nil {
		logger.Warn("failed to list data directory", "error", err, "dir", uc.dataDir)
		return
	}

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.IsDir() {
			continue
		}
		logger.Info("data directory entry", "file", entry.Name(), "size", info.Size())
	}
}
