package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sheetmirror/pkg/cli/config"
	"github.com/m-mizutani/sheetmirror/pkg/domain/model"
	"github.com/m-mizutani/sheetmirror/pkg/infra/webclient"
	"github.com/m-mizutani/sheetmirror/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdSync() *cli.Command {
	var (
		syncCfg      config.Sync
		resourcesCfg config.Resources
	)

	flags := append(syncCfg.Flags(), resourcesCfg.Flags()...)

	return &cli.Command{
		Name:    "sync",
		Aliases: []string{"s"},
		Usage:   "Download every configured workbook and write the change marker",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			resources, err := resourcesCfg.Load()
			if err != nil {
				return goerr.Wrap(err, "failed to load resource table")
			}

			markerPath := syncCfg.MarkerPath
			if markerPath == "" {
				markerPath = filepath.Join(syncCfg.DataDir, ".files_changed")
			}

			logger.Info("starting sync",
				"data_dir", syncCfg.DataDir,
				"marker", markerPath,
				"timeout", syncCfg.Timeout.String(),
				"attempts", syncCfg.Attempts,
			)

			client := webclient.New(webclient.Options{
				Timeout: syncCfg.Timeout,
			})
			resolver := usecase.NewResolver(client)
			fetcher := usecase.NewFetcher(client, resolver,
				usecase.WithAttempts(syncCfg.Attempts),
				usecase.WithRetryWait(syncCfg.RetryWait),
			)
			sync := usecase.NewSync(fetcher, syncCfg.DataDir, markerPath,
				usecase.WithResources(resources),
			)

			report, err := sync.Run(ctx)
			if err != nil {
				return goerr.Wrap(err, "sync run failed")
			}

			printSummary(report)

			if !report.OK() {
				return goerr.New("one or more workbooks failed to download",
					goerr.V("failed", len(report.Failed())),
					goerr.V("total", len(report.Results)),
				)
			}
			return nil
		},
	}
}

func printSummary(report *model.Report) {
	ok := color.New(color.FgGreen).SprintFunc()
	failed := color.New(color.FgRed).SprintFunc()

	fmt.Printf("\nsync report (run %s)\n", report.RunID)
	for _, result := range report.Results {
		if result.OK() {
			fmt.Printf("  %s  %s (%d bytes)\n", ok("OK"), result.Resource.Name, result.Size)
		} else {
			fmt.Printf("  %s  %s: %v\n", failed("FAILED"), result.Resource.Name, result.Err)
		}
	}
	fmt.Fprintln(os.Stdout)
}
