package usecase

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sheetmirror/pkg/domain/interfaces"
)

const (
	defaultAttempts  = 3
	defaultRetryWait = 5 * time.Second
	chunkSize        = 8 * 1024
	megabyte         = 1024 * 1024
)

// Known spreadsheet signatures: ZIP-based .xlsx and the legacy compound
// document format.
var (
	xlsxSignature = []byte("PK")
	xlsSignature  = []byte{0xD0, 0xCF, 0x11, 0xE0}
)

// Some servers misreport the content type of spreadsheet downloads, so a
// mismatch against this set is a warning, never a failure.
var spreadsheetContentTypes = []string{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-excel",
	"application/octet-stream",
	"application/binary",
}

// WaitFunc blocks for the given duration or until the context is done
type WaitFunc func(ctx context.Context, d time.Duration) error

func defaultWait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

type fetcher struct {
	client    interfaces.HTTPClient
	resolver  interfaces.Resolver
	attempts  int
	retryWait time.Duration
	wait      WaitFunc
}

// FetcherOption is a functional option for the fetcher
type FetcherOption func(*fetcher)

// WithAttempts sets the maximum number of download attempts
func WithAttempts(n int) FetcherOption {
	return func(f *fetcher) {
		f.attempts = n
	}
}

// WithRetryWait sets the delay between attempts
func WithRetryWait(d time.Duration) FetcherOption {
	return func(f *fetcher) {
		f.retryWait = d
	}
}

// WithWaitFunc replaces the inter-attempt wait, so tests can observe
// delays without sleeping.
func WithWaitFunc(wait WaitFunc) FetcherOption {
	return func(f *fetcher) {
		f.wait = wait
	}
}

// NewFetcher creates a fetcher that downloads one workbook per call with
// internal retry.
func NewFetcher(client interfaces.HTTPClient, resolver interfaces.Resolver, opts ...FetcherOption) interfaces.Fetcher {
	f := &fetcher{
		client:    client,
		resolver:  resolver,
		attempts:  defaultAttempts,
		retryWait: defaultRetryWait,
		wait:      defaultWait,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads shareURL to destPath. Every attempt re-resolves the
// share link so each retry carries a fresh cache-busting token. The
// retry delay applies to every retryable failure, including an empty
// download.
func (f *fetcher) Fetch(ctx context.Context, shareURL, destPath string) error {
	logger := ctxlog.From(ctx)
	logger.Info("downloading workbook", "url", shareURL, "dest", destPath)

	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		if attempt > 1 {
			logger.Info("retrying", "wait", f.retryWait.String(), "attempt", attempt, "max_attempts", f.attempts)
			if err := f.wait(ctx, f.retryWait); err != nil {
				return goerr.Wrap(err, "fetch cancelled while waiting to retry", goerr.V("url", shareURL))
			}
		}

		if err := f.attemptDownload(ctx, shareURL, destPath, attempt); err != nil {
			logger.Warn("download attempt failed",
				"error", err,
				"attempt", attempt,
				"max_attempts", f.attempts,
				"url", shareURL,
			)
			lastErr = err
			continue
		}

		logger.Info("successfully downloaded", "url", shareURL, "dest", destPath)
		return nil
	}

	return goerr.Wrap(lastErr, "download failed after all attempts",
		goerr.V("url", shareURL),
		goerr.V("attempts", f.attempts),
	)
}

func (f *fetcher) attemptDownload(ctx context.Context, shareURL, destPath string, attempt int) error {
	logger := ctxlog.From(ctx)

	directURL, err := f.resolver.Resolve(ctx, shareURL)
	if err != nil {
		logger.Warn("could not create direct URL, using original URL", "error", err, "url", shareURL)
		directURL = shareURL
	}
	logger.Info("using direct URL", "url", directURL, "attempt", attempt, "max_attempts", f.attempts)

	// HEAD first, purely for diagnostics. An odd status does not change
	// control flow; only a transport error fails the attempt.
	headInfo, err := f.client.Head(ctx, directURL)
	if err != nil {
		return goerr.Wrap(err, "HEAD request failed")
	}
	logger.Info("HEAD response",
		"status", headInfo.StatusCode,
		"headers", headInfo.Headers,
	)

	body, info, err := f.client.Get(ctx, directURL)
	if err != nil {
		return goerr.Wrap(err, "GET request failed")
	}
	defer body.Close()

	logger.Info("GET response",
		"status", info.StatusCode,
		"content_length", info.ContentLength,
		"content_type", info.ContentType,
		"headers", info.Headers,
	)

	if !isSpreadsheetContentType(info.ContentType) {
		logger.Warn("content type doesn't look like a spreadsheet", "content_type", info.ContentType)
	}

	written, err := streamToFile(ctx, body, destPath, info.ContentLength)
	if err != nil {
		return goerr.Wrap(err, "failed to write download to disk", goerr.V("dest", destPath))
	}
	logger.Info("download complete", "size", written, "dest", destPath)

	fi, err := os.Stat(destPath)
	if err != nil {
		return goerr.Wrap(err, "failed to stat downloaded file", goerr.V("dest", destPath))
	}
	if fi.Size() == 0 {
		return goerr.New("downloaded file is empty", goerr.V("dest", destPath))
	}

	f.checkSignature(ctx, destPath)
	return nil
}

// streamToFile copies body to destPath in fixed-size chunks, overwriting
// any existing file and logging progress at megabyte boundaries.
func streamToFile(ctx context.Context, body io.Reader, destPath string, total int64) (int64, error) {
	logger := ctxlog.From(ctx)

	out, err := os.Create(destPath)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create destination file")
	}
	defer out.Close()

	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return written, goerr.Wrap(writeErr, "write failed")
			}
			written += int64(n)
			if total > 0 && written%megabyte == 0 {
				logger.Info("download progress",
					"downloaded_mb", float64(written)/megabyte,
					"total_mb", float64(total)/megabyte,
				)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, goerr.Wrap(readErr, "read failed")
		}
	}

	if err := out.Close(); err != nil {
		return written, goerr.Wrap(err, "close failed")
	}
	return written, nil
}

// checkSignature reads the first bytes of the file and warns when they
// match neither known spreadsheet signature. Some valid downloads fail
// this check, so it never fails the attempt.
func (f *fetcher) checkSignature(ctx context.Context, destPath string) {
	logger := ctxlog.From(ctx)

	in, err := os.Open(destPath)
	if err != nil {
		logger.Warn("could not reopen file for signature check", "error", err, "dest", destPath)
		return
	}
	defer in.Close()

	header := make([]byte, 4)
	n, _ := io.ReadFull(in, header)
	header = header[:n]

	if !bytes.HasPrefix(header, xlsxSignature) && !bytes.HasPrefix(header, xlsSignature) {
		logger.Warn("file doesn't look like a spreadsheet",
			"first_bytes", hex.EncodeToString(header),
			"dest", destPath,
		)
	}
}

func isSpreadsheetContentType(contentType string) bool {
	for _, want := range spreadsheetContentTypes {
		if strings.Contains(contentType, want) {
			return true
		}
	}
	return false
}
