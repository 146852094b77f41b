package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/sheetmirror/pkg/domain/model"
	"github.com/m-mizutani/sheetmirror/pkg/usecase"
)

// stubResolver is a trivial resolver for fetcher tests
type stubResolver struct {
	resolveFunc func(ctx context.Context, shareURL string) (string, error)
	calls       int
}

func (s *stubResolver) Resolve(ctx context.Context, shareURL string) (string, error) {
	s.calls++
	if s.resolveFunc != nil {
		return s.resolveFunc(ctx, shareURL)
	}
	return shareURL + "?cb=stub", nil
}

// waitRecorder collects inter-attempt delays instead of sleeping
type waitRecorder struct {
	waits []time.Duration
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	w.waits = append(w.waits, d)
	return nil
}

func okGet(body []byte) func(ctx context.Context, url string) (io.ReadCloser, *model.RemoteInfo, error) {
	return func(ctx context.Context, url string) (io.ReadCloser, *model.RemoteInfo, error) {
		return io.NopCloser(bytes.NewReader(body)), &model.RemoteInfo{
			StatusCode:    200,
			ContentLength: int64(len(body)),
			ContentType:   "application/octet-stream",
		}, nil
	}
}

func TestFetcher_SuccessFirstAttempt(t *testing.T) {
	body := append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0xab}, 512)...)
	client := &mockHTTPClient{getFunc: okGet(body)}
	recorder := &waitRecorder{}

	fetcher := usecase.NewFetcher(client, &stubResolver{}, usecase.WithWaitFunc(recorder.wait))

	dest := filepath.Join(t.TempDir(), "Solar_Lab_Tests.xlsx")
	gt.NoError(t, fetcher.Fetch(context.Background(), "https://example.com/share", dest))

	// No retry, so no delay incurred
	gt.Number(t, len(recorder.waits)).Equal(0)
	gt.Number(t, len(client.getCalls)).Equal(1)

	// Streaming must not corrupt or truncate
	got, err := os.ReadFile(dest)
	gt.NoError(t, err)
	gt.Value(t, got).Equal(body)
}

func TestFetcher_EmptyBodyExhaustsAttempts(t *testing.T) {
	client := &mockHTTPClient{getFunc: okGet(nil)}
	recorder := &waitRecorder{}

	fetcher := usecase.NewFetcher(client, &stubResolver{},
		usecase.WithWaitFunc(recorder.wait),
		usecase.WithRetryWait(5*time.Second),
	)

	dest := filepath.Join(t.TempDir(), "empty.xlsx")
	err := fetcher.Fetch(context.Background(), "https://example.com/share", dest)
	gt.Error(t, err)

	// Exactly 3 attempts, delay applied uniformly between them
	gt.Number(t, len(client.getCalls)).Equal(3)
	gt.Value(t, recorder.waits).Equal([]time.Duration{5 * time.Second, 5 * time.Second})

	// The failed result must not leave a non-empty file behind
	fi, statErr := os.Stat(dest)
	gt.NoError(t, statErr)
	gt.Number(t, fi.Size()).Equal(int64(0))
}

func TestFetcher_RecoversOnThirdAttempt(t *testing.T) {
	body := []byte("PK\x03\x04 spreadsheet content")
	attempt := 0
	client := &mockHTTPClient{
		getFunc: func(ctx context.Context, url string) (io.ReadCloser, *model.RemoteInfo, error) {
			attempt++
			if attempt <= 2 {
				return nil, nil, errors.New("connection reset by peer")
			}
			return okGet(body)(ctx, url)
		},
	}
	recorder := &waitRecorder{}

	fetcher := usecase.NewFetcher(client, &stubResolver{},
		usecase.WithWaitFunc(recorder.wait),
		usecase.WithRetryWait(5*time.Second),
	)

	dest := filepath.Join(t.TempDir(), "retry.xlsx")
	gt.NoError(t, fetcher.Fetch(context.Background(), "https://example.com/share", dest))

	// Two failures, two 5-second backoffs
	gt.Value(t, recorder.waits).Equal([]time.Duration{5 * time.Second, 5 * time.Second})

	got, err := os.ReadFile(dest)
	gt.NoError(t, err)
	gt.Value(t, got).Equal(body)
}

func TestFetcher_ResolverFailureFallsBackToOriginalURL(t *testing.T) {
	body := []byte("PK\x03\x04")
	client := &mockHTTPClient{getFunc: okGet(body)}
	resolver := &stubResolver{
		resolveFunc: func(ctx context.Context, shareURL string) (string, error) {
			return "", errors.New("redirect resolution failed")
		},
	}

	fetcher := usecase.NewFetcher(client, resolver, usecase.WithWaitFunc((&waitRecorder{}).wait))

	dest := filepath.Join(t.TempDir(), "fallback.xlsx")
	gt.NoError(t, fetcher.Fetch(context.Background(), "https://1drv.ms/x/s!AbCd", dest))

	gt.Value(t, client.getCalls).Equal([]string{"https://1drv.ms/x/s!AbCd"})
}

func TestFetcher_FreshResolutionPerAttempt(t *testing.T) {
	attempt := 0
	client := &mockHTTPClient{
		getFunc: func(ctx context.Context, url string) (io.ReadCloser, *model.RemoteInfo, error) {
			attempt++
			if attempt == 1 {
				return nil, nil, errors.New("timeout")
			}
			return okGet([]byte("PK\x03\x04"))(ctx, url)
		},
	}
	resolver := &stubResolver{}

	fetcher := usecase.NewFetcher(client, resolver, usecase.WithWaitFunc((&waitRecorder{}).wait))

	dest := filepath.Join(t.TempDir(), "fresh.xlsx")
	gt.NoError(t, fetcher.Fetch(context.Background(), "https://example.com/share", dest))

	// Every attempt re-resolves the share link
	gt.Number(t, resolver.calls).Equal(2)
}

func TestFetcher_HeadTransportErrorFailsAttempt(t *testing.T) {
	client := &mockHTTPClient{
		headFunc: func(ctx context.Context, url string) (*model.RemoteInfo, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	recorder := &waitRecorder{}

	fetcher := usecase.NewFetcher(client, &stubResolver{}, usecase.WithWaitFunc(recorder.wait))

	dest := filepath.Join(t.TempDir(), "head.xlsx")
	err := fetcher.Fetch(context.Background(), "https://example.com/share", dest)
	gt.Error(t, err)

	// HEAD failed every attempt before GET was reached
	gt.Number(t, len(client.headCalls)).Equal(3)
	gt.Number(t, len(client.getCalls)).Equal(0)
}

func TestFetcher_UnexpectedSignatureIsOnlyAWarning(t *testing.T) {
	// An HTML error page instead of a workbook: logged, not failed.
	client := &mockHTTPClient{getFunc: okGet([]byte("<html>not a spreadsheet</html>"))}

	fetcher := usecase.NewFetcher(client, &stubResolver{}, usecase.WithWaitFunc((&waitRecorder{}).wait))

	dest := filepath.Join(t.TempDir(), "odd.xlsx")
	gt.NoError(t, fetcher.Fetch(context.Background(), "https://example.com/share", dest))
	gt.Number(t, len(client.getCalls)).Equal(1)
}

func TestFetcher_OverwritesExistingFile(t *testing.T) {
	body := []byte("PK\x03\x04 fresh content")
	client := &mockHTTPClient{getFunc: okGet(body)}

	fetcher := usecase.NewFetcher(client, &stubResolver{}, usecase.WithWaitFunc((&waitRecorder{}).wait))

	dest := filepath.Join(t.TempDir(), "existing.xlsx")
	gt.NoError(t, os.WriteFile(dest, []byte("stale content that is much longer than the new one"), 0644))

	gt.NoError(t, fetcher.Fetch(context.Background(), "https://example.com/share", dest))

	got, err := os.ReadFile(dest)
	gt.NoError(t, err)
	gt.Value(t, got).Equal(body)
}
