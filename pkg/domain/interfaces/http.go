package interfaces

import (
	"context"
	"io"

	"github.com/m-mizutani/sheetmirror/pkg/domain/model"
)

// HTTPClient defines the outbound HTTP operations needed by the resolver
// and fetcher. Tests substitute deterministic fakes for retry, backoff
// and signature-check scenarios without real network access.
type HTTPClient interface {
	// Head performs a best-effort HEAD request. The response status is
	// reported in RemoteInfo even when it is not 2xx; only a transport
	// error returns a non-nil error.
	Head(ctx context.Context, url string) (*model.RemoteInfo, error)

	// Get performs a GET request with a streaming body. A non-2xx
	// status is returned as an error with the body closed.
	Get(ctx context.Context, url string) (io.ReadCloser, *model.RemoteInfo, error)

	// FinalURL issues a GET with redirect following and returns the URL
	// the request ultimately landed on. The body is discarded.
	FinalURL(ctx context.Context, url string) (string, error)
}
