package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sheetmirror/pkg/domain/interfaces"
	"github.com/m-mizutani/sheetmirror/pkg/domain/model"
	"github.com/m-mizutani/sheetmirror/pkg/utils/cachebust"
)

type resolver struct {
	client interfaces.HTTPClient
}

// NewResolver creates a share-link resolver backed by the given HTTP
// client. The client is only used to follow short-link redirects.
func NewResolver(client interfaces.HTTPClient) interfaces.Resolver {
	return &resolver{
		client: client,
	}
}

// Resolve converts a share link into a best-effort direct download URL.
// A fresh cache-busting token is generated on every call, so retries
// always produce a distinct URL. A returned error means resolution
// failed; callers fall back to the original link.
func (r *resolver) Resolve(ctx context.Context, shareURL string) (string, error) {
	logger := ctxlog.From(ctx)

	token, err := cachebust.Token()
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate cache buster")
	}

	// Everything before the first '?' — existing parameters are replaced
	// by our own.
	baseURL := shareURL
	if idx := strings.Index(shareURL, "?"); idx >= 0 {
		baseURL = shareURL[:idx]
	}

	kind := model.ClassifyLink(shareURL)
	logger.Debug("classified share link",
		"url", shareURL,
		"kind", kind,
		"cache_buster", token,
	)

	switch kind {
	case model.LinkShort:
		directURL, err := r.resolveShortLink(ctx, shareURL, token)
		if err != nil {
			return "", err
		}
		if directURL != "" {
			return directURL, nil
		}
		// Redirect landed outside the expected host: treat like an
		// unknown link and just bust the cache on the original base.
		logger.Warn("short link did not redirect to a OneDrive host", "url", shareURL)

	case model.LinkDirect:
		return joinQuery(baseURL, "download=1&cb="+token), nil
	}

	logger.Info("unknown URL type, adding cache buster to original URL", "url", shareURL)
	return joinQuery(baseURL, "cb="+token), nil
}

// resolveShortLink follows a 1drv.ms redirect to find the real document
// URL. Returns "" (no error) when the redirect target is not a OneDrive
// host.
func (r *resolver) resolveShortLink(ctx context.Context, shareURL, token string) (string, error) {
	logger := ctxlog.From(ctx)
	logger.Info("detected OneDrive personal short link", "url", shareURL)

	redirectURL, err := r.client.FinalURL(ctx, shareURL)
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve short link redirect", goerr.V("url", shareURL))
	}
	logger.Info("redirected", "url", redirectURL)

	if !strings.Contains(redirectURL, "onedrive.live.com") {
		return "", nil
	}

	// The viewer page serves HTML; the download page serves bytes.
	directURL := strings.Replace(redirectURL, "view.aspx", "download.aspx", 1)
	directURL = joinQuery(directURL, "download=1&cb="+token)
	logger.Info("created direct URL", "url", directURL)

	return directURL, nil
}

// joinQuery appends params to u with '&' if u already has a query
// string, '?' otherwise.
func joinQuery(u, params string) string {
	if strings.Contains(u, "?") {
		return u + "&" + params
	}
	return u + "?" + params
}
