// Package cachebust generates tokens appended to download URLs to defeat
// edge/CDN caching of share-link redirects.
package cachebust

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const (
	alphabet     = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffixLength = 8
)

// Token returns a fresh cache-busting token of the form
// "<unixtime>-<8 lowercase alphanumerics>". Every call produces a
// distinct value; callers are expected to regenerate on each retry.
func Token() (string, error) {
	b := make([]byte, suffixLength)
	if _, err := rand.Read(b); err != nil {
		return "", goerr.Wrap(err, "failed to generate random suffix")
	}

	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}

	return fmt.Sprintf("%d-%s", time.Now().Unix(), b), nil
}
