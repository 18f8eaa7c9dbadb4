// Package validate gates which URLs the processor will ever touch. The domain
// restriction is a security boundary: it runs before any cache lookup or
// outbound request.
package validate

import (
	"net/url"
	"strings"

	"github.com/sufscan/receipt-processor/internal/common"
)

const (
	// AuthorizedHost is the only host receipts are accepted from.
	AuthorizedHost = "suf.purs.gov.rs"

	// RequiredParam carries the signed receipt payload on verification URLs.
	RequiredParam = "vl"
)

// CanonicalURL validates a candidate URL and returns its canonical form:
// lowercased scheme and host, query parameters re-encoded in sorted order.
// The canonical form is what cache keys are derived from, so equivalent URLs
// always map to the same entry.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", common.Errorf(common.KindInvalidURL, "url is empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", common.NewError(common.KindInvalidURL, "malformed url", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "https" {
		return "", common.Errorf(common.KindInvalidURL, "scheme %q is not allowed, only https", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host != AuthorizedHost {
		return "", common.Errorf(common.KindInvalidURL, "host %q is not the authorized receipt source", u.Hostname())
	}

	q := u.Query()
	if strings.TrimSpace(q.Get(RequiredParam)) == "" {
		return "", common.Errorf(common.KindInvalidURL, "missing required %q query parameter", RequiredParam)
	}

	u.Scheme = scheme
	u.Host = host
	u.RawQuery = q.Encode() // sorted keys
	u.Fragment = ""
	return u.String(), nil
}
