package monitor

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrInvalidURL is returned when an address fails the URL validation gate.
var ErrInvalidURL = errors.New("bad URL format")

// ParseEndpointURL checks that raw is an absolute http or https URL with a host.
//
// The returned string is the address exactly as configured, so messages and
// logs show what the operator wrote.
func ParseEndpointURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q: missing host", ErrInvalidURL, raw)
	}
	return raw, nil
}
