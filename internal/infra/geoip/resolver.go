// Package geoip maps client addresses to ISO country codes with a MaxMind
// GeoLite2 or GeoIP2 country database.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned by a resolver without a database.
var ErrUnavailable = errors.New("geoip: resolver unavailable")

// cacheSize bounds the number of remembered addresses. The cache is dropped
// wholesale when full.
const cacheSize = 4096

// Resolver looks up countries and remembers recent answers, including
// addresses the database does not know.
type Resolver struct {
	lookup func(net.IP) (string, error)
	closer func() error

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver opens the database at path. An empty path disables lookups and
// returns a nil resolver.
func NewResolver(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open %s: %w", path, err)
	}
	return newResolver(func(ip net.IP) (string, error) {
		record, err := reader.Country(ip)
		if err != nil {
			return "", err
		}
		return record.Country.IsoCode, nil
	}, reader.Close), nil
}

func newResolver(lookup func(net.IP) (string, error), closer func() error) *Resolver {
	return &Resolver{lookup: lookup, closer: closer, cache: make(map[string]string)}
}

// CountryCode returns the ISO 3166-1 alpha-2 code for ip, or "" for private,
// loopback and unknown addresses.
func (r *Resolver) CountryCode(ip string) (string, error) {
	if r == nil || r.lookup == nil {
		return "", ErrUnavailable
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "", fmt.Errorf("geoip: invalid ip %q", ip)
	}
	if parsed.IsPrivate() || parsed.IsLoopback() || parsed.IsLinkLocalUnicast() || parsed.IsUnspecified() {
		return "", nil
	}
	key := parsed.String()

	r.mu.Lock()
	code, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return code, nil
	}

	code, err := r.lookup(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup %s: %w", key, err)
	}
	code = strings.ToUpper(code)

	r.mu.Lock()
	if len(r.cache) >= cacheSize {
		r.cache = make(map[string]string)
	}
	r.cache[key] = code
	r.mu.Unlock()
	return code, nil
}

// Close releases the database.
func (r *Resolver) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer()
}
