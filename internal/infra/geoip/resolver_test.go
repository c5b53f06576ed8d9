package geoip

import (
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolverDisabledWithoutPath(t *testing.T) {
	r, err := NewResolver("  ")
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = r.CountryCode("41.72.96.1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NoError(t, r.Close())
}

func TestNewResolverMissingDatabase(t *testing.T) {
	_, err := NewResolver(filepath.Join(t.TempDir(), "GeoLite2-Country.mmdb"))
	require.Error(t, err)
}

func TestCountryCodeCachesLookups(t *testing.T) {
	calls := 0
	r := newResolver(func(ip net.IP) (string, error) {
		calls++
		if ip.String() == "41.72.96.1" {
			return "zm", nil
		}
		return "", nil
	}, nil)

	for i := 0; i < 3; i++ {
		code, err := r.CountryCode("41.72.96.1")
		require.NoError(t, err)
		assert.Equal(t, "ZM", code)
	}
	code, err := r.CountryCode("198.51.100.1")
	require.NoError(t, err)
	assert.Empty(t, code)
	assert.Equal(t, 2, calls)
}

func TestCountryCodeSkipsLocalAddresses(t *testing.T) {
	r := newResolver(func(net.IP) (string, error) {
		t.Fatal("local address reached the database")
		return "", nil
	}, nil)

	for _, ip := range []string{"10.0.0.1", "192.168.1.20", "127.0.0.1", "::1", "fe80::1"} {
		code, err := r.CountryCode(ip)
		require.NoError(t, err, ip)
		assert.Empty(t, code, ip)
	}
	_, err := r.CountryCode("not-an-ip")
	assert.Error(t, err)
}

func TestCountryCodeDoesNotCacheErrors(t *testing.T) {
	fail := true
	r := newResolver(func(net.IP) (string, error) {
		if fail {
			return "", errors.New("corrupt record")
		}
		return "MW", nil
	}, nil)

	_, err := r.CountryCode("102.70.0.1")
	require.Error(t, err)
	fail = false
	code, err := r.CountryCode("102.70.0.1")
	require.NoError(t, err)
	assert.Equal(t, "MW", code)
}
