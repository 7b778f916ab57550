// Package geoip maps client IPs to ISO country codes with a local MaxMind
// database. Lookups are best effort; an empty code means unknown.
package geoip

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// CountryResolver resolves ISO country codes from IP addresses.
type CountryResolver interface {
	CountryCode(ip string) (string, error)
}

type dbResolver struct {
	reader *geoip2.Reader
}

// Open loads the GeoIP2 database at path. An empty path disables lookups
// and returns a nil resolver with no error.
func Open(path string) (CountryResolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &dbResolver{reader: reader}, nil
}

// CountryCode looks up the country for ip. Loopback, private, and
// unspecified addresses are skipped without touching the database since
// they never resolve to a country.
func (d *dbResolver) CountryCode(ip string) (string, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "", fmt.Errorf("geoip: invalid ip %q", ip)
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast() {
		return "", nil
	}
	record, err := d.reader.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup %s: %w", parsed, err)
	}
	if record == nil {
		return "", nil
	}
	return record.Country.IsoCode, nil
}

// Close releases the mapped database file.
func (d *dbResolver) Close() error {
	return d.reader.Close()
}
