// Package geo resolves client IP addresses to ISO country codes using a
// MaxMind GeoLite2/GeoIP2 database.
package geo

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/maxminddb-golang"
)

// UnknownDatabaseTypeError is returned when the database holds no country data
type UnknownDatabaseTypeError struct {
	DatabaseType string
}

func (e UnknownDatabaseTypeError) Error() string {
	return fmt.Sprintf("geo: database type %q has no country data", e.DatabaseType)
}

type countryRecord struct {
	Country struct {
		IsoCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
	RegisteredCountry struct {
		IsoCode string `maxminddb:"iso_code"`
	} `maxminddb:"registered_country"`
}

// Locator looks up country codes in a memory-mapped database
type Locator struct {
	reader *maxminddb.Reader
}

// Open memory-maps the database at path. Call Close to release it.
func Open(path string) (*Locator, error) {
	reader, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geo database: %w", err)
	}
	if !hasCountryData(reader.Metadata.DatabaseType) {
		_ = reader.Close()
		return nil, UnknownDatabaseTypeError{reader.Metadata.DatabaseType}
	}
	return &Locator{reader: reader}, nil
}

// hasCountryData accepts the City, Country and Enterprise editions of both
// MaxMind and DB-IP databases.
func hasCountryData(dbType string) bool {
	for _, marker := range []string{"City", "Country", "Enterprise", "Location"} {
		if strings.Contains(dbType, marker) {
			return true
		}
	}
	return false
}

// CountryCode returns the ISO 3166-1 code for ip, or "" when the address is
// not in the database. The registered country is used when the database has
// no location for the address itself.
func (l *Locator) CountryCode(ip string) (string, error) {
	addr := ParseIP(ip)
	if addr == nil {
		return "", fmt.Errorf("geo: invalid IP address %q", ip)
	}

	var record countryRecord
	if err := l.reader.Lookup(addr, &record); err != nil {
		return "", fmt.Errorf("geo: lookup failed: %w", err)
	}
	if record.Country.IsoCode != "" {
		return record.Country.IsoCode, nil
	}
	return record.RegisteredCountry.IsoCode, nil
}

func (l *Locator) Close() error {
	return l.reader.Close()
}

// ParseIP accepts a bare address or a host:port pair.
func ParseIP(s string) net.IP {
	s = strings.TrimSpace(s)
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	return net.ParseIP(strings.Trim(s, "[]"))
}
