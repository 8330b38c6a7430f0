package carriers

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/ports"

	"gopkg.in/yaml.v3"
)

// credentialsFile is the on-disk layout:
//
//	defaults:
//	  GSS: {access_key: "...", site_id: "...", supportemail: "ops@example.com"}
//	outlets:
//	  "outlet-7":
//	    NZPOST: {api_key: "...", subscription_key: "..."}
//
// Carrier keys accept the same aliases as catalog codes (NZ_POST, ESHIP...).
type credentialsFile struct {
	Defaults map[string]map[string]string            `yaml:"defaults"`
	Outlets  map[string]map[string]map[string]string `yaml:"outlets"`
}

// StaticCredentials is a ports.CredentialsProvider loaded once at startup.
type StaticCredentials struct {
	defaults map[string]map[string]string
	outlets  map[string]map[string]map[string]string
}

var _ ports.CredentialsProvider = (*StaticCredentials)(nil)

// LoadCredentials reads a YAML credentials file. An empty path yields a
// provider with nothing configured.
func LoadCredentials(path string) (*StaticCredentials, error) {
	if strings.TrimSpace(path) == "" {
		return ParseCredentials(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read carrier credentials: %w", err)
	}
	return ParseCredentials(data)
}

func ParseCredentials(data []byte) (*StaticCredentials, error) {
	var f credentialsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse carrier credentials: %w", err)
	}

	c := &StaticCredentials{
		defaults: normalizeCarrierKeys(f.Defaults),
		outlets:  make(map[string]map[string]map[string]string, len(f.Outlets)),
	}
	for outlet, byCarrier := range f.Outlets {
		c.outlets[strings.TrimSpace(outlet)] = normalizeCarrierKeys(byCarrier)
	}
	return c, nil
}

// Lookup merges the outlet's values over the carrier defaults key by key.
func (c *StaticCredentials) Lookup(outlet, carrierCode string) (ports.Credentials, bool) {
	code := catalog.NormalizeCarrierCode(carrierCode)

	values := maps.Clone(c.defaults[code])
	if values == nil {
		values = map[string]string{}
	}
	for k, v := range c.outlets[strings.TrimSpace(outlet)][code] {
		if strings.TrimSpace(v) != "" {
			values[k] = v
		}
	}

	creds := ports.Credentials{Carrier: code, Values: values}
	for k := range values {
		if creds.Get(k) != "" {
			return creds, true
		}
	}
	return creds, false
}

func normalizeCarrierKeys(in map[string]map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string, len(in))
	for carrier, values := range in {
		code := catalog.NormalizeCarrierCode(carrier)
		if out[code] == nil {
			out[code] = map[string]string{}
		}
		for k, v := range values {
			out[code][strings.ToLower(strings.TrimSpace(k))] = v
		}
	}
	return out
}
