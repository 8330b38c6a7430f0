package address

import (
	"strings"
	"unicode/utf8"
)

// DefaultCountry is assumed when an address carries no usable ISO-2 country.
const DefaultCountry = "NZ"

// Carrier field limits applied by Normalize.
const (
	MaxStreetLen       = 50
	MaxSuburbLen       = 50
	MaxCityLen         = 50
	MaxNameLen         = 50
	MaxPostcodeLen     = 10
	MaxInstructionsLen = 120
)

var buildingKeywords = []string{"unit", "level", "floor", "fl", "apt", "apartment", "suite", "ste", "building", "bldg"}

var countryAliases = map[string]string{
	"NEW ZEALAND":   "NZ",
	"AOTEAROA":      "NZ",
	"AUSTRALIA":     "AU",
	"UNITED STATES": "US",
	"USA":           "US",
}

// Address is a delivery contact and street address.
type Address struct {
	Name         string
	Company      string
	Line1        string
	Line2        string
	Suburb       string
	City         string
	Postcode     string
	Country      string
	Email        string
	Phone        string
	Instructions string
}

// Warning describes an adjustment Normalize made.
type Warning struct {
	Type   string `json:"type"`
	Field  string `json:"field"`
	Detail string `json:"detail,omitempty"`
}

const (
	WarningTruncated       = "address_truncation"
	WarningMissingRequired = "missing_required_field"
	WarningMissingPostcode = "missing_recommended_field"
	WarningInvalidCountry  = "invalid_country_code"
)

// Normalized is the carrier-ready form of an Address. Building carries the
// unit/level/building part split off the street lines.
type Normalized struct {
	Address
	Building string
	Street   string
}

// IsZero reports whether no field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Merge overlays every non-empty field of override on a.
func (a Address) Merge(override Address) Address {
	pick := func(base, over string) string {
		if strings.TrimSpace(over) != "" {
			return over
		}
		return base
	}
	return Address{
		Name:         pick(a.Name, override.Name),
		Company:      pick(a.Company, override.Company),
		Line1:        pick(a.Line1, override.Line1),
		Line2:        pick(a.Line2, override.Line2),
		Suburb:       pick(a.Suburb, override.Suburb),
		City:         pick(a.City, override.City),
		Postcode:     pick(a.Postcode, override.Postcode),
		Country:      pick(a.Country, override.Country),
		Email:        pick(a.Email, override.Email),
		Phone:        pick(a.Phone, override.Phone),
		Instructions: pick(a.Instructions, override.Instructions),
	}
}

// Normalize trims and collapses whitespace, resolves the country to ISO-2,
// moves a unit/level line2 into Building (otherwise prepends it to the
// street), and truncates to carrier limits. Every change is reported.
func (a Address) Normalize() (Normalized, []Warning) {
	var warnings []Warning

	clean := Address{
		Name:         collapse(a.Name),
		Company:      collapse(a.Company),
		Line1:        collapse(a.Line1),
		Line2:        collapse(a.Line2),
		Suburb:       collapse(a.Suburb),
		City:         collapse(a.City),
		Postcode:     strings.ToUpper(collapse(a.Postcode)),
		Email:        strings.TrimSpace(a.Email),
		Phone:        collapse(a.Phone),
		Instructions: collapse(a.Instructions),
	}

	country, ok := normalizeCountry(a.Country)
	if !ok {
		warnings = append(warnings, Warning{Type: WarningInvalidCountry, Field: "country", Detail: "defaulted to " + DefaultCountry})
	}
	clean.Country = country

	building, street := splitBuilding(clean.Line1, clean.Line2)

	truncate := func(field, value string, limit int) string {
		if utf8.RuneCountInString(value) <= limit {
			return value
		}
		warnings = append(warnings, Warning{Type: WarningTruncated, Field: field, Detail: value})
		return string([]rune(value)[:limit])
	}

	out := Normalized{Address: clean}
	out.Building = truncate("building", building, MaxStreetLen)
	out.Street = truncate("line1", street, MaxStreetLen)
	out.Suburb = truncate("suburb", clean.Suburb, MaxSuburbLen)
	out.City = truncate("city", clean.City, MaxCityLen)
	out.Postcode = truncate("postcode", clean.Postcode, MaxPostcodeLen)
	out.Name = truncate("name", clean.Name, MaxNameLen)
	out.Company = truncate("company", clean.Company, MaxNameLen)
	out.Phone = truncate("phone", clean.Phone, MaxNameLen)
	out.Instructions = truncate("instructions", clean.Instructions, MaxInstructionsLen)

	if out.Street == "" {
		warnings = append(warnings, Warning{Type: WarningMissingRequired, Field: "line1"})
	}
	if out.City == "" {
		warnings = append(warnings, Warning{Type: WarningMissingRequired, Field: "city"})
	}
	if out.Postcode == "" {
		warnings = append(warnings, Warning{Type: WarningMissingPostcode, Field: "postcode", Detail: "rating accuracy and rural detection may suffer"})
	}

	return out, warnings
}

func splitBuilding(line1, line2 string) (building, street string) {
	switch {
	case line2 == "":
		return "", line1
	case looksLikeBuilding(line2):
		return line2, line1
	case line1 == "":
		return "", line2
	default:
		return "", line2 + ", " + line1
	}
}

func looksLikeBuilding(line string) bool {
	for _, word := range strings.FieldsFunc(strings.ToLower(line), func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '/'
	}) {
		for _, kw := range buildingKeywords {
			if word == kw {
				return true
			}
		}
	}
	return false
}

func normalizeCountry(raw string) (string, bool) {
	c := strings.ToUpper(collapse(raw))
	if c == "" {
		return DefaultCountry, true
	}
	if alias, ok := countryAliases[c]; ok {
		return alias, true
	}
	if len(c) == 2 && c[0] >= 'A' && c[0] <= 'Z' && c[1] >= 'A' && c[1] <= 'Z' {
		return c, true
	}
	return DefaultCountry, false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
