package catalog

import (
	"errors"
	"strings"

	"freight/internal/pkg/errs"
	"freight/internal/pkg/guard"
)

// Carrier codes of the integrations shipped with the engine.
const (
	CarrierNZPost = "NZPOST"
	CarrierGSS    = "GSS"
)

var ErrCarrierIsNotConstructed = errors.New("Carrier must be created via NewCarrier constructor")

// Carrier is catalog reference data for one shipping company.
type Carrier struct {
	code             string
	name             string
	volumetricFactor int
	enabled          bool
	guard            guard.ConstructorGuard
}

// NewCarrier normalizes the code to upper case. A non-positive volumetric
// factor falls back to DefaultCubicFactor.
func NewCarrier(code, name string, volumetricFactor int, enabled bool) (Carrier, error) {
	c := Carrier{enabled: enabled, guard: guard.NewConstructorGuard()}
	if err := errors.Join(
		c.setCode(code),
		c.setName(name, code),
	); err != nil {
		return Carrier{}, err
	}
	c.volumetricFactor = volumetricFactor
	if c.volumetricFactor <= 0 {
		c.volumetricFactor = DefaultCubicFactor
	}
	return c, nil
}

func (c Carrier) Validate() error {
	return c.guard.Validate(ErrCarrierIsNotConstructed)
}

func (c Carrier) Code() string          { return c.code }
func (c Carrier) Name() string          { return c.name }
func (c Carrier) VolumetricFactor() int { return c.volumetricFactor }
func (c Carrier) Enabled() bool         { return c.enabled }

// NormalizeCarrierCode upper-cases and trims a carrier code. "eship" and
// "starshipit" are aliases for NZ Post.
func NormalizeCarrierCode(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	switch c {
	case "ESHIP", "STARSHIPIT", "NZ_POST", "NZ POST":
		return CarrierNZPost
	}
	return c
}

func (c *Carrier) setCode(code string) error {
	normalized := NormalizeCarrierCode(code)
	if normalized == "" {
		return errs.NewValueIsRequiredError("carrier code")
	}
	c.code = normalized
	return nil
}

func (c *Carrier) setName(name, fallback string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(fallback)
	}
	if name == "" {
		return errs.NewValueIsRequiredError("carrier name")
	}
	c.name = name
	return nil
}
