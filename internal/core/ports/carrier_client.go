package ports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/model/shipment"
	"freight/internal/pkg/errs"
)

// ErrCancelNotSupported is returned by carriers without a cancel API. The
// caller reverses local state instead.
var ErrCancelNotSupported = errors.New("carrier does not support label cancellation")

// Credentials are the secrets of one carrier account. Keys are carrier
// specific (api_key, subscription_key, access_key, site_id...).
type Credentials struct {
	Carrier string
	Values  map[string]string
}

// Get returns the trimmed value of key.
func (c Credentials) Get(key string) string {
	return strings.TrimSpace(c.Values[key])
}

// Missing lists the keys that have no value.
func (c Credentials) Missing(keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if c.Get(k) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

// CredentialsProvider resolves carrier credentials for an origin outlet.
type CredentialsProvider interface {
	// Lookup returns the outlet's credentials for the carrier, falling back
	// to the carrier defaults. ok is false when nothing is configured.
	Lookup(outlet, carrierCode string) (Credentials, bool)
}

// ResolveCredentials returns the outlet's credentials for client, or an AUTHZ
// CARRIER_CREDENTIALS_MISSING error naming the keys that are not configured.
func ResolveCredentials(provider CredentialsProvider, client CarrierClient, outlet string) (Credentials, error) {
	creds, ok := provider.Lookup(outlet, client.Code())
	required := client.RequiredCredentials()
	missing := creds.Missing(required...)
	if !ok {
		missing = required
	}
	if len(missing) == 0 {
		return creds, nil
	}
	return Credentials{}, errs.NewAuthzError(
		errs.CodeCarrierCredentialsMissing,
		fmt.Sprintf("No %s credentials are configured for this outlet.", client.Code()),
	).WithDetails(map[string]any{"carrier": client.Code(), "outlet": outlet, "missing": missing})
}

// QuoteRequest is the carrier-neutral input of a rate quote.
type QuoteRequest struct {
	Origin      address.Normalized
	Destination address.Normalized
	Parcels     []rate.ParcelInput
	Options     rate.Options
}

// ShipmentRequest is the carrier-neutral input of a label purchase.
type ShipmentRequest struct {
	TransferID  int64
	Reference   string
	Origin      address.Normalized
	Destination address.Normalized
	Parcels     []rate.ParcelInput
	Rate        rate.Rate
	Options     rate.Options
}

// LabelRef identifies a purchased label at the carrier.
type LabelRef struct {
	CarrierOrderID  string
	TrackingNumbers []string
}

// LabelDocument is a printable label: either a URL or inline bytes.
type LabelDocument struct {
	ContentType string
	URL         string
	Data        []byte
}

// CarrierProduct is a container product published by a carrier. A nil
// capacity means the carrier did not state one.
type CarrierProduct struct {
	Code       string
	Name       string
	Kind       catalog.Kind
	Dimensions kernel.Dimensions
	CapacityG  *int
}

// CarrierClient adapts one carrier API to the engine. Implementations return
// *errs.AppError values so callers can branch on category.
type CarrierClient interface {
	// Code is the catalog code of the carrier, e.g. NZPOST.
	Code() string

	// RequiredCredentials lists the credential keys every call needs.
	RequiredCredentials() []string

	Quote(ctx context.Context, creds Credentials, req QuoteRequest) ([]rate.Rate, error)
	CreateShipment(ctx context.Context, creds Credentials, req ShipmentRequest) (shipment.LabelDetails, error)
	FetchLabel(ctx context.Context, creds Credentials, ref LabelRef) (LabelDocument, error)

	// Cancel voids the label at the carrier. Returns ErrCancelNotSupported
	// when the carrier has no such operation.
	Cancel(ctx context.Context, creds Credentials, ref LabelRef) error
}

// ProductSource is implemented by carriers that publish their container
// products.
type ProductSource interface {
	Products(ctx context.Context, creds Credentials) ([]CarrierProduct, error)
}

// CarrierRegistry looks carrier clients up by code.
type CarrierRegistry interface {
	Client(code string) (CarrierClient, bool)

	// Codes returns the registered carrier codes in rate-shopping order.
	Codes() []string
}
