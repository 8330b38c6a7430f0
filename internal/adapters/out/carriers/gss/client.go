package gss

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"freight/internal/adapters/out/carriers"
	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/model/shipment"
	"freight/internal/core/ports"
	"freight/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://api.gosweetspot.com/api"
	DisplayName    = "GoSweetSpot"

	credAccessKey    = "access_key"
	credSiteID       = "site_id"
	credSupportEmail = "supportemail"

	defaultSupportEmail = "it@local"
	defaultReceiver     = "Receiver"
	defaultEmail        = "noreply@example.com"

	minPackageKg = 0.001
)

var firstNumber = regexp.MustCompile(`\d+`)

var (
	_ ports.CarrierClient = &Client{}
	_ ports.ProductSource = &Client{}
)

// Client talks to the GoSweetSpot shipping API.
type Client struct {
	transport *carriers.Transport
}

func New(transport *carriers.Transport) *Client {
	return &Client{transport: transport}
}

func (c *Client) Code() string {
	return catalog.CarrierGSS
}

// RequiredCredentials is only the access key; site_id is optional.
func (c *Client) RequiredCredentials() []string {
	return []string{credAccessKey}
}

func (c *Client) Quote(ctx context.Context, creds ports.Credentials, req ports.QuoteRequest) ([]rate.Rate, error) {
	payload := shipmentPayload{
		Destination:          toContact(req.Destination),
		Packages:             toPackages(req.Parcels),
		IsSignatureRequired:  req.Options.Signature,
		SaturdayDelivery:     req.Options.Saturday,
		DeliveryInstructions: firstNonEmpty(req.Options.Instructions, req.Destination.Instructions),
		Reference:            req.Options.Reference,
	}
	if !req.Origin.IsZero() {
		origin := toContact(req.Origin)
		payload.Origin = &origin
	}

	var resp struct {
		Available []json.RawMessage `json:"Available"`
	}
	if _, err := c.transport.DoJSON(ctx, c.call(creds, "quote", http.MethodPost, "/rates", payload), &resp); err != nil {
		return nil, err
	}

	rates := make([]rate.Rate, 0, len(resp.Available))
	for _, raw := range resp.Available {
		var row rateDTO
		if err := json.Unmarshal(raw, &row); err != nil {
			continue
		}
		r, err := toRate(row, raw)
		if err != nil {
			continue
		}
		rates = append(rates, r)
	}
	return rates, nil
}

// CreateShipment books the consignment. The label document is not part of the
// response; callers fetch it with FetchLabel.
func (c *Client) CreateShipment(
	ctx context.Context,
	creds ports.Credentials,
	req ports.ShipmentRequest,
) (shipment.LabelDetails, error) {
	payload := shipmentPayload{
		Destination:          toContact(req.Destination),
		Packages:             toPackages(req.Parcels),
		IsSignatureRequired:  req.Options.Signature,
		SaturdayDelivery:     req.Options.Saturday,
		DeliveryInstructions: firstNonEmpty(req.Options.Instructions, req.Destination.Instructions),
		Reference:            firstNonEmpty(req.Reference, "TR-"+strconv.FormatInt(req.TransferID, 10)),
		QuoteID:              req.Rate.QuoteID(),
	}
	if !req.Origin.IsZero() {
		origin := toContact(req.Origin)
		payload.Origin = &origin
	}

	var resp shipmentResponse
	raw, err := c.transport.DoJSON(ctx, c.call(creds, "create_shipment", http.MethodPost, "/shipments", payload), &resp)
	if err != nil {
		return shipment.LabelDetails{}, err
	}
	if len(resp.Consignments) == 0 || resp.Consignments[0].Connote == "" {
		var cause error
		if len(resp.Errors) > 0 {
			cause = errors.New(strings.Join(resp.Errors, "; "))
		}
		return shipment.LabelDetails{}, errs.NewUpstreamError(errs.CodeCarrierError,
			"GoSweetSpot did not return a consignment.", cause).
			WithDetails(map[string]any{"carrier": catalog.CarrierGSS, "operation": "create_shipment"})
	}

	tracking := make([]string, 0, len(resp.Consignments))
	for _, cons := range resp.Consignments {
		if cons.Connote != "" {
			tracking = append(tracking, cons.Connote)
		}
	}

	first := resp.Consignments[0]
	details := shipment.LabelDetails{
		CarrierCode:     catalog.CarrierGSS,
		CarrierName:     firstNonEmpty(first.CarrierName, req.Rate.CarrierName(), DisplayName),
		Service:         req.Rate.Service(),
		TrackingNumbers: tracking,
		TrackingURL:     first.TrackingURL,
		CarrierOrderID:  first.Connote,
		Cost:            req.Rate.Cost(),
		Breakdown:       req.Rate.Breakdown(),
		RawResponse:     raw,
	}
	if charged := firstPositive(first.TotalCost, first.Cost); charged > 0 {
		details.Cost = decimal.NewFromFloat(charged).Round(2)
		details.Breakdown = rate.CostBreakdown{
			Base:      decimal.NewFromFloat(first.Cost),
			Fuel:      decimal.NewFromFloat(first.FuelSurcharge),
			Rural:     decimal.NewFromFloat(first.RuralSurcharge),
			Saturday:  decimal.NewFromFloat(first.SaturdaySurcharge),
			Signature: decimal.NewFromFloat(first.SignatureSurcharge),
			Other:     decimal.NewFromFloat(first.AdditionalSurcharges),
		}
	}
	return details, nil
}

func (c *Client) FetchLabel(ctx context.Context, creds ports.Credentials, ref ports.LabelRef) (ports.LabelDocument, error) {
	connote := connoteOf(ref)
	if connote == "" {
		return ports.LabelDocument{}, errs.NewInputError(errs.CodeNoLabel,
			"The GoSweetSpot label has no consignment number.", nil)
	}

	call := c.call(creds, "fetch_label", http.MethodGet, "/labels", nil)
	call.Query = url.Values{"connote": {connote}, "format": {"LABEL_PDF"}}

	var labels []string
	if _, err := c.transport.DoJSON(ctx, call, &labels); err != nil {
		return ports.LabelDocument{}, err
	}
	if len(labels) == 0 || labels[0] == "" {
		return ports.LabelDocument{}, errs.NewUpstreamError(errs.CodeCarrierError,
			"GoSweetSpot has no label for this consignment yet.", nil)
	}
	data, err := base64.StdEncoding.DecodeString(labels[0])
	if err != nil {
		return ports.LabelDocument{}, errs.NewUpstreamError(errs.CodeCarrierError,
			"GoSweetSpot returned an unreadable label.", err)
	}
	return ports.LabelDocument{ContentType: "application/pdf", Data: data}, nil
}

func (c *Client) Cancel(ctx context.Context, creds ports.Credentials, ref ports.LabelRef) error {
	connote := connoteOf(ref)
	if connote == "" {
		return errs.NewInputError(errs.CodeNoLabel, "The GoSweetSpot label has no consignment number.", nil)
	}

	call := c.call(creds, "cancel", http.MethodDelete, "/shipments", nil)
	call.Query = url.Values{"connote": {connote}}
	_, err := c.transport.Do(ctx, call)
	return err
}

func (c *Client) Products(ctx context.Context, creds ports.Credentials) ([]ports.CarrierProduct, error) {
	raw, err := c.transport.DoJSON(ctx, c.call(creds, "products", http.MethodGet, "/packagetypes", nil), nil)
	if err != nil {
		return nil, err
	}
	return carriers.ParseProducts(raw), nil
}

func (c *Client) call(creds ports.Credentials, operation, method, path string, body any) carriers.Call {
	return carriers.Call{
		Operation: operation,
		Method:    method,
		Path:      path,
		Header: map[string]string{
			"access_key":   creds.Get(credAccessKey),
			"site_id":      creds.Get(credSiteID),
			"supportemail": firstNonEmpty(creds.Get(credSupportEmail), defaultSupportEmail),
		},
		Body: body,
	}
}

func toRate(row rateDTO, raw json.RawMessage) (rate.Rate, error) {
	cost := firstPositive(row.TotalCost, row.Cost)
	if cost <= 0 {
		return rate.Rate{}, errors.New("rate without a price")
	}
	r, err := rate.NewRate(catalog.CarrierGSS, row.CarrierName, row.DeliveryType, decimal.NewFromFloat(cost))
	if err != nil {
		return rate.Rate{}, err
	}

	satchel := strings.Contains(strings.ToLower(row.Comments), "satchel") ||
		strings.Contains(strings.ToLower(row.DeliveryType), "satchel")

	r = r.WithBreakdown(rate.CostBreakdown{
		Base:      decimal.NewFromFloat(row.Cost),
		Fuel:      decimal.NewFromFloat(row.FuelSurcharge),
		Rural:     decimal.NewFromFloat(row.RuralSurcharge),
		Saturday:  decimal.NewFromFloat(row.SaturdaySurcharge),
		Signature: decimal.NewFromFloat(row.SignatureSurcharge),
		Other:     decimal.NewFromFloat(row.AdditionalSurcharges),
	}).
		WithNote(strings.TrimSpace(row.Comments + " " + row.ServiceStandard)).
		WithQuoteID(row.QuoteID).
		WithSatchel(satchel).
		WithSurchargeFlags(row.IsRuralDelivery, row.IsSaturdayDelivery).
		WithETADays(etaDays(row.ServiceStandard)).
		WithRawPayload(raw)
	return r, nil
}

// etaDays reads the first number of a service standard such as "1-2 days";
// "overnight" counts as one day.
func etaDays(standard string) int {
	if m := firstNumber.FindString(standard); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	if strings.Contains(strings.ToLower(standard), "overnight") {
		return 1
	}
	return 0
}

func toContact(a address.Normalized) contactDTO {
	name := firstNonEmpty(a.Name, a.Company, defaultReceiver)
	return contactDTO{
		Name:                 name,
		CompanyName:          a.Company,
		ContactPerson:        name,
		Email:                firstNonEmpty(a.Email, defaultEmail),
		PhoneNumber:          a.Phone,
		DeliveryInstructions: a.Instructions,
		Address: addressDTO{
			BuildingName:  a.Building,
			StreetAddress: a.Street,
			Suburb:        a.Suburb,
			City:          a.City,
			PostCode:      a.Postcode,
			CountryCode:   a.Country,
		},
	}
}

// toPackages sends weights in kilograms and dimensions in whole centimetres.
func toPackages(parcels []rate.ParcelInput) []packageDTO {
	out := make([]packageDTO, 0, len(parcels))
	for _, p := range parcels {
		name := "BOX"
		if p.IsSatchel() {
			name = "GSS-SATCHEL"
		}
		out = append(out, packageDTO{
			Name:        name,
			PackageCode: p.ContainerCode,
			Length:      toCM(p.LengthMM),
			Width:       toCM(p.WidthMM),
			Height:      toCM(p.HeightMM),
			Kg:          math.Max(minPackageKg, float64(p.WeightG)/1000),
		})
	}
	return out
}

func toCM(mm int) int {
	return max(1, int(math.Ceil(float64(mm)/10)))
}

func connoteOf(ref ports.LabelRef) string {
	if len(ref.TrackingNumbers) > 0 && ref.TrackingNumbers[0] != "" {
		return ref.TrackingNumbers[0]
	}
	return ref.CarrierOrderID
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
