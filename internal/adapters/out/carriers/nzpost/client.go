package nzpost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
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
	DefaultBaseURL = "https://api.starshipit.com/api"
	DisplayName    = "NZ Post"

	credAPIKey          = "api_key"
	credSubscriptionKey = "subscription_key"

	trackingURLPrefix = "https://www.nzpost.co.nz/tools/tracking/item/"
)

var (
	_ ports.CarrierClient = &Client{}
	_ ports.ProductSource = &Client{}
)

// Client talks to NZ Post through the eShip (Starshipit) API.
type Client struct {
	transport *carriers.Transport
}

func New(transport *carriers.Transport) *Client {
	return &Client{transport: transport}
}

func (c *Client) Code() string {
	return catalog.CarrierNZPost
}

func (c *Client) RequiredCredentials() []string {
	return []string{credAPIKey, credSubscriptionKey}
}

func (c *Client) Quote(ctx context.Context, creds ports.Credentials, req ports.QuoteRequest) ([]rate.Rate, error) {
	body := rateRequest{
		Sender:      toAddress(req.Origin),
		Destination: toAddress(req.Destination),
		Packages:    toPackages(req.Parcels),
		Options: rateOptions{
			SignatureRequired: req.Options.Signature,
			SaturdayDelivery:  req.Options.Saturday,
			AuthorityToLeave:  req.Options.ATL,
		},
		Currency: "NZD",
	}

	var resp rateResponse
	if _, err := c.transport.DoJSON(ctx, c.call(creds, "quote", http.MethodPost, "/rates", body), &resp); err != nil {
		return nil, err
	}
	if len(resp.Rates) == 0 && len(resp.Errors) > 0 {
		return nil, rejected("quote", resp.Errors)
	}

	rates := make([]rate.Rate, 0, len(resp.Rates))
	for _, raw := range resp.Rates {
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

// CreateShipment creates the order and prints it in the same call. The first
// printed label is returned inline as a data URI.
func (c *Client) CreateShipment(
	ctx context.Context,
	creds ports.Credentials,
	req ports.ShipmentRequest,
) (shipment.LabelDetails, error) {
	order := orderRequest{Order: orderDTO{
		OrderNumber:        fmt.Sprintf("TR-%d", req.TransferID),
		Reference:          req.Reference,
		Carrier:            "NZPost",
		CarrierServiceCode: req.Rate.ServiceCode(),
		SignatureRequired:  req.Options.Signature,
		AuthorityToLeave:   req.Options.ATL,
		DeliveryInstruct:   req.Destination.Instructions,
		Sender:             toAddress(req.Origin),
		Destination:        toAddress(req.Destination),
		Packages:           toPackages(req.Parcels),
	}}

	var created orderResponse
	if _, err := c.transport.DoJSON(ctx, c.call(creds, "create_order", http.MethodPost, "/orders", order), &created); err != nil {
		return shipment.LabelDetails{}, err
	}
	if created.Order.OrderID == 0 {
		return shipment.LabelDetails{}, rejected("create_order", created.Errors)
	}

	var printed shipmentResponse
	raw, err := c.transport.DoJSON(ctx,
		c.call(creds, "print_label", http.MethodPost, "/orders/shipment", printRequest{OrderID: created.Order.OrderID}),
		&printed)
	if err != nil {
		return shipment.LabelDetails{}, err
	}
	if len(printed.TrackingNumbers) == 0 {
		return shipment.LabelDetails{}, rejected("print_label", printed.Errors)
	}

	details := shipment.LabelDetails{
		CarrierCode:     catalog.CarrierNZPost,
		CarrierName:     firstNonEmpty(printed.CarrierName, req.Rate.CarrierName(), DisplayName),
		Service:         firstNonEmpty(printed.CarrierService, req.Rate.Service()),
		TrackingNumbers: printed.TrackingNumbers,
		TrackingURL:     firstNonEmpty(printed.TrackingURL, trackingURLPrefix+printed.TrackingNumbers[0]),
		DocumentRef:     documentRef(printed),
		CarrierOrderID:  strconv.FormatInt(created.Order.OrderID, 10),
		Cost:            req.Rate.Cost(),
		Breakdown:       req.Rate.Breakdown(),
		RawResponse:     raw,
	}
	return details, nil
}

func (c *Client) FetchLabel(ctx context.Context, creds ports.Credentials, ref ports.LabelRef) (ports.LabelDocument, error) {
	if ref.CarrierOrderID == "" {
		return ports.LabelDocument{}, errs.NewInputError(errs.CodeNoLabel,
			"The NZ Post label has no order id to fetch.", nil)
	}

	call := c.call(creds, "fetch_label", http.MethodGet, "/orders/shipment", nil)
	call.Query = url.Values{"order_id": {ref.CarrierOrderID}}

	var printed shipmentResponse
	if _, err := c.transport.DoJSON(ctx, call, &printed); err != nil {
		return ports.LabelDocument{}, err
	}
	return decodeLabel(printed)
}

// Cancel is not offered by eShip. Callers reverse the label locally.
func (c *Client) Cancel(context.Context, ports.Credentials, ports.LabelRef) error {
	return ports.ErrCancelNotSupported
}

// Products lists the delivery services of the account. Services do not carry
// dimensions, so they sync as unknown-size products.
func (c *Client) Products(ctx context.Context, creds ports.Credentials) ([]ports.CarrierProduct, error) {
	raw, err := c.transport.DoJSON(ctx, c.call(creds, "products", http.MethodGet, "/deliveryservices", nil), nil)
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
			"StarShipIT-Api-Key":        creds.Get(credAPIKey),
			"Ocp-Apim-Subscription-Key": creds.Get(credSubscriptionKey),
		},
		Body: body,
	}
}

func toRate(row rateDTO, raw json.RawMessage) (rate.Rate, error) {
	if row.TotalPrice <= 0 {
		return rate.Rate{}, errors.New("rate without a price")
	}
	service := firstNonEmpty(row.ServiceName, row.ServiceCode)
	r, err := rate.NewRate(catalog.CarrierNZPost, DisplayName, service, decimal.NewFromFloat(row.TotalPrice))
	if err != nil {
		return rate.Rate{}, err
	}

	fuel := decimal.NewFromFloat(row.FuelLevy)
	rural := decimal.NewFromFloat(row.RuralFee)
	saturday := decimal.NewFromFloat(row.SaturdayFee)
	sig := decimal.NewFromFloat(row.SigFee)
	base := r.Cost().Sub(fuel).Sub(rural).Sub(saturday).Sub(sig)

	lower := strings.ToLower(service)
	r = r.WithServiceCode(firstNonEmpty(row.ServiceCode, row.ProductCode)).
		WithBreakdown(rate.CostBreakdown{Base: base, Fuel: fuel, Rural: rural, Saturday: saturday, Signature: sig}).
		WithSatchel(strings.Contains(lower, "satchel") || strings.Contains(lower, "bag")).
		WithSurchargeFlags(row.RuralFee > 0, row.SaturdayFee > 0).
		WithETADays(etaDays(row.TransitDays, lower)).
		WithRawPayload(raw)
	return r, nil
}

func etaDays(transit int, service string) int {
	if transit > 0 {
		return transit
	}
	if strings.Contains(service, "overnight") {
		return 1
	}
	return 0
}

func toAddress(a address.Normalized) addressDTO {
	return addressDTO{
		Name:        firstNonEmpty(a.Name, a.Company),
		Company:     a.Company,
		Email:       a.Email,
		Phone:       a.Phone,
		Building:    a.Building,
		Street:      a.Street,
		Suburb:      a.Suburb,
		City:        a.City,
		PostCode:    a.Postcode,
		CountryCode: a.Country,
	}
}

// toPackages converts grams to kilograms and millimetres to metres.
func toPackages(parcels []rate.ParcelInput) []packageDTO {
	out := make([]packageDTO, 0, len(parcels))
	for _, p := range parcels {
		out = append(out, packageDTO{
			Weight: round3(float64(p.WeightG) / 1000),
			Length: round3(float64(p.LengthMM) / 1000),
			Width:  round3(float64(p.WidthMM) / 1000),
			Height: round3(float64(p.HeightMM) / 1000),
		})
	}
	return out
}

func documentRef(printed shipmentResponse) string {
	if len(printed.Labels) > 0 && printed.Labels[0] != "" {
		return "data:application/pdf;base64," + printed.Labels[0]
	}
	return printed.LabelURL
}

func decodeLabel(printed shipmentResponse) (ports.LabelDocument, error) {
	if len(printed.Labels) > 0 && printed.Labels[0] != "" {
		data, err := base64.StdEncoding.DecodeString(printed.Labels[0])
		if err != nil {
			return ports.LabelDocument{}, errs.NewUpstreamError(errs.CodeCarrierError,
				"NZ Post returned an unreadable label.", err)
		}
		return ports.LabelDocument{ContentType: "application/pdf", Data: data}, nil
	}
	if printed.LabelURL != "" {
		return ports.LabelDocument{ContentType: "application/pdf", URL: printed.LabelURL}, nil
	}
	return ports.LabelDocument{}, errs.NewUpstreamError(errs.CodeCarrierError,
		"NZ Post has no label for this order yet.", nil)
}

func rejected(operation string, apiErrs []apiError) *errs.AppError {
	msgs := make([]string, 0, len(apiErrs))
	for _, e := range apiErrs {
		msgs = append(msgs, strings.TrimSpace(e.Message+" "+e.Details))
	}
	var cause error
	if len(msgs) > 0 {
		cause = errors.New(strings.Join(msgs, "; "))
	}
	return errs.NewUpstreamError(errs.CodeCarrierError, "NZ Post rejected the request.", cause).
		WithDetails(map[string]any{"carrier": catalog.CarrierNZPost, "operation": operation})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
