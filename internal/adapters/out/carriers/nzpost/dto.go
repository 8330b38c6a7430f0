package nzpost

import "encoding/json"

type addressDTO struct {
	Name        string `json:"name,omitempty"`
	Company     string `json:"company,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Building    string `json:"building,omitempty"`
	Street      string `json:"street"`
	Suburb      string `json:"suburb,omitempty"`
	City        string `json:"city"`
	State       string `json:"state,omitempty"`
	PostCode    string `json:"post_code"`
	CountryCode string `json:"country_code"`
}

// packageDTO weights are kilograms, dimensions metres.
type packageDTO struct {
	Weight float64 `json:"weight"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type rateRequest struct {
	Sender      addressDTO   `json:"sender"`
	Destination addressDTO   `json:"destination"`
	Packages    []packageDTO `json:"packages"`
	Options     rateOptions  `json:"options"`
	Currency    string       `json:"currency"`
}

type rateOptions struct {
	SignatureRequired bool `json:"signature_required"`
	SaturdayDelivery  bool `json:"saturday_delivery"`
	AuthorityToLeave  bool `json:"authority_to_leave"`
}

type rateDTO struct {
	ServiceName string  `json:"service_name"`
	ServiceCode string  `json:"service_code"`
	ProductCode string  `json:"product_code"`
	TotalPrice  float64 `json:"total_price"`
	FuelLevy    float64 `json:"fuel_levy"`
	RuralFee    float64 `json:"rural_fee"`
	SaturdayFee float64 `json:"saturday_fee"`
	SigFee      float64 `json:"signature_fee"`
	TransitDays int     `json:"transit_days"`
}

type rateResponse struct {
	Rates   []json.RawMessage `json:"rates"`
	Success bool              `json:"success"`
	Errors  []apiError        `json:"errors"`
}

type apiError struct {
	Message string `json:"message"`
	Details string `json:"details"`
}

type orderRequest struct {
	Order orderDTO `json:"order"`
}

type orderDTO struct {
	OrderNumber        string       `json:"order_number"`
	Reference          string       `json:"reference,omitempty"`
	Carrier            string       `json:"carrier"`
	CarrierServiceCode string       `json:"carrier_service_code"`
	SignatureRequired  bool         `json:"signature_required"`
	AuthorityToLeave   bool         `json:"authority_to_leave"`
	DeliveryInstruct   string       `json:"delivery_instructions,omitempty"`
	Sender             addressDTO   `json:"sender_details"`
	Destination        addressDTO   `json:"destination"`
	Packages           []packageDTO `json:"packages"`
}

type orderResponse struct {
	Order struct {
		OrderID int64 `json:"order_id"`
	} `json:"order"`
	Success bool       `json:"success"`
	Errors  []apiError `json:"errors"`
}

type printRequest struct {
	OrderID int64 `json:"order_id"`
}

type shipmentResponse struct {
	OrderID         int64      `json:"order_id"`
	CarrierName     string     `json:"carrier_name"`
	CarrierService  string     `json:"carrier_service"`
	TrackingNumbers []string   `json:"tracking_numbers"`
	TrackingURL     string     `json:"tracking_url"`
	Labels          []string   `json:"labels"`
	LabelURL        string     `json:"label_url"`
	Success         bool       `json:"success"`
	Errors          []apiError `json:"errors"`
}
