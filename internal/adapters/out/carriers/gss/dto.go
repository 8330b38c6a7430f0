package gss

type addressDTO struct {
	BuildingName  string `json:"BuildingName,omitempty"`
	StreetAddress string `json:"StreetAddress"`
	Suburb        string `json:"Suburb,omitempty"`
	City          string `json:"City"`
	PostCode      string `json:"PostCode,omitempty"`
	CountryCode   string `json:"CountryCode"`
}

type contactDTO struct {
	Name                 string     `json:"Name"`
	CompanyName          string     `json:"CompanyName,omitempty"`
	ContactPerson        string     `json:"ContactPerson"`
	Email                string     `json:"Email"`
	PhoneNumber          string     `json:"PhoneNumber"`
	DeliveryInstructions string     `json:"DeliveryInstructions,omitempty"`
	Address              addressDTO `json:"Address"`
}

// packageDTO dimensions are centimetres.
type packageDTO struct {
	Name        string  `json:"Name"`
	PackageCode string  `json:"PackageCode,omitempty"`
	Length      int     `json:"Length"`
	Width       int     `json:"Width"`
	Height      int     `json:"Height"`
	Kg          float64 `json:"Kg"`
}

type shipmentPayload struct {
	Origin               *contactDTO  `json:"Origin,omitempty"`
	Destination          contactDTO   `json:"Destination"`
	Packages             []packageDTO `json:"Packages"`
	IsSignatureRequired  bool         `json:"IsSignatureRequired"`
	SaturdayDelivery     bool         `json:"SaturdayDelivery,omitempty"`
	DeliveryInstructions string       `json:"DeliveryInstructions,omitempty"`
	Reference            string       `json:"DeliveryReference,omitempty"`
	QuoteID              string       `json:"QuoteId,omitempty"`
	Outputs              []string     `json:"Outputs,omitempty"`
}

type rateDTO struct {
	QuoteID              string  `json:"QuoteId"`
	CarrierName          string  `json:"CarrierName"`
	DeliveryType         string  `json:"DeliveryType"`
	Comments             string  `json:"Comments"`
	ServiceStandard      string  `json:"ServiceStandard"`
	Cost                 float64 `json:"Cost"`
	TotalCost            float64 `json:"TotalCost"`
	FuelSurcharge        float64 `json:"FuelSurcharge"`
	RuralSurcharge       float64 `json:"RuralSurcharge"`
	SaturdaySurcharge    float64 `json:"SaturdaySurcharge"`
	SignatureSurcharge   float64 `json:"SignatureSurcharge"`
	AdditionalSurcharges float64 `json:"AdditionalSurcharges"`
	IsRuralDelivery      bool    `json:"IsRuralDelivery"`
	IsSaturdayDelivery   bool    `json:"IsSaturdayDelivery"`
}

type consignmentDTO struct {
	Connote              string  `json:"Connote"`
	TrackingURL          string  `json:"TrackingUrl"`
	CarrierName          string  `json:"CarrierName"`
	Cost                 float64 `json:"Cost"`
	TotalCost            float64 `json:"TotalCost"`
	FuelSurcharge        float64 `json:"FuelSurcharge"`
	RuralSurcharge       float64 `json:"RuralSurcharge"`
	SaturdaySurcharge    float64 `json:"SaturdaySurcharge"`
	SignatureSurcharge   float64 `json:"SignatureSurcharge"`
	AdditionalSurcharges float64 `json:"AdditionalSurcharges"`
}

type shipmentResponse struct {
	Consignments []consignmentDTO `json:"Consignments"`
	Errors       []string         `json:"Errors"`
}
