package rate

// ParcelInput is one parcel as a caller describes it when asking for rates or
// buying a label. Zero values mean unknown.
type ParcelInput struct {
	WeightG       int    `json:"weight_g"`
	LengthMM      int    `json:"length_mm"`
	WidthMM       int    `json:"width_mm"`
	HeightMM      int    `json:"height_mm"`
	Type          string `json:"type,omitempty"`
	ContainerCode string `json:"container_code,omitempty"`
}

// IsSatchel reports whether the caller marked the parcel as a satchel.
func (p ParcelInput) IsSatchel() bool {
	return p.Type == "satchel" || p.Type == "bag"
}

func (p ParcelInput) HasDimensions() bool {
	return p.LengthMM > 0 && p.WidthMM > 0 && p.HeightMM > 0
}

// Options are the delivery options that change a quote.
type Options struct {
	Signature    bool   `json:"sig"`
	Saturday     bool   `json:"saturday"`
	ATL          bool   `json:"atl"`
	Reference    string `json:"reference,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// InputFix records an automatic correction applied to caller input.
type InputFix struct {
	Type   string `json:"type"`
	Field  string `json:"field"`
	Detail string `json:"detail"`
}
