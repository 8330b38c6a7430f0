package http

import (
	"time"

	"freight/internal/core/application/usecases/commands"
	"freight/internal/core/application/usecases/queries"
	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/services"

	"github.com/shopspring/decimal"
)

// Requests

type AddressDTO struct {
	Name         string `json:"name,omitempty"`
	Company      string `json:"company,omitempty"`
	Line1        string `json:"line1,omitempty"`
	Line2        string `json:"line2,omitempty"`
	Suburb       string `json:"suburb,omitempty"`
	City         string `json:"city,omitempty"`
	Postcode     string `json:"postcode,omitempty"`
	Country      string `json:"country,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

func (a AddressDTO) toDomain() address.Address {
	return address.Address{
		Name:         a.Name,
		Company:      a.Company,
		Line1:        a.Line1,
		Line2:        a.Line2,
		Suburb:       a.Suburb,
		City:         a.City,
		Postcode:     a.Postcode,
		Country:      a.Country,
		Email:        a.Email,
		Phone:        a.Phone,
		Instructions: a.Instructions,
	}
}

func addressDTO(a address.Address) AddressDTO {
	return AddressDTO{
		Name:         a.Name,
		Company:      a.Company,
		Line1:        a.Line1,
		Line2:        a.Line2,
		Suburb:       a.Suburb,
		City:         a.City,
		Postcode:     a.Postcode,
		Country:      a.Country,
		Email:        a.Email,
		Phone:        a.Phone,
		Instructions: a.Instructions,
	}
}

type RatesRequest struct {
	Parcels       []rate.ParcelInput `json:"parcels"`
	Options       rate.Options       `json:"options"`
	PreferSatchel bool               `json:"prefer_satchel"`
	Carrier       string             `json:"carrier"`
	Strategy      string             `json:"strategy"`
	CostWeight    float64            `json:"cost_weight"`
	SpeedWeight   float64            `json:"speed_weight"`
}

type AllocationRequest struct {
	Carrier           string `json:"carrier"`
	MaxItemsPerBox    int    `json:"max_items_per_box"`
	FragileSeparation *bool  `json:"fragile_separation"`
	Consolidate       *bool  `json:"consolidate"`
	FallbackWeightG   int    `json:"fallback_weight_g"`
}

// RateDTO is a rate as returned by the rates endpoint and echoed back to buy
// a label. Cost accepts a JSON number or a decimal string.
type RateDTO struct {
	Provider    string          `json:"provider"`
	CarrierName string          `json:"carrier_name,omitempty"`
	Service     string          `json:"service"`
	ServiceCode string          `json:"service_code,omitempty"`
	QuoteID     string          `json:"quote_id,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
}

func (r RateDTO) toDomain() (rate.Rate, error) {
	selected, err := rate.NewRate(r.Provider, r.CarrierName, r.Service, r.Cost)
	if err != nil {
		return rate.Rate{}, err
	}
	return selected.WithServiceCode(r.ServiceCode).WithQuoteID(r.QuoteID), nil
}

type BuyLabelRequest struct {
	Rate           RateDTO            `json:"rate"`
	Parcels        []rate.ParcelInput `json:"parcels"`
	Options        rate.Options       `json:"options"`
	Destination    *AddressDTO        `json:"destination"`
	ForceNew       bool               `json:"force_new"`
	Strict         bool               `json:"strict"`
	IdempotencyKey string             `json:"idempotency_key"`
}

type CancelLabelRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
}

type ManualDispatchRequest struct {
	Mode        string            `json:"mode"`
	Carrier     string            `json:"carrier"`
	Tracking    []string          `json:"tracking"`
	TrackingURL string            `json:"tracking_url"`
	Metadata    map[string]string `json:"metadata"`
}

type PickRequest struct {
	WeightG   int     `json:"weight_g"`
	VolumeCM3 float64 `json:"volume_cm3"`
	LengthMM  int     `json:"length_mm"`
	WidthMM   int     `json:"width_mm"`
	HeightMM  int     `json:"height_mm"`
}

// Responses

type DimensionsDTO struct {
	LengthMM int `json:"length_mm"`
	WidthMM  int `json:"width_mm"`
	HeightMM int `json:"height_mm"`
}

func dimensionsDTO(d kernel.Dimensions) DimensionsDTO {
	return DimensionsDTO{LengthMM: d.Length(), WidthMM: d.Width(), HeightMM: d.Height()}
}

type RateView struct {
	Provider      string             `json:"provider"`
	CarrierName   string             `json:"carrier_name"`
	Service       string             `json:"service"`
	ServiceCode   string             `json:"service_code,omitempty"`
	QuoteID       string             `json:"quote_id,omitempty"`
	Cost          decimal.Decimal    `json:"cost"`
	Breakdown     rate.CostBreakdown `json:"breakdown"`
	Source        rate.Source        `json:"source"`
	ETADays       int                `json:"eta_days,omitempty"`
	ContainerCode string             `json:"container_code,omitempty"`
	Satchel       bool               `json:"satchel"`
	Rural         bool               `json:"rural"`
	Saturday      bool               `json:"saturday"`
	Note          string             `json:"note,omitempty"`
}

func rateView(r rate.Rate) RateView {
	return RateView{
		Provider:      r.Provider(),
		CarrierName:   r.CarrierName(),
		Service:       r.Service(),
		ServiceCode:   r.ServiceCode(),
		QuoteID:       r.QuoteID(),
		Cost:          r.Cost(),
		Breakdown:     r.Breakdown(),
		Source:        r.Source(),
		ETADays:       r.ETADays(),
		ContainerCode: r.ContainerCode(),
		Satchel:       r.IsSatchel(),
		Rural:         r.IsRural(),
		Saturday:      r.IsSaturday(),
		Note:          r.Note(),
	}
}

func rateViewPtr(r *rate.Rate) *RateView {
	if r == nil || r.Provider() == "" {
		return nil
	}
	v := rateView(*r)
	return &v
}

type MergeView struct {
	Source   string    `json:"source"`
	Chosen   *RateView `json:"chosen,omitempty"`
	Rejected *RateView `json:"rejected,omitempty"`
}

type RatesResponse struct {
	TransferID      int64                    `json:"transfer_id"`
	Carrier         string                   `json:"carrier"`
	Rates           []RateView               `json:"rates"`
	Chosen          *RateView                `json:"chosen,omitempty"`
	CatalogEstimate *RateView                `json:"catalog_estimate,omitempty"`
	Merge           MergeView                `json:"merge"`
	Fallback        bool                     `json:"fallback"`
	Note            string                   `json:"note,omitempty"`
	Parcels         []rate.ParcelInput       `json:"parcels"`
	InputFixes      []rate.InputFix          `json:"input_fixes"`
	AddressWarnings []address.Warning        `json:"address_warnings"`
	CarrierErrors   []queries.CarrierFailure `json:"carrier_errors"`
}

func ratesResponse(r queries.GetRatesQueryResponse) RatesResponse {
	rates := make([]RateView, 0, len(r.Rates))
	for _, offer := range r.Rates {
		rates = append(rates, rateView(offer))
	}
	return RatesResponse{
		TransferID:      r.TransferID,
		Carrier:         r.Carrier,
		Rates:           rates,
		Chosen:          rateViewPtr(&r.Chosen),
		CatalogEstimate: rateViewPtr(r.CatalogEstimate),
		Merge: MergeView{
			Source:   r.Merge.Source,
			Chosen:   rateViewPtr(r.Merge.Chosen),
			Rejected: rateViewPtr(r.Merge.Rejected),
		},
		Fallback:        r.Fallback,
		Note:            r.Note,
		Parcels:         nonNil(r.Parcels),
		InputFixes:      nonNil(r.InputFixes),
		AddressWarnings: nonNil(r.AddressWarnings),
		CarrierErrors:   nonNil(r.CarrierErrors),
	}
}

type ContainerView struct {
	CarrierCode string          `json:"carrier"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	Dimensions  DimensionsDTO   `json:"dimensions"`
	CapacityG   int             `json:"capacity_g"`
	Cost        decimal.Decimal `json:"cost"`
}

func containerView(c *catalog.ContainerSpec) ContainerView {
	return ContainerView{
		CarrierCode: c.CarrierCode(),
		Code:        c.Code(),
		Name:        c.Name(),
		Kind:        c.Kind().String(),
		Dimensions:  dimensionsDTO(c.Dimensions()),
		CapacityG:   c.CapacityG(),
		Cost:        c.Cost(),
	}
}

type PickView struct {
	Container    ContainerView        `json:"container"`
	Score        float64              `json:"score"`
	Alternatives []ContainerView      `json:"alternatives"`
	Analysis     services.FitAnalysis `json:"analysis"`
}

func pickView(p *services.PickResult) *PickView {
	if p == nil || p.Container == nil {
		return nil
	}
	alternatives := make([]ContainerView, 0, len(p.Alternatives))
	for _, alt := range p.Alternatives {
		alternatives = append(alternatives, containerView(alt))
	}
	return &PickView{
		Container:    containerView(p.Container),
		Score:        p.Score,
		Alternatives: alternatives,
		Analysis:     p.Analysis,
	}
}

type FitErrorView struct {
	Code        string         `json:"code"`
	Message     string         `json:"message"`
	CanContinue bool           `json:"can_continue"`
	Critical    bool           `json:"critical"`
	Diagnostics map[string]any `json:"diagnostics,omitempty"`
}

type BoxItemView struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	WeightG   int    `json:"weight_g"`
}

type BoxView struct {
	Number       int            `json:"box_number"`
	Container    *ContainerView `json:"container,omitempty"`
	WeightG      int            `json:"weight_g"`
	VolumeCM3    float64        `json:"volume_cm3"`
	UnitEnvelope DimensionsDTO  `json:"unit_envelope"`
	ItemCount    int            `json:"item_count"`
	Categories   []string       `json:"categories"`
	Items        []BoxItemView  `json:"items"`
	Pick         *PickView      `json:"pick,omitempty"`
	FitError     *FitErrorView  `json:"fit_error,omitempty"`
}

type AllocationResponse struct {
	TransferID       int64              `json:"transfer_id"`
	CarrierCode      string             `json:"carrier"`
	Boxes            []BoxView          `json:"boxes"`
	Parcels          []rate.ParcelInput `json:"parcels"`
	TotalWeightG     int                `json:"total_weight_g"`
	TotalVolumeCM3   float64            `json:"total_volume_cm3"`
	BoundingBox      DimensionsDTO      `json:"bounding_box"`
	HasAllDimensions bool               `json:"has_all_dimensions"`
	MissingIDs       []string           `json:"missing_dimension_ids"`
	WeightOnly       bool               `json:"weight_only"`
}

func allocationResponse(r queries.AllocateBoxesQueryResponse) AllocationResponse {
	boxes := make([]BoxView, 0, len(r.Boxes))
	for _, b := range r.Boxes {
		items := make([]BoxItemView, 0, len(b.Items))
		for _, item := range b.Items {
			items = append(items, BoxItemView{ProductID: item.ProductID, Quantity: item.Quantity, WeightG: item.WeightG})
		}
		view := BoxView{
			Number:       b.Number,
			WeightG:      b.WeightG,
			VolumeCM3:    b.VolumeCM3,
			UnitEnvelope: dimensionsDTO(b.UnitEnvelope),
			ItemCount:    b.ItemCount,
			Categories:   nonNil(b.Categories),
			Items:        items,
			Pick:         pickView(b.Pick),
		}
		if b.Container != nil {
			c := containerView(b.Container)
			view.Container = &c
		}
		if b.FitError != nil {
			view.FitError = &FitErrorView{
				Code:        b.FitError.Code,
				Message:     b.FitError.Message,
				CanContinue: b.FitError.CanContinue,
				Critical:    b.FitError.Critical,
				Diagnostics: b.FitError.Diagnostics,
			}
		}
		boxes = append(boxes, view)
	}
	return AllocationResponse{
		TransferID:       r.TransferID,
		CarrierCode:      r.CarrierCode,
		Boxes:            boxes,
		Parcels:          nonNil(r.Parcels),
		TotalWeightG:     r.TotalWeightG,
		TotalVolumeCM3:   r.TotalVolumeCM3,
		BoundingBox:      dimensionsDTO(r.BoundingBox),
		HasAllDimensions: r.HasAllDimensions,
		MissingIDs:       nonNil(r.MissingIDs),
		WeightOnly:       r.WeightOnly,
	}
}

type ParcelView struct {
	BoxNumber     int    `json:"box_number"`
	WeightG       int    `json:"weight_g"`
	LengthMM      int    `json:"length_mm"`
	WidthMM       int    `json:"width_mm"`
	HeightMM      int    `json:"height_mm"`
	ContainerCode string `json:"container_code,omitempty"`
	Status        string `json:"status"`
	Tracking      string `json:"tracking,omitempty"`
}

type LabelView struct {
	ID              string          `json:"id"`
	CarrierCode     string          `json:"carrier"`
	CarrierName     string          `json:"carrier_name"`
	Service         string          `json:"service"`
	TrackingNumbers []string        `json:"tracking_numbers"`
	TrackingURL     string          `json:"tracking_url,omitempty"`
	DocumentRef     string          `json:"document_ref,omitempty"`
	CarrierOrderID  string          `json:"carrier_order_id,omitempty"`
	Cost            decimal.Decimal `json:"cost"`
	CreatedAt       time.Time       `json:"created_at"`
	DeletedAt       *time.Time      `json:"deleted_at,omitempty"`
}

func labelView(l queries.ShipmentLabel) LabelView {
	return LabelView{
		ID:              l.ID.String(),
		CarrierCode:     l.CarrierCode,
		CarrierName:     l.CarrierName,
		Service:         l.Service,
		TrackingNumbers: nonNil(l.TrackingNumbers),
		TrackingURL:     l.TrackingURL,
		DocumentRef:     l.DocumentRef,
		CarrierOrderID:  l.CarrierOrderID,
		Cost:            l.Cost,
		CreatedAt:       l.CreatedAt,
		DeletedAt:       l.DeletedAt,
	}
}

type ShipmentView struct {
	ID           string       `json:"id"`
	TransferID   int64        `json:"transfer_id"`
	Status       string       `json:"status"`
	DeliveryMode string       `json:"delivery_mode"`
	CarrierCode  string       `json:"carrier,omitempty"`
	CarrierName  string       `json:"carrier_name,omitempty"`
	Tracking     string       `json:"tracking,omitempty"`
	TrackingURL  string       `json:"tracking_url,omitempty"`
	DispatchedAt *time.Time   `json:"dispatched_at,omitempty"`
	Destination  AddressDTO   `json:"destination"`
	Parcels      []ParcelView `json:"parcels"`
	Labels       []LabelView  `json:"labels"`
	ActiveLabel  *LabelView   `json:"active_label,omitempty"`
}

func shipmentView(s *queries.GetShipmentQueryResponse) ShipmentView {
	parcels := make([]ParcelView, 0, len(s.Parcels))
	for _, p := range s.Parcels {
		parcels = append(parcels, ParcelView(p))
	}
	labels := make([]LabelView, 0, len(s.Labels))
	for _, l := range s.Labels {
		labels = append(labels, labelView(l))
	}
	view := ShipmentView{
		ID:           s.ID.String(),
		TransferID:   s.TransferID,
		Status:       s.Status,
		DeliveryMode: s.DeliveryMode,
		CarrierCode:  s.CarrierCode,
		CarrierName:  s.CarrierName,
		Tracking:     s.Tracking,
		TrackingURL:  s.TrackingURL,
		DispatchedAt: s.DispatchedAt,
		Destination:  addressDTO(s.Destination),
		Parcels:      parcels,
		Labels:       labels,
	}
	if s.ActiveLabel != nil {
		active := labelView(*s.ActiveLabel)
		view.ActiveLabel = &active
	}
	return view
}

type NormalizedAddressView struct {
	AddressDTO
	Building string `json:"building,omitempty"`
	Street   string `json:"street,omitempty"`
}

type ValidateAddressResponse struct {
	Normalized NormalizedAddressView `json:"normalized"`
	Warnings   []address.Warning     `json:"warnings"`
	Valid      bool                  `json:"valid"`
}

func validateAddressResponse(r queries.ValidateAddressQueryResponse) ValidateAddressResponse {
	return ValidateAddressResponse{
		Normalized: NormalizedAddressView{
			AddressDTO: addressDTO(r.Normalized.Address),
			Building:   r.Normalized.Building,
			Street:     r.Normalized.Street,
		},
		Warnings: nonNil(r.Warnings),
		Valid:    r.Valid,
	}
}

type SaveAddressResponse struct {
	TransferID int64             `json:"transfer_id"`
	ShipmentID string            `json:"shipment_id"`
	Address    AddressDTO        `json:"address"`
	Warnings   []address.Warning `json:"warnings"`
	Created    bool              `json:"created"`
}

func saveAddressResponse(r commands.SaveAddressResult) SaveAddressResponse {
	return SaveAddressResponse{
		TransferID: r.TransferID,
		ShipmentID: r.ShipmentID,
		Address:    addressDTO(r.Address),
		Warnings:   nonNil(r.Warnings),
		Created:    r.Created,
	}
}

type ManualDispatchResponse struct {
	TransferID   int64     `json:"transfer_id"`
	ShipmentID   string    `json:"shipment_id"`
	LabelID      string    `json:"label_id"`
	Mode         string    `json:"mode"`
	Carrier      string    `json:"carrier"`
	Tracking     []string  `json:"tracking"`
	DispatchedAt time.Time `json:"dispatched_at"`
	Replaced     bool      `json:"replaced"`
}

func manualDispatchResponse(r commands.ManualDispatchResult) ManualDispatchResponse {
	return ManualDispatchResponse{
		TransferID:   r.TransferID,
		ShipmentID:   r.ShipmentID,
		LabelID:      r.LabelID,
		Mode:         string(r.Mode),
		Carrier:      r.Carrier,
		Tracking:     nonNil(r.Tracking),
		DispatchedAt: r.DispatchedAt,
		Replaced:     r.Replaced,
	}
}

type PickResponse struct {
	CarrierCode string `json:"carrier"`
	PickView
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type ContainerRefView struct {
	Carrier string `json:"carrier"`
	Code    string `json:"code"`
	Name    string `json:"name"`
}

type CarrierCapacityView struct {
	Carrier      string `json:"carrier"`
	Enabled      bool   `json:"enabled"`
	Containers   int    `json:"containers"`
	Priced       int    `json:"priced"`
	MaxCapacityG int    `json:"max_capacity_g"`
}

type WeightCoverageView struct {
	Products       int      `json:"products"`
	OwnWeight      int      `json:"own_weight"`
	CategoryWeight int      `json:"category_weight"`
	Missing        int      `json:"missing"`
	CoveragePct    float64  `json:"coverage_pct"`
	MissingIDs     []string `json:"missing_ids"`
}

type CatalogHealthResponse struct {
	Healthy                   bool                  `json:"healthy"`
	ZeroPriceContainers       []ContainerRefView    `json:"zero_price_containers"`
	CarriersWithoutContainers []string              `json:"carriers_without_containers"`
	Carriers                  []CarrierCapacityView `json:"carriers"`
	WeightCoverage            WeightCoverageView    `json:"weight_coverage"`
}

func catalogHealthResponse(r queries.CatalogHealthQueryResponse) CatalogHealthResponse {
	zero := make([]ContainerRefView, 0, len(r.ZeroPriceContainers))
	for _, c := range r.ZeroPriceContainers {
		zero = append(zero, ContainerRefView{Carrier: c.CarrierCode, Code: c.Code, Name: c.Name})
	}
	carriers := make([]CarrierCapacityView, 0, len(r.Carriers))
	for _, c := range r.Carriers {
		carriers = append(carriers, CarrierCapacityView{
			Carrier:      c.CarrierCode,
			Enabled:      c.Enabled,
			Containers:   c.Containers,
			Priced:       c.Priced,
			MaxCapacityG: c.MaxCapacityG,
		})
	}
	w := r.WeightCoverage
	return CatalogHealthResponse{
		Healthy:                   r.Healthy,
		ZeroPriceContainers:       zero,
		CarriersWithoutContainers: nonNil(r.CarriersWithoutContainers),
		Carriers:                  carriers,
		WeightCoverage: WeightCoverageView{
			Products:       w.Products,
			OwnWeight:      w.OwnWeight,
			CategoryWeight: w.CategoryWeight,
			Missing:        w.Missing,
			CoveragePct:    w.CoveragePct,
			MissingIDs:     nonNil(w.MissingIDs),
		},
	}
}
