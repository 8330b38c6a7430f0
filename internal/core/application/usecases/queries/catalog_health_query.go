package queries

import (
	"errors"

	"freight/internal/pkg/guard"
)

// Bounds on how many products without any weight the health view lists.
const (
	DefaultWeightGapLimit = 50
	MaxWeightGapLimit     = 500
)

var (
	ErrCatalogHealthQueryIsNotConstructed = errors.New(
		"CatalogHealthQuery must be created via NewCatalogHealthQuery constructor",
	)
	ErrGapLimitIsInvalid = errors.New("gap limit must be between 0 and 500")
)

// CatalogHealthQuery asks for the catalog QA view.
type CatalogHealthQuery struct {
	gapLimit int

	guard guard.ConstructorGuard
}

// NewCatalogHealthQuery accepts 0 for the default gap limit.
func NewCatalogHealthQuery(gapLimit int) (CatalogHealthQuery, error) {
	if gapLimit < 0 || gapLimit > MaxWeightGapLimit {
		return CatalogHealthQuery{}, ErrGapLimitIsInvalid
	}
	if gapLimit == 0 {
		gapLimit = DefaultWeightGapLimit
	}
	return CatalogHealthQuery{gapLimit: gapLimit, guard: guard.NewConstructorGuard()}, nil
}

func (q CatalogHealthQuery) Validate() error {
	return q.guard.Validate(ErrCatalogHealthQueryIsNotConstructed)
}

func (q CatalogHealthQuery) GapLimit() int { return q.gapLimit }

// ContainerRef names a container in the health view.
type ContainerRef struct {
	CarrierCode string
	Code        string
	Name        string
}

// CarrierCapacity is one carrier's container coverage.
type CarrierCapacity struct {
	CarrierCode  string
	Enabled      bool
	Containers   int
	Priced       int
	MaxCapacityG int
}

// CatalogHealthQueryResponse lists what would make allocation or rating
// degrade. Healthy is false only when an enabled carrier has no priced
// container; unpriced containers and weight gaps are reported for QA.
type CatalogHealthQueryResponse struct {
	Healthy                   bool
	ZeroPriceContainers       []ContainerRef
	CarriersWithoutContainers []string
	Carriers                  []CarrierCapacity
	WeightCoverage            WeightCoverageView
}

// WeightCoverageView adds the covered share to the repository counts.
type WeightCoverageView struct {
	Products       int
	OwnWeight      int
	CategoryWeight int
	Missing        int
	CoveragePct    float64
	MissingIDs     []string
}
