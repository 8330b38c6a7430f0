package rate

import (
	"fmt"
	"strings"

	"freight/internal/pkg/errs"
)

// MergeStrategy decides how a catalog estimate and live quotes are reconciled.
type MergeStrategy string

const (
	MergeMin        MergeStrategy = "min"
	MergePreferLive MergeStrategy = "prefer_live"
	MergePreferDB   MergeStrategy = "prefer_db"
)

// Merge outcomes reported in MergeResult.Source.
const (
	MergedLive     = "live"
	MergedDB       = "db"
	MergedLiveOnly = "live_only"
	MergedDBOnly   = "db_only"
)

// ParseMergeStrategy accepts the strategy names case-insensitively. An empty
// string selects MergeMin.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(MergeMin):
		return MergeMin, nil
	case string(MergePreferLive), "live":
		return MergePreferLive, nil
	case string(MergePreferDB), "db", "catalog":
		return MergePreferDB, nil
	}
	return "", errs.NewValueIsInvalidErrorWithCause("merge strategy", fmt.Errorf("%q is not supported", s))
}

// MergeResult is the outcome of a merge. Chosen is the winning rate and
// Rejected the other candidate kept for audit; Source is one of live, db,
// live_only or db_only.
type MergeResult struct {
	Source   string
	Chosen   *Rate
	Rejected *Rate
}

// Weights configure SLA-aware selection. Lower score wins; the score is
// Cost × normalized cost + Speed × speed rank.
type Weights struct {
	Cost  float64
	Speed float64
}

// CheapestOnly ranks by cost alone.
func CheapestOnly() Weights {
	return Weights{Cost: 1.0, Speed: 0}
}
