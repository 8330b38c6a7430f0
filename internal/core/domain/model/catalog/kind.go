package catalog

import (
	"fmt"
	"strings"

	"freight/internal/pkg/errs"
)

// Kind is the physical form of a carrier container.
type Kind int

const (
	// KindUnknown is the zero value and never valid.
	KindUnknown Kind = iota
	KindBag
	KindBox
	KindPallet
	KindDocument
)

func getKindStrings() map[Kind]string {
	return map[Kind]string{
		KindUnknown:  "unknown",
		KindBag:      "bag",
		KindBox:      "box",
		KindPallet:   "pallet",
		KindDocument: "document",
	}
}

// ParseKind accepts the stored names plus "satchel", which carriers use for bags.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bag", "satchel":
		return KindBag, nil
	case "box", "carton":
		return KindBox, nil
	case "pallet":
		return KindPallet, nil
	case "document", "envelope", "doc":
		return KindDocument, nil
	default:
		return KindUnknown, errs.NewValueIsInvalidErrorWithCause("kind", fmt.Errorf("%q is not a container kind", s))
	}
}

// GuessKind derives a kind from a carrier product name. Products that do not
// mention a bag, pallet or document form are treated as boxes.
func GuessKind(productName string) Kind {
	name := strings.ToLower(productName)
	switch {
	case strings.Contains(name, "satchel"), strings.Contains(name, "bag"):
		return KindBag
	case strings.Contains(name, "pallet"):
		return KindPallet
	case strings.Contains(name, "document"), strings.Contains(name, "envelope"):
		return KindDocument
	default:
		return KindBox
	}
}

func (k Kind) String() string {
	if s, ok := getKindStrings()[k]; ok {
		return s
	}
	return "unknown"
}

func (k Kind) Validate() error {
	if k <= KindUnknown || k > KindDocument {
		return errs.NewValueIsInvalidErrorWithCause("kind", fmt.Errorf("%d is not a valid container kind", k))
	}
	return nil
}

// IsSatchel reports whether the kind is the flexible bag form.
func (k Kind) IsSatchel() bool {
	return k == KindBag
}

// SortRank orders kinds satchel first, then box, pallet and everything else.
func (k Kind) SortRank() int {
	switch k {
	case KindBag:
		return 1
	case KindBox:
		return 2
	case KindPallet:
		return 3
	default:
		return 4
	}
}
