package kernel

import (
	"errors"
	"fmt"
	"math"

	"freight/internal/pkg/errs"
)

// MaxDimensionValueMM bounds any single stored dimension. Picker and rate
// validation apply their own tighter limits on top of it.
const MaxDimensionValueMM = 100000

// Dimensions is a length/width/height triple in millimetres.
// A zero axis means "unknown"; the zero value is a valid, fully unknown triple.
type Dimensions struct {
	length int
	width  int
	height int
}

// NewDimensions validates each axis is within [0, MaxDimensionValueMM].
//
// Example:
//
//	dims, err := kernel.NewDimensions(400, 300, 200)
//	if err != nil {
//	    return err
//	}
//	dims.VolumeCM3() // 24000
func NewDimensions(lengthMM, widthMM, heightMM int) (Dimensions, error) {
	d := Dimensions{}
	if err := errors.Join(
		d.setLength(lengthMM),
		d.setWidth(widthMM),
		d.setHeight(heightMM),
	); err != nil {
		return Dimensions{}, err
	}
	return d, nil
}

// UnknownDimensions returns a triple with no axis known.
func UnknownDimensions() Dimensions {
	return Dimensions{}
}

func (d Dimensions) Length() int { return d.length }
func (d Dimensions) Width() int  { return d.width }
func (d Dimensions) Height() int { return d.height }

// HasAll reports whether every axis is known.
func (d Dimensions) HasAll() bool {
	return d.length > 0 && d.width > 0 && d.height > 0
}

// HasAny reports whether at least one axis is known.
func (d Dimensions) HasAny() bool {
	return d.length > 0 || d.width > 0 || d.height > 0
}

// VolumeCM3 returns (L/10)(W/10)(H/10), or 0 when any axis is unknown.
func (d Dimensions) VolumeCM3() float64 {
	if !d.HasAll() {
		return 0
	}
	return (float64(d.length) / 10) * (float64(d.width) / 10) * (float64(d.height) / 10)
}

// Longest returns the largest axis.
func (d Dimensions) Longest() int {
	return max(d.length, d.width, d.height)
}

// FitsWithin compares axis by axis without rotation. The container must have
// every axis known; unknown item axes are not checked.
func (d Dimensions) FitsWithin(container Dimensions) bool {
	if !container.HasAll() {
		return false
	}
	return d.length <= container.length &&
		d.width <= container.width &&
		d.height <= container.height
}

// Envelope returns the per-axis maximum of d and other, i.e. the bounding box
// that holds either of them.
func (d Dimensions) Envelope(other Dimensions) Dimensions {
	return Dimensions{
		length: max(d.length, other.length),
		width:  max(d.width, other.width),
		height: max(d.height, other.height),
	}
}

func (d Dimensions) IsEqual(other Dimensions) bool {
	return d == other
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%dx%dmm", d.length, d.width, d.height)
}

// VolumeOf returns the volume in cm³ of qty units measuring d each.
func VolumeOf(d Dimensions, qty int) float64 {
	if qty <= 0 {
		return 0
	}
	return math.Round(d.VolumeCM3()*float64(qty)*1000) / 1000
}

func (d *Dimensions) setLength(v int) error {
	if v < 0 || v > MaxDimensionValueMM {
		return errs.NewValueIsOutOfRangeError("length_mm", v, 0, MaxDimensionValueMM)
	}
	d.length = v
	return nil
}

func (d *Dimensions) setWidth(v int) error {
	if v < 0 || v > MaxDimensionValueMM {
		return errs.NewValueIsOutOfRangeError("width_mm", v, 0, MaxDimensionValueMM)
	}
	d.width = v
	return nil
}

func (d *Dimensions) setHeight(v int) error {
	if v < 0 || v > MaxDimensionValueMM {
		return errs.NewValueIsOutOfRangeError("height_mm", v, 0, MaxDimensionValueMM)
	}
	d.height = v
	return nil
}
