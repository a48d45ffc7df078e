package pipeline

import (
	"errors"
	"fmt"
	"math"

	"experiment-logger/internal/model"
)

// MaxPrecision bounds the rounding precision in both directions
const MaxPrecision = 10

var (
	ErrColumnNotFound   = errors.New("column not found")
	ErrInvalidPrecision = errors.New("invalid precision")
	ErrMaxSizeTooSmall  = errors.New("max size too small")
	ErrInvalidDate      = errors.New("invalid date")
)

// ValidateBinSpec checks a binning request against a table. Every problem
// is reported, joined into one error.
func ValidateBinSpec(table *model.Table, spec BinSpec) error {
	var errs []error

	// Check axis and color columns
	if spec.X == "" {
		errs = append(errs, fmt.Errorf("%w: x axis is required", ErrColumnNotFound))
	} else if table.Index(spec.X) < 0 {
		errs = append(errs, fmt.Errorf("%w: x axis %q", ErrColumnNotFound, spec.X))
	}
	if spec.Y == "" {
		errs = append(errs, fmt.Errorf("%w: y axis is required", ErrColumnNotFound))
	} else if table.Index(spec.Y) < 0 {
		errs = append(errs, fmt.Errorf("%w: y axis %q", ErrColumnNotFound, spec.Y))
	}
	if spec.Color != "" && table.Index(spec.Color) < 0 {
		errs = append(errs, fmt.Errorf("%w: color %q", ErrColumnNotFound, spec.Color))
	}

	// Check precisions
	for _, p := range []struct {
		axis  string
		value int
	}{{"x", spec.XPrecision}, {"y", spec.YPrecision}} {
		if p.value < -MaxPrecision || p.value > MaxPrecision {
			errs = append(errs, fmt.Errorf("%w: %s precision %d outside [-%d, %d]",
				ErrInvalidPrecision, p.axis, p.value, MaxPrecision, MaxPrecision))
		}
	}

	// Check size scale; NaN fails the comparison
	if !(spec.MaxSize >= MinBubbleSize) || math.IsInf(spec.MaxSize, 0) {
		errs = append(errs, fmt.Errorf("%w: got %v, want a finite size ≥ %v", ErrMaxSizeTooSmall, spec.MaxSize, MinBubbleSize))
	}

	return errors.Join(errs...)
}
