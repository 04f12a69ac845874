// Package metric compares an approximate output table with the golden one.
package metric

import (
	"strconv"
	"strings"

	"bmfapprox/bitmat"

	"github.com/pkg/errors"
)

type Kind int

const (
	HammingDistance Kind = iota
	WeightedHammingDistance
	MeanAbsoluteError
	ErrorRate
	MeanRelativeError
)

var names = map[Kind]string{
	HammingDistance:         "HD",
	WeightedHammingDistance: "WHD",
	MeanAbsoluteError:       "MAE",
	ErrorRate:               "ER",
	MeanRelativeError:       "MRE",
}

func Kinds() []Kind {
	return []Kind{HammingDistance, WeightedHammingDistance, MeanAbsoluteError, ErrorRate, MeanRelativeError}
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

func ParseKind(s string) (Kind, error) {
	for k, name := range names {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown metric %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Numeric reports whether the metric reads rows as unsigned integers, which
// bounds the table width.
func (k Kind) Numeric() bool {
	return k == WeightedHammingDistance || k == MeanAbsoluteError || k == MeanRelativeError
}

// Distance returns the normalized error of approx against golden. Both tables
// list the same vectors in the same order. An empty table has no error.
func (k Kind) Distance(golden, approx *bitmat.Matrix) (float64, error) {
	if !golden.SameShape(approx) {
		return 0, errors.Errorf("golden table is %dx%d, approximate table is %dx%d",
			golden.Rows(), golden.Cols(), approx.Rows(), approx.Cols())
	}
	n, m := golden.Rows(), golden.Cols()
	if n == 0 || m == 0 {
		return 0, nil
	}
	if k.Numeric() && m > bitmat.MaxWeightedCols {
		return 0, errors.Errorf("%s supports at most %d outputs, got %d", k, bitmat.MaxWeightedCols, m)
	}
	if k == WeightedHammingDistance && !bitmat.WeightedFits(n, m) {
		return 0, errors.Wrapf(bitmat.ErrWeightedOverflow, "%s over %dx%d tables", k, n, m)
	}
	maxValue := float64(uint64(1)<<uint(m) - 1)

	switch k {
	case HammingDistance:
		return float64(bitmat.Hamming(golden, approx)) / float64(n*m), nil
	case WeightedHammingDistance:
		return float64(bitmat.WeightedHamming(golden, approx)) / (float64(n) * maxValue), nil
	case ErrorRate:
		differ := 0
		for r := 0; r < n; r++ {
			if bitmat.RowValue(golden.Row(r)) != bitmat.RowValue(approx.Row(r)) {
				differ++
			}
		}
		return float64(differ) / float64(n), nil
	case MeanAbsoluteError, MeanRelativeError:
		var sum float64
		for r := 0; r < n; r++ {
			a, b := bitmat.RowValue(golden.Row(r)), bitmat.RowValue(approx.Row(r))
			diff := float64(a) - float64(b)
			if diff < 0 {
				diff = -diff
			}
			if k == MeanRelativeError {
				diff /= float64(max(a, 1))
			}
			sum += diff
		}
		mean := sum / float64(n)
		if k == MeanAbsoluteError {
			mean /= maxValue
		}
		return mean, nil
	}
	return 0, errors.Errorf("unknown metric %d", int(k))
}
