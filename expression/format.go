// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package expression

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/choria-io/computed/internal/marshal"
	"github.com/choria-io/computed/repo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Format converts a raw expression result into the value stored in a property of type t.
//
// Nil and the text "null" format as nil. Long, double and decimal targets accept text
// holding a number and numeric results. Date targets accept times and RFC 3339 text. Every
// other target receives text where integral numbers have no fractional part. Slices are
// formatted element by element.
func Format(raw any, t repo.Type) (any, error) {
	if raw == nil {
		return nil, nil
	}

	if s, ok := raw.(string); ok && s == "null" {
		return nil, nil
	}

	if list, ok := raw.([]any); ok {
		res := make([]any, 0, len(list))
		for i, v := range list {
			fv, err := Format(v, t)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			if fv == nil {
				continue
			}
			res = append(res, fv)
		}

		return res, nil
	}

	switch t {
	case repo.TypeLong, repo.TypeDouble, repo.TypeDecimal:
		if !isNumeric(raw) {
			return nil, fmt.Errorf("cannot format %T as %s", raw, t)
		}

		return marshal.Convert(raw, t)

	case repo.TypeDate:
		switch rv := raw.(type) {
		case time.Time:
			return rv, nil
		case string:
			return marshal.Convert(rv, t)
		default:
			return nil, fmt.Errorf("cannot format %T as %s", raw, t)
		}

	default:
		return formatString(raw), nil
	}
}

func isNumeric(v any) bool {
	switch v.(type) {
	case string, decimal.Decimal, float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

func formatString(v any) string {
	switch rv := v.(type) {
	case string:
		return rv
	case float64:
		return formatFloat(rv)
	case float32:
		return formatFloat(float64(rv))
	case time.Time:
		return rv.Format(time.RFC3339Nano)
	case decimal.Decimal:
		return rv.String()
	default:
		s, err := cast.ToStringE(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return s
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return strconv.FormatInt(int64(f), 10)
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}
