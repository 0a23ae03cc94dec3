// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package marshal converts between typed repository properties and the plain values
// consumed and produced by expressions, multi valued properties map to slices element-wise.
package marshal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/choria-io/computed/repo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// ToPlain is the plain value of p, a []any for multi valued properties and nil for
// empty single valued ones
func ToPlain(p repo.Property) any {
	if p.Array {
		res := make([]any, len(p.Values))
		copy(res, p.Values)
		return res
	}

	return p.Value()
}

// ToProperty builds a property of type t called name from a plain value. Slices produce
// multi valued properties, every element is converted to t.
func ToProperty(name string, value any, t repo.Type) (repo.Property, error) {
	if value == nil {
		return repo.Property{}, fmt.Errorf("cannot store a nil value in %s", name)
	}

	switch vals := value.(type) {
	case []any:
		res := make([]any, 0, len(vals))
		for i, v := range vals {
			cv, err := Convert(v, t)
			if err != nil {
				return repo.Property{}, fmt.Errorf("%s[%d]: %w", name, i, err)
			}
			res = append(res, cv)
		}

		return repo.NewArrayProperty(name, t, res...), nil

	case []string:
		res := make([]any, 0, len(vals))
		for _, v := range vals {
			res = append(res, v)
		}

		return ToProperty(name, res, t)

	default:
		cv, err := Convert(value, t)
		if err != nil {
			return repo.Property{}, fmt.Errorf("%s: %w", name, err)
		}

		return repo.NewProperty(name, t, cv), nil
	}
}

// Convert converts a single plain value to the Go type used by properties of type t
func Convert(v any, t repo.Type) (any, error) {
	switch t {
	case repo.TypeLong:
		if s, ok := v.(string); ok {
			return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		}
		if f, ok := v.(float64); ok {
			if math.IsInf(f, 0) || math.IsNaN(f) {
				return nil, fmt.Errorf("cannot convert %v to a long", f)
			}
			return int64(f), nil
		}
		return cast.ToInt64E(v)

	case repo.TypeDouble:
		if s, ok := v.(string); ok {
			return strconv.ParseFloat(strings.TrimSpace(s), 64)
		}
		return cast.ToFloat64E(v)

	case repo.TypeDecimal:
		return ToDecimal(v)

	case repo.TypeBoolean:
		return cast.ToBoolE(v)

	case repo.TypeDate:
		switch tv := v.(type) {
		case time.Time:
			return tv, nil
		case string:
			return parseDate(tv)
		default:
			return nil, fmt.Errorf("cannot convert %T to a date", v)
		}

	default:
		switch sv := v.(type) {
		case string:
			return sv, nil
		case time.Time:
			return sv.Format(time.RFC3339Nano), nil
		case decimal.Decimal:
			return sv.String(), nil
		default:
			return cast.ToStringE(v)
		}
	}
}

// ToDecimal converts strings, decimals and numbers to a decimal
func ToDecimal(v any) (decimal.Decimal, error) {
	switch dv := v.(type) {
	case decimal.Decimal:
		return dv, nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(dv))
	case float64:
		if math.IsInf(dv, 0) || math.IsNaN(dv) {
			return decimal.Zero, fmt.Errorf("cannot convert %v to a decimal", dv)
		}
		return decimal.NewFromFloat(dv), nil
	case float32:
		if math.IsInf(float64(dv), 0) || math.IsNaN(float64(dv)) {
			return decimal.Zero, fmt.Errorf("cannot convert %v to a decimal", dv)
		}
		return decimal.NewFromFloat32(dv), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32:
		i, err := cast.ToInt64E(dv)
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromInt(i), nil
	default:
		return decimal.Zero, fmt.Errorf("cannot convert %T to a decimal", v)
	}
}

// Normalize prepares a plain value for use as an expression variable. Decimals become
// float64, int64 becomes int and strings that hold numbers become numbers so that answers
// stored as text participate in arithmetic. Slices are normalized element-wise.
func Normalize(v any) any {
	switch tv := v.(type) {
	case []any:
		res := make([]any, len(tv))
		for i, e := range tv {
			res[i] = Normalize(e)
		}
		return res

	case decimal.Decimal:
		return tv.InexactFloat64()

	case int64:
		return int(tv)

	case string:
		s := strings.TrimSpace(tv)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "xXpP") && !isSpecialFloat(s) {
			return f
		}
		return tv

	default:
		return v
	}
}

// parseDate accepts RFC 3339 timestamps and plain dates, the latter at midnight UTC
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}

	t, derr := time.Parse(time.DateOnly, s)
	if derr == nil {
		return t, nil
	}

	return time.Time{}, err
}

func isSpecialFloat(s string) bool {
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case "inf", "infinity", "nan":
		return true
	default:
		return false
	}
}
