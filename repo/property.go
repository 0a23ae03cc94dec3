// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Type is the type tag of a property, every value held by a property is of the Go type
// listed next to its tag.
type Type int

const (
	TypeString    Type = iota // string
	TypeBoolean               // bool
	TypeLong                  // int64
	TypeDouble                // float64
	TypeDecimal               // decimal.Decimal
	TypeDate                  // time.Time
	TypeName                  // string
	TypeReference             // string, the identifier of the referenced node
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "String"
	case TypeBoolean:
		return "Boolean"
	case TypeLong:
		return "Long"
	case TypeDouble:
		return "Double"
	case TypeDecimal:
		return "Decimal"
	case TypeDate:
		return "Date"
	case TypeName:
		return "Name"
	case TypeReference:
		return "Reference"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Property is a named, typed, single or multi valued property of a node
type Property struct {
	Name   string
	Type   Type
	Array  bool
	Values []any
}

// NewProperty creates a single valued property
func NewProperty(name string, t Type, value any) Property {
	return Property{Name: name, Type: t, Values: []any{value}}
}

// NewArrayProperty creates a multi valued property, values may be empty
func NewArrayProperty(name string, t Type, values ...any) Property {
	vals := make([]any, len(values))
	copy(vals, values)

	return Property{Name: name, Type: t, Array: true, Values: vals}
}

// Value is the first value of the property, nil when there are none
func (p Property) Value() any {
	if len(p.Values) == 0 {
		return nil
	}

	return p.Values[0]
}

// String is the first value when it is a string, empty otherwise
func (p Property) String() string {
	s, _ := p.Value().(string)
	return s
}

// Count is the number of values held
func (p Property) Count() int {
	return len(p.Values)
}

// Equal compares name, type, cardinality and values
func (p Property) Equal(o Property) bool {
	if p.Name != o.Name || p.Type != o.Type || p.Array != o.Array || len(p.Values) != len(o.Values) {
		return false
	}

	for i := range p.Values {
		if !valueEqual(p.Values[i], o.Values[i]) {
			return false
		}
	}

	return true
}

func (p Property) clone() Property {
	vals := make([]any, len(p.Values))
	copy(vals, p.Values)
	p.Values = vals

	return p
}

func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case decimal.Decimal:
		bv, ok := b.(decimal.Decimal)
		return ok && av.Equal(bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	default:
		return a == b
	}
}
