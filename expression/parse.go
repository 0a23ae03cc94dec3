// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package expression

import (
	"fmt"
	"strings"

	"github.com/choria-io/computed/internal/marshal"
	"github.com/expr-lang/expr"
)

const (
	startMarker   = "@{"
	endMarker     = "}"
	defaultMarker = ":-"
)

// Parsed is an expression with its placeholders replaced by bare variable names
type Parsed struct {
	// Body is the expression with every placeholder replaced by its name
	Body string
	// Bound is the expression with every placeholder replaced by the token in Tokens
	Bound string
	// Names lists the placeholder names in the order they first appear
	Names []string
	// Tokens maps placeholder names to the identifiers standing in for them in Bound
	Tokens map[string]string
	// Inputs holds the resolved value of every placeholder, nil for unresolved ones
	Inputs map[string]any
	// Missing lists placeholders that resolved neither from the values nor a default
	Missing []string
}

// HasMissingValue reports whether any placeholder could not be resolved
func (p *Parsed) HasMissingValue() bool {
	return len(p.Missing) > 0
}

// Env is the evaluation environment of Bound, the inputs keyed by their tokens
func (p *Parsed) Env() map[string]any {
	env := make(map[string]any, len(p.Tokens))
	for name, token := range p.Tokens {
		env[token] = marshal.Normalize(p.Inputs[name])
	}

	return env
}

// Parse scans expression left to right for @{name} and @{name:-default} placeholders.
// The first occurrence of a name decides its value for the whole expression, looked up
// in values and falling back to the default literal.
func Parse(expression string, values map[string]any) *Parsed {
	res := &Parsed{Inputs: map[string]any{}, Tokens: map[string]string{}}

	var body, bound strings.Builder
	pos := 0

	for {
		start := strings.Index(expression[pos:], startMarker)
		if start < 0 {
			break
		}
		start += pos

		end := strings.Index(expression[start:], endMarker)
		if end < 0 {
			break
		}
		end += start

		inner := expression[start+len(startMarker) : end]
		name := inner
		def := ""
		hasDefault := false

		if idx := strings.Index(inner, defaultMarker); idx > -1 {
			name = inner[:idx]
			def = inner[idx+len(defaultMarker):]
			hasDefault = true
		}

		if _, seen := res.Inputs[name]; !seen {
			res.Tokens[name] = fmt.Sprintf("arg%d", len(res.Names))
			res.Names = append(res.Names, name)

			value := values[name]
			if value == nil && hasDefault {
				value = defaultValue(def)
			}
			if value == nil {
				res.Missing = append(res.Missing, name)
			}

			res.Inputs[name] = value
		}

		body.WriteString(expression[pos:start])
		body.WriteString(name)
		bound.WriteString(expression[pos:start])
		bound.WriteString(res.Tokens[name])

		pos = end + len(endMarker)
	}

	body.WriteString(expression[pos:])
	bound.WriteString(expression[pos:])

	res.Body = body.String()
	res.Bound = bound.String()

	return res
}

// Dependencies lists the names an expression refers to, in order of first appearance
func Dependencies(expression string) []string {
	return Parse(expression, nil).Names
}

// defaultValue interprets a default literal as an expression literal so that @{x:-5} is a
// number and @{x:-true} a boolean, anything that is not a valid literal is used as text
func defaultValue(def string) any {
	if strings.TrimSpace(def) == "" {
		return def
	}

	v, err := expr.Eval(def, nil)
	if err != nil || v == nil {
		return def
	}

	return v
}
