// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package expression evaluates computed question expressions. Expressions are function
// bodies written in the expr language where answers to other questions are referenced
// using @{name} or @{name:-default} placeholders:
//
//	return @{weight} / (@{height:-1.7} * @{height:-1.7})
//
// A leading return on the final statement is optional and let statements may precede it.
package expression

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/choria-io/computed/repo"
	"github.com/expr-lang/expr"
)

// Logger is the logging interface used by the evaluator
type Logger interface {
	Debugf(format string, a ...any)
	Warnf(format string, a ...any)
	Errorf(format string, a ...any)
}

var (
	returnRe = regexp.MustCompile(`(^|;)\s*return\b\s*`)
	declRe   = regexp.MustCompile(`(^|;)\s*(?:var|const)\s+`)
	strictRe = regexp.MustCompile(`([=!])==`)
)

// Evaluator evaluates expressions, failures are logged and never returned
type Evaluator struct {
	log Logger
}

// New creates an evaluator logging to log
func New(log Logger) (*Evaluator, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Evaluator{log: log}, nil
}

// Dependencies lists the names expression refers to
func (e *Evaluator) Dependencies(expression string) []string {
	return Dependencies(expression)
}

// Evaluate resolves the placeholders of expression from values and runs it, formatting
// the result for a property of type t. The result is nil when any placeholder is
// unresolved, when evaluation fails or when the result cannot be formatted. The id
// identifies the question in logs.
func (e *Evaluator) Evaluate(id string, expression string, values map[string]any, t repo.Type) any {
	parsed := Parse(expression, values)
	if parsed.HasMissingValue() {
		e.log.Debugf("Not evaluating %s, missing values for %s", id, strings.Join(parsed.Missing, ", "))
		return nil
	}

	raw, err := Run(parsed.Bound, parsed.Env())
	if err != nil {
		e.log.Warnf("Evaluating the expression for question %s failed: %v", id, err)
		return nil
	}

	res, err := Format(raw, t)
	if err != nil {
		e.log.Errorf("Could not format the result of question %s as %s: %v", id, t, err)
		return nil
	}

	return res
}

// Run executes a function body against env, returning the value of its final statement
func Run(body string, env map[string]any) (any, error) {
	program, err := expr.Compile(prepareBody(body), expr.Env(env))
	if err != nil {
		return nil, err
	}

	return expr.Run(program, env)
}

func prepareBody(body string) string {
	body = strings.TrimSpace(body)
	body = strings.TrimRight(body, "; \t\r\n")
	body = returnRe.ReplaceAllString(body, "$1 ")
	body = declRe.ReplaceAllString(body, "$1 let ")
	body = strictRe.ReplaceAllString(body, "$1=")

	return strings.TrimSpace(body)
}
