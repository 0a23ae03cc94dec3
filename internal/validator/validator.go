// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package validator evaluates boolean expressions used to validate answers and to decide
// whether a question applies. Expressions are written in the expr language and may use
// the isInt(value), isFloat(value) and isDate(value) helpers.
package validator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/expr-lang/expr"
)

// Validate evaluates expression against env and requires it to produce a boolean
func Validate(env map[string]any, expression string) (bool, error) {
	if env == nil {
		env = map[string]any{}
	}

	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool(), isIntFunc, isFloatFunc, isDateFunc)
	if err != nil {
		return false, fmt.Errorf("invalid expression %q: %w", expression, err)
	}

	res, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}

	ok, isBool := res.(bool)
	if !isBool {
		return false, fmt.Errorf("expression %q did not return a boolean", expression)
	}

	return ok, nil
}

// SurveyValidator validates survey answers, the answer is available as value. Empty
// answers to optional questions are always valid.
func SurveyValidator(expression string, required bool) survey.Validator {
	return func(val any) error {
		if s, ok := val.(string); ok && s == "" && !required {
			return nil
		}

		ok, err := Validate(map[string]any{"value": val}, expression)
		if err != nil {
			return err
		}

		if !ok {
			return fmt.Errorf("validation using %q did not pass", expression)
		}

		return nil
	}
}

var isIntFunc = expr.Function("isInt", func(params ...any) (any, error) {
	switch v := params[0].(type) {
	case int, int64:
		return true, nil
	case string:
		_, err := strconv.Atoi(strings.TrimSpace(v))
		return err == nil, nil
	default:
		return false, nil
	}
}, new(func(any) bool))

var isFloatFunc = expr.Function("isFloat", func(params ...any) (any, error) {
	switch v := params[0].(type) {
	case int, int64, float64:
		return true, nil
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return err == nil, nil
	default:
		return false, nil
	}
}, new(func(any) bool))

// isDate accepts RFC 3339 timestamps and plain dates
var isDateFunc = expr.Function("isDate", func(params ...any) (any, error) {
	switch v := params[0].(type) {
	case time.Time:
		return true, nil
	case string:
		s := strings.TrimSpace(v)
		if _, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return true, nil
		}
		_, err := time.Parse(time.DateOnly, s)
		return err == nil, nil
	default:
		return false, nil
	}
}, new(func(any) bool))
