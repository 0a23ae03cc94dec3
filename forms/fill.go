// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

//go:generate mockgen -source fill.go -destination mock_test.go -package forms -typed

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/choria-io/computed/internal/validator"
	"github.com/jedib0t/go-pretty/v6/text"
)

// surveyor abstracts the survey library for testability.
type surveyor interface {
	AskOne(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error
}

type defaultSurveyor struct{}

func (d *defaultSurveyor) AskOne(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
	return survey.AskOne(p, response, opts...)
}

type fillOption func(*filler)

func withSurveyor(s surveyor) fillOption {
	return func(f *filler) {
		f.surveyor = s
	}
}

func withIsTerminal(t func() bool) fillOption {
	return func(f *filler) {
		f.isTerminal = t
	}
}

func withOutput(w io.Writer) fillOption {
	return func(f *filler) {
		f.output = w
	}
}

// filler holds what is needed to interactively answer a questionnaire
type filler struct {
	env        map[string]any
	surveyor   surveyor
	isTerminal func() bool
	output     io.Writer
}

// Fill asks for answers to the questions of q on a terminal and returns them as a nested map
// suitable for WriteAnswers. Computed questions are not asked, their values are calculated
// when the answers are committed. The env map provides template variables for question texts
// and is available to conditional expressions along with the answers given so far as input.
func Fill(q *Questionnaire, env map[string]any, opts ...fillOption) (map[string]any, error) {
	f := &filler{
		env:        env,
		surveyor:   &defaultSurveyor{},
		isTerminal: isTerminal,
		output:     os.Stdout,
	}

	for _, o := range opts {
		o(f)
	}

	if !f.isTerminal() {
		return nil, fmt.Errorf("can only fill forms on a valid terminal")
	}

	if len(q.Items) == 0 {
		return nil, fmt.Errorf("no items defined")
	}

	title := q.Title
	if title == "" {
		title = q.Name
	}
	fmt.Fprintln(f.output, text.Colors{text.Bold}.Sprint(title))

	if q.Description != "" {
		d, err := renderTemplate(q.Description, env)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(f.output, d)
	}

	fmt.Fprintln(f.output)

	f.surveyor.AskOne(&survey.Input{Message: "Press enter to start"}, &struct{}{})

	answers := map[string]any{}

	err := f.askItems(q.Items, answers, answers)
	if err != nil {
		return nil, err
	}

	return answers, nil
}

// askItems asks every applicable item, storing answers in answers. Root holds all answers
// given so far and is what conditional expressions see.
func (f *filler) askItems(items []Item, answers map[string]any, root map[string]any) error {
	for _, item := range items {
		if item.IsComputed() {
			continue
		}

		should, err := f.shouldAsk(item, root)
		if err != nil {
			return err
		}
		if !should {
			continue
		}

		if item.IsSection() {
			err = f.askSection(item, answers, root)
			if err != nil {
				return err
			}

			continue
		}

		val, err := f.askQuestion(item)
		if err != nil {
			return err
		}

		if val != nil {
			answers[item.Name] = val
		}
	}

	return nil
}

// askSection asks the items of a section, recurring sections are asked at least their initial
// number of instances and then for as long as the user wants to add more.
func (f *filler) askSection(item Item, answers map[string]any, root map[string]any) error {
	err := f.printDescription(item)
	if err != nil {
		return err
	}

	if !item.Recurrent {
		m := map[string]any{}
		answers[item.Name] = m

		err = f.askItems(item.Items, m, root)
		if err != nil {
			return err
		}

		if len(m) == 0 {
			delete(answers, item.Name)
		}

		return nil
	}

	var list []any

	for i := 0; ; i++ {
		if i >= item.InitialNumberOfInstances {
			ok, err := f.askConfirmation(fmt.Sprintf("Add additional '%s' entry", item.Name), false)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
		}

		m := map[string]any{}
		list = append(list, m)
		answers[item.Name] = list

		err = f.askItems(item.Items, m, root)
		if err != nil {
			return err
		}
	}

	if len(list) == 0 {
		delete(answers, item.Name)
	}

	return nil
}

// askQuestion dispatches a question to the prompt suited to its data type, nil answers
// are left out of the result
func (f *filler) askQuestion(item Item) (any, error) {
	err := f.printDescription(item)
	if err != nil {
		return nil, err
	}

	switch {
	case item.DataType == LongDataType, item.DataType == DateDataType && item.DateFormat == "yyyy":
		return f.askParsed(item, "isInt(value)", func(s string) (any, error) { return strconv.Atoi(s) })

	case item.DataType == DoubleDataType:
		return f.askParsed(item, "isFloat(value)", func(s string) (any, error) { return strconv.ParseFloat(s, 64) })

	case item.DataType == DecimalDataType:
		return f.askParsed(item, "isFloat(value)", func(s string) (any, error) { return s, nil })

	case item.DataType == DateDataType:
		return f.askParsed(item, "isDate(value)", func(s string) (any, error) { return s, nil })

	case item.DataType == BooleanDataType:
		return f.askBool(item)

	case isOneOf(item.DataType, TextDataType, VocabularyDataType, TimeDataType, ""):
		if len(item.Enum) > 0 {
			return f.askEnum(item)
		}

		return f.askString(item)

	default:
		return nil, fmt.Errorf("unsupported data type %q", item.DataType)
	}
}

func (f *filler) printDescription(item Item) error {
	if item.Description == "" {
		return nil
	}

	d, err := renderTemplate(item.Description, f.env)
	if err != nil {
		return err
	}

	fmt.Fprintln(f.output)
	fmt.Fprintln(f.output, d)
	fmt.Fprintln(f.output)

	return nil
}

func message(item Item) string {
	if item.Text != "" {
		return item.Text
	}

	return item.Name
}

// askParsed prompts for text validated by validation combined with the item's own validation
// and converts the answer using parse, empty answers to optional questions are nil
func (f *filler) askParsed(item Item, validation string, parse func(string) (any, error)) (any, error) {
	if item.ValidationExpression != "" {
		validation = fmt.Sprintf("%s && %s", validation, item.ValidationExpression)
	}

	var ans string

	err := f.surveyor.AskOne(&survey.Input{
		Message: message(item),
		Help:    item.Description,
		Default: item.Default,
	}, &ans, survey.WithValidator(validator.SurveyValidator(validation, item.Required)))
	if err != nil {
		return nil, err
	}

	if ans == "" {
		return nil, nil
	}

	return parse(ans)
}

func (f *filler) askString(item Item) (any, error) {
	var ans string
	var opts []survey.AskOpt

	if item.Required {
		opts = append(opts, survey.WithValidator(survey.MinLength(1)))
	}

	if item.ValidationExpression != "" {
		opts = append(opts, survey.WithValidator(validator.SurveyValidator(item.ValidationExpression, item.Required)))
	}

	err := f.surveyor.AskOne(&survey.Input{
		Message: message(item),
		Help:    item.Description,
		Default: item.Default,
	}, &ans, opts...)
	if err != nil {
		return nil, err
	}

	if ans == "" {
		return nil, nil
	}

	return ans, nil
}

func (f *filler) askEnum(item Item) (any, error) {
	var ans string
	var opts []survey.AskOpt

	if item.Required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}

	deflt := item.Default
	if deflt == "" {
		deflt = item.Enum[0]
	}

	err := f.surveyor.AskOne(&survey.Select{
		Message: message(item),
		Help:    item.Description,
		Default: deflt,
		Options: item.Enum,
	}, &ans, opts...)
	if err != nil {
		return nil, err
	}

	return ans, nil
}

func (f *filler) askBool(item Item) (any, error) {
	var ans bool
	var dflt bool
	var err error

	if item.Default != "" {
		dflt, err = strconv.ParseBool(item.Default)
		if err != nil {
			return nil, err
		}
	}

	err = f.surveyor.AskOne(&survey.Confirm{
		Message: message(item),
		Help:    item.Description,
		Default: dflt,
	}, &ans)
	if err != nil {
		return nil, err
	}

	return ans, nil
}

func (f *filler) askConfirmation(prompt string, dflt bool) (bool, error) {
	ans := dflt

	err := f.surveyor.AskOne(&survey.Confirm{
		Message: prompt,
		Default: dflt,
	}, &ans)

	return ans, err
}

// shouldAsk evaluates the item's conditional expression against the environment merged with
// the answers given so far, available as input and Input
func (f *filler) shouldAsk(item Item, root map[string]any) (bool, error) {
	if item.ConditionalExpression == "" {
		return true, nil
	}

	env := make(map[string]any)
	for k, v := range f.env {
		env[k] = v
	}

	env["input"] = root
	env["Input"] = root

	return validator.Validate(env, item.ConditionalExpression)
}
