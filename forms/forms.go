// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package forms holds the questionnaire and form data model of the repository along with the
// tree work done when computing answers.
//
// Questionnaires are trees of sections and questions, forms are trees of answer sections and
// answers that reference the questionnaire nodes they answer. The package finds computed
// questions that need evaluation (BuildUnansweredTree), creates the answer structure that will
// hold their values (Synthesizer) and collects the answers already given (CollectAnswers).
//
// Questionnaires are defined in YAML and placed into a repository using Install, answers can be
// given interactively using Fill or written from a nested map using WriteAnswers.
package forms

import (
	"strings"

	"github.com/choria-io/computed/internal/marshal"
	"github.com/choria-io/computed/repo"
	"github.com/spf13/cast"
)

// Node types
const (
	FormType           = "cards:Form"
	AnswerSectionType  = "cards:AnswerSection"
	ComputedAnswerType = "cards:ComputedAnswer"
	QuestionnaireType  = "cards:Questionnaire"
	SectionType        = "cards:Section"
	QuestionType       = "cards:Question"
	SubjectType        = "cards:Subject"
)

// Resource types
const (
	AnswerResource         = "cards/Answer"
	ComputedAnswerResource = "cards/ComputedAnswer"
	AnswerSectionResource  = "cards/AnswerSection"
	FormResource           = "cards/Form"
	BaseResource           = "cards/Resource"
)

// Properties of form nodes
const (
	QuestionnaireProperty = "questionnaire"
	SubjectProperty       = "subject"
	SectionProperty       = "section"
	QuestionProperty      = "question"
	ValueProperty         = "value"
	StatusFlagsProperty   = "statusFlags"
)

// Properties of questionnaire nodes
const (
	DataTypeProperty         = "dataType"
	EntryModeProperty        = "entryMode"
	ExpressionProperty       = "expression"
	RecurrentProperty        = "recurrent"
	InitialInstancesProperty = "initialNumberOfInstances"
	DateFormatProperty       = "dateFormat"
	TextProperty             = "text"
	DescriptionProperty      = "description"
	ValidationProperty       = "validation"
	ConditionalProperty      = "conditional"
	EnumProperty             = "enum"
	DefaultProperty          = "default"
	RequiredProperty         = "required"
)

// Data types and entry modes of questions
const (
	ComputedDataType   = "computed"
	LongDataType       = "long"
	DoubleDataType     = "double"
	DecimalDataType    = "decimal"
	BooleanDataType    = "boolean"
	DateDataType       = "date"
	TimeDataType       = "time"
	TextDataType       = "text"
	VocabularyDataType = "vocabulary"

	ComputedEntryMode = "computed"
)

func IsForm(r repo.Reader) bool {
	return repo.PrimaryType(r) == FormType
}

func IsAnswerSection(r repo.Reader) bool {
	return repo.PrimaryType(r) == AnswerSectionType
}

// IsAnswer reports whether r is an answer of any type
func IsAnswer(r repo.Reader) bool {
	pt := repo.PrimaryType(r)
	return strings.HasPrefix(pt, "cards:") && strings.HasSuffix(pt, "Answer")
}

func IsComputedAnswer(r repo.Reader) bool {
	return repo.PrimaryType(r) == ComputedAnswerType
}

func IsQuestionnaire(r repo.Reader) bool {
	return repo.PrimaryType(r) == QuestionnaireType
}

func IsSection(r repo.Reader) bool {
	return repo.PrimaryType(r) == SectionType
}

func IsQuestion(r repo.Reader) bool {
	return repo.PrimaryType(r) == QuestionType
}

// IsComputedQuestion reports whether r is a question whose answer is computed, either by
// having the computed data type or by being a typed question with the computed entry mode
func IsComputedQuestion(r repo.Reader) bool {
	if !IsQuestion(r) {
		return false
	}

	return StringProperty(r, DataTypeProperty) == ComputedDataType || StringProperty(r, EntryModeProperty) == ComputedEntryMode
}

// QuestionName is the name of a question node, empty for anything else
func QuestionName(r repo.Reader) string {
	if r == nil || !IsQuestion(r) {
		return ""
	}

	return r.Name()
}

// Expression is the expression of a computed question
func Expression(question repo.Reader) string {
	return StringProperty(question, ExpressionProperty)
}

// QuestionReference is the identifier of the question an answer answers
func QuestionReference(answer repo.Reader) string {
	return StringProperty(answer, QuestionProperty)
}

// SectionReference is the identifier of the section an answer section instantiates
func SectionReference(answerSection repo.Reader) string {
	return StringProperty(answerSection, SectionProperty)
}

// QuestionnaireReference is the identifier of the questionnaire a form was made from
func QuestionnaireReference(form repo.Reader) string {
	return StringProperty(form, QuestionnaireProperty)
}

// IsRecurrent reports whether a section may be instantiated more than once
func IsRecurrent(section repo.Reader) bool {
	p, ok := section.Property(RecurrentProperty)
	if !ok {
		return false
	}

	return cast.ToBool(p.Value())
}

// InstanceCount is the number of instances of a questionnaire node a form should hold, the
// configured initial number of instances for recurring sections and 1 for anything else
func InstanceCount(r repo.Reader) int {
	if !IsRecurrent(r) {
		return 1
	}

	p, ok := r.Property(InitialInstancesProperty)
	if !ok {
		return 1
	}

	n, err := cast.ToIntE(p.Value())
	if err != nil || n < 0 {
		return 1
	}

	return n
}

// StringProperty is the text value of a single valued property, empty when unset
func StringProperty(r repo.Reader, name string) string {
	p, ok := r.Property(name)
	if !ok || p.Value() == nil {
		return ""
	}

	return cast.ToString(p.Value())
}

// ValueOf is the plain value of an answer, nil when it has none
func ValueOf(answer repo.Reader) any {
	p, ok := answer.Property(ValueProperty)
	if !ok {
		return nil
	}

	return marshal.ToPlain(p)
}

// AnswerType describes the node and value types used for answers to a question
type AnswerType struct {
	PrimaryType  string
	ResourceType string
	ValueType    repo.Type
}

// AnswerTypes is the answer typing for a question, decided by its data type
func AnswerTypes(question repo.Reader) AnswerType {
	dt := StringProperty(question, DataTypeProperty)

	cased := dt
	if cased != "" {
		cased = strings.ToUpper(cased[:1]) + cased[1:]
	}

	res := AnswerType{
		PrimaryType:  "cards:" + cased + "Answer",
		ResourceType: "cards/" + cased + "Answer",
	}

	switch dt {
	case LongDataType, BooleanDataType:
		res.ValueType = repo.TypeLong
	case DoubleDataType:
		res.ValueType = repo.TypeDouble
	case DecimalDataType:
		res.ValueType = repo.TypeDecimal
	case DateDataType:
		res.ValueType = repo.TypeDate
		if strings.ToLower(StringProperty(question, DateFormatProperty)) == "yyyy" {
			res.ValueType = repo.TypeLong
		}
	case TimeDataType, VocabularyDataType, TextDataType:
		res.ValueType = repo.TypeString
	default:
		res = AnswerType{
			PrimaryType:  ComputedAnswerType,
			ResourceType: ComputedAnswerResource,
			ValueType:    repo.TypeString,
		}
	}

	return res
}
