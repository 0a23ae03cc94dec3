// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/choria-io/computed/internal/marshal"
	"github.com/choria-io/computed/repo"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Locations of content in the repository
const (
	QuestionnairesPath = "Questionnaires"
	FormsPath          = "Forms"
	SubjectsPath       = "Subjects"
)

// Questionnaire defines a questionnaire with a name, a title and a list of items
type Questionnaire struct {
	Name        string `json:"name" yaml:"name"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Items       []Item `json:"items" yaml:"items"`
}

// Item is a section when Section is set or it has Items, a question otherwise. Questions
// with the computed data type or entry mode have their value calculated from Expression.
type Item struct {
	Name                     string   `json:"name" yaml:"name"`
	Section                  bool     `json:"section" yaml:"section"`
	Text                     string   `json:"text" yaml:"text"`
	Description              string   `json:"description" yaml:"description"`
	DataType                 string   `json:"dataType" yaml:"dataType"`
	EntryMode                string   `json:"entryMode" yaml:"entryMode"`
	Expression               string   `json:"expression" yaml:"expression"`
	DateFormat               string   `json:"dateFormat" yaml:"dateFormat"`
	Recurrent                bool     `json:"recurrent" yaml:"recurrent"`
	InitialNumberOfInstances int      `json:"initialNumberOfInstances" yaml:"initialNumberOfInstances"`
	Required                 bool     `json:"required" yaml:"required"`
	Default                  string   `json:"default" yaml:"default"`
	Enum                     []string `json:"enum" yaml:"enum"`
	ConditionalExpression    string   `json:"conditional" yaml:"conditional"`
	ValidationExpression     string   `json:"validation" yaml:"validation"`
	Items                    []Item   `json:"items" yaml:"items"`
}

// IsSection reports whether the item is a section
func (i *Item) IsSection() bool {
	return i.Section || len(i.Items) > 0
}

// IsComputed reports whether the item is a computed question
func (i *Item) IsComputed() bool {
	return !i.IsSection() && (i.DataType == ComputedDataType || i.EntryMode == ComputedEntryMode)
}

// ReadQuestionnaire reads a YAML questionnaire definition from r
func ReadQuestionnaire(r io.Reader) (*Questionnaire, error) {
	qb, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return ParseQuestionnaire(qb)
}

// LoadQuestionnaire reads a YAML questionnaire definition from the file f
func LoadQuestionnaire(f string) (*Questionnaire, error) {
	qb, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}

	return ParseQuestionnaire(qb)
}

// ParseQuestionnaire parses and validates a YAML questionnaire definition
func ParseQuestionnaire(qb []byte) (*Questionnaire, error) {
	var q Questionnaire
	err := yaml.Unmarshal(qb, &q)
	if err != nil {
		return nil, err
	}

	err = q.Validate()
	if err != nil {
		return nil, err
	}

	return &q, nil
}

// Validate checks names, data types and expressions of every item
func (q *Questionnaire) Validate() error {
	if !IsValidName(q.Name) {
		return fmt.Errorf("invalid questionnaire name %q", q.Name)
	}

	if len(q.Items) == 0 {
		return fmt.Errorf("no items defined")
	}

	return validateItems(q.Items, q.Name)
}

func validateItems(items []Item, parent string) error {
	seen := map[string]bool{}

	for _, item := range items {
		if !IsValidName(item.Name) {
			return fmt.Errorf("invalid item name %q in %s", item.Name, parent)
		}

		if seen[item.Name] {
			return fmt.Errorf("duplicate item %s in %s", item.Name, parent)
		}
		seen[item.Name] = true

		path := parent + "/" + item.Name

		switch {
		case item.IsSection():
			if item.InitialNumberOfInstances < 0 {
				return fmt.Errorf("%s: initialNumberOfInstances cannot be negative", path)
			}

			err := validateItems(item.Items, path)
			if err != nil {
				return err
			}

		default:
			if !isOneOf(item.DataType, ComputedDataType, LongDataType, DoubleDataType, DecimalDataType, BooleanDataType, DateDataType, TimeDataType, TextDataType, VocabularyDataType) {
				return fmt.Errorf("%s: unsupported data type %q", path, item.DataType)
			}

			if item.IsComputed() && strings.TrimSpace(item.Expression) == "" {
				return fmt.Errorf("%s: computed questions require an expression", path)
			}
		}
	}

	return nil
}

// IsValidName reports whether name can name questionnaires, items and subjects
func IsValidName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "/@{}:")
}

// Install places the questionnaire into the repository below root, replacing any previous
// questionnaire of the same name, and returns its node. Every node is given a new identifier.
func Install(root *repo.Builder, q *Questionnaire) (*repo.Builder, error) {
	err := q.Validate()
	if err != nil {
		return nil, err
	}

	parent, err := root.ChildOrCreate(QuestionnairesPath)
	if err != nil {
		return nil, err
	}

	qn, err := parent.SetChild(q.Name)
	if err != nil {
		return nil, err
	}

	setIdentity(qn, QuestionnaireType, "cards/Questionnaire")
	setString(qn, "title", q.Title)
	setString(qn, DescriptionProperty, q.Description)

	err = installItems(qn, q.Items)
	if err != nil {
		return nil, err
	}

	return qn, nil
}

func installItems(parent *repo.Builder, items []Item) error {
	for _, item := range items {
		n, err := parent.SetChild(item.Name)
		if err != nil {
			return err
		}

		setString(n, TextProperty, item.Text)
		setString(n, DescriptionProperty, item.Description)
		setString(n, ConditionalProperty, item.ConditionalExpression)

		if item.IsSection() {
			setIdentity(n, SectionType, "cards/Section")
			if item.Recurrent {
				n.SetProperty(repo.NewProperty(RecurrentProperty, repo.TypeBoolean, true))
				n.SetProperty(repo.NewProperty(InitialInstancesProperty, repo.TypeLong, int64(item.InitialNumberOfInstances)))
			}

			err = installItems(n, item.Items)
			if err != nil {
				return err
			}

			continue
		}

		setIdentity(n, QuestionType, "cards/Question")
		setString(n, DataTypeProperty, item.DataType)
		setString(n, EntryModeProperty, item.EntryMode)
		setString(n, ExpressionProperty, item.Expression)
		setString(n, DateFormatProperty, item.DateFormat)
		setString(n, DefaultProperty, item.Default)
		setString(n, ValidationProperty, item.ValidationExpression)

		if item.Required {
			n.SetProperty(repo.NewProperty(RequiredProperty, repo.TypeBoolean, true))
		}

		if len(item.Enum) > 0 {
			vals := make([]any, len(item.Enum))
			for i, v := range item.Enum {
				vals[i] = v
			}
			n.SetProperty(repo.NewArrayProperty(EnumProperty, repo.TypeString, vals...))
		}
	}

	return nil
}

func setIdentity(n *repo.Builder, primaryType string, resourceType string) {
	n.SetProperty(repo.NewProperty(repo.IdentifierProperty, repo.TypeString, uuid.NewString()))
	n.SetProperty(repo.NewProperty(repo.PrimaryTypeProperty, repo.TypeName, primaryType))
	n.SetProperty(repo.NewProperty(repo.ResourceTypeProperty, repo.TypeString, resourceType))
}

func setString(n *repo.Builder, name string, value string) {
	if value == "" {
		return
	}

	n.SetProperty(repo.NewProperty(name, repo.TypeString, value))
}

// NewForm creates an empty form for the questionnaire and subject below root. The subject is
// created when it does not exist yet.
func NewForm(root *repo.Builder, questionnaire *repo.Node, subject string, opts ...Option) (*repo.Builder, error) {
	if !IsQuestionnaire(questionnaire) {
		return nil, fmt.Errorf("%s is not a questionnaire", questionnaire.Path())
	}

	if !IsValidName(subject) {
		return nil, fmt.Errorf("invalid subject %q", subject)
	}

	s := newSettings(opts...)

	subjects, err := root.ChildOrCreate(SubjectsPath)
	if err != nil {
		return nil, err
	}

	sn := subjects.Child(subject)
	if sn == nil {
		sn, err = subjects.SetChild(subject)
		if err != nil {
			return nil, err
		}
		setIdentity(sn, SubjectType, "cards/Subject")
	}

	parent, err := root.ChildOrCreate(FormsPath)
	if err != nil {
		return nil, err
	}

	form, err := parent.SetChild(s.newName())
	if err != nil {
		return nil, err
	}

	form.SetProperty(repo.NewProperty(repo.IdentifierProperty, repo.TypeString, uuid.NewString()))
	form.SetProperty(repo.NewProperty(repo.CreatedProperty, repo.TypeDate, s.now()))
	form.SetProperty(repo.NewProperty(repo.CreatedByProperty, repo.TypeName, s.user))
	form.SetProperty(repo.NewProperty(repo.PrimaryTypeProperty, repo.TypeName, FormType))
	form.SetProperty(repo.NewProperty(repo.ResourceSuperTypeProperty, repo.TypeString, BaseResource))
	form.SetProperty(repo.NewProperty(repo.ResourceTypeProperty, repo.TypeString, FormResource))
	form.SetProperty(repo.NewProperty(QuestionnaireProperty, repo.TypeReference, questionnaire.Identifier()))
	form.SetProperty(repo.NewProperty(SubjectProperty, repo.TypeReference, repo.Identifier(sn)))
	form.SetProperty(repo.NewArrayProperty(StatusFlagsProperty, repo.TypeString))

	return form, nil
}

// WriteAnswers writes answers into a form or answer section made from the questionnaire or
// section node def. Answers to sections are maps, answers to recurring sections may also be
// lists of maps, one per instance. Values are converted to the answer type of their question.
func WriteAnswers(node *repo.Builder, def *repo.Node, answers map[string]any, opts ...Option) error {
	s := newSettings(opts...)

	for name := range answers {
		if def.Child(name) == nil {
			return fmt.Errorf("%s has no item %s", def.Name(), name)
		}
	}

	for _, item := range def.Children() {
		value, ok := answers[item.Name()]
		if !ok || value == nil {
			continue
		}

		switch {
		case IsSection(item):
			err := writeSection(node, item, value, s, opts)
			if err != nil {
				return err
			}

		case IsQuestion(item):
			types := AnswerTypes(item)

			prop, err := marshal.ToProperty(ValueProperty, value, types.ValueType)
			if err != nil {
				return fmt.Errorf("invalid answer for %s: %w", item.Name(), err)
			}

			answer, err := node.SetChild(s.newName())
			if err != nil {
				return err
			}

			initAnswer(answer, item, s)
			answer.SetProperty(prop)
		}
	}

	return nil
}

func writeSection(node *repo.Builder, section *repo.Node, value any, s *settings, opts []Option) error {
	var instances []map[string]any

	switch v := value.(type) {
	case map[string]any:
		instances = append(instances, v)

	case []any:
		if !IsRecurrent(section) {
			return fmt.Errorf("section %s is not recurrent", section.Name())
		}

		for i, e := range v {
			m, ok := e.(map[string]any)
			if !ok {
				return fmt.Errorf("instance %d of section %s is not a map", i, section.Name())
			}
			instances = append(instances, m)
		}

	default:
		return fmt.Errorf("invalid answers for section %s: %T", section.Name(), value)
	}

	for _, answers := range instances {
		sn, err := node.SetChild(s.newName())
		if err != nil {
			return err
		}

		initAnswerSection(sn, section)

		err = WriteAnswers(sn, section, answers, opts...)
		if err != nil {
			return err
		}
	}

	return nil
}
