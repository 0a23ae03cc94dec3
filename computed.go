// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package computed calculates the answers to computed questions of forms as part of the
// commit that changes the form.
//
// An Engine is registered with a repo.Store as an editor provider, every commit that adds
// or changes answers of a form then creates any missing answer sections and answers for the
// computed questions of the form's questionnaire and stores their values. Computed answers
// changed by the client in the same commit are kept as given.
package computed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/choria-io/computed/expression"
	"github.com/choria-io/computed/forms"
	"github.com/choria-io/computed/internal/marshal"
	"github.com/choria-io/computed/repo"
	"gopkg.in/yaml.v3"
)

// DefaultSubservice is the service identity used to read questionnaires
const DefaultSubservice = "computedAnswers"

// Config configures the computed answer engine
type Config struct {
	// Subservice is the service identity requested from the resolver, computedAnswers by default
	Subservice string `yaml:"subservice"`
	// DetectCycles logs dependency cycles between computed questions, the answers are still computed
	DetectCycles bool `yaml:"detect_cycles"`
}

type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// Evaluator calculates values of computed question expressions
type Evaluator interface {
	// Dependencies lists the question names expression refers to
	Dependencies(expression string) []string
	// Evaluate calculates expression using values, nil when no value can be calculated
	Evaluate(id string, expression string, values map[string]any, t repo.Type) any
}

// Option configures an Engine
type Option func(*Engine)

// WithEvaluator replaces the default expression evaluator
func WithEvaluator(ev Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = ev
	}
}

// WithClock sets the source of creation times for new answers
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.formOpts = append(e.formOpts, forms.WithClock(now))
	}
}

// WithNameGenerator sets the generator of names for new answers and answer sections
func WithNameGenerator(f func() string) Option {
	return func(e *Engine) {
		e.formOpts = append(e.formOpts, forms.WithNameGenerator(f))
	}
}

// Engine computes answers, it implements repo.EditorProvider
type Engine struct {
	cfg       *Config
	resolver  repo.Resolver
	evaluator Evaluator
	formOpts  []forms.Option
	log       *optionalLogger
}

// New creates a new engine reading questionnaires using service sessions from resolver
func New(cfg Config, resolver repo.Resolver, opts ...Option) (*Engine, error) {
	err := validateConfig(&cfg)
	if err != nil {
		return nil, err
	}

	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}

	e := &Engine{
		cfg:      &cfg,
		resolver: resolver,
		log:      &optionalLogger{},
	}

	for _, o := range opts {
		o(e)
	}

	if e.evaluator == nil {
		e.evaluator, err = expression.New(e.log)
		if err != nil {
			return nil, err
		}
	}

	return e, nil
}

// ParseConfig parses a YAML engine configuration, unset values take their defaults
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}

	err := yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	err = validateConfig(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Subservice == "" {
		cfg.Subservice = DefaultSubservice
	}

	if !forms.IsValidName(cfg.Subservice) {
		return fmt.Errorf("invalid subservice %q", cfg.Subservice)
	}

	return nil
}

// Logger configures a logger to use, no logging is done without this
func (e *Engine) Logger(log Logger) {
	e.log.log = log
}

// RootEditor implements repo.EditorProvider
func (e *Engine) RootEditor(ctx context.Context, _ *repo.Node, _ *repo.Node, builder *repo.Builder, info repo.CommitInfo) (repo.Editor, error) {
	return newFormEditor(ctx, e, builder, info), nil
}

// Dependencies maps the computed questions in questions to the computed questions among
// them that they depend on
func (e *Engine) Dependencies(questions []*forms.QuestionTree) *DependencyMap {
	names := map[string]bool{}
	for _, q := range questions {
		names[q.Name()] = true
	}

	m := NewDependencyMap()
	for _, q := range questions {
		var deps []string
		for _, d := range e.evaluator.Dependencies(forms.Expression(q.Node())) {
			if names[d] {
				deps = append(deps, d)
			}
		}

		m.Add(q.Name(), deps...)
	}

	return m
}

// Order lists the names in m in the order they should be evaluated, cycles are logged when
// cycle detection is enabled
func (e *Engine) Order(m *DependencyMap) []string {
	if !e.cfg.DetectCycles {
		return Order(m)
	}

	order, err := OrderStrict(m)
	if err != nil {
		e.log.Warnf("Computed questions cannot be ordered reliably: %v", err)
		return Order(m)
	}

	return order
}

// computeForm calculates the computed answers of the form held in builder, questions in
// modified are left as the client set them
func (e *Engine) computeForm(ctx context.Context, builder *repo.Builder, modified map[string]bool, info repo.CommitInfo) {
	sess, err := e.resolver.ServiceSession(ctx, e.cfg.Subservice)
	if err != nil {
		if errors.Is(err, repo.ErrLogin) {
			e.log.Debugf("Not computing answers for %s: %v", builder.Path(), err)
		} else {
			e.log.Warnf("Could not obtain a session to compute answers for %s: %v", builder.Path(), err)
		}
		return
	}
	defer sess.Close()

	form := builder.State()

	qref := forms.QuestionnaireReference(form)
	if qref == "" {
		e.log.Warnf("Form %s does not reference a questionnaire", form.Path())
		return
	}

	questionnaire, err := sess.NodeByIdentifier(qref)
	if err != nil {
		e.log.Warnf("Could not load questionnaire %s of form %s: %v", qref, form.Path(), err)
		return
	}

	tree := forms.BuildUnansweredTree(questionnaire, modified, e.log)
	if tree == nil {
		e.log.Debugf("No computed questions to answer in %s", form.Path())
		return
	}

	answers := forms.CollectAnswers(form, sess)

	opts := append([]forms.Option{forms.WithCreator(info.UserID)}, e.formOpts...)
	bindings := forms.NewSynthesizer(e.log, opts...).Materialize(tree, builder)

	byName := map[string][]forms.Binding{}
	var questions []*forms.QuestionTree
	for _, b := range bindings {
		name := b.Question.Name()
		if _, ok := byName[name]; !ok {
			questions = append(questions, b.Question)
		}
		byName[name] = append(byName[name], b)

		// previous values of the answers being calculated must not feed into the new ones
		delete(answers, name)
	}

	computed := 0
	for _, name := range e.Order(e.Dependencies(questions)) {
		for _, b := range byName[name] {
			value := e.computeAnswer(b, answers)
			if value == nil {
				continue
			}
			computed++

			if _, ok := answers[name]; !ok {
				answers[name] = value
			}
		}
	}

	e.log.Infof("Computed %d of %d answers in %s", computed, len(bindings), form.Path())
}

// computeAnswer evaluates the question of b and stores the result in its answer
func (e *Engine) computeAnswer(b forms.Binding, answers map[string]any) any {
	question := b.Question.Node()
	types := forms.AnswerTypes(question)

	value := e.evaluator.Evaluate(question.Identifier(), forms.Expression(question), answers, types.ValueType)
	if s, ok := value.(string); ok && s == "null" {
		value = nil
	}

	if value == nil {
		b.Answer.RemoveProperty(forms.ValueProperty)
		return nil
	}

	prop, err := marshal.ToProperty(forms.ValueProperty, value, types.ValueType)
	if err != nil {
		e.log.Errorf("Could not store the value of question %s in %s: %v", b.Question.Name(), b.Answer.Path(), err)
		b.Answer.RemoveProperty(forms.ValueProperty)
		return nil
	}

	b.Answer.SetProperty(prop)

	return value
}

type optionalLogger struct {
	log Logger
}

func (l *optionalLogger) Debugf(format string, v ...any) {
	if l.log != nil {
		l.log.Debugf(format, v...)
	}
}

func (l *optionalLogger) Infof(format string, v ...any) {
	if l.log != nil {
		l.log.Infof(format, v...)
	}
}

func (l *optionalLogger) Warnf(format string, v ...any) {
	if l.log != nil {
		l.log.Warnf(format, v...)
	}
}

func (l *optionalLogger) Errorf(format string, v ...any) {
	if l.log != nil {
		l.log.Errorf(format, v...)
	}
}
