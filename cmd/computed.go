// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/choria-io/computed"
	"github.com/choria-io/computed/forms"
	"github.com/choria-io/computed/repo"
	"github.com/choria-io/fisk"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	questionnaireFile string
	configFile        string
	answersFile       string
	saveFile          string
	subject           string
	user              string
	detectCycles      bool
	jsonOutput        bool
	debug             bool
	version           string
)

func main() {
	app := fisk.New("computed", "Computes answers of forms")
	app.Version(version)

	app.Help = `
Evaluates the computed questions of questionnaires.

Questionnaires are YAML files listing sections and questions, computed questions
calculate their value from an expression referring to the answers of other
questions using @{name} or @{name:-default} placeholders.
`
	app.Flag("debug", "Enables debug logging").BoolVar(&debug)
	app.Flag("config", "Engine configuration file").PlaceHolder("FILE").ExistingFileVar(&configFile)
	app.Flag("detect-cycles", "Reports dependency cycles between computed questions").BoolVar(&detectCycles)

	eval := app.Command("eval", "Computes answers for a file of answers").Action(evalAction)
	eval.HelpLong(`
Answers are YAML or JSON files holding a map of question names to values, sections
are maps and recurring sections are lists of maps.
`)
	eval.Arg("questionnaire", "The questionnaire definition").Required().ExistingFileVar(&questionnaireFile)
	eval.Arg("answers", "The answers to compute from").Required().ExistingFileVar(&answersFile)
	eval.Flag("subject", "The subject the form is for").Default("subject").StringVar(&subject)
	eval.Flag("user", "The user submitting the form").Default(os.Getenv("USER")).StringVar(&user)
	eval.Flag("json", "Renders the form as JSON").BoolVar(&jsonOutput)

	fill := app.Command("fill", "Interactively answers a questionnaire and computes the results").Action(fillAction)
	fill.Arg("questionnaire", "The questionnaire definition").Required().ExistingFileVar(&questionnaireFile)
	fill.Flag("subject", "The subject the form is for").Default("subject").StringVar(&subject)
	fill.Flag("user", "The user submitting the form").Default(os.Getenv("USER")).StringVar(&user)
	fill.Flag("save", "Saves the given answers to a file").PlaceHolder("FILE").StringVar(&saveFile)
	fill.Flag("json", "Renders the form as JSON").BoolVar(&jsonOutput)

	order := app.Command("order", "Shows the order computed questions are evaluated in").Action(orderAction)
	order.Arg("questionnaire", "The questionnaire definition").Required().ExistingFileVar(&questionnaireFile)

	app.MustParseWithUsage(os.Args[1:])
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{})
	log.SetLevel(logrus.WarnLevel)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}

// loadConfig reads the engine configuration from --config, --detect-cycles enables cycle detection regardless
func loadConfig() (*computed.Config, error) {
	cfg := &computed.Config{Subservice: computed.DefaultSubservice}

	if configFile != "" {
		cb, err := os.ReadFile(configFile)
		if err != nil {
			return nil, err
		}

		cfg, err = computed.ParseConfig(cb)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", configFile, err)
		}
	}

	if detectCycles {
		cfg.DetectCycles = true
	}

	return cfg, nil
}

// setup creates a store holding the questionnaire with an engine computing answers
func setup(q *forms.Questionnaire) (*repo.Store, *repo.Node, *computed.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	store := repo.NewStore(repo.WithServiceUser(cfg.Subservice, "computed-service"))

	err = store.Commit(context.Background(), repo.CommitInfo{UserID: "admin"}, func(root *repo.Builder) error {
		_, err := forms.Install(root, q)
		return err
	})
	if err != nil {
		return nil, nil, nil, err
	}

	engine, err := computed.New(*cfg, store)
	if err != nil {
		return nil, nil, nil, err
	}
	engine.Logger(newLogger())
	store.Register(engine)

	qn := store.Root().Child(forms.QuestionnairesPath).Child(q.Name)

	return store, qn, engine, nil
}

// compute submits answers as a new form and returns the stored form
func compute(q *forms.Questionnaire, answers map[string]any) (map[string]any, error) {
	store, qn, _, err := setup(q)
	if err != nil {
		return nil, err
	}

	var path string
	err = store.Commit(context.Background(), repo.CommitInfo{UserID: user}, func(root *repo.Builder) error {
		form, err := forms.NewForm(root, qn, subject, forms.WithCreator(user))
		if err != nil {
			return err
		}
		path = form.Path()

		return forms.WriteAnswers(form, qn, answers, forms.WithCreator(user))
	})
	if err != nil {
		return nil, err
	}

	sess := store.Login(user)
	defer sess.Close()

	form, err := sess.Node(path)
	if err != nil {
		return nil, err
	}

	return forms.Export(form, sess)
}

func evalAction(_ *fisk.ParseContext) error {
	q, err := forms.LoadQuestionnaire(questionnaireFile)
	if err != nil {
		return err
	}

	af, err := os.ReadFile(answersFile)
	if err != nil {
		return err
	}

	answers := map[string]any{}
	err = yaml.Unmarshal(af, &answers)
	if err != nil {
		return fmt.Errorf("invalid answers: %w", err)
	}

	res, err := compute(q, answers)
	if err != nil {
		return err
	}

	return render(q, res)
}

func fillAction(_ *fisk.ParseContext) error {
	q, err := forms.LoadQuestionnaire(questionnaireFile)
	if err != nil {
		return err
	}

	answers, err := forms.Fill(q, map[string]any{"Subject": subject, "User": user})
	if err != nil {
		return err
	}

	if saveFile != "" {
		out, err := yaml.Marshal(answers)
		if err != nil {
			return err
		}

		err = os.WriteFile(saveFile, out, 0600)
		if err != nil {
			return err
		}
	}

	res, err := compute(q, answers)
	if err != nil {
		return err
	}

	fmt.Println()

	return render(q, res)
}

func orderAction(_ *fisk.ParseContext) error {
	q, err := forms.LoadQuestionnaire(questionnaireFile)
	if err != nil {
		return err
	}

	_, qn, engine, err := setup(q)
	if err != nil {
		return err
	}

	tree := forms.BuildUnansweredTree(qn, nil, newLogger())
	if tree == nil {
		fmt.Printf("%s has no computed questions\n", q.Name)
		return nil
	}

	deps := engine.Dependencies(tree.Questions())
	order := computed.Order(deps)

	if cycle := computed.FindCycle(deps); cycle != nil {
		fmt.Println(text.Colors{text.FgRed}.Sprintf("Dependency cycle: %s", strings.Join(cycle, " -> ")))
		fmt.Println()
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Question", "Depends On"})
	for i, name := range order {
		t.AppendRow(table.Row{i + 1, name, strings.Join(deps.Dependencies(name), ", ")})
	}
	fmt.Println(t.Render())

	return nil
}

// render shows the form as JSON or as a table marking computed answers
func render(q *forms.Questionnaire, form map[string]any) error {
	if jsonOutput {
		j, err := json.MarshalIndent(form, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(j))

		return nil
	}

	computedNames := map[string]bool{}
	markComputed(q.Items, computedNames)

	rows := map[string]any{}
	flatten("", form, rows)

	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(q.Title)
	t.AppendHeader(table.Row{"Question", "Value"})
	for _, k := range keys {
		name := k
		if i := strings.LastIndex(k, "."); i > -1 {
			name = k[i+1:]
		}

		label := k
		if computedNames[name] {
			label = text.Colors{text.FgGreen}.Sprint(k)
		}

		t.AppendRow(table.Row{label, fmt.Sprintf("%v", rows[k])})
	}
	fmt.Println(t.Render())

	return nil
}

func markComputed(items []forms.Item, res map[string]bool) {
	for _, item := range items {
		if item.IsComputed() {
			res[item.Name] = true
		}
		markComputed(item.Items, res)
	}
}

// flatten turns nested sections into dotted keys, recurring instances are indexed
func flatten(prefix string, v any, res map[string]any) {
	switch tv := v.(type) {
	case map[string]any:
		for k, e := range tv {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, e, res)
		}

	case []any:
		if len(tv) > 0 {
			if _, ok := tv[0].(map[string]any); ok {
				for i, e := range tv {
					flatten(fmt.Sprintf("%s[%d]", prefix, i), e, res)
				}
				return
			}
		}
		res[prefix] = tv

	default:
		res[prefix] = tv
	}
}
