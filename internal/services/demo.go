package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"alfredoptarigan/writing-feedback/internal/models"
)

// DefaultDemoLanguage is used when the demo provider is built without a
// request in hand.
const DefaultDemoLanguage = models.LangDE

//go:embed demo_feedback.yaml
var demoFeedbackYAML []byte

var loadDemoFeedback = sync.OnceValue(func() map[models.Language]models.FeedbackResult {
	table := make(map[models.Language]models.FeedbackResult)
	if err := yaml.Unmarshal(demoFeedbackYAML, &table); err != nil {
		panic(fmt.Sprintf("demo_feedback.yaml: %v", err))
	}
	return table
})

// DemoFeedback returns a copy of the canned feedback for lang. Anything
// other than English gets the German entry.
func DemoFeedback(lang models.Language) models.FeedbackResult {
	entry, ok := loadDemoFeedback()[lang]
	if !ok {
		entry = loadDemoFeedback()[models.LangDE]
	}

	entry.Strengths = slices.Clone(entry.Strengths)
	entry.Improvements = slices.Clone(entry.Improvements)
	entry.LanguageIssues.Grammar = slices.Clone(entry.LanguageIssues.Grammar)
	entry.LanguageIssues.Spelling = slices.Clone(entry.LanguageIssues.Spelling)
	entry.NextSteps = slices.Clone(entry.NextSteps)
	return entry
}

type demoProvider struct {
	lang models.Language
}

func NewDemoProvider(lang models.Language) CompletionProvider {
	return &demoProvider{lang: lang}
}

func (d *demoProvider) Name() string {
	return "demo"
}

// Complete ignores the prompt and never touches the network.
func (d *demoProvider) Complete(_ context.Context, _ string) (string, error) {
	b, err := json.Marshal(DemoFeedback(d.lang))
	if err != nil {
		return "", providerError(d.Name(), err)
	}
	return string(b), nil
}
