package services

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"alfredoptarigan/writing-feedback/internal/models"
)

// maxDegradedRunes bounds how much of an unparseable completion is echoed
// back in mini_exercise.
const maxDegradedRunes = 900

// NormalizeCompletion turns whatever the provider returned into a complete
// FeedbackResult. It never fails: unparseable output becomes a degraded
// result that carries a prefix of the raw text.
func NormalizeCompletion(raw string, lang models.Language) models.FeedbackResult {
	result, _ := normalizeCompletion(raw, lang)
	return result
}

// normalizeCompletion also reports whether the degraded fallback was used.
func normalizeCompletion(raw string, lang models.Language) (models.FeedbackResult, bool) {
	obj, ok := parseCompletionObject(raw)
	if !ok {
		return degradedFeedback(raw, lang), true
	}

	result := models.EmptyFeedback()
	result.Score = clampScore(obj["score"])
	result.ScoreExplanation = textField(obj["score_explanation"])
	result.Strengths = listField(obj["strengths"])
	result.Improvements = listField(obj["improvements"])
	result.NextSteps = listField(obj["next_steps"])
	result.MiniExercise = textField(obj["mini_exercise"])

	if issues, ok := obj["language_issues"].(map[string]any); ok {
		result.LanguageIssues.Grammar = listField(issues["grammar"])
		result.LanguageIssues.Spelling = listField(issues["spelling"])
	}

	return result, false
}

// parseCompletionObject tries the whole reply first, then the span between
// the first '{' and the last '}' to get past markdown fences and prose.
func parseCompletionObject(raw string) (map[string]any, bool) {
	if obj, ok := decodeObject(raw); ok {
		return obj, true
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, false
	}
	return decodeObject(raw[start : end+1])
}

// decodeObject keeps numbers as json.Number so out-of-range values such as
// 1e400 do not fail the whole reply.
func decodeObject(s string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func degradedImprovements(lang models.Language) []string {
	if lang == models.LangEN {
		return []string{
			"The model did not return valid JSON.",
			"Tip: try another model or tighten the prompt.",
		}
	}
	return []string{
		"Die KI-Antwort war nicht im erwarteten JSON-Format.",
		"Tipp: Modell wechseln oder Prompt weiter verschärfen.",
	}
}

func degradedFeedback(raw string, lang models.Language) models.FeedbackResult {
	result := models.EmptyFeedback()
	result.Improvements = degradedImprovements(lang)

	runes := []rune(raw)
	if len(runes) > maxDegradedRunes {
		runes = runes[:maxDegradedRunes]
	}
	result.MiniExercise = string(runes)
	return result
}

// clampScore rounds numeric scores into [1,10]. null stays null and any
// other type is passed through untouched.
func clampScore(v any) any {
	num, ok := v.(json.Number)
	if !ok {
		return v
	}
	// ParseFloat reports ±Inf with ErrRange for overflow; the clamp handles it.
	n, err := strconv.ParseFloat(string(num), 64)
	if err != nil && !math.IsInf(n, 0) {
		return v
	}
	return int(math.Max(1, math.Min(10, math.Round(n))))
}

func textField(v any) string {
	if v == nil {
		return ""
	}
	return renderText(v)
}

func listField(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, renderText(item))
	}
	return out
}

// renderText keeps strings as-is and writes any other JSON value back as
// its JSON text, so 3 becomes "3" and {"a":1} becomes `{"a":1}`.
func renderText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
