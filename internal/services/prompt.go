package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/writing-feedback/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// FeedbackSchemaPrompt is the schema block embedded in every prompt. Its keys
// must match the json tags of models.FeedbackResult.
const FeedbackSchemaPrompt = `{
  "score": number,
  "score_explanation": string,
  "strengths": string[],
  "improvements": string[],
  "language_issues": {
    "grammar": string[],
    "spelling": string[]
  },
  "next_steps": string[],
  "mini_exercise": string
}`

type promptInstructions struct {
	language       string
	score          string
	languageIssues string
}

var instructionsByLang = map[models.Language]promptInstructions{
	models.LangEN: {
		language:       "Respond in ENGLISH only.",
		score:          "Add an integer score from 1 to 10 (NOT a grade). It reflects clarity, structure, and language quality. Explain the score briefly in 1–2 sentences.",
		languageIssues: "Identify typical grammar issues and spelling issues. Do NOT correct the full text. Provide explanations/patterns and 3–6 bullet points each.",
	},
	models.LangDE: {
		language:       "Antworte NUR auf DEUTSCH.",
		score:          "Füge einen ganzzahligen Score von 1 bis 10 hinzu (KEINE Note). Er beschreibt Verständlichkeit, Struktur und sprachliche Qualität. Erkläre den Score kurz in 1–2 Sätzen.",
		languageIssues: "Identifiziere typische Grammatik- und Rechtschreibprobleme. Korrigiere NICHT den gesamten Text. Nenne Muster/Erklärungen und jeweils 3–6 Stichpunkte.",
	},
}

// BuildFeedbackPrompt creates the feedback instruction for one student text.
// It never fails; minimum length is checked by the caller.
func (pb *PromptBuilder) BuildFeedbackPrompt(text, textType, level string, lang models.Language) string {
	in, ok := instructionsByLang[lang]
	if !ok {
		in = instructionsByLang[models.LangDE]
	}

	prompt := fmt.Sprintf(`
You are a feedback coach for student writing.
%s

You must NOT provide a full rewritten solution or a model answer.
You must NOT assign grades (no numeric/letter grade).

Target group/level: %s
Text type: %s

Return ONLY valid JSON with this schema:
%s

Rules:
- %s
- "score" must be an integer 1..10
- Each list must have 3–6 bullet points
- Be concrete and actionable (structure, coherence, vocabulary, grammar, style)
- %s
- Do NOT rewrite the whole text
- If text is too short, explain what is missing and how to expand

Student text:
"""%s"""
`, in.language, level, textType, FeedbackSchemaPrompt, in.score, in.languageIssues, text)

	return strings.TrimSpace(prompt)
}
