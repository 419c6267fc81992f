package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// RefusalMessage is the fixed answer served when the curriculum does not
// cover the question. It is a designed outcome, not an error, and its wording
// is a wire contract with the guardrail check.
const RefusalMessage = "This topic is not covered in your current learning materials. Please ask your teacher to upload relevant materials."

// AgeBand classifies the target learner's grade level. Resolved once from the
// class-level prefix; explanation style follows the band.
type AgeBand int

const (
	BandUnknown AgeBand = iota
	BandEarlyPrimary
	BandUpperPrimary
	BandJuniorSecondary
	BandSeniorSecondary
)

func (b AgeBand) String() string {
	switch b {
	case BandEarlyPrimary:
		return "early-primary"
	case BandUpperPrimary:
		return "upper-primary"
	case BandJuniorSecondary:
		return "junior-secondary"
	case BandSeniorSecondary:
		return "senior-secondary"
	default:
		return "primary"
	}
}

// BandProfile carries the teaching parameters interpolated into the system
// prompt.
type BandProfile struct {
	AgeRange         string
	Description      string
	LanguageGuidance string
	ExampleGuidance  string
}

// ClassifyAgeBand maps a class level such as "Primary 3", "JSS 1" or "SS 2"
// to its age band. Unrecognized prefixes resolve to BandUnknown, which
// degrades to a generic primary profile rather than failing the request.
func ClassifyAgeBand(classLevel string) AgeBand {
	switch {
	case strings.HasPrefix(classLevel, "Primary"):
		fields := strings.Fields(classLevel)
		if len(fields) < 2 {
			return BandUnknown
		}
		grade, err := strconv.Atoi(fields[1])
		if err != nil {
			return BandUnknown
		}
		if grade <= 3 {
			return BandEarlyPrimary
		}
		return BandUpperPrimary
	case strings.HasPrefix(classLevel, "JSS"):
		return BandJuniorSecondary
	case strings.HasPrefix(classLevel, "SS"):
		return BandSeniorSecondary
	default:
		return BandUnknown
	}
}

// Profile returns the teaching parameters for the band.
func (b AgeBand) Profile() BandProfile {
	switch b {
	case BandEarlyPrimary:
		return BandProfile{
			AgeRange:         "6-9 years",
			Description:      "young child who needs very simple language, short sentences, and lots of examples",
			LanguageGuidance: "very simple words and short sentences",
			ExampleGuidance:  "from everyday life that a young child can relate to",
		}
	case BandUpperPrimary:
		return BandProfile{
			AgeRange:         "9-12 years",
			Description:      "pre-teen who can understand more complex ideas but still needs clear explanations",
			LanguageGuidance: "clear language with examples",
			ExampleGuidance:  "from daily experiences and school activities",
		}
	case BandJuniorSecondary:
		return BandProfile{
			AgeRange:         "12-15 years",
			Description:      "teenager who can handle abstract concepts and more formal language",
			LanguageGuidance: "proper terminology with clear definitions",
			ExampleGuidance:  "relevant to Nigerian students and real-world applications",
		}
	case BandSeniorSecondary:
		return BandProfile{
			AgeRange:         "15-18 years",
			Description:      "young adult preparing for exams who needs detailed, comprehensive explanations",
			LanguageGuidance: "academic language with detailed explanations",
			ExampleGuidance:  "with real-world applications and exam-focused context",
		}
	default:
		return BandProfile{
			AgeRange:         "6-12 years",
			Description:      "student needing clear, simple explanations",
			LanguageGuidance: "simple, clear language",
			ExampleGuidance:  "from everyday life",
		}
	}
}

// BuildContext concatenates match titles and texts into the context block
// handed to the model, preserving relevance order. Repeated chunks from one
// document are kept: the model can benefit from repetition even though the
// citation list is deduplicated separately.
func BuildContext(matches []Match) string {
	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[")
		b.WriteString(m.Metadata.Title)
		b.WriteString("]\n")
		b.WriteString(m.Metadata.Text)
	}
	return b.String()
}

// Generator assembles the curriculum-locked prompt and calls the language
// model.
type Generator struct {
	model LanguageModel
}

func NewGenerator(model LanguageModel) *Generator {
	return &Generator{model: model}
}

// Generate produces an age-banded, curriculum-grounded answer. With no
// matches it returns RefusalMessage without touching the model: that
// guarantees the refusal wording and is a correctness requirement, not a
// cost optimization. A provider error surfaces as GenerationFailed.
func (g *Generator) Generate(ctx context.Context, query string, matches []Match, subject, classLevel string) (string, error) {
	tracer := otel.Tracer("rag-generator")
	ctx, span := tracer.Start(ctx, "rag.generate")
	defer span.End()

	if len(matches) == 0 {
		span.SetAttributes(attribute.Bool("rag.refused", true))
		return RefusalMessage, nil
	}

	band := ClassifyAgeBand(classLevel)
	span.SetAttributes(
		attribute.String("rag.age_band", band.String()),
		attribute.Int("rag.context_chunks", len(matches)),
	)

	system := buildSystemPrompt(query, BuildContext(matches), subject, classLevel, band)

	answer, err := g.model.Complete(ctx, []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: query},
	})
	if err != nil {
		return "", &GenerationFailed{Err: err}
	}
	return answer, nil
}

func buildSystemPrompt(query, context, subject, classLevel string, band AgeBand) string {
	p := band.Profile()
	return fmt.Sprintf(`You are a warm, encouraging AI tutor helping a %s learn %s.

STUDENT CONTEXT:
- Class Level: %s
- Age Range: %s
- Subject: %s

YOUR TEACHING MATERIALS:
%s

YOUR TEACHING APPROACH:
1. EXPLAIN concepts from the materials - don't just quote them directly
2. Use %s to make ideas clear
3. Break complex ideas into easy-to-follow steps
4. Use examples and analogies %s
5. Be encouraging and patient - celebrate curiosity!
6. Make learning fun and relatable for the student's age level
7. Only use the provided materials. If they don't cover the topic, respond exactly: "%s"

Remember: Your goal is to help the student UNDERSTAND the concepts deeply, not just memorize answers. Teach in a way that makes them excited to learn more!`,
		p.Description, subject, classLevel, p.AgeRange, subject, context,
		p.LanguageGuidance, p.ExampleGuidance, RefusalMessage)
}
