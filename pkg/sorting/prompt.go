package sorting

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flowbaker/sortinghat/pkg/domain"
	"github.com/flowbaker/sortinghat/pkg/knowledge"
)

// DefaultExampleCount is how many worked examples a prompt carries unless configured otherwise.
const DefaultExampleCount = 3

var inputDescriptions = map[domain.InputKind]string{
	domain.InputKindImage: "a photograph or image",
	domain.InputKindText:  "a description",
	domain.InputKindURL:   "a web presence",
}

const analysisProcess = `1. **Initial Observation**: Describe what you see/sense (1-2 thoughts)
2. **Trait Analysis**: Identify key characteristics (2-3 thoughts)
3. **House Consideration**: Think through which houses might fit, showing internal debate (3-5 thoughts)
4. **Final Decision**: Build to the announcement with confidence`

const responseFormat = `Return a single JSON object and nothing else:
{
  "narrativeSteps": [
    "Each thought should be a short, complete first-person sentence",
    "Show your reasoning process naturally",
    "Include moments of doubt or consideration",
    "Build dramatic tension toward the decision",
    "Usually 6-10 thoughts total"
  ],%s
  "category": "gryffindor|hufflepuff|ravenclaw|slytherin",
  "reasoning": "One paragraph in the Sorting Hat's voice explaining why this house fits. Be specific about the traits that decided it.",
  "confidence": 0.7,
  "needsClarification": false
}`

const imageDescriptionField = `
  "imageDescription": "One plain sentence describing what you observe in the image",`

const guidelines = `- Be authentic to the Sorting Hat's ancient, wise character
- Show genuine deliberation - consider multiple houses when appropriate
- Make the reasoning specific to what you observe
- Use the house's actual values and characteristics from the data above
- Keep deliberation thoughts concise (1-2 sentences each)
- Build dramatic tension - start uncertain, become confident
- For objects, think about their PURPOSE, APPEARANCE, and SYMBOLISM
- For images, describe what you SEE and what it represents`

// PromptBuilder composes classification prompts from the knowledge base.
type PromptBuilder struct {
	knowledge *knowledge.Base
	random    domain.RandomSource
	traits    string
}

func NewPromptBuilder(kb *knowledge.Base, random domain.RandomSource) (*PromptBuilder, error) {
	if random == nil {
		random = domain.NewRandomSource()
	}

	traits, err := renderTraits(kb.Traits())
	if err != nil {
		return nil, err
	}

	return &PromptBuilder{
		knowledge: kb,
		random:    random,
		traits:    traits,
	}, nil
}

// Build returns the full classification prompt for input with up to exampleCount sampled examples.
func (b *PromptBuilder) Build(input domain.ClassificationInput, exampleCount int) string {
	examples := b.SampleExamples(exampleCount)
	voice := b.knowledge.Voice()

	var sb strings.Builder

	sb.WriteString("You are the legendary Sorting Hat from Hogwarts School of Witchcraft and Wizardry.\n\n")

	sb.WriteString("# Your Role\n")
	fmt.Fprintf(&sb, "You have been placed upon something new - %s - and you must determine which of the four Hogwarts houses it belongs to.\n\n", describeInput(input.Kind))

	sb.WriteString("# House Characteristics\n")
	sb.WriteString(b.traits)
	sb.WriteString("\n\n")

	sb.WriteString("# Your Personality\n")
	sb.WriteString(voice.Guidelines)
	sb.WriteString("\n\nYou are:\n")
	writeBullets(&sb, voice.Personality)

	if len(voice.SpeechPatterns) > 0 {
		sb.WriteString("\n# Speech Patterns\nUse phrases like:\n")
		writeBullets(&sb, voice.SpeechPatterns)
	}

	sb.WriteString("\n# Analysis Process\n\n")
	sb.WriteString(analysisProcess)
	sb.WriteString("\n\n")

	sb.WriteString("# Response Format\n\n")
	extra := ""
	if input.Kind == domain.InputKindImage {
		extra = imageDescriptionField
	}
	fmt.Fprintf(&sb, responseFormat, extra)
	sb.WriteString("\n\n")

	sb.WriteString("# Examples of Good Sortings\n")
	if len(examples) == 0 {
		sb.WriteString("(no examples available - rely on the house characteristics)\n")
	}
	for i, ex := range examples {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Input: %s\nHouse: %s\nReasoning: %s\n", ex.Input, ex.Category, ex.Reasoning)
	}

	sb.WriteString("\n# Important Guidelines\n")
	sb.WriteString(guidelines)
	sb.WriteString("\n\n")

	sb.WriteString("# The Subject to Sort\n")
	sb.WriteString(describeSubject(input))
	sb.WriteString("\n\nRemember: Make it feel magical! Take your time deliberating. Show your personality!")

	return sb.String()
}

// SampleExamples draws min(count, pool size) distinct examples uniformly without replacement.
func (b *PromptBuilder) SampleExamples(count int) []domain.WorkedExample {
	pool := b.knowledge.Examples()
	if count <= 0 || len(pool) == 0 {
		return nil
	}

	// Fisher-Yates over the whole pool, then truncate
	for i := len(pool) - 1; i > 0; i-- {
		j := b.random.IntN(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}

	if count > len(pool) {
		count = len(pool)
	}

	return pool[:count]
}

func describeInput(kind domain.InputKind) string {
	if desc, ok := inputDescriptions[kind]; ok {
		return desc
	}
	return "something interesting"
}

func describeSubject(input domain.ClassificationInput) string {
	if input.Kind != domain.InputKindImage {
		return input.Text
	}

	instruction := "Analyze the image provided. First describe what you observe, and put that description in \"imageDescription\", then sort it."
	if input.Caption != "" {
		return fmt.Sprintf("%s\nThe person who shared it says: %s", instruction, input.Caption)
	}
	return instruction
}

func renderTraits(traits map[domain.Category]knowledge.CategoryTraits) (string, error) {
	data, err := json.MarshalIndent(traits, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render category traits: %w", err)
	}

	return string(data), nil
}

func writeBullets(sb *strings.Builder, items []string) {
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item)
		sb.WriteString("\n")
	}
}
