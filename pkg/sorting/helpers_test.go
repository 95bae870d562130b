package sorting

import (
	"fmt"
	"testing"

	"github.com/flowbaker/sortinghat/pkg/domain"
	"github.com/flowbaker/sortinghat/pkg/knowledge"
	"github.com/stretchr/testify/require"
)

type fixedRandom struct {
	value int
}

func (r fixedRandom) IntN(n int) int {
	return r.value % n
}

func newTestKnowledge(t *testing.T, exampleCount int) *knowledge.Base {
	t.Helper()

	traits := map[string]knowledge.CategoryTraits{
		"gryffindor": {Name: "Gryffindor", Traits: []string{"bravery"}},
		"hufflepuff": {Name: "Hufflepuff", Traits: []string{"loyalty"}},
		"ravenclaw":  {Name: "Ravenclaw", Traits: []string{"wit"}},
		"slytherin":  {Name: "Slytherin", Traits: []string{"ambition"}},
	}

	examples := make([]domain.WorkedExample, exampleCount)
	for i := range examples {
		examples[i] = domain.WorkedExample{
			Input:     fmt.Sprintf("example subject %d", i),
			Category:  domain.AllCategories[i%len(domain.AllCategories)],
			Reasoning: fmt.Sprintf("reasoning %d", i),
		}
	}

	voice := knowledge.Voice{
		Guidelines:     "Speak as an ancient, wise hat.",
		Personality:    []string{"Wise", "Theatrical"},
		SpeechPatterns: []string{"Hmm, difficult. Very difficult."},
	}

	kb, err := knowledge.New(traits, examples, voice)
	require.NoError(t, err)

	return kb
}
