package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/flowbaker/sortinghat/pkg/ai-sdk/provider"
	"github.com/flowbaker/sortinghat/pkg/ai-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func TestGenerate(t *testing.T) {
	models := &fakeModels{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
			Content: genai.NewContentFromParts([]*genai.Part{
				{Text: "thinking...", Thought: true},
				genai.NewPartFromText(`{"category":"hufflepuff"}`),
			}, genai.RoleModel),
		}},
	}}

	p := NewWithGenerator(models, "gemini-2.5-flash")
	temperature := float32(0.8)

	resp, err := p.Generate(context.Background(), provider.GenerateRequest{
		Temperature: &temperature,
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: "you are the hat"},
			{Role: types.RoleSystem, Content: "be wise"},
			types.NewUserMessage("sort this", types.Attachment{MIMEType: "image/jpeg", Data: []byte{1}}),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"category":"hufflepuff"}`, resp.Content)
	assert.Equal(t, types.FinishReasonStop, resp.FinishReason)
	assert.Equal(t, "gemini-2.5-flash", models.model)

	require.Len(t, models.contents, 1)
	require.Len(t, models.contents[0].Parts, 2)
	assert.Equal(t, "image/jpeg", models.contents[0].Parts[0].InlineData.MIMEType)
	assert.Equal(t, "sort this", models.contents[0].Parts[1].Text)

	require.NotNil(t, models.config.SystemInstruction)
	assert.Equal(t, "you are the hat\n\nbe wise", models.config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, float32(0.8), *models.config.Temperature)
}

func TestGenerateTemperature(t *testing.T) {
	zero := float32(0)

	tests := []struct {
		name        string
		temperature *float32
	}{
		{name: "unset", temperature: nil},
		{name: "explicit zero", temperature: &zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models := &fakeModels{resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{Content: genai.NewContentFromText("hmm", genai.RoleModel)}},
			}}

			_, err := NewWithGenerator(models, "gemini-2.5-flash").Generate(context.Background(), provider.GenerateRequest{
				Messages:    []types.Message{types.NewUserMessage("a badger")},
				Temperature: tt.temperature,
			})
			require.NoError(t, err)

			if tt.temperature == nil {
				assert.Nil(t, models.config.Temperature)
				return
			}
			require.NotNil(t, models.config.Temperature)
			assert.Equal(t, *tt.temperature, *models.config.Temperature)
			assert.Equal(t, int32(defaultMaxOutputTokens), models.config.MaxOutputTokens)
		})
	}
}

func TestGenerateFailures(t *testing.T) {
	p := NewWithGenerator(&fakeModels{err: errors.New("quota")}, "gemini-2.5-flash")
	_, err := p.Generate(context.Background(), provider.GenerateRequest{Messages: []types.Message{types.NewUserMessage("x")}})
	assert.ErrorContains(t, err, "gemini api error")

	p = NewWithGenerator(&fakeModels{resp: &genai.GenerateContentResponse{}}, "gemini-2.5-flash")
	_, err = p.Generate(context.Background(), provider.GenerateRequest{Messages: []types.Message{types.NewUserMessage("x")}})
	assert.ErrorIs(t, err, types.ErrEmptyResponse)
}
