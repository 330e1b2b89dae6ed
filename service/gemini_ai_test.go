package service

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/foodchat-be/types"
)

func TestSplitGeminiConversation(t *testing.T) {
	conversation := BuildConversation([]types.Message{
		{Role: types.RoleUser, Content: "Is quinoa gluten-free?"},
		{Role: types.RoleAssistant, Content: "Yes."},
		{Role: types.RoleSystem, Content: "Answer briefly."},
		{Role: types.RoleUser, Content: "And oats?"},
	})

	system, history, last, err := splitGeminiConversation(conversation)
	require.NoError(t, err)

	require.NotNil(t, system)
	assert.Equal(t, []genai.Part{genai.Text(SystemPrompt().Content)}, system.Parts)

	require.Len(t, history, 3)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, "user", history[2].Role)
	assert.Equal(t, []genai.Part{genai.Text("Answer briefly.")}, history[2].Parts)

	assert.Equal(t, "user", last.Role)
	assert.Equal(t, []genai.Part{genai.Text("And oats?")}, last.Parts)
}

func TestSplitGeminiConversation_NoSystemMessages(t *testing.T) {
	system, history, last, err := splitGeminiConversation([]types.Message{
		{Role: types.RoleUser, Content: "Hi"},
	})
	require.NoError(t, err)
	assert.Nil(t, system)
	assert.Empty(t, history)
	assert.Equal(t, []genai.Part{genai.Text("Hi")}, last.Parts)
}

func TestSplitGeminiConversation_OnlySystemPrompt(t *testing.T) {
	system, history, last, err := splitGeminiConversation(BuildConversation(nil))
	require.NoError(t, err)
	assert.Nil(t, system)
	assert.Empty(t, history)
	require.NotNil(t, last)
	assert.Equal(t, "user", last.Role)
	assert.Equal(t, []genai.Part{genai.Text(SystemPrompt().Content)}, last.Parts)
}

func TestSplitGeminiConversation_NoMessages(t *testing.T) {
	_, _, _, err := splitGeminiConversation(nil)
	assert.ErrorIs(t, err, errEmptyGeminiConversation)
}

func TestGeminiText(t *testing.T) {
	assert.Equal(t, "", geminiText(nil))
	assert.Equal(t, "", geminiText(&genai.GenerateContentResponse{}))
	assert.Equal(t, "", geminiText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{}},
	}))
	assert.Equal(t, "Soak oats overnight.", geminiText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Soak oats "), genai.Text("overnight.")}},
		}},
	}))
}

func TestGeminiStream_Done(t *testing.T) {
	stream := &geminiStream{done: true}
	_, err := stream.Recv()
	assert.Error(t, err)
	assert.NoError(t, stream.Close())
}
