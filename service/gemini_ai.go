package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/tieubaoca/foodchat-be/types"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const geminiRoleModel = "model"

var errEmptyGeminiConversation = errors.New("gemini: conversation has no message to send")

type GeminiService struct {
	client    *genai.Client
	modelName string
}

func NewGeminiService(ctx context.Context, apiKey, modelName string) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiService{
		client:    client,
		modelName: modelName,
	}, nil
}

func (s *GeminiService) Close() error {
	return s.client.Close()
}

// ChatStream sends the last message over a chat session holding the rest of the
// conversation. The first response is read before returning so that
// rejected requests surface here rather than mid-stream.
func (s *GeminiService) ChatStream(ctx context.Context, messages []types.Message) (ChatStream, error) {
	system, history, last, err := splitGeminiConversation(messages)
	if err != nil {
		return nil, err
	}

	// A fresh model per request keeps SystemInstruction request-local.
	model := s.client.GenerativeModel(s.modelName)
	model.SystemInstruction = system

	chat := model.StartChat()
	chat.History = history

	iter := chat.SendMessageStream(ctx, last.Parts...)
	first, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return &geminiStream{done: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &geminiStream{iter: iter, pending: first}, nil
}

// splitGeminiConversation moves the leading system messages into a system
// instruction and separates the final message from the history. Later system
// messages are sent as user turns.
func splitGeminiConversation(messages []types.Message) (*genai.Content, []*genai.Content, *genai.Content, error) {
	var instructions []string
	i := 0
	for ; i < len(messages) && messages[i].Role == types.RoleSystem; i++ {
		instructions = append(instructions, messages[i].Content)
	}

	rest := messages[i:]
	if len(messages) == 0 {
		return nil, nil, nil, errEmptyGeminiConversation
	}
	instruction := strings.Join(instructions, "\n\n")

	// Gemini needs a turn to answer, so an instruction-only conversation is
	// sent as a single user turn.
	if len(rest) == 0 {
		return nil, nil, &genai.Content{
			Role:  types.RoleUser.String(),
			Parts: []genai.Part{genai.Text(instruction)},
		}, nil
	}

	var system *genai.Content
	if len(instructions) > 0 {
		system = &genai.Content{
			Parts: []genai.Part{genai.Text(instruction)},
		}
	}

	contents := make([]*genai.Content, 0, len(rest))
	for _, msg := range rest {
		contents = append(contents, &genai.Content{
			Role:  geminiRole(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return system, contents[:len(contents)-1], contents[len(contents)-1], nil
}

func geminiRole(role types.Role) string {
	if role == types.RoleAssistant {
		return geminiRoleModel
	}
	return types.RoleUser.String()
}

type geminiStream struct {
	iter    *genai.GenerateContentResponseIterator
	pending *genai.GenerateContentResponse
	done    bool
}

func (s *geminiStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	if s.pending != nil {
		resp := s.pending
		s.pending = nil
		return geminiText(resp), nil
	}
	resp, err := s.iter.Next()
	if errors.Is(err, iterator.Done) {
		s.done = true
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	return geminiText(resp), nil
}

// Close is a no-op; the request context owns the connection.
func (s *geminiStream) Close() error {
	s.done = true
	return nil
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
