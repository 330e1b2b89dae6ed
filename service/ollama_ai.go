package service

import (
	"context"
	"errors"
	"io"

	"github.com/tieubaoca/foodchat-be/types"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// OllamaService talks to a local OpenAI-compatible server (Ollama, LM Studio)
// through langchaingo.
type OllamaService struct {
	llm llms.Model
}

func NewOllamaService(baseURL, token, model string) (*OllamaService, error) {
	if token == "" {
		// langchaingo refuses an empty token; local servers ignore it.
		token = "ollama"
	}
	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return &OllamaService{llm: llm}, nil
}

func newOllamaServiceWithModel(llm llms.Model) *OllamaService {
	return &OllamaService{llm: llm}
}

// ChatStream runs the generation in the background and blocks until the first
// fragment, the end of the stream or an error is available.
func (s *OllamaService) ChatStream(ctx context.Context, messages []types.Message) (ChatStream, error) {
	ctx, cancel := context.WithCancel(ctx)
	stream := &callbackStream{
		fragments: make(chan string),
		done:      make(chan struct{}),
		cancel:    cancel,
	}

	content := toLangChainMessages(messages)
	go func() {
		defer close(stream.done)
		_, err := s.llm.GenerateContent(ctx, content,
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				select {
				case stream.fragments <- string(chunk):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}),
		)
		stream.err = err
	}()

	first, err := stream.Recv()
	switch {
	case err == nil:
		stream.peeked = &first
	case errors.Is(err, io.EOF):
	default:
		stream.Close()
		return nil, err
	}
	return stream, nil
}

func toLangChainMessages(messages []types.Message) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.TextParts(langChainRole(msg.Role), msg.Content))
	}
	return content
}

func langChainRole(role types.Role) schema.ChatMessageType {
	switch role {
	case types.RoleSystem:
		return schema.ChatMessageTypeSystem
	case types.RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}

// callbackStream turns a push-style streaming callback into a ChatStream.
// err is written before done is closed and read only after.
type callbackStream struct {
	fragments chan string
	done      chan struct{}
	err       error
	cancel    context.CancelFunc
	peeked    *string
}

func (s *callbackStream) Recv() (string, error) {
	if s.peeked != nil {
		fragment := *s.peeked
		s.peeked = nil
		return fragment, nil
	}
	select {
	case fragment := <-s.fragments:
		return fragment, nil
	case <-s.done:
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
}

func (s *callbackStream) Close() error {
	s.cancel()
	<-s.done
	return nil
}
