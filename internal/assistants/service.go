package assistants

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"

	"github.com/petasbytes/stock-analyzer/internal/metrics"
)

// listPageSize bounds ListAssistants. Only the first page is ever read.
const listPageSize = 100

type Service struct {
	Client *openai.Client
}

func New(client *openai.Client) *Service {
	return &Service{Client: client}
}

func (s *Service) CreateAssistant(ctx context.Context, name, instructions, model string) (*openai.Assistant, error) {
	a, err := s.Client.Beta.Assistants.New(ctx, openai.BetaAssistantNewParams{
		Name:         openai.String(name),
		Instructions: openai.String(instructions),
		Model:        openai.ChatModel(model),
	})
	metrics.ObserveCall("create_assistant", err)
	if err != nil {
		return nil, fmt.Errorf("create assistant %q: %w", name, err)
	}
	return a, nil
}

// ListAssistants returns the first page of assistants in service order (newest first).
func (s *Service) ListAssistants(ctx context.Context) ([]openai.Assistant, error) {
	page, err := s.Client.Beta.Assistants.List(ctx, openai.BetaAssistantListParams{
		Limit: openai.Int(listPageSize),
	})
	metrics.ObserveCall("list_assistants", err)
	if err != nil {
		return nil, fmt.Errorf("list assistants: %w", err)
	}
	return page.Data, nil
}

func (s *Service) RetrieveAssistant(ctx context.Context, id string) (*openai.Assistant, error) {
	a, err := s.Client.Beta.Assistants.Get(ctx, id)
	metrics.ObserveCall("retrieve_assistant", err)
	if err != nil {
		return nil, fmt.Errorf("retrieve assistant %s: %w", id, err)
	}
	return a, nil
}

func (s *Service) DeleteAssistant(ctx context.Context, id string) error {
	_, err := s.Client.Beta.Assistants.Delete(ctx, id)
	metrics.ObserveCall("delete_assistant", err)
	if err != nil {
		return fmt.Errorf("delete assistant %s: %w", id, err)
	}
	return nil
}

func (s *Service) CreateThread(ctx context.Context) (*openai.Thread, error) {
	t, err := s.Client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	metrics.ObserveCall("create_thread", err)
	if err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return t, nil
}

// SendMessage appends a user message to the thread.
func (s *Service) SendMessage(ctx context.Context, threadID, content string) (*openai.Message, error) {
	m, err := s.Client.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role:    openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{OfString: openai.String(content)},
	})
	metrics.ObserveCall("create_message", err)
	if err != nil {
		return nil, fmt.Errorf("send message to thread %s: %w", threadID, err)
	}
	return m, nil
}

// ListMessages returns the first page of the thread's messages, most recent first.
func (s *Service) ListMessages(ctx context.Context, threadID string) ([]openai.Message, error) {
	page, err := s.Client.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{})
	metrics.ObserveCall("list_messages", err)
	if err != nil {
		return nil, fmt.Errorf("list messages of thread %s: %w", threadID, err)
	}
	return page.Data, nil
}

// MessageText joins the text parts of m with newlines. Non-text parts are skipped.
func MessageText(m openai.Message) string {
	var parts []string
	for _, c := range m.Content {
		if c.Type == "text" {
			parts = append(parts, c.Text.Value)
		}
	}
	return strings.Join(parts, "\n")
}
