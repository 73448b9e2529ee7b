package assistants_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/openai/openai-go/v2"

	"github.com/petasbytes/stock-analyzer/internal/assistants"
	"github.com/petasbytes/stock-analyzer/internal/openaitest"
)

func TestService_ThreadAndMessages(t *testing.T) {
	fake := openaitest.New()
	svc := assistants.New(fake.Client())
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx)
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	if !strings.HasPrefix(thread.ID, "thread_") {
		t.Fatalf("unexpected thread id %q", thread.ID)
	}
	if _, err := svc.SendMessage(ctx, thread.ID, "first"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.SendMessage(ctx, thread.ID, "second"); err != nil {
		t.Fatalf("send: %v", err)
	}

	msgs, err := svc.ListMessages(ctx, thread.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(msgs))
	}
	// Most recent first.
	if got := assistants.MessageText(msgs[0]); got != "second" {
		t.Fatalf("newest message = %q", got)
	}
	if msgs[0].Role != "user" {
		t.Fatalf("role = %q", msgs[0].Role)
	}
}

func TestService_RetrieveAssistant(t *testing.T) {
	fake := openaitest.New()
	id := fake.AddAssistant(name, instructions, model)
	svc := assistants.New(fake.Client())

	a, err := svc.RetrieveAssistant(context.Background(), id)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if a.ID != id || a.Name != name || a.Instructions != instructions || a.Model != model {
		t.Fatalf("unexpected assistant: %+v", a)
	}

	_, err = svc.RetrieveAssistant(context.Background(), "asst_missing")
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got %v", err)
	}
	if !strings.Contains(err.Error(), "retrieve assistant asst_missing") {
		t.Fatalf("error not wrapped with operation: %v", err)
	}
}

func TestService_SendMessageUnknownThread(t *testing.T) {
	fake := openaitest.New()
	svc := assistants.New(fake.Client())
	_, err := svc.SendMessage(context.Background(), "thread_nope", "hi")
	if err == nil || !strings.Contains(err.Error(), "send message to thread thread_nope") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestMessageText_SkipsNonText(t *testing.T) {
	var m openai.Message
	if err := m.UnmarshalJSON([]byte(`{
		"id": "msg_1", "object": "thread.message", "role": "assistant",
		"content": [
			{"type": "image_file", "image_file": {"file_id": "file_1"}},
			{"type": "text", "text": {"value": "hello", "annotations": []}},
			{"type": "text", "text": {"value": "world", "annotations": []}}
		]
	}`)); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := assistants.MessageText(m); got != "hello\nworld" {
		t.Fatalf("got %q", got)
	}
}
