// Package openaitest provides an in-memory stand-in for the Assistants API
// endpoints used by this module. It plugs into the SDK as an http.RoundTripper.
package openaitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/petasbytes/stock-analyzer/internal/provider"
)

// Request is a captured API call.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

type assistant struct {
	ID           string `json:"id"`
	Object       string `json:"object"`
	CreatedAt    int64  `json:"created_at"`
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
	Model        string `json:"model"`
	Tools        []any  `json:"tools"`
}

type textContent struct {
	Type string `json:"type"`
	Text struct {
		Value       string `json:"value"`
		Annotations []any  `json:"annotations"`
	} `json:"text"`
}

type message struct {
	ID        string        `json:"id"`
	Object    string        `json:"object"`
	CreatedAt int64         `json:"created_at"`
	ThreadID  string        `json:"thread_id"`
	Role      string        `json:"role"`
	Content   []textContent `json:"content"`
}

type run struct {
	ID           string    `json:"id"`
	Object       string    `json:"object"`
	CreatedAt    int64     `json:"created_at"`
	ThreadID     string    `json:"thread_id"`
	AssistantID  string    `json:"assistant_id"`
	Status       string    `json:"status"`
	Instructions string    `json:"instructions"`
	Model        string    `json:"model"`
	LastError    *runError `json:"last_error"`

	script  []string
	step    int
	replied bool
}

type runError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server is a fake Assistants API. The zero value is not usable; call New.
type Server struct {
	mu sync.Mutex

	// RunScript is the status sequence of every new run: creation returns
	// element 0 and each retrieve advances by one, sticking on the last.
	RunScript []string
	// Reply is the assistant message appended when a run reaches completed.
	Reply string
	// OnCreateAssistant runs before a create is applied, without the lock held.
	OnCreateAssistant func(s *Server, name string)
	// FailPath makes any request whose "METHOD /path" has this prefix fail with FailStatus.
	FailPath   string
	FailStatus int

	clock      int64
	seq        int
	assistants []*assistant
	threads    map[string][]*message
	runs       map[string]*run
	requests   []Request
}

// New returns an empty fake with the default run script queued → in_progress → completed.
func New() *Server {
	return &Server{
		RunScript: []string{"queued", "in_progress", "completed"},
		Reply:     "I am a test assistant.",
		clock:     1_700_000_000,
		threads:   map[string][]*message{},
		runs:      map[string]*run{},
	}
}

// Client returns an SDK client whose HTTP traffic is served by s.
func (s *Server) Client() *openai.Client {
	return provider.NewOpenAIClient("test-key", "",
		option.WithHTTPClient(&http.Client{Transport: s}),
		option.WithMaxRetries(0),
	)
}

// AddAssistant seeds an assistant and returns its ID.
func (s *Server) AddAssistant(name, instructions, model string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAssistantLocked(name, instructions, model).ID
}

// AssistantIDs lists stored assistant IDs with the given name, oldest first.
func (s *Server) AssistantIDs(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, a := range s.assistants {
		if a.Name == name {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// Requests returns a copy of every call received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many captured calls match method and a path prefix.
func (s *Server) Count(method, pathPrefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s_test%020d", prefix, s.seq)
}

func (s *Server) tick() int64 {
	s.clock++
	return s.clock
}

func (s *Server) addAssistantLocked(name, instructions, model string) *assistant {
	a := &assistant{
		ID:           s.nextID("asst"),
		Object:       "assistant",
		CreatedAt:    s.tick(),
		Name:         name,
		Instructions: instructions,
		Model:        model,
		Tools:        []any{},
	}
	s.assistants = append(s.assistants, a)
	return a
}

func (s *Server) addMessageLocked(threadID, role, text string) *message {
	m := &message{
		ID:        s.nextID("msg"),
		Object:    "thread.message",
		CreatedAt: s.tick(),
		ThreadID:  threadID,
		Role:      role,
	}
	c := textContent{Type: "text"}
	c.Text.Value = text
	c.Text.Annotations = []any{}
	m.Content = []textContent{c}
	s.threads[threadID] = append(s.threads[threadID], m)
	return m
}

// RoundTrip implements http.RoundTripper.
func (s *Server) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
	}
	path := "/" + strings.TrimPrefix(strings.TrimPrefix(req.URL.Path, "/"), "v1/")

	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: req.Method, Path: path, Body: body})
	fail := s.FailPath != "" && strings.HasPrefix(req.Method+" "+path, s.FailPath)
	hook := s.OnCreateAssistant
	s.mu.Unlock()

	var resp *http.Response
	if fail {
		resp = errorResponse(s.FailStatus, "injected failure")
	} else {
		resp = s.serve(req.Method, path, body, hook)
	}
	resp.Request = req
	return resp, nil
}

func (s *Server) serve(method, path string, body []byte, hook func(*Server, string)) *http.Response {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case parts[0] == "assistants" && len(parts) == 1 && method == http.MethodPost:
		var in struct {
			Name         string `json:"name"`
			Instructions string `json:"instructions"`
			Model        string `json:"model"`
		}
		if err := json.Unmarshal(body, &in); err != nil {
			return errorResponse(http.StatusBadRequest, err.Error())
		}
		if hook != nil {
			hook(s, in.Name)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return jsonResponse(http.StatusOK, s.addAssistantLocked(in.Name, in.Instructions, in.Model))

	case parts[0] == "assistants" && len(parts) == 1 && method == http.MethodGet:
		s.mu.Lock()
		defer s.mu.Unlock()
		data := append([]*assistant(nil), s.assistants...)
		// Service default order is newest first.
		sort.SliceStable(data, func(i, j int) bool { return data[i].CreatedAt > data[j].CreatedAt })
		return jsonResponse(http.StatusOK, listOf(data))

	case parts[0] == "assistants" && len(parts) == 2:
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, a := range s.assistants {
			if a.ID != parts[1] {
				continue
			}
			if method == http.MethodDelete {
				s.assistants = append(s.assistants[:i], s.assistants[i+1:]...)
				return jsonResponse(http.StatusOK, map[string]any{"id": a.ID, "object": "assistant.deleted", "deleted": true})
			}
			return jsonResponse(http.StatusOK, a)
		}
		return errorResponse(http.StatusNotFound, "No assistant found with id '"+parts[1]+"'.")

	case parts[0] == "threads" && len(parts) == 1 && method == http.MethodPost:
		s.mu.Lock()
		defer s.mu.Unlock()
		id := s.nextID("thread")
		s.threads[id] = nil
		return jsonResponse(http.StatusOK, map[string]any{"id": id, "object": "thread", "created_at": s.tick(), "metadata": map[string]any{}})

	case parts[0] == "threads" && len(parts) == 3 && parts[2] == "messages":
		s.mu.Lock()
		defer s.mu.Unlock()
		msgs, ok := s.threads[parts[1]]
		if !ok {
			return errorResponse(http.StatusNotFound, "No thread found with id '"+parts[1]+"'.")
		}
		if method == http.MethodPost {
			var in struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			}
			if err := json.Unmarshal(body, &in); err != nil {
				return errorResponse(http.StatusBadRequest, err.Error())
			}
			return jsonResponse(http.StatusOK, s.addMessageLocked(parts[1], in.Role, in.Content))
		}
		data := make([]*message, 0, len(msgs))
		for i := len(msgs) - 1; i >= 0; i-- {
			data = append(data, msgs[i])
		}
		return jsonResponse(http.StatusOK, listOf(data))

	case parts[0] == "threads" && len(parts) == 3 && parts[2] == "runs" && method == http.MethodPost:
		var in struct {
			AssistantID  string  `json:"assistant_id"`
			Instructions *string `json:"instructions"`
		}
		if err := json.Unmarshal(body, &in); err != nil {
			return errorResponse(http.StatusBadRequest, err.Error())
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.threads[parts[1]]; !ok {
			return errorResponse(http.StatusNotFound, "No thread found with id '"+parts[1]+"'.")
		}
		var asst *assistant
		for _, a := range s.assistants {
			if a.ID == in.AssistantID {
				asst = a
			}
		}
		if asst == nil {
			return errorResponse(http.StatusNotFound, "No assistant found with id '"+in.AssistantID+"'.")
		}
		r := &run{
			ID:           s.nextID("run"),
			Object:       "thread.run",
			CreatedAt:    s.tick(),
			ThreadID:     parts[1],
			AssistantID:  asst.ID,
			Instructions: asst.Instructions,
			Model:        asst.Model,
			script:       append([]string(nil), s.RunScript...),
		}
		if in.Instructions != nil {
			r.Instructions = *in.Instructions
		}
		s.runs[r.ID] = r
		s.applyStatusLocked(r)
		return jsonResponse(http.StatusOK, r)

	case parts[0] == "threads" && len(parts) == 4 && parts[2] == "runs" && method == http.MethodGet:
		s.mu.Lock()
		defer s.mu.Unlock()
		r, ok := s.runs[parts[3]]
		if !ok || r.ThreadID != parts[1] {
			return errorResponse(http.StatusNotFound, "No run found with id '"+parts[3]+"'.")
		}
		if r.step < len(r.script)-1 {
			r.step++
		}
		s.applyStatusLocked(r)
		return jsonResponse(http.StatusOK, r)
	}
	return errorResponse(http.StatusNotFound, "unknown route "+method+" "+path)
}

func (s *Server) applyStatusLocked(r *run) {
	r.Status = r.script[r.step]
	switch r.Status {
	case "completed":
		if !r.replied {
			r.replied = true
			s.addMessageLocked(r.ThreadID, "assistant", s.Reply)
		}
	case "failed":
		r.LastError = &runError{Code: "server_error", Message: "Sorry, something went wrong."}
	}
}

func listOf[T any](data []T) map[string]any {
	out := map[string]any{"object": "list", "data": data, "has_more": false}
	if data == nil {
		out["data"] = []T{}
	}
	return out
}

func jsonResponse(status int, v any) *http.Response {
	b, _ := json.Marshal(v)
	resp := &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(b)),
		Header:     make(http.Header),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp
}

func errorResponse(status int, msg string) *http.Response {
	return jsonResponse(status, map[string]any{
		"error": map[string]any{"message": msg, "type": "invalid_request_error"},
	})
}
