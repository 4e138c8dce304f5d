package suada

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.HTTPClient = server.Client()
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error for missing api key")
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(Config{APIKey: "k", BaseURL: "https://example.com/api/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.Config.BaseURL != "https://example.com/api" {
		t.Errorf("trailing slash not trimmed: %q", client.Config.BaseURL)
	}

	client, err = NewClient(Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.Config.BaseURL != DefaultBaseURL {
		t.Errorf("base url default: %q", client.Config.BaseURL)
	}
}

func TestChat_SendsHeadersAndPayload(t *testing.T) {
	var gotPath, gotAuth, gotContentType, gotAccept, gotAgent string
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		gotAgent = r.Header.Get("User-Agent")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "ok"})
	})

	_, err := client.Chat(context.Background(), ChatPayload{
		Message:                "What's our revenue trend?",
		ExternalUserIdentifier: "u1",
		Context:                map[string]any{"timeframe": "last_quarter"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if gotPath != "/chat" {
		t.Errorf("path = %q, want /chat", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotContentType != "application/json" || gotAccept != "application/json" {
		t.Errorf("content negotiation headers: %q / %q", gotContentType, gotAccept)
	}
	if gotAgent != "SuadaMCP/1.0 Go" {
		t.Errorf("user-agent = %q", gotAgent)
	}

	want := map[string]any{
		"message":                "What's our revenue trend?",
		"externalUserIdentifier": "u1",
		"context":                map[string]any{"timeframe": "last_quarter"},
	}
	if diff := cmp.Diff(want, gotBody); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestChatPayload_ConversationIDOnlyWhenSet(t *testing.T) {
	data, err := json.Marshal(ChatPayload{Message: "q", ExternalUserIdentifier: "u1", Context: map[string]any{}})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	if _, ok := m["conversationId"]; ok {
		t.Error("conversationId should be absent when unset")
	}
	if _, ok := m["context"]; !ok {
		t.Error("empty-but-present context map should still emit a context key")
	}

	data, err = json.Marshal(ChatPayload{Message: "q", ExternalUserIdentifier: "u1", Context: map[string]any{}, ConversationID: "c1"})
	if err != nil {
		t.Fatal(err)
	}
	m = nil
	_ = json.Unmarshal(data, &m)
	if m["conversationId"] != "c1" {
		t.Errorf("conversationId = %v, want c1", m["conversationId"])
	}
}

func TestChatPayload_MessageOnly(t *testing.T) {
	data, err := json.Marshal(ChatPayload{Message: "just a question"})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	want := map[string]any{"message": "just a question"}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("tool-path payload should carry only message (-want +got):\n%s", diff)
	}
}

func TestChat_NormalizesOptionalFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"response": "Revenue is up 12%",
			"metrics":  map[string]any{"revenue_growth": "12%"},
			"insights": []any{"Q3 strongest"},
		})
	})

	resp, err := client.Chat(context.Background(), ChatPayload{Message: "q", ExternalUserIdentifier: "u1"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Response != "Revenue is up 12%" {
		t.Errorf("response = %q", resp.Response)
	}
	if diff := cmp.Diff(map[string]any{"revenue_growth": "12%"}, resp.Metrics); diff != "" {
		t.Errorf("metrics (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Q3 strongest"}, resp.Insights); diff != "" {
		t.Errorf("insights (-want +got):\n%s", diff)
	}
	// Absent fields default to empty, never nil.
	if resp.Recommendations == nil || resp.Risks == nil {
		t.Error("absent sequences must default to empty slices")
	}
	if resp.Reasoning != "" {
		t.Errorf("reasoning = %q, want empty", resp.Reasoning)
	}
	if resp.Raw["response"] != "Revenue is up 12%" {
		t.Error("raw body not retained")
	}
}

func TestChat_APIErrorCarriesUpstreamMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "quota exceeded"})
	})

	_, err := client.Chat(context.Background(), ChatPayload{Message: "q"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusPaymentRequired {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if apiErr.Message != "quota exceeded" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestChat_APIErrorNonJSONBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := client.Chat(context.Background(), ChatPayload{Message: "q"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "" {
		t.Errorf("got %+v", apiErr)
	}
}

func TestChat_MalformedSuccessBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := client.Chat(context.Background(), ChatPayload{Message: "q"})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("want *DecodeError, got %T: %v", err, err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Error("a malformed 2xx body must not surface as *APIError")
	}
}

func TestChat_TransportErrorIsNotAPIError(t *testing.T) {
	client, err := NewClient(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Chat(context.Background(), ChatPayload{Message: "q"})
	if err == nil {
		t.Fatal("expected transport error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Error("transport failure must not surface as *APIError")
	}
}

func TestChat_RequiresMessage(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
	})
	if _, err := client.Chat(context.Background(), ChatPayload{}); err == nil {
		t.Error("expected error for empty message")
	}
	if called {
		t.Error("no request should be issued for an empty message")
	}
}
