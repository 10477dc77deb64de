package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHumanMessagePrefersServerMessageThroughWrappers(t *testing.T) {
	apiErr := NewAPIError("CMS API error: 400 Bad Request", http.StatusBadRequest, map[string]any{
		"server_message": "Title is required",
	})
	wrapped := NewServiceError("failed to save article", "articles", "save", apiErr)

	if got := HumanMessage(wrapped, "fallback"); got != "Title is required" {
		t.Fatalf("expected server message, got %q", got)
	}
	if got := StatusCode(fmt.Errorf("outer: %w", apiErr)); got != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", got)
	}
}

func TestHumanMessageFallsBackToOutermostMessage(t *testing.T) {
	err := NewServiceError("failed to load events", "events", "fetch", fmt.Errorf("dial tcp: refused"))
	if got := HumanMessage(err, "fallback"); got != "failed to load events" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := HumanMessage(nil, "fallback"); got != "" {
		t.Fatalf("nil error should have no message, got %q", got)
	}
}

func TestAuthErrorIsDetectableThroughWrapping(t *testing.T) {
	err := fmt.Errorf("delete member: %w", NewAuthError("session expired", nil))
	if !IsAuth(err) {
		t.Fatalf("expected auth error to be detected")
	}
	if StatusCode(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401")
	}
	if IsValidation(err) {
		t.Fatalf("auth error is not a validation error")
	}
}
