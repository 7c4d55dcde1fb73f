package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iqac-smarttrack/apiserver/internal/logging"
	"github.com/iqac-smarttrack/apiserver/internal/services"
	"github.com/iqac-smarttrack/apiserver/internal/storage"
	"github.com/iqac-smarttrack/apiserver/internal/store"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("secret")
	token, err := issueToken("42", secret, time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	subject, err := parseTokenSubject(token, secret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if subject != "42" {
		t.Fatalf("unexpected subject %q", subject)
	}

	if _, err := parseTokenSubject(token, []byte("other")); err == nil {
		t.Fatalf("expected error for wrong secret")
	}

	expired, err := issueToken("42", secret, -time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := parseTokenSubject(expired, secret); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]bool{
		"":             false,
		"Bearer":       false,
		"Bearer   ":    false,
		"Basic abc":    false,
		"Bearer abc":   true,
		"bearer abc":   true,
		" Bearer abc ": true,
	}
	for header, ok := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		token, err := bearerToken(req)
		if ok && (err != nil || token != "abc") {
			t.Fatalf("header %q: got %q, %v", header, token, err)
		}
		if !ok && err == nil {
			t.Fatalf("header %q: expected error", header)
		}
	}
}

func TestRequireAuthInjectsSubject(t *testing.T) {
	token, err := issueToken("7", []byte("secret"), time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	var seen string
	handler := requireAuth([]byte("secret"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = userIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || seen != "7" {
		t.Fatalf("status %d subject %q", rec.Code, seen)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{&services.ValidationError{Field: "title", Message: "is required"}, http.StatusBadRequest, "title: is required"},
		{fmt.Errorf("load: %w", store.ErrNotFound), http.StatusNotFound, "task not found"},
		{storage.ErrObjectNotFound, http.StatusNotFound, "task not found"},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{errors.New("disk full"), http.StatusInternalServerError, "failed to save task"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, logging.Discard(), tc.err, "save task", "task")
		if rec.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		var body ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Error != tc.message {
			t.Fatalf("%v: unexpected message %q", tc.err, body.Error)
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
		}
	}
}
