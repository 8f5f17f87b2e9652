package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPISenderSend(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewAPISender("key-123", srv.URL, "noreply@gtc.example")
	err := c.Send(context.Background(), &Message{
		To:      []string{"p@example.com"},
		Subject: "Convention approved",
		HTML:    "<p>done</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if auth != "Bearer key-123" {
		t.Errorf("Authorization = %q", auth)
	}
	if got["subject"] != "Convention approved" || got["from"] != "noreply@gtc.example" {
		t.Errorf("body = %v", got)
	}
	if _, ok := got["html"]; !ok {
		t.Error("html part missing")
	}
}

func TestAPISenderTextFallback(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewAPISender("k", srv.URL, "noreply@gtc.example")
	if err := c.Send(context.Background(), &Message{To: []string{"p@example.com"}, Text: "plain"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["text"] != "plain" {
		t.Errorf("text = %v", got["text"])
	}
	if _, ok := got["html"]; ok {
		t.Error("html part should be absent")
	}
}

func TestAPISenderNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewAPISender("k", srv.URL, "noreply@gtc.example")
	if err := c.Send(context.Background(), &Message{To: []string{"p@example.com"}}); err == nil {
		t.Error("Send should fail on non-200 response")
	}
}

func TestAPISenderMissingKey(t *testing.T) {
	c := NewAPISender("", "http://unused", "noreply@gtc.example")
	if err := c.Send(context.Background(), &Message{To: []string{"p@example.com"}}); err == nil {
		t.Error("Send should fail without an API key")
	}
}
