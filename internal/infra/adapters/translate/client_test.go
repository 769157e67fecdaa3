package translate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/voicebridge/voicebridge/internal/infra/adapters/translate"
)

func TestTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			t.Errorf("path = %q, want /translate", r.URL.Path)
		}

		var req struct {
			Text       string `json:"text"`
			SourceLang string `json:"source_lang"`
			TargetLang string `json:"target_lang"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "hello" || req.SourceLang != "en" || req.TargetLang != "pt" {
			t.Errorf("request = %+v", req)
		}

		json.NewEncoder(w).Encode(map[string]string{"translated_text": "olá"})
	}))
	defer srv.Close()

	c := translate.NewClient(srv.URL, time.Second)

	got, err := c.Translate(context.Background(), "hello", "en", "pt")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "olá" {
		t.Errorf("Translate = %q, want %q", got, "olá")
	}
}

func TestTranslateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := translate.NewClient(srv.URL, time.Second)

	if _, err := c.Translate(context.Background(), "hello", "en", "pt"); err == nil {
		t.Fatal("Translate succeeded against a failing server")
	}
}

func TestTranslateUnconfigured(t *testing.T) {
	c := translate.NewClient("", time.Second)

	if _, err := c.Translate(context.Background(), "hello", "en", "pt"); err == nil {
		t.Fatal("Translate succeeded without a base URL")
	}
}

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/synthesize" {
			t.Errorf("path = %q, want /synthesize", r.URL.Path)
		}

		json.NewEncoder(w).Encode(map[string]string{"audio_url": "https://cdn.local/a.mp3"})
	}))
	defer srv.Close()

	c := translate.NewTTSClient(srv.URL, time.Second)

	got, err := c.Synthesize(context.Background(), "olá", "pt")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if got != "https://cdn.local/a.mp3" {
		t.Errorf("Synthesize = %q", got)
	}
}
