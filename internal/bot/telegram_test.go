package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestBot(baseURL string) *Client {
	return NewClient(ClientOptions{
		BotToken:    "token",
		APIBase:     baseURL,
		PollTimeout: time.Second,
		SendTimeout: time.Second,
	}, zerolog.Nop())
}

func TestSendMessageSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("path should contain sendMessage, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	if err := newTestBot(srv.URL).SendMessage(context.Background(), "chat", "hello"); err != nil {
		t.Fatalf("SendMessage should succeed: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("wrong chat_id: %#v", received)
	}
	if received["text"] != "hello" {
		t.Fatalf("wrong text: %#v", received)
	}
}

func TestSendMessageNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "bad request"})
	}))
	defer srv.Close()

	if err := newTestBot(srv.URL).SendMessage(context.Background(), "chat", "hello"); err == nil {
		t.Fatal("ok=false must return an error")
	}
}

func TestSendPhotoMultipart(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendPhoto") {
			t.Fatalf("path should contain sendPhoto, got %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
		if r.FormValue("chat_id") != "42" {
			t.Fatalf("wrong chat_id: %q", r.FormValue("chat_id"))
		}
		if r.FormValue("caption") != "caption text" {
			t.Fatalf("wrong caption: %q", r.FormValue("caption"))
		}
		file, _, err := r.FormFile("photo")
		if err != nil {
			t.Fatalf("photo part missing: %v", err)
		}
		defer file.Close()
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	if err := newTestBot(srv.URL).SendPhoto(context.Background(), "42", "caption text", png); err != nil {
		t.Fatalf("SendPhoto should succeed: %v", err)
	}
}

func TestUpdatesOffsetAndDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("offset"); got != "7" {
			t.Fatalf("expected offset 7, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": []map[string]any{
				{"update_id": 7, "message": map[string]any{"message_id": 1, "text": "/grok", "chat": map[string]any{"id": 99}}},
			},
		})
	}))
	defer srv.Close()

	updates, err := newTestBot(srv.URL).Updates(context.Background(), 7)
	if err != nil {
		t.Fatalf("Updates should succeed: %v", err)
	}
	if len(updates) != 1 || updates[0].Message == nil {
		t.Fatalf("unexpected updates: %#v", updates)
	}
	if updates[0].Message.Chat.ID != 99 || updates[0].Message.Text != "/grok" {
		t.Fatalf("unexpected message: %#v", updates[0].Message)
	}
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/grok", "grok"},
		{"/GROK", "grok"},
		{"/grok@DebtReliefBot", "grok"},
		{"/grok now please", "grok"},
		{"  /grok  ", "grok"},
		{"grok", ""},
		{"", ""},
		{"hello /grok", ""},
	}

	for _, tc := range cases {
		if got := ParseCommand(tc.in); got != tc.want {
			t.Fatalf("ParseCommand(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
