package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"deckhand/internal/config"
	"deckhand/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.RunStarted(context.Background(), 3); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	type captured struct {
		title    string
		tags     string
		priority string
		body     string
	}
	var got captured

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = captured{
			title:    r.Header.Get("X-Title"),
			tags:     r.Header.Get("X-Tags"),
			priority: r.Header.Get("X-Priority"),
			body:     string(body),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	tests := []struct {
		name         string
		send         func() error
		wantTitle    string
		wantBody     string
		wantTags     string
		wantPriority string
	}{
		{
			name:      "run started",
			send:      func() error { return svc.RunStarted(context.Background(), 7) },
			wantTitle: "Deckhand - Run Started",
			wantBody:  "Filling order with 7 images",
			wantTags:  "deckhand,run,started",
		},
		{
			name: "run completed with skips",
			send: func() error {
				return svc.RunCompleted(context.Background(), 5, 2, 90*time.Second)
			},
			wantTitle: "Deckhand - Run Completed",
			wantBody:  "Placed 5 images, 2 skipped, in 1m30s",
			wantTags:  "deckhand,run,completed",
		},
		{
			name: "run failed",
			send: func() error {
				return svc.RunFailed(context.Background(), errors.New("state mismatch"), "paging_to_backs")
			},
			wantTitle:    "Deckhand - Run Failed",
			wantBody:     "Run failed in state paging_to_backs",
			wantTags:     "deckhand,run,failed",
			wantPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.send(); err != nil {
				t.Fatalf("send: %v", err)
			}
			if got.title != tc.wantTitle {
				t.Errorf("title = %q, want %q", got.title, tc.wantTitle)
			}
			if !strings.Contains(got.body, tc.wantBody) {
				t.Errorf("body = %q, want prefix %q", got.body, tc.wantBody)
			}
			if got.tags != tc.wantTags {
				t.Errorf("tags = %q, want %q", got.tags, tc.wantTags)
			}
			if got.priority != tc.wantPriority {
				t.Errorf("priority = %q, want %q", got.priority, tc.wantPriority)
			}
		})
	}
}

func TestNtfyServiceReportsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.RunStarted(context.Background(), 1); err == nil {
		t.Fatal("expected error for rejected notification")
	}
}
