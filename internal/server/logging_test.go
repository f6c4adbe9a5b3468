package server_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/example/go-jtalk/internal/server"
	"github.com/example/go-jtalk/internal/tts"
)

// capturingHandler captures all slog records during a test.
type capturingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (c *capturingHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }
func (c *capturingHandler) Handle(_ context.Context, r slog.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
	return nil
}
func (c *capturingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return c }
func (c *capturingHandler) WithGroup(_ string) slog.Handler      { return c }

// find returns the first record with the given message.
func (c *capturingHandler) find(msg string) (slog.Record, map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.records {
		if r.Message != msg {
			continue
		}
		m := make(map[string]any)
		r.Attrs(func(a slog.Attr) bool {
			m[a.Key] = a.Value.Any()
			return true
		})
		return r, m, true
	}
	return slog.Record{}, nil, false
}

func TestTTS_LogsVoiceAndTextLen(t *testing.T) {
	logs := &capturingHandler{}
	h := server.NewHandler(
		&stubSynthesizer{wav: []byte("RIFF\x00\x00\x00\x00WAVEfmt ")},
		&stubVoiceLister{},
		server.WithLogger(slog.New(logs)),
	)

	if rec := post(t, h, "/tts", `{"text":"今日は","voice":"mei-normal"}`); rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	r, attrs, ok := logs.find("synthesis complete")
	if !ok {
		t.Fatal("no 'synthesis complete' record")
	}
	if r.Level != slog.LevelInfo {
		t.Errorf("level = %v, want info", r.Level)
	}
	if attrs["voice"] != "mei-normal" {
		t.Errorf("voice = %v", attrs["voice"])
	}
	// text_len is in bytes: three kana at three bytes each.
	if attrs["text_len"] != int64(9) {
		t.Errorf("text_len = %v (%T), want 9", attrs["text_len"], attrs["text_len"])
	}
	if _, ok := attrs["duration_ms"]; !ok {
		t.Error("want duration_ms attribute")
	}
	if attrs["wav_bytes"] != int64(16) {
		t.Errorf("wav_bytes = %v", attrs["wav_bytes"])
	}
}

func TestFailures_LogLevelByCause(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		timeout time.Duration
		msg     string
		level   slog.Level
	}{
		{"engine failure", errors.New("hts_engine: exit status 1"), time.Minute, "synthesis failed", slog.LevelError},
		{"unknown voice", tts.ErrUnknownVoice, time.Minute, "synthesis rejected", slog.LevelInfo},
		{"deadline", context.DeadlineExceeded, time.Minute, "synthesis timed out", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := &capturingHandler{}
			h := server.NewHandler(
				&stubSynthesizer{err: tt.err},
				&stubVoiceLister{},
				server.WithLogger(slog.New(logs)),
				server.WithRequestTimeout(tt.timeout),
			)

			post(t, h, "/tts", `{"text":"雨","voice":"mei-normal"}`)

			r, attrs, ok := logs.find(tt.msg)
			if !ok {
				t.Fatalf("no %q record", tt.msg)
			}
			if r.Level != tt.level {
				t.Errorf("level = %v, want %v", r.Level, tt.level)
			}
			if attrs["error"] == nil {
				t.Error("want an error attribute")
			}
		})
	}
}

func TestLabels_LogsLabelCount(t *testing.T) {
	logs := &capturingHandler{}
	h := server.NewHandler(nil, nil,
		server.WithLabeler(&stubLabeler{labels: []string{"a", "b", "c"}}),
		server.WithLogger(slog.New(logs)),
	)

	post(t, h, "/labels", `{"text":"雨"}`)

	_, attrs, ok := logs.find("label extraction complete")
	if !ok {
		t.Fatal("no 'label extraction complete' record")
	}
	if attrs["labels"] != int64(3) {
		t.Errorf("labels = %v", attrs["labels"])
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		level   string
		wantLvl slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
	}

	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			lvl, err := server.ParseLogLevel(tc.level)
			if err != nil {
				t.Fatalf("ParseLogLevel(%q) error: %v", tc.level, err)
			}
			if lvl != tc.wantLvl {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tc.level, lvl, tc.wantLvl)
			}
		})
	}
}

func TestParseLogLevel_UnknownIsError(t *testing.T) {
	if _, err := server.ParseLogLevel("verbose"); err == nil {
		t.Error("want error for unknown log level")
	}
}
