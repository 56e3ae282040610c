package singleinstance

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"quick-translate/src/messages"
)

func startServer(t *testing.T, ctx context.Context) Server {
	t.Helper()
	t.Setenv("SINGLEINSTANCE_PORT_START", "49731")
	t.Setenv("SINGLEINSTANCE_PORT_END", "49732")
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback unavailable in this environment: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestServerClientRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	client := NewClient()
	type outcome struct {
		delegated bool
		text      string
		err       error
	}
	done := make(chan outcome, 1)
	go func() {
		delegated, text, err := client.Delegate(ctx, Request{Kind: messages.ActionTranslate, Text: "hello\nworld"})
		done <- outcome{delegated, text, err}
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	req := conn.Request()
	if req.Kind != messages.ActionTranslate || req.Text != "hello\nworld" {
		t.Errorf("unexpected request %+v", req)
	}
	if err := conn.RespondSuccess("你好"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	_ = conn.Close()

	got := <-done
	if got.err != nil || !got.delegated || got.text != "你好" {
		t.Errorf("Delegate = %+v", got)
	}
}

func TestServerReportsError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	done := make(chan error, 1)
	go func() {
		_, _, err := NewClient().Delegate(ctx, Request{Kind: messages.ActionSearch})
		done <- err
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if conn.Request().Text != "" {
		t.Errorf("expected empty text, got %q", conn.Request().Text)
	}
	_ = conn.RespondError("Busy, please retry")
	_ = conn.Close()

	if err := <-done; err == nil || err.Error() != "Busy, please retry" {
		t.Errorf("Delegate error = %v", err)
	}
}

func TestUnknownActionRejected(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	startServer(t, ctx)

	delegated, _, err := NewClient().Delegate(ctx, Request{Kind: "dance"})
	if !delegated {
		t.Fatal("expected resident to answer")
	}
	if err == nil || !strings.Contains(err.Error(), "unknown action") {
		t.Errorf("Delegate error = %v", err)
	}
}

func TestDetectResidentPort(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	port, ok := DetectResidentPort(ctx, 300*time.Millisecond)
	if !ok || port != srv.Port() {
		t.Errorf("DetectResidentPort = %d, %v; want %d", port, ok, srv.Port())
	}
}

func TestDetectResidentPortIgnoresForeignListener(t *testing.T) {
	t.Setenv("SINGLEINSTANCE_PORT_START", "49733")
	t.Setenv("SINGLEINSTANCE_PORT_END", "49733")
	ln, err := net.Listen("tcp", "127.0.0.1:49733")
	if err != nil {
		t.Skipf("loopback unavailable in this environment: %v", err)
	}
	defer ln.Close()

	if port, ok := DetectResidentPort(context.Background(), 200*time.Millisecond); ok {
		t.Errorf("DetectResidentPort = %d, want no resident", port)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := DetectResidentPort(ctx, 200*time.Millisecond); ok {
		t.Error("cancelled scan reported a resident")
	}
}

func TestGetPortRange(t *testing.T) {
	tests := []struct {
		start, end string
		wantStart  int
		wantEnd    int
	}{
		{"", "", defaultPortStart, defaultPortEnd},
		{"50000", "50010", 50000, 50010},
		{"80", "2000", 1024, 2000},
		{"6000", "5000", 5000, 6000},
		{"abc", "5000", defaultPortStart, defaultPortEnd},
	}
	for _, tt := range tests {
		t.Setenv("SINGLEINSTANCE_PORT_START", tt.start)
		t.Setenv("SINGLEINSTANCE_PORT_END", tt.end)
		s, e := getPortRange()
		if s != tt.wantStart || e != tt.wantEnd {
			t.Errorf("getPortRange(%q,%q) = %d,%d; want %d,%d", tt.start, tt.end, s, e, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		line    string
		body    string
		want    Request
		wantErr string
	}{
		{line: "ACTION explain\n", body: "some text", want: Request{Kind: messages.ActionExplain, Text: "some text"}},
		{line: "ACTION copy\n", want: Request{Kind: messages.ActionCopy}},
		{line: "STDOUT\n", wantErr: "expected ACTION request"},
		{line: "ACTION translate", wantErr: "expected ACTION request"},
		{line: "ACTION fly\n", wantErr: `unknown action "fly"`},
	}
	for _, tt := range tests {
		got, err := parseRequest(tt.line, strings.NewReader(tt.body))
		if tt.wantErr != "" {
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("parseRequest(%q) error = %v, want %q", tt.line, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseRequest(%q) = %+v, %v", tt.line, got, err)
		}
	}
}
