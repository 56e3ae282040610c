package notification

import (
	"errors"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	short := "你好 world"
	if got := Truncate(short); got != short {
		t.Errorf("Truncate(short) = %q", got)
	}
	long := strings.Repeat("字", 250)
	got := Truncate(long)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != 203 {
		t.Errorf("Truncate(long) has %d runes", len([]rune(got)))
	}
}

func TestShow(t *testing.T) {
	orig := notify
	defer func() { notify = orig }()

	var title, msg string
	notify = func(tt, m string) error {
		title, msg = tt, m
		return nil
	}
	if err := Show("Translation", strings.Repeat("a", 300)); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if title != "Translation" || len(msg) != 203 {
		t.Errorf("notify(%q, %d chars)", title, len(msg))
	}

	notify = func(string, string) error { return errors.New("no notification daemon") }
	if err := Show("x", "y"); err == nil {
		t.Error("expected error")
	}
}

func TestShowBlockingError(t *testing.T) {
	orig := alert
	defer func() { alert = orig }()

	called := false
	alert = func(title, message string) error {
		called = title == "Startup failed" && message == "boom"
		return errors.New("headless")
	}
	ShowBlockingError("Startup failed", "boom")
	if !called {
		t.Error("alert not raised")
	}
}
