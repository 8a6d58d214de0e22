package logger

import "testing"

func TestNew_Levels(t *testing.T) {
	for _, lvl := range []string{"", "debug", "info", "WARN", "error"} {
		log, err := New(lvl)
		if err != nil {
			t.Fatalf("level %q: %v", lvl, err)
		}
		_ = log.Sync()
	}
}

func TestNew_UnknownLevel(t *testing.T) {
	if _, err := New("chatty"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
