package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestAdvance(t *testing.T) {
	p := 0
	for i := 0; i < 18; i++ {
		p = Advance(p)
	}
	if p != 90 {
		t.Fatalf("after 18 ticks got %d, want 90", p)
	}
	p = Advance(p)
	if p != Ceiling {
		t.Fatalf("got %d, want %d", p, Ceiling)
	}
	if got := Advance(p); got != Ceiling {
		t.Errorf("Advance past ceiling = %d, want %d", got, Ceiling)
	}
	if got := Advance(93); got != Ceiling {
		t.Errorf("Advance(93) = %d, want %d", got, Ceiling)
	}
}

func TestIndicatorAdvancesAndCaps(t *testing.T) {
	var buf bytes.Buffer
	ind := StartIndicator(&buf,
		WithInterval(time.Millisecond),
		WithMessagePicker(func() string { return LoadingMessages[2] }),
	)

	deadline := time.Now().Add(2 * time.Second)
	for {
		p, _ := ind.State()
		if p == Ceiling {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("indicator stuck at %d%%", p)
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)

	p, msg := ind.State()
	if p != Ceiling {
		t.Errorf("percent = %d, want %d", p, Ceiling)
	}
	if msg != "Generating insights..." {
		t.Errorf("message = %q", msg)
	}

	ind.Stop(true)
	ind.Stop(false)
}

func TestIndicatorInitialState(t *testing.T) {
	ind := StartIndicator(&bytes.Buffer{}, WithInterval(time.Hour))
	defer ind.Stop(false)

	p, msg := ind.State()
	if p != 0 || msg != LoadingMessages[0] {
		t.Errorf("initial state = (%d, %q)", p, msg)
	}
}

func TestCIReporter(t *testing.T) {
	t.Setenv("CI", "true")
	var buf bytes.Buffer
	r := NewReporter(&buf)
	if _, ok := r.(*CIReporter); !ok {
		t.Fatalf("expected CIReporter, got %T", r)
	}
	r.Start(2)
	r.Update(1, "notes.txt")
	r.Update(2, "essay.txt")
	r.Finish()

	out := buf.String()
	for _, want := range []string{"Running 2 tasks", "[1/2] notes.txt", "[2/2] essay.txt", "Batch complete"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTerminalReporter(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	var buf bytes.Buffer
	r := NewReporter(&buf)
	if _, ok := r.(*TerminalReporter); !ok {
		t.Fatalf("expected TerminalReporter, got %T", r)
	}
	r.Start(3)
	r.Update(1, "a.txt")
	r.Finish()
	if buf.Len() == 0 {
		t.Error("expected progress output")
	}
}
