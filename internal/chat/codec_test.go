package chat

import (
	"io"
	"strings"
	"testing"
)

func TestParseLine_CommandRecognition(t *testing.T) {
	cases := []struct {
		in   string
		kind CommandKind
		arg  string
	}{
		{"LOGIN Alice", CmdLogin, "Alice"},
		{"login alice", CmdLogin, "alice"},
		{"  MSG   hello world ", CmdMsg, "hello world"},
		{"WHO", CmdWho, ""},
		{"dm Bob hi there", CmdDM, "Bob hi there"},
		{"PING", CmdPing, ""},
		{"FROBNICATE now", CmdUnknown, "now"},
	}
	for _, c := range cases {
		cmd, ok := ParseLine(c.in)
		if !ok {
			t.Fatalf("ParseLine(%q) skipped, want command", c.in)
		}
		if cmd.Kind != c.kind || cmd.Arg != c.arg {
			t.Errorf("ParseLine(%q) = (%v, %q), want (%v, %q)", c.in, cmd.Kind, cmd.Arg, c.kind, c.arg)
		}
	}
}

func TestParseLine_SkipsBlankLines(t *testing.T) {
	for _, in := range []string{"", "   ", "\t"} {
		if _, ok := ParseLine(in); ok {
			t.Errorf("ParseLine(%q) dispatched, want skip", in)
		}
	}
}

func TestLineReader_SplitsAndBuffers(t *testing.T) {
	lr := NewLineReader(strings.NewReader("PING\r\nMSG hello\nWHO"))

	for i, want := range []string{"PING", "MSG hello", "WHO"} {
		got, err := lr.Next()
		if err != nil {
			t.Fatalf("line %d: unexpected error %v", i, err)
		}
		if got != want {
			t.Fatalf("line %d = %q, want %q", i, got, want)
		}
	}
	if _, err := lr.Next(); err != io.EOF {
		t.Fatalf("expected EOF after last line, got %v", err)
	}
}

func TestLineReader_DiscardsInvalidUTF8(t *testing.T) {
	lr := NewLineReader(strings.NewReader("MSG he\xffllo\n"))
	got, err := lr.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "MSG hello" {
		t.Fatalf("got %q, want invalid bytes stripped", got)
	}
}

func TestSplitOnce(t *testing.T) {
	target, text := splitOnce("Bob   hey  you")
	if target != "Bob" || text != "hey  you" {
		t.Fatalf("splitOnce = (%q, %q)", target, text)
	}
	if target, text := splitOnce("Bob"); target != "Bob" || text != "" {
		t.Fatalf("single token splitOnce = (%q, %q)", target, text)
	}
}

func TestNormalizeText(t *testing.T) {
	if got := normalizeText("  hi\t there   everyone "); got != "hi there everyone" {
		t.Fatalf("normalizeText = %q", got)
	}
}
