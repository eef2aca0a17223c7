package command

import (
	"testing"

	"pkt.systems/codebridge/schema"
)

func TestParseRoundTripsText(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"a\nb",
		"quotes ' \" ` and \\ backslashes",
		"crlf\r\n\ttabs",
		"nul\x00byte",
		"unicode: héllo, 日本語, 🚀",
		"func main() {\n\tfmt.Println(\"hi\")\n}\n",
	}
	for _, input := range inputs {
		cmd, err := SetContent(schema.SlotLeft, input)
		if err != nil {
			t.Fatalf("SetContent: %v", err)
		}
		parsed, err := Parse(cmd.Script())
		if err != nil {
			t.Fatalf("Parse(%q): %v", cmd.Script(), err)
		}
		if parsed.Op != OpSetLeftContent || len(parsed.Args) != 1 {
			t.Fatalf("unexpected parse result %+v", parsed)
		}
		if got := parsed.Args[0].Value(); got != input {
			t.Fatalf("expected %q, got %q", input, got)
		}
	}
}

func TestParseScalars(t *testing.T) {
	cases := []struct {
		script string
		op     Op
		value  any
	}{
		{"SetFontSize(18)", OpSetFontSize, 18},
		{"SetLineWrapping(false)", OpSetLineWrapping, false},
		{"SetMimeType('text/x-swift')", OpSetMimeType, "text/x-swift"},
		{"SetTabInsertSpaces(true);", OpSetTabInsertSpaces, true},
	}
	for _, tc := range cases {
		cmd, err := Parse(tc.script)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.script, err)
		}
		if cmd.Op != tc.op || cmd.Args[0].Value() != tc.value {
			t.Fatalf("Parse(%q) = %+v", tc.script, cmd)
		}
	}
}

func TestParseRejectsForeignScripts(t *testing.T) {
	for _, script := range []string{
		"alert(1)",
		"SetTheme('a', 'b')",
		"SetContent(\"zz\")",
		"document.body.innerHTML = ''",
		"SetTheme('it\\'s')",
	} {
		if _, err := Parse(script); err == nil {
			t.Fatalf("expected Parse(%q) to fail", script)
		}
	}
}
