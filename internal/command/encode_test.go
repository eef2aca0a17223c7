package command

import (
	"errors"
	"strings"
	"testing"

	"pkt.systems/codebridge/schema"
)

func TestScriptLiterals(t *testing.T) {
	cases := []struct {
		name string
		op   Op
		args []Arg
		want string
	}{
		{"bool", OpSetReadOnly, []Arg{Bool(true)}, "SetReadOnly(true)"},
		{"int", OpSetFontSize, []Arg{Int(14)}, "SetFontSize(14)"},
		{"ident", OpSetTheme, []Arg{Ident("material-palenight")}, "SetTheme('material-palenight')"},
		{"text", OpSetContent, []Arg{Text("hi\n")}, `SetContent("68690a")`},
		{"empty text", OpSetLeftContent, []Arg{Text("")}, `SetLeftContent("")`},
		{"getter", OpIsClean, nil, "IsClean()"},
	}
	for _, tc := range cases {
		cmd, err := New(tc.op, tc.args...)
		if err != nil {
			t.Fatalf("case %q: New: %v", tc.name, err)
		}
		if got := cmd.Script(); got != tc.want {
			t.Fatalf("case %q: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestTextNeverEmbedsRawContent(t *testing.T) {
	hostile := "\"); window.pwned = true; (\"\\'\n\r\x00`${x}`"
	cmd, err := SetContent(schema.SlotRight, hostile)
	if err != nil {
		t.Fatalf("SetContent: %v", err)
	}
	script := cmd.Script()
	inner := strings.TrimSuffix(strings.TrimPrefix(script, `SetRightContent("`), `")`)
	for _, r := range inner {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("expected hex-only payload, got %q", script)
		}
	}
}

func TestEscapeSingleQuotedOrder(t *testing.T) {
	got := EscapeSingleQuoted("a\\'b\nc\rd")
	want := `a\\\'b\nc\rd`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNewRejectsBadSignatures(t *testing.T) {
	if _, err := New("Eval"); !errors.Is(err, schema.ErrUnknownOp) {
		t.Fatalf("expected ErrUnknownOp, got %v", err)
	}
	if _, err := New(OpSetTheme); err == nil {
		t.Fatalf("expected arity error")
	}
	if _, err := New(OpSetTheme, Text("dracula")); err == nil {
		t.Fatalf("expected kind error")
	}
	if _, err := New(OpSetTheme, Ident("x'); alert(1); ('")); !errors.Is(err, schema.ErrUnsafeIdentifier) {
		t.Fatalf("expected ErrUnsafeIdentifier, got %v", err)
	}
}

func TestSetOptionMapsKinds(t *testing.T) {
	cmd, err := SetOption(schema.OptionShowInvisibles, true)
	if err != nil {
		t.Fatalf("SetOption: %v", err)
	}
	if cmd.Script() != "ToggleInvisible(true)" {
		t.Fatalf("unexpected script %q", cmd.Script())
	}
	if _, err := SetOption(schema.OptionTabSize, "4"); !errors.Is(err, schema.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
}

func TestSlotCommands(t *testing.T) {
	for _, slot := range []schema.Slot{schema.SlotContent, schema.SlotLeft, schema.SlotRight, schema.SlotOriginal, schema.SlotModified} {
		get, err := GetContent(slot)
		if err != nil {
			t.Fatalf("GetContent(%s): %v", slot, err)
		}
		if get.Result() != ResultString {
			t.Fatalf("expected string result for %s", get.Op)
		}
		if _, err := SetContent(slot, "x"); err != nil {
			t.Fatalf("SetContent(%s): %v", slot, err)
		}
	}
	if _, err := GetContent("middle"); !errors.Is(err, schema.ErrInvalidSlot) {
		t.Fatalf("expected ErrInvalidSlot, got %v", err)
	}
}
