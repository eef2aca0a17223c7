package command

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"pkt.systems/codebridge/schema"
)

// ArgKind selects how an argument is rendered into a script.
type ArgKind int

const (
	// ArgBool renders as a bare true/false literal.
	ArgBool ArgKind = iota
	// ArgInt renders as a decimal literal.
	ArgInt
	// ArgIdent renders as an escaped single-quoted literal. Only values
	// passing schema.ValidateIdentifier are accepted.
	ArgIdent
	// ArgText renders as a double-quoted hex string of the UTF-8 bytes;
	// the engine decodes it before assignment.
	ArgText
)

func (k ArgKind) String() string {
	switch k {
	case ArgBool:
		return "bool"
	case ArgInt:
		return "int"
	case ArgIdent:
		return "ident"
	case ArgText:
		return "text"
	default:
		return "unknown"
	}
}

// Arg is a typed command argument.
type Arg struct {
	kind ArgKind
	b    bool
	i    int
	s    string
}

// Bool returns a boolean argument.
func Bool(v bool) Arg { return Arg{kind: ArgBool, b: v} }

// Int returns an integer argument.
func Int(v int) Arg { return Arg{kind: ArgInt, i: v} }

// Ident returns a restricted-charset string argument.
func Ident(v string) Arg { return Arg{kind: ArgIdent, s: v} }

// Text returns an arbitrary text argument.
func Text(v string) Arg { return Arg{kind: ArgText, s: v} }

// Kind returns the argument kind.
func (a Arg) Kind() ArgKind { return a.kind }

// Value returns the Go value carried by the argument.
func (a Arg) Value() any {
	switch a.kind {
	case ArgBool:
		return a.b
	case ArgInt:
		return a.i
	default:
		return a.s
	}
}

func (a Arg) literal() string {
	switch a.kind {
	case ArgBool:
		return strconv.FormatBool(a.b)
	case ArgInt:
		return strconv.Itoa(a.i)
	case ArgIdent:
		return "'" + EscapeSingleQuoted(a.s) + "'"
	default:
		return `"` + hex.EncodeToString([]byte(a.s)) + `"`
	}
}

// Command is one validated call into the engine.
type Command struct {
	Op   Op
	Args []Arg
}

// New validates args against the operation signature.
func New(op Op, args ...Arg) (Command, error) {
	spec, ok := ops[op]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", schema.ErrUnknownOp, op)
	}
	if len(args) != len(spec.args) {
		return Command{}, fmt.Errorf("%s: expected %d argument(s), got %d", op, len(spec.args), len(args))
	}
	for i, arg := range args {
		if arg.kind != spec.args[i] {
			return Command{}, fmt.Errorf("%s: argument %d must be %s, got %s", op, i, spec.args[i], arg.kind)
		}
		if arg.kind == ArgIdent {
			if err := schema.ValidateIdentifier(arg.s); err != nil {
				return Command{}, fmt.Errorf("%s: %w", op, err)
			}
		}
	}
	return Command{Op: op, Args: args}, nil
}

// Script renders the command as an engine expression.
func (c Command) Script() string {
	var b strings.Builder
	b.WriteString(string(c.Op))
	b.WriteByte('(')
	for i, arg := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.literal())
	}
	b.WriteByte(')')
	return b.String()
}

func (c Command) String() string {
	return string(c.Op)
}

// Result returns the value type the command answers with.
func (c Command) Result() ResultKind {
	return c.Op.Result()
}

var singleQuoteEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
)

// EscapeSingleQuoted escapes backslash, single quote, newline and carriage
// return for a single-quoted literal. It is only safe for identifiers; text
// content always goes through ArgText.
func EscapeSingleQuoted(s string) string {
	return singleQuoteEscaper.Replace(s)
}
