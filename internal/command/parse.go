package command

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var scriptPattern = regexp.MustCompile(`^([A-Za-z]+)\((.*)\);?$`)

// Parse decodes a script produced by Command.Script. Only the literal forms
// the encoder emits are accepted.
func Parse(script string) (Command, error) {
	m := scriptPattern.FindStringSubmatch(strings.TrimSpace(script))
	if m == nil {
		return Command{}, fmt.Errorf("parse %q: not a command call", truncate(script))
	}
	op := Op(m[1])
	raw := strings.TrimSpace(m[2])
	if raw == "" {
		return New(op)
	}
	arg, err := parseLiteral(raw)
	if err != nil {
		return Command{}, fmt.Errorf("parse %s: %w", op, err)
	}
	return New(op, arg)
}

func parseLiteral(raw string) (Arg, error) {
	switch {
	case raw == "true":
		return Bool(true), nil
	case raw == "false":
		return Bool(false), nil
	case len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"':
		data, err := hex.DecodeString(raw[1 : len(raw)-1])
		if err != nil {
			return Arg{}, fmt.Errorf("text literal: %w", err)
		}
		return Text(string(data)), nil
	case len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'':
		value, err := unescapeSingleQuoted(raw[1 : len(raw)-1])
		if err != nil {
			return Arg{}, err
		}
		return Ident(value), nil
	default:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Arg{}, fmt.Errorf("unsupported literal %q", truncate(raw))
		}
		return Int(n), nil
	}
}

func unescapeSingleQuoted(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\'' {
			return "", fmt.Errorf("unescaped quote in literal")
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("dangling escape in literal")
		}
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case '\'':
			b.WriteByte('\'')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			return "", fmt.Errorf("unsupported escape \\%c", s[i])
		}
	}
	return b.String(), nil
}

func truncate(s string) string {
	if len(s) <= 64 {
		return s
	}
	return s[:64] + "..."
}
