package session

import (
	"fmt"

	"pkt.systems/codebridge/internal/channel"
	"pkt.systems/codebridge/internal/command"
	"pkt.systems/codebridge/schema"
)

// maxPendingEchoes bounds the host writes remembered per slot while their
// change notifications are outstanding.
const maxPendingEchoes = 16

// SetContent replaces the text of slot. The value becomes the last known
// engine value so the change event echoing it is not reported back.
func (s *Session) SetContent(slot schema.Slot, text string) error {
	if !s.mode.HasSlot(slot) {
		return fmt.Errorf("%w: %s has no %q buffer", schema.ErrInvalidSlot, s.mode, slot)
	}
	cmd, err := command.SetContent(slot, text)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.known[slot] = text
	delete(s.writing, slot)
	pending := append(s.echoes[slot], text)
	if len(pending) > maxPendingEchoes {
		pending = pending[len(pending)-maxPendingEchoes:]
	}
	s.echoes[slot] = pending
	s.mu.Unlock()
	s.send(cmd, nil)
	return nil
}

// Content reads the current text of slot. cb receives "" when the engine
// cannot answer.
func (s *Session) Content(slot schema.Slot, cb func(string)) error {
	if !s.mode.HasSlot(slot) {
		return fmt.Errorf("%w: %s has no %q buffer", schema.ErrInvalidSlot, s.mode, slot)
	}
	cmd, err := command.GetContent(slot)
	if err != nil {
		return err
	}
	s.send(cmd, func(res channel.Result) {
		if cb != nil {
			cb(res.String(""))
		}
	})
	return nil
}

// SetOption pushes one display option unconditionally and records it as
// the last pushed value.
func (s *Session) SetOption(opt schema.Option, value any) error {
	if name, ok := value.(schema.ThemeName); ok {
		value = string(name)
	}
	cmd, err := command.SetOption(opt, value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.pushed[opt] = value
	s.mu.Unlock()
	s.send(cmd, nil)
	return nil
}

// SetMimeType selects the language mode.
func (s *Session) SetMimeType(mime string) error {
	return s.SetOption(schema.OptionMimeType, mime)
}

// SetTheme selects the color theme. Known aliases are resolved first.
func (s *Session) SetTheme(name string) error {
	if theme, ok := schema.NormalizeThemeName(name); ok {
		name = string(theme)
	}
	return s.SetOption(schema.OptionTheme, name)
}

// SetFontSize sets the font size in points.
func (s *Session) SetFontSize(size int) error {
	return s.SetOption(schema.OptionFontSize, size)
}

// SetShowInvisibles toggles rendering of invisible characters.
func (s *Session) SetShowInvisibles(show bool) error {
	return s.SetOption(schema.OptionShowInvisibles, show)
}

// SetLineWrapping toggles soft wrapping.
func (s *Session) SetLineWrapping(wrap bool) error {
	return s.SetOption(schema.OptionLineWrapping, wrap)
}

// SetReadOnly toggles editing.
func (s *Session) SetReadOnly(readOnly bool) error {
	return s.SetOption(schema.OptionReadOnly, readOnly)
}

// SetTabSize sets the tab width.
func (s *Session) SetTabSize(size int) error {
	return s.SetOption(schema.OptionTabSize, size)
}

// SetIndentUnit sets the indent width.
func (s *Session) SetIndentUnit(size int) error {
	return s.SetOption(schema.OptionIndentUnit, size)
}

// SetTabInsertSpaces makes the tab key insert spaces.
func (s *Session) SetTabInsertSpaces(spaces bool) error {
	return s.SetOption(schema.OptionTabInsertSpaces, spaces)
}

// ClearHistory drops the engine's undo history.
func (s *Session) ClearHistory() {
	s.sendOp(command.OpClearHistory)
}

// RefreshDiffView asks a diff engine to recompute its highlighting.
func (s *Session) RefreshDiffView() error {
	if !s.mode.IsDiff() {
		return fmt.Errorf("%w: %s has no diff view", schema.ErrInvalidMode, s.mode)
	}
	s.sendOp(command.OpRefreshDiffView)
	return nil
}

// IsClean reports whether the engine has unsaved edits. Defaults to true.
func (s *Session) IsClean(cb func(bool)) {
	s.queryBool(command.OpIsClean, true, cb)
}

// ReadOnly reports the engine read-only flag. Defaults to false.
func (s *Session) ReadOnly(cb func(bool)) {
	s.queryBool(command.OpGetReadOnly, false, cb)
}

// LineWrapping reports the engine wrapping flag. Defaults to false.
func (s *Session) LineWrapping(cb func(bool)) {
	s.queryBool(command.OpGetLineWrapping, false, cb)
}

// TabInsertSpaces reports whether tab inserts spaces. Defaults to true.
func (s *Session) TabInsertSpaces(cb func(bool)) {
	s.queryBool(command.OpGetTabInsertSpaces, true, cb)
}

// TabSize reports the tab width. Defaults to 4.
func (s *Session) TabSize(cb func(int)) {
	s.queryInt(command.OpGetTabSize, schema.DefaultTabSize, cb)
}

// IndentUnit reports the indent width. Defaults to 2.
func (s *Session) IndentUnit(cb func(int)) {
	s.queryInt(command.OpGetIndentUnit, schema.DefaultIndentUnit, cb)
}

// MimeType reports the active language mode. Defaults to "".
func (s *Session) MimeType(cb func(string)) {
	s.queryString(command.OpGetMimeType, cb)
}

// TextSelection reports the selected text. Defaults to "".
func (s *Session) TextSelection(cb func(string)) {
	s.queryString(command.OpGetTextSelection, cb)
}

// SupportedMimeTypes lists the language modes the engine can load.
// Defaults to an empty list.
func (s *Session) SupportedMimeTypes(cb func([]string)) {
	s.query(command.OpSupportedMimeTypes, func(res channel.Result) {
		types := res.Strings()
		if types == nil {
			types = []string{}
		}
		cb(types)
	}, cb != nil)
}

func (s *Session) sendOp(op command.Op) {
	cmd, err := command.New(op)
	if err != nil {
		s.log.Error("engine command rejected", "op", op, "err", err)
		return
	}
	s.send(cmd, nil)
}

func (s *Session) query(op command.Op, cb channel.Callback, wanted bool) {
	if !wanted {
		return
	}
	cmd, err := command.New(op)
	if err != nil {
		s.log.Error("engine query rejected", "op", op, "err", err)
		cb(channel.Result{Err: err})
		return
	}
	s.send(cmd, cb)
}

func (s *Session) queryBool(op command.Op, def bool, cb func(bool)) {
	s.query(op, func(res channel.Result) { cb(res.Bool(def)) }, cb != nil)
}

func (s *Session) queryInt(op command.Op, def int, cb func(int)) {
	s.query(op, func(res channel.Result) { cb(res.Int(def)) }, cb != nil)
}

func (s *Session) queryString(op command.Op, cb func(string)) {
	s.query(op, func(res channel.Result) { cb(res.String("")) }, cb != nil)
}
