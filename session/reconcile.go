package session

import (
	"errors"
	"fmt"

	"pkt.systems/codebridge/internal/channel"
	"pkt.systems/codebridge/internal/command"
	"pkt.systems/codebridge/schema"
)

// State is the display state the host wants the engine to show.
type State struct {
	// Config is normalized before comparison. Nil leaves every option as
	// last pushed.
	Config *schema.EditorConfig
	// Contents holds the desired text per slot. Slots left out are not
	// touched.
	Contents schema.Contents
}

// Delta lists what one reconcile pass sent.
type Delta struct {
	// Options were pushed because they differ from the last pushed value.
	Options []schema.Option
	// Checked slots were read back from the engine before writing.
	Checked []schema.Slot
}

// Empty reports whether the pass sent nothing.
func (d Delta) Empty() bool {
	return len(d.Options) == 0 && len(d.Checked) == 0
}

// Reconcile brings the engine in line with desired. When desired.Config is
// set, options equal to the last pushed value are skipped. A slot whose desired text equals the last
// known engine text is skipped; otherwise the engine text is read and the
// slot is written only if it differs.
func (s *Session) Reconcile(desired State) (Delta, error) {
	var (
		delta Delta
		errs  []error
	)
	if desired.Config != nil {
		if err := s.reconcileOptions(*desired.Config, &delta); err != nil {
			errs = append(errs, err)
		}
	}
	for _, slot := range s.mode.Slots() {
		want, ok := desired.Contents[slot]
		if !ok {
			continue
		}
		checked, err := s.reconcileSlot(slot, want)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if checked {
			delta.Checked = append(delta.Checked, slot)
		}
	}
	for slot := range desired.Contents {
		if !s.mode.HasSlot(slot) {
			errs = append(errs, fmt.Errorf("%w: %s has no %q buffer", schema.ErrInvalidSlot, s.mode, slot))
		}
	}
	if len(delta.Options) > 0 || len(delta.Checked) > 0 {
		s.log.Debug("reconciled", "options", len(delta.Options), "slots", len(delta.Checked))
	}
	return delta, errors.Join(errs...)
}

func (s *Session) reconcileOptions(desired schema.EditorConfig, delta *Delta) error {
	cfg, err := schema.NormalizeEditorConfig(desired)
	if err != nil {
		return err
	}
	var errs []error
	for _, opt := range schema.Options() {
		value, _ := cfg.Value(opt)
		s.mu.Lock()
		prev, pushed := s.pushed[opt]
		s.mu.Unlock()
		if pushed && prev == value {
			continue
		}
		if err := s.SetOption(opt, value); err != nil {
			errs = append(errs, err)
			continue
		}
		delta.Options = append(delta.Options, opt)
	}
	return errors.Join(errs...)
}

func (s *Session) reconcileSlot(slot schema.Slot, want string) (bool, error) {
	s.mu.Lock()
	if known, ok := s.known[slot]; ok && known == want {
		s.mu.Unlock()
		return false, nil
	}
	if pending, ok := s.writing[slot]; ok && pending == want {
		s.mu.Unlock()
		return false, nil
	}
	s.writing[slot] = want
	s.mu.Unlock()

	read, err := command.GetContent(slot)
	if err != nil {
		return false, err
	}
	s.send(read, func(res channel.Result) {
		s.mu.Lock()
		if pending, ok := s.writing[slot]; !ok || pending != want {
			// A newer write or reconcile superseded this one.
			s.mu.Unlock()
			return
		}
		delete(s.writing, slot)
		s.mu.Unlock()
		if !res.OK() {
			s.log.Debug("content read failed; slot left as is", "slot", slot, "err", res.Err)
			return
		}
		current, ok := res.Text()
		if !ok {
			s.log.Debug("content read returned no text; slot left as is", "slot", slot)
			return
		}
		if current == want {
			s.mu.Lock()
			s.known[slot] = want
			s.mu.Unlock()
			return
		}
		if err := s.SetContent(slot, want); err != nil {
			s.log.Warn("content write failed", "slot", slot, "err", err)
		}
	})
	return true, nil
}
