package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/codebridge/engine/enginetest"
	"pkt.systems/codebridge/internal/command"
	"pkt.systems/codebridge/schema"
	"pkt.systems/codebridge/session"
)

func newSelftestCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Check protocol properties against the in-process engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if failed := runSelftest(ctx, cmd.OutOrStdout()); failed > 0 {
				return fmt.Errorf("selftest: %d check(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall time limit")
	return cmd
}

type selfCheck struct {
	name string
	run  func(ctx context.Context) error
}

var selfChecks = []selfCheck{
	{"content round-trips through the encoder", checkRoundTrip},
	{"commands before ready run in issue order", checkOrdering},
	{"host writes are not echoed as user edits", checkEchoSuppression},
	{"user edits are reported once", checkUserEdit},
	{"reconciling unchanged state sends nothing", checkReconcileIdempotent},
	{"failed getters resolve to defaults", checkGetterDefaults},
}

// runSelftest runs every check and returns the number of failures.
func runSelftest(ctx context.Context, w io.Writer) int {
	failed := 0
	for _, check := range selfChecks {
		err := check.run(ctx)
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(w, "FAIL %s: %v\n", check.name, err)
			continue
		}
		_, _ = fmt.Fprintf(w, "ok   %s\n", check.name)
	}
	return failed
}

var awkwardTexts = []string{
	"",
	"plain",
	"it's \"quoted\" \\ and `ticked` ${x}",
	"line\r\nbreaks\n\ttabs separator",
	"nul\x00byte and \x1b escape",
	"</script><script>alert(1)</script>",
	"emoji 🚀 and ÅÄÖ",
}

func selftestSession(ctx context.Context, mode schema.Mode, opts session.Options) (*session.Session, *enginetest.Engine, error) {
	opts.Mode = mode
	sess, err := session.New(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	eng := enginetest.New(sess, mode)
	if err := sess.Attach(eng); err != nil {
		return nil, nil, err
	}
	return sess, eng, nil
}

func settle(ctx context.Context, sess *session.Session) error {
	_, err := session.Await(ctx, sess.IsClean)
	return err
}

func checkRoundTrip(ctx context.Context) error {
	for _, mode := range []schema.Mode{schema.ModeDocument, schema.ModeDiff, schema.ModeCompare} {
		sess, eng, err := selftestSession(ctx, mode, session.Options{})
		if err != nil {
			return err
		}
		eng.SignalReady()
		for _, text := range awkwardTexts {
			for _, slot := range mode.Slots() {
				if err := sess.SetContent(slot, text); err != nil {
					return err
				}
				got, err := session.AwaitContent(ctx, sess, slot)
				if err != nil {
					return err
				}
				if got != text {
					return fmt.Errorf("%s/%s: wrote %q, read %q", mode, slot, text, got)
				}
			}
		}
		_ = sess.Close()
	}
	return nil
}

func checkOrdering(ctx context.Context) error {
	sess, eng, err := selftestSession(ctx, schema.ModeDocument, session.Options{})
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := sess.SetTheme("palenight"); err != nil {
		return err
	}
	if err := sess.SetFontSize(18); err != nil {
		return err
	}
	if err := sess.SetContent(schema.SlotContent, "after"); err != nil {
		return err
	}
	if eng.Count(command.OpSetContent) != 0 {
		return errors.New("engine ran commands before ready")
	}
	eng.SignalReady()
	if err := settle(ctx, sess); err != nil {
		return err
	}
	ops := eng.Ops()
	want := []command.Op{command.OpSetTheme, command.OpSetFontSize, command.OpSetContent, command.OpIsClean}
	if len(ops) < len(want) || !slices.Equal(ops[len(ops)-len(want):], want) {
		return fmt.Errorf("unexpected command order %v", ops)
	}
	if got := eng.Slot(schema.SlotContent); got != "after" {
		return fmt.Errorf("engine content %q", got)
	}
	return nil
}

type countingSink struct {
	changes int
}

func (c *countingSink) OnSessionEvent(event schema.Event) {
	if event.Kind == schema.EventContentChanged {
		c.changes++
	}
}

func checkEchoSuppression(ctx context.Context) error {
	sink := &countingSink{}
	sess, eng, err := selftestSession(ctx, schema.ModeDiff, session.Options{Sink: sink})
	if err != nil {
		return err
	}
	defer sess.Close()
	eng.AutoEcho = true
	eng.SignalReady()
	for _, text := range []string{"a", "b", "c"} {
		if err := sess.SetContent(schema.SlotLeft, text); err != nil {
			return err
		}
	}
	if err := settle(ctx, sess); err != nil {
		return err
	}
	if sink.changes != 0 {
		return fmt.Errorf("%d host write(s) reported as edits", sink.changes)
	}
	return nil
}

func checkUserEdit(ctx context.Context) error {
	var seen []string
	sess, eng, err := selftestSession(ctx, schema.ModeDiff, session.Options{
		Contents: schema.Contents{schema.SlotLeft: "l", schema.SlotRight: "r"},
		Callbacks: session.Callbacks{OnContentChange: func(slot schema.Slot, value string) {
			seen = append(seen, string(slot)+"="+value)
		}},
	})
	if err != nil {
		return err
	}
	defer sess.Close()
	eng.SignalReady()
	if err := settle(ctx, sess); err != nil {
		return err
	}
	eng.Edit(schema.SlotRight, "r2")
	eng.Edit(schema.SlotRight, "r2")
	if !slices.Equal(seen, []string{"right=r2"}) {
		return fmt.Errorf("unexpected change reports %v", seen)
	}
	return nil
}

func checkReconcileIdempotent(ctx context.Context) error {
	sess, eng, err := selftestSession(ctx, schema.ModeDocument, session.Options{})
	if err != nil {
		return err
	}
	defer sess.Close()
	eng.SignalReady()
	cfg := schema.DefaultEditorConfig()
	cfg.Theme = "palenight"
	desired := session.State{
		Config:   &cfg,
		Contents: schema.Contents{schema.SlotContent: "doc"},
	}
	if _, err := sess.Reconcile(desired); err != nil {
		return err
	}
	// The content write is queued from the read callback, so settle twice.
	for range 2 {
		if err := settle(ctx, sess); err != nil {
			return err
		}
	}
	before := len(eng.Ops())
	delta, err := sess.Reconcile(desired)
	if err != nil {
		return err
	}
	if err := settle(ctx, sess); err != nil {
		return err
	}
	if !delta.Empty() {
		return fmt.Errorf("second pass produced %+v", delta)
	}
	if extra := eng.Ops()[before:]; !slices.Equal(extra, []command.Op{command.OpIsClean}) {
		return fmt.Errorf("second pass sent %v", extra)
	}
	return nil
}

func checkGetterDefaults(ctx context.Context) error {
	sess, eng, err := selftestSession(ctx, schema.ModeDocument, session.Options{})
	if err != nil {
		return err
	}
	defer sess.Close()
	eng.SignalReady()
	boom := errors.New("engine exploded")
	eng.Fail(command.OpGetTabSize, boom)
	eng.Fail(command.OpIsClean, boom)
	tab, err := session.Await(ctx, sess.TabSize)
	if err != nil {
		return err
	}
	clean, err := session.Await(ctx, sess.IsClean)
	if err != nil {
		return err
	}
	if tab != 4 || !clean {
		return fmt.Errorf("defaults were tab_size=%d clean=%v", tab, clean)
	}
	return nil
}
