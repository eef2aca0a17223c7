package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/codebridge"
	"pkt.systems/codebridge/internal/appconfig"
	"pkt.systems/codebridge/schema"
	"pkt.systems/codebridge/session"
	"pkt.systems/pslog"
)

type diffOptions struct {
	mode    schema.Mode
	timeout time.Duration
}

func newDiffCmd() *cobra.Command {
	var cfgPath string
	var mode string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "diff LEFT RIGHT",
		Short: "Load two files into a headless diff engine and report what it holds",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			parsed, err := schema.ParseMode(mode)
			if err != nil {
				return err
			}
			if !parsed.IsDiff() {
				return fmt.Errorf("%w: diff needs a two-buffer mode, got %s", schema.ErrInvalidMode, parsed)
			}
			cfg.HTTP.Addr = "127.0.0.1:0"
			cfg.HTTP.BaseURL = ""
			cfg.Engine.Transport = string(codebridge.TransportChromedp)
			cfg.Engine.Headless = true
			return runDiff(cmd.Context(), cfg, args[0], args[1], diffOptions{mode: parsed, timeout: timeout}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&mode, "mode", string(schema.ModeCompare), "engine page: diff or compare")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "time to wait for the engine")
	return cmd
}

func runDiff(ctx context.Context, cfg appconfig.Config, leftPath, rightPath string, opts diffOptions, w io.Writer, hostOpts ...codebridge.Option) error {
	left, err := os.ReadFile(leftPath)
	if err != nil {
		return err
	}
	right, err := os.ReadFile(rightPath)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	host, err := startHost(ctx, cfg, hostOpts...)
	if err != nil {
		return err
	}

	slots := opts.mode.Slots()
	paths := []string{leftPath, rightPath}
	sess, err := host.OpenSession(ctx, session.Options{
		Mode: opts.mode,
		Contents: schema.Contents{
			slots[0]: string(left),
			slots[1]: string(right),
		},
	})
	if err != nil {
		return err
	}
	waitCtx, waitCancel := context.WithTimeout(ctx, opts.timeout)
	defer waitCancel()
	if err := sess.WaitReady(waitCtx); err != nil {
		return fmt.Errorf("engine not ready: %w", err)
	}
	pslog.Ctx(ctx).Debug("diff engine ready", "session", sess.ID(), "mode", opts.mode)

	values := make([]string, len(slots))
	for i, slot := range slots {
		value, err := session.AwaitContent(waitCtx, sess, slot)
		if err != nil {
			return err
		}
		values[i] = value
		sum := sha256.Sum256([]byte(value))
		if _, err := fmt.Fprintf(w, "%-8s %s %d bytes sha256:%s\n", slot, paths[i], len(value), hex.EncodeToString(sum[:])); err != nil {
			return err
		}
	}
	clean, err := session.Await(waitCtx, sess.IsClean)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "identical %v\nclean %v\n", values[0] == values[1], clean); err != nil {
		return err
	}
	return host.CloseSession(sess.ID())
}
