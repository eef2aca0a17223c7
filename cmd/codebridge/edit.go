package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"pkt.systems/codebridge"
	"pkt.systems/codebridge/internal/appconfig"
	"pkt.systems/codebridge/schema"
	"pkt.systems/codebridge/session"
	"pkt.systems/pslog"
)

var mimeByExt = map[string]string{
	".c":     "text/x-csrc",
	".css":   "text/css",
	".go":    "text/x-go",
	".html":  "text/html",
	".java":  "text/x-java",
	".js":    "text/javascript",
	".json":  "application/json",
	".md":    "text/x-markdown",
	".py":    "text/x-python",
	".rs":    "text/x-rustsrc",
	".sh":    "text/x-sh",
	".sql":   "text/x-sql",
	".swift": "text/x-swift",
	".ts":    "application/typescript",
	".xml":   "application/xml",
	".yaml":  "text/x-yaml",
	".yml":   "text/x-yaml",
}

func mimeForPath(path string) string {
	if mime, ok := mimeByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return schema.DefaultMimeType
}

func newEditCmd() *cobra.Command {
	var cfgPath string
	var headless bool
	var transport string
	cmd := &cobra.Command{
		Use:   "edit FILE",
		Short: "Open FILE in an engine and print every edit to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			cfg.Engine.Headless = headless
			if transport != "" {
				cfg.Engine.Transport = transport
			}
			return runEdit(cmd.Context(), cfg, args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&headless, "headless", false, "run Chrome without a window")
	cmd.Flags().StringVar(&transport, "transport", "", "engine transport: chromedp or websocket")
	return cmd
}

func runEdit(ctx context.Context, cfg appconfig.Config, path string, w io.Writer, hostOpts ...codebridge.Option) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	host, err := startHost(ctx, cfg, hostOpts...)
	if err != nil {
		return err
	}
	logger := pslog.Ctx(ctx)

	editor := cfg.Editor
	editor.MimeType = mimeForPath(path)
	var (
		mu      sync.Mutex
		changes int
	)
	sess, err := host.OpenSession(ctx, session.Options{
		Mode:     schema.ModeDocument,
		Config:   editor,
		Contents: schema.Contents{schema.SlotContent: string(data)},
		Callbacks: session.Callbacks{
			OnContentChange: func(_ schema.Slot, value string) {
				mu.Lock()
				defer mu.Unlock()
				changes++
				_, _ = fmt.Fprintf(w, "--- %s (change %d, %d bytes)\n%s\n", path, changes, len(value), value)
			},
			OnLoadFail: func(err error) {
				logger.Warn("edit engine failed to load", "err", err)
				cancel()
			},
		},
	})
	if err != nil {
		return err
	}
	if !sess.Attached() {
		logger.Info("open the editor page to start editing", "url", host.PageURL(sess))
	}

	events, unsubscribe := host.Events().Subscribe(sess.ID())
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok || event.Kind == schema.EventClosed {
				return nil
			}
			if event.Kind == schema.EventReady {
				logger.Info("editing", "file", path, "session", sess.ID())
			}
		}
	}
}
