package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/codebridge"
	"pkt.systems/codebridge/engine/cdp"
	"pkt.systems/codebridge/httpapi"
	"pkt.systems/codebridge/internal/appconfig"
	"pkt.systems/pslog"
)

var chromeCandidates = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"}

func newDoctorCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run codebridge diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			configPath := cfgPath
			if strings.TrimSpace(configPath) == "" {
				path, err := appconfig.DefaultConfigPath()
				if err != nil {
					return err
				}
				configPath = path
			}
			logger.Info("doctor start", "config", configPath, "transport", cfg.Engine.Transport)

			if err := checkListen(cfg.HTTP.Addr); err != nil {
				return err
			}
			logger.Info("doctor http addr ok", "addr", cfg.HTTP.Addr)

			for _, name := range httpapi.PageFiles {
				if _, err := httpapi.Assets().Open(name); err != nil {
					return fmt.Errorf("doctor assets: %w", err)
				}
			}
			logger.Info("doctor engine pages ok", "pages", len(httpapi.PageFiles))

			transport, err := codebridge.ParseTransport(cfg.Engine.Transport)
			if err != nil {
				return err
			}
			if transport != codebridge.TransportChromedp {
				logger.Info("doctor done", "note", "websocket transport needs no local browser")
				return nil
			}
			path, err := findChrome(cfg.Engine.ChromePath)
			if err != nil {
				return err
			}
			logger.Info("doctor chrome found", "path", path)
			chrome := toChromeConfig(cfg)
			chrome.ChromePath = path
			chrome.Headless = true
			if err := probeChrome(cmd.Context(), chrome); err != nil {
				return fmt.Errorf("doctor chrome: %w", err)
			}
			logger.Info("doctor chrome evaluate ok")
			logger.Info("doctor done")
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}

func checkListen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("doctor http addr %s: %w", addr, err)
	}
	return ln.Close()
}

func findChrome(configured string) (string, error) {
	if path := strings.TrimSpace(configured); path != "" {
		return exec.LookPath(path)
	}
	for _, name := range chromeCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no chrome binary found; set engine.chrome_path")
}

type discardListener struct{}

func (discardListener) Loaded()                         {}
func (discardListener) LoadFailed(error)                {}
func (discardListener) Receive(string, json.RawMessage) {}

// probeChrome starts a tab and evaluates a trivial expression in it.
func probeChrome(ctx context.Context, cfg codebridge.ChromeConfig) error {
	eng, err := cdp.Launch(ctx, cfg, discardListener{})
	if err != nil {
		return err
	}
	defer eng.Close()
	raw, err := eng.Evaluate(ctx, "6 * 7")
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(raw)) != "42" {
		return fmt.Errorf("unexpected evaluation result %s", raw)
	}
	return nil
}
