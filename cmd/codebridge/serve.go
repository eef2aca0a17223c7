package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/codebridge"
	"pkt.systems/codebridge/internal/appconfig"
	"pkt.systems/pslog"
)

const stopTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	var transport string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve engine pages, the bridge endpoint and the session API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			if transport != "" {
				cfg.Engine.Transport = transport
			}
			host, err := startHost(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			logger.Info("codebridge serving", "origin", host.Origin(), "transport", cfg.Engine.Transport)
			return host.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	cmd.Flags().StringVar(&transport, "transport", "", "engine transport: chromedp or websocket")
	return cmd
}

// startHost builds and starts a Host that stops when ctx ends.
func startHost(ctx context.Context, cfg appconfig.Config, opts ...codebridge.Option) (*codebridge.Host, error) {
	if err := appconfig.Validate(cfg); err != nil {
		return nil, err
	}
	hostCfg, err := toHostConfig(cfg)
	if err != nil {
		return nil, err
	}
	host, err := codebridge.New(hostCfg, toChromeConfig(cfg), opts...)
	if err != nil {
		return nil, err
	}
	if err := host.Start(ctx); err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := host.Stop(stopCtx); err != nil {
			pslog.Ctx(ctx).Warn("host stop failed", "err", err)
		}
	}()
	return host, nil
}
