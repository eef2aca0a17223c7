package main

import (
	"time"

	"pkt.systems/codebridge"
	"pkt.systems/codebridge/httpapi"
	"pkt.systems/codebridge/internal/appconfig"
)

func toHostConfig(cfg appconfig.Config) (codebridge.Config, error) {
	transport, err := codebridge.ParseTransport(cfg.Engine.Transport)
	if err != nil {
		return codebridge.Config{}, err
	}
	return codebridge.Config{
		HTTP:           toHTTPConfig(cfg),
		Transport:      transport,
		Editor:         cfg.Editor,
		MaxSessions:    cfg.Sessions.MaxSessions,
		EventBuffer:    cfg.Sessions.EventBuffer,
		CommandTimeout: seconds(cfg.Engine.CommandTimeoutSeconds),
	}, nil
}

func toHTTPConfig(cfg appconfig.Config) httpapi.Config {
	return httpapi.Config{
		Addr:           cfg.HTTP.Addr,
		BaseURL:        cfg.HTTP.BaseURL,
		BasePath:       cfg.HTTP.BasePath,
		AssetsDir:      cfg.Engine.AssetsDir,
		AllowedOrigins: cfg.Engine.AllowedOrigins,
		QueryTimeout:   seconds(cfg.HTTP.QueryTimeoutSeconds),
	}
}

func toChromeConfig(cfg appconfig.Config) codebridge.ChromeConfig {
	return codebridge.ChromeConfig{
		ChromePath:     cfg.Engine.ChromePath,
		Headless:       cfg.Engine.Headless,
		NoSandbox:      cfg.Engine.NoSandbox,
		StartupTimeout: seconds(cfg.Engine.StartupTimeoutSeconds),
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
