package cli

import (
	"fmt"

	"github.com/yildizm/prhistory/internal/client"
	"github.com/yildizm/prhistory/internal/config"
	"github.com/yildizm/prhistory/internal/history"
	"github.com/yildizm/prhistory/internal/logger"
	"github.com/yildizm/prhistory/internal/ui"
)

// sourceFlags are the per-command overrides for where history comes from
type sourceFlags struct {
	url     string
	file    string
	session string
	retries int
}

// runtimeEnv is what every history command needs once flags and config
// have been resolved
type runtimeEnv struct {
	cfg     *config.Config
	log     *logger.Logger
	fetcher history.Fetcher
	source  string
	file    string
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if outputFmt != "" {
		cfg.Output.DefaultFormat = outputFmt
	}
	if noColor {
		cfg.Output.ColorMode = "never"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func newEnv(flags *sourceFlags) (*runtimeEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.NewWithCallback("prhistory", func() bool {
		return isVerbose() || cfg.Output.Verbose
	})

	if flags.url != "" {
		cfg.Server.BaseURL = flags.url
		cfg.Source.File = ""
	}
	if flags.file != "" {
		cfg.Source.File = flags.file
	}
	if flags.session != "" {
		cfg.Server.SessionCookie = flags.session
	}
	if flags.retries >= 0 {
		cfg.Server.MaxRetries = flags.retries
	}

	env := &runtimeEnv{cfg: cfg, log: log}

	if cfg.Source.File != "" {
		fetcher, err := client.NewFileFetcher(cfg.Source.File)
		if err != nil {
			return nil, err
		}
		env.fetcher = fetcher
		env.source = cfg.Source.File
		env.file = cfg.Source.File
		return env, nil
	}

	historyURL, err := cfg.HistoryURL()
	if err != nil {
		return nil, err
	}
	fetcher, err := client.NewHTTPFetcher(client.HTTPConfig{
		URL:           historyURL,
		BaseURL:       cfg.Server.BaseURL,
		Timeout:       cfg.Server.Timeout,
		MaxRetries:    cfg.Server.MaxRetries,
		RetryDelay:    cfg.Server.RetryDelay,
		SessionCookie: cfg.Server.SessionCookie,
		Headers:       cfg.Server.Headers,
	}, log.WithComponent("client"))
	if err != nil {
		return nil, err
	}
	env.fetcher = fetcher
	env.source = historyURL
	return env, nil
}

func (e *runtimeEnv) newPaginator(opts ...history.Option) *history.Paginator {
	opts = append([]history.Option{history.WithLogger(e.log.WithComponent("history"))}, opts...)
	return history.New(e.fetcher, opts...)
}

func (e *runtimeEnv) colorEnabled() bool {
	switch e.cfg.Output.ColorMode {
	case "never":
		return false
	case "always":
		return true
	default:
		return !ui.IsColorDisabled()
	}
}
