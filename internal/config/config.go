package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		Env      string `koanf:"env"`
		HTTPAddr string `koanf:"http_addr"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	Gateway struct {
		BaseURL   string        `koanf:"base_url"`
		Timeout   time.Duration `koanf:"timeout"`
		AuthToken string        `koanf:"auth_token"`
	} `koanf:"gateway"`

	Poller struct {
		GraceDelay      time.Duration `koanf:"grace_delay"`
		PollInterval    time.Duration `koanf:"poll_interval"`
		MaxPolls        int           `koanf:"max_polls"`
		OptimisticDelay time.Duration `koanf:"optimistic_delay"`
		NoHandlePolicy  string        `koanf:"no_handle_policy"`
	} `koanf:"poller"`
}

// Load reads base.yaml from pathDir, overlays an optional <envName>.yaml, and
// finally applies environment variables (prefix CHECKOUT_, nested with __,
// e.g. CHECKOUT_GATEWAY__AUTH_TOKEN).
func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// env-specific overlay is optional for local runs
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	if err := k.Load(env.Provider("CHECKOUT_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "CHECKOUT_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url required")
	}
	if c.Poller.MaxPolls < 0 {
		return fmt.Errorf("poller.max_polls must not be negative")
	}
	switch c.Poller.NoHandlePolicy {
	case "", "assume_success", "time_out":
	default:
		return fmt.Errorf("poller.no_handle_policy must be assume_success or time_out")
	}
	return nil
}
