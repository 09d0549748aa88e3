/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind            string
	port            int
	prefix          string
	profile         bool
	scatterInterval time.Duration
	scatterRounds   int
	sessionTimeout  time.Duration
	timeUnit        time.Duration
	tlsCert         string
	tlsKey          string
	verbose         bool
	version         bool
	viewportHeight  float64
	viewportWidth   float64

	logger zerolog.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.timeUnit <= 0 {
		return fmt.Errorf("invalid time unit (must be positive): %s", c.timeUnit)
	}
	if c.scatterInterval <= 0 {
		return fmt.Errorf("invalid scatter interval (must be positive): %s", c.scatterInterval)
	}
	if c.scatterRounds < 0 {
		return fmt.Errorf("invalid scatter rounds (must be 0 or more): %d", c.scatterRounds)
	}
	if c.viewportWidth <= 0 || c.viewportHeight <= 0 {
		return fmt.Errorf("invalid default viewport: %.0fx%.0f", c.viewportWidth, c.viewportHeight)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MEMORYBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "memorybox",
		Short:         "A short-term memory game: watch the markers scatter, then click them back in order.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			cfg.logger = newLogger(cfg)
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: MEMORYBOX_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: MEMORYBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: MEMORYBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: MEMORYBOX_PROFILE)")
	fs.DurationVar(&cfg.scatterInterval, "scatter-interval", 2*time.Second, "time between scatter rounds (env: MEMORYBOX_SCATTER_INTERVAL)")
	fs.IntVar(&cfg.scatterRounds, "scatter-rounds", 0, "number of scatter rounds, 0 to match the marker count (env: MEMORYBOX_SCATTER_ROUNDS)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: MEMORYBOX_SESSION_TIMEOUT)")
	fs.DurationVar(&cfg.timeUnit, "time-unit", time.Second, "per-marker wait before placing and before scattering (env: MEMORYBOX_TIME_UNIT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: MEMORYBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: MEMORYBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: MEMORYBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: MEMORYBOX_VERSION)")
	fs.Float64Var(&cfg.viewportHeight, "viewport-height", 720, "play area height until the browser reports its own (env: MEMORYBOX_VIEWPORT_HEIGHT)")
	fs.Float64Var(&cfg.viewportWidth, "viewport-width", 1280, "play area width until the browser reports its own (env: MEMORYBOX_VIEWPORT_WIDTH)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("memorybox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
