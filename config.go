package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind             string
	locationRetries  int
	maxRounds        int
	playerTimeout    time.Duration
	port             int
	prefix           string
	profile          bool
	roundSeconds     int
	scoreScale       int
	streetviewKey    string
	streetviewRadius int
	tlsCert          string
	tlsKey           string
	verbose          bool
	version          bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.roundSeconds < 1 {
		return fmt.Errorf("invalid round length (must be at least 1 second): %d", c.roundSeconds)
	}
	if c.maxRounds < 1 {
		return fmt.Errorf("invalid round count (must be at least 1): %d", c.maxRounds)
	}
	if c.scoreScale < 1 {
		return fmt.Errorf("invalid score scale (must be at least 1): %d", c.scoreScale)
	}
	if c.locationRetries < 1 {
		return fmt.Errorf("invalid location retry count (must be at least 1): %d", c.locationRetries)
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
	v.SetEnvPrefix("GEOPARTY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "geoparty",
		Short:         "A real-time location-guessing party game, served from a single binary.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: GEOPARTY_BIND)")
	fs.IntVar(&cfg.locationRetries, "location-retries", 50, "attempts to find a usable round location before giving up (env: GEOPARTY_LOCATION_RETRIES)")
	fs.IntVar(&cfg.maxRounds, "max-rounds", 5, "number of rounds per game (env: GEOPARTY_MAX_ROUNDS)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 0, "grace period before disconnected players are removed, 0 to remove immediately (env: GEOPARTY_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: GEOPARTY_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: GEOPARTY_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: GEOPARTY_PROFILE)")
	fs.IntVar(&cfg.roundSeconds, "round-seconds", 60, "length of each round countdown in seconds (env: GEOPARTY_ROUND_SECONDS)")
	fs.IntVar(&cfg.scoreScale, "score-scale", 1000, "maximum score for a perfect guess (env: GEOPARTY_SCORE_SCALE)")
	fs.StringVar(&cfg.streetviewKey, "streetview-key", "", "Street View metadata API key, empty to skip imagery validation (env: GEOPARTY_STREETVIEW_KEY)")
	fs.IntVar(&cfg.streetviewRadius, "streetview-radius", 50000, "panorama search radius in meters (env: GEOPARTY_STREETVIEW_RADIUS)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: GEOPARTY_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: GEOPARTY_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: GEOPARTY_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: GEOPARTY_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("geoparty v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
