package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/verygoods/config"
	"github.com/s0up4200/verygoods/session"
	"github.com/s0up4200/verygoods/verygoods"
)

var (
	cfgFile      string
	outputFormat string
	cfg          *config.Config
	logger       zerolog.Logger
	sessions     *session.Store
	client       *verygoods.Client
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "verygoods",
	Short: "Browse Very Goods and manage your goods from the terminal",
	Long: `verygoods is a CLI for the Very Goods product marketplace. It lists
products, users and goods, shows product relations, and adds or removes
products from your goods once you have signed in with "verygoods login".`,
	SilenceUsage:       true,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text or yaml")
}

// initializeApp loads the configuration, restores the saved session and
// creates the API client
func initializeApp(cmd *cobra.Command, args []string) error {
	if outputFormat != "text" && outputFormat != "yaml" {
		return fmt.Errorf("invalid output format %q: must be text or yaml", outputFormat)
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	if sessions != nil {
		sessions.Close()
	}
	sessions, err = session.New(cfg.Session.Path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	auth, err := sessions.Load(cmd.Context())
	switch {
	case errors.Is(err, session.ErrNotFound):
		auth = nil
	case err != nil:
		return err
	case auth.Expired(time.Now()):
		logger.Warn().Str("username", auth.Username).Msg("Saved session has expired, run login again")
		auth = nil
	}

	client, err = newClient(auth)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

func shutdownApp(cmd *cobra.Command, args []string) error {
	if sessions != nil {
		return sessions.Close()
	}
	return nil
}

func newClient(auth *verygoods.Authentication) (*verygoods.Client, error) {
	return verygoods.NewClient(auth, logger,
		verygoods.WithBaseURL(cfg.API.BaseURL),
		verygoods.WithSiteURL(cfg.API.SiteURL),
		verygoods.WithTimeout(cfg.API.Timeout),
		verygoods.WithRateLimit(cfg.API.RateLimit),
		verygoods.WithCSRFRefresh(cfg.API.CSRFRefresh),
		verygoods.WithMaxFailures(cfg.API.MaxFailures),
	)
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// requireAuth fails commands that need a signed-in user
func requireAuth() error {
	if client.Username() == "" {
		return fmt.Errorf("%w: run \"verygoods login\" first", verygoods.ErrNotAuthenticated)
	}
	return nil
}
