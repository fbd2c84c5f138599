// Command chatter is a terminal client for the chatter server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/johndosdos/chatter-client/internal/api"
	"github.com/johndosdos/chatter-client/internal/config"
	"github.com/johndosdos/chatter-client/internal/model"
	"github.com/johndosdos/chatter-client/internal/realtime"
	"github.com/johndosdos/chatter-client/internal/tui"
	"github.com/johndosdos/chatter-client/internal/view"
)

var rootCmd = &cobra.Command{
	Use:          "chatter",
	Short:        "Terminal client for the chatter server",
	SilenceUsage: true,
	RunE:         runTUI,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Render the contact list, and optionally one chat, as HTML",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session on the server",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var (
	flagEnvFile   string
	flagServerURL string
	flagLogin     string
	flagPassword  string
	flagChat      string
	flagOut       string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagEnvFile, "env-file", ".env", "dotenv file to load before reading the environment")
	flags.StringVar(&flagServerURL, "server-url", "", "chat server base URL (overrides CHAT_SERVER_URL)")
	flags.StringVar(&flagLogin, "login", "", "log in as this user instead of using CHAT_SESSION_TOKEN")
	flags.StringVar(&flagPassword, "password", "", "password for --login (overrides CHAT_PASSWORD)")

	snapshotCmd.Flags().StringVar(&flagChat, "chat", "", "chat ID to render in the message pane")
	snapshotCmd.Flags().StringVarP(&flagOut, "out", "o", "", "write the page to this file instead of stdout")

	rootCmd.AddCommand(snapshotCmd, logoutCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session loads the config, sets up logging and returns an API client
// with a live session.
func session(ctx context.Context) (config.Config, *api.Client, model.Identity, func(), error) {
	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return config.Config{}, nil, model.Identity{}, nil, err
	}
	if flagServerURL != "" {
		cfg.ServerURL = flagServerURL
	}

	closeLog, err := setupLogging(cfg)
	if err != nil {
		return config.Config{}, nil, model.Identity{}, nil, err
	}

	client, err := api.New(cfg.ServerURL,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithSession(cfg.SessionCookie, cfg.SessionToken),
	)
	if err != nil {
		closeLog()
		return config.Config{}, nil, model.Identity{}, nil, err
	}

	var id model.Identity
	if flagLogin != "" {
		password := flagPassword
		if password == "" {
			password = cfg.Password
		}
		id, err = client.Login(ctx, flagLogin, password)
		if err != nil {
			closeLog()
			return config.Config{}, nil, model.Identity{}, nil, fmt.Errorf("login failed: %w", err)
		}
	} else {
		id, err = cfg.Identity()
		if err != nil {
			closeLog()
			return config.Config{}, nil, model.Identity{}, nil, err
		}
	}

	log.Info().Str("server", cfg.ServerURL).Str("user_id", id.UserID.String()).Msg("session ready")
	return cfg, client, id, closeLog, nil
}

// setupLogging sends the global logger to the log file; the terminal
// belongs to the UI.
func setupLogging(cfg config.Config) (func(), error) {
	zerolog.SetGlobalLevel(cfg.LogLevel)

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.Logger = zerolog.New(f).With().Timestamp().Logger()

	return func() { f.Close() }, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, client, id, closeLog, err := session(ctx)
	if err != nil {
		return err
	}
	defer closeLog()

	// Without a real-time channel the client still works, minus live
	// updates.
	var ch tui.Channel
	rt, err := realtime.Dial(ctx, realtime.URL(client.BaseURL(), cfg.WSPath), realtime.DialOptions{
		Cookies: client.Cookies(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("running without real-time updates")
	} else {
		rt.SetEmitLimiter(cfg.EmitRate, time.Minute)
		defer rt.Close()
		go func() {
			if err := rt.Run(ctx); err != nil {
				log.Error().Err(err).Msg("real-time channel stopped")
			}
		}()
		ch = rt
	}

	m := tui.New(ctx, view.New(id), client, ch)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, client, _, closeLog, err := session(ctx)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}
