// Command loadtest drives a chatter server with many concurrent clients:
// each one logs in, connects the real-time channel, joins its chats and
// sends messages at a fixed rate.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/johndosdos/chatter-client/internal/api"
	"github.com/johndosdos/chatter-client/internal/model"
	"github.com/johndosdos/chatter-client/internal/realtime"
)

type options struct {
	ServerURL string
	WSPath    string
	Prefix    string
	Password  string
	Users     int
	Messages  int
	Rate      float64
	Settle    time.Duration
}

type stats struct {
	Connected atomic.Int64
	Sent      atomic.Int64
	Failed    atomic.Int64
	Received  atomic.Int64
}

var opts options

var rootCmd = &cobra.Command{
	Use:          "loadtest",
	Short:        "Load test a chatter server",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := run(ctx, opts)
		if err != nil {
			return err
		}
		log.Info().
			Int64("connected", st.Connected.Load()).
			Int64("sent", st.Sent.Load()).
			Int64("failed", st.Failed.Load()).
			Int64("received", st.Received.Load()).
			Msg("load test finished")
		return nil
	},
}

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	flags := rootCmd.Flags()
	flags.StringVar(&opts.ServerURL, "server-url", "http://localhost:8080", "chat server base URL")
	flags.StringVar(&opts.WSPath, "ws-path", "/ws", "real-time endpoint path")
	flags.StringVar(&opts.Prefix, "prefix", "load", "accounts are <prefix>1..<prefix>N")
	flags.StringVar(&opts.Password, "password", "password", "password shared by the load accounts")
	flags.IntVar(&opts.Users, "users", 10, "number of concurrent clients")
	flags.IntVar(&opts.Messages, "messages", 20, "messages per client and chat")
	flags.Float64Var(&opts.Rate, "rate", 2, "messages per second per client")
	flags.DurationVar(&opts.Settle, "settle", 2*time.Second, "time to keep reading after the last send")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, o options) (*stats, error) {
	if o.Users <= 0 || o.Rate <= 0 {
		return nil, fmt.Errorf("loadtest: users and rate must be positive")
	}

	st := &stats{}
	var wg sync.WaitGroup
	for i := 1; i <= o.Users; i++ {
		wg.Add(1)
		go func(username string) {
			defer wg.Done()
			if err := drive(ctx, o, username, st); err != nil {
				log.Error().Err(err).Str("username", username).Msg("client failed")
			}
		}(fmt.Sprintf("%s%d", o.Prefix, i))
	}
	wg.Wait()

	return st, ctx.Err()
}

// drive runs one simulated user.
func drive(ctx context.Context, o options, username string, st *stats) error {
	client, err := api.New(o.ServerURL)
	if err != nil {
		return err
	}
	id, err := client.Login(ctx, username, o.Password)
	if err != nil {
		return err
	}
	defer client.Logout(context.WithoutCancel(ctx)) //nolint:errcheck

	contacts, err := client.Contacts(ctx)
	if err != nil {
		return err
	}

	rt, err := realtime.Dial(ctx, realtime.URL(client.BaseURL(), o.WSPath), realtime.DialOptions{
		Cookies: client.Cookies(),
	})
	if err != nil {
		return err
	}
	st.Connected.Add(1)

	runCtx, cancel := context.WithCancel(ctx)

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		rt.Run(runCtx) //nolint:errcheck
	}()
	go func() {
		defer readers.Done()
		for ev := range rt.Events() {
			if _, ok := ev.(model.ReceivedMessage); ok {
				st.Received.Add(1)
			}
		}
	}()
	defer func() {
		rt.Close() //nolint:errcheck
		cancel()
		readers.Wait()
	}()

	for _, c := range contacts {
		if err := rt.Emit(ctx, model.EventJoinChat, model.JoinChat{ChatID: c.ChatID}); err != nil {
			return err
		}
	}

	lim := rate.NewLimiter(rate.Limit(o.Rate), 1)
	for n := 0; n < o.Messages; n++ {
		for _, c := range contacts {
			if err := lim.Wait(ctx); err != nil {
				return err
			}

			content := fmt.Sprintf("load message %d from %s", n, username)
			if _, err := client.SendMessage(ctx, c.ChatID, id.UserID, content); err != nil {
				st.Failed.Add(1)
				continue
			}
			if err := rt.Emit(ctx, model.EventSendMessage, model.SendMessage{
				ChatID: c.ChatID, SenderID: id.UserID, Content: content,
			}); err != nil {
				st.Failed.Add(1)
				continue
			}
			st.Sent.Add(1)
		}
	}

	select {
	case <-time.After(o.Settle):
	case <-ctx.Done():
	}
	return nil
}
