package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taskhub/realtime/internal/client"
	"github.com/taskhub/realtime/pkg/config"
	"github.com/taskhub/realtime/pkg/logging"
	"github.com/taskhub/realtime/pkg/transport"
	"github.com/taskhub/realtime/pkg/wire"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgName  string
		token    string
		logLevel string
		roomIDs  []string
	)

	cmd := &cobra.Command{
		Use:   "taskhub-watch",
		Short: "Tail live task, presence and notification events from a taskhub gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logging.New(logging.Level(logLevel))
			slog.SetDefault(logger)

			cfg, err := config.Load(logger, cfgName)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if token != "" {
				cfg.Server.Token = token
			}
			if cfg.Server.Token == "" {
				return fmt.Errorf("no bearer token: set --token or TASKHUB_SERVER_TOKEN")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, logger, cfg, roomIDs)
		},
	}

	cmd.Flags().StringVar(&cfgName, "config", "config", "config file name (without extension), looked up in the working directory")
	cmd.Flags().StringVar(&token, "token", "", "bearer token presented on the authentication handshake")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	cmd.Flags().StringSliceVar(&roomIDs, "room", nil, "room to join (repeatable), e.g. department:eng or task:42")
	return cmd
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.Config, roomIDs []string) error {
	c, err := client.New(logger, cfg)
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}

	c.SetOnStatusHandler(func(s transport.Status) {
		fmt.Printf("-- %s\n", s)
	})
	c.SetOnAuthError(func(err error) {
		logger.Error("credential rejected, re-login required", slog.Any("error", err))
	})

	defer c.SubscribeTasks(func(ev client.TaskEvent) {
		if ev.Deleted {
			fmt.Printf("task %s deleted by %s\n", ev.TaskID, ev.By)
			return
		}
		self := ""
		if ev.SelfEcho {
			self = " (self)"
		}
		fmt.Printf("task %s -> %s%s\n", ev.Task.ID, ev.Task.Status, self)
	})()
	defer c.SubscribeComments(func(p wire.TaskCommentAddedPayload) {
		fmt.Printf("comment on %s by %s: %s\n", p.TaskID, p.Comment.AuthorName, p.Comment.Body)
	})()
	defer c.SubscribePresence(func(p wire.UserPresencePayload) {
		fmt.Printf("%s is %s\n", p.UserName, p.Status)
	})()
	defer c.SubscribeNotifications(func(n wire.Notification) {
		fmt.Printf("[%s] %s: %s (unread %d)\n", n.Type, n.Title, n.Message, c.UnreadCount())
	})()

	// Wanted rooms are recorded immediately and replayed once the session
	// authenticates, so joining before the channel is up is fine.
	for _, roomID := range roomIDs {
		c.JoinRoom(roomID)
	}

	c.Connect(ctx)
	<-ctx.Done()
	c.Disconnect()
	logger.Info("watch stopped")
	return nil
}
