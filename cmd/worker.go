/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/iqac-smarttrack/apiserver/internal/mq"
	"github.com/iqac-smarttrack/apiserver/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// workerCmd consumes lifecycle events and logs a notification for each.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume task and file events from the broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		broker, err := mq.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("EVENTS_BACKEND is not configured")
		}
		defer broker.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events := mq.NewEventPublisher(broker, cfg.Events.Channel)
		log := logger.WithField("component", "worker")
		log.WithField("channel", cfg.Events.Channel).Info("consuming events")

		err = events.SubscribeEvents(ctx, func(_ context.Context, event types.Event) error {
			entry := log.WithFields(logrus.Fields{
				"type":    event.Type,
				"task_id": event.TaskID,
				"file_id": event.FileID,
				"actor":   event.ActorID,
			})
			switch event.Type {
			case types.EventTaskCreated, types.EventTaskUpdated:
				if event.AssigneeID != "" {
					entry.WithField("assignee", event.AssigneeID).Infof("notify assignee: %s", event.Title)
					return nil
				}
			}
			entry.Info(event.Title)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
