package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"OFTester/internal/config"
	"OFTester/internal/events"
	"OFTester/internal/model"
	"OFTester/internal/topology"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print scenario events published by running testers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			sub, err := events.NewSubscriber(cfg.Events)
			if err != nil {
				return fmt.Errorf("failed to connect event subscriber: %w", err)
			}
			defer sub.Close()

			out := cmd.OutOrStdout()
			if err := sub.Start(func(ev model.Event) {
				fmt.Fprintln(out, formatEvent(ev))
			}); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}
}

func formatEvent(ev model.Event) string {
	line := fmt.Sprintf("%s %s %-22s size=%d", ev.At.Format(time.RFC3339), ev.Scenario, ev.State, ev.PacketSize)
	if ev.DPID != 0 {
		line += " dpid=" + topology.FormatDPID(ev.DPID)
	}
	if ev.Err != "" {
		line += " error=" + ev.Err
	}
	return line
}
