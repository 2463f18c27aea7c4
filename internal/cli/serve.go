package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/channels"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent with all configured channels",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Provider.APIKey == "" {
		fmt.Println(color.RedString("Error: API key not set. Use GOLEMBOT_PROVIDER_API_KEY or config.json."))
		os.Exit(1)
	}

	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Always offer the terminal channel; Slack joins when configured.
	rt.registry.Register(channels.NewCLIChannel(rt.bus))
	if cfg.Channels.Slack.Enabled {
		rt.registry.Register(channels.NewSlackChannel(rt.bus,
			cfg.Channels.Slack.BotToken, cfg.Channels.Slack.AppToken, cfg.Channels.Slack.AllowFrom))
	}

	for _, ch := range rt.registry.All() {
		if err := ch.Start(ctx); err != nil {
			fmt.Println(color.RedString("Channel %s failed to start: %v", ch.Name(), err))
			continue
		}
		fmt.Println(color.GreenString("Channel started: %s", ch.Name()))
	}

	go rt.bus.DispatchOutbound(ctx)

	fmt.Println(color.CyanString("GolemBot is running. Press Ctrl+C to stop."))
	err = rt.orch.Run(ctx)

	for _, ch := range rt.registry.All() {
		ch.Stop()
	}
	if ctx.Err() != nil {
		return nil
	}
	return err
}
