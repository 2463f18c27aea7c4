package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/bus"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/config"
)

var (
	chatMessage string
	chatID      string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Send one message to the agent and print the response",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Message to send to the agent")
	chatCmd.Flags().StringVarP(&chatID, "chat", "c", "default", "Chat id (conversation key)")
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatMessage == "" {
		fmt.Println(color.RedString("Error: --message is required"))
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := context.Background()

	done := make(chan struct{}, 1)
	rt.bus.Subscribe("cli", func(msg *bus.OutboundMessage) {
		fmt.Println(color.CyanString("agent:"), msg.Content)
		done <- struct{}{}
	})
	go rt.bus.DispatchOutbound(ctx)

	fmt.Println(color.HiBlackString("Thinking..."))
	rt.orch.ProcessMessage(ctx, &bus.InboundMessage{
		Channel:   "cli",
		SenderID:  "cli-user",
		ChatID:    chatID,
		TraceID:   uuid.NewString(),
		Content:   chatMessage,
		Timestamp: time.Now(),
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		fmt.Println(color.YellowString("No response produced."))
	}
	return nil
}
