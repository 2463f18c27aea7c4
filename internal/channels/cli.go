package channels

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/bus"
)

// CLIChannel is an interactive terminal channel, mainly for local use and
// debugging. It reads lines from stdin and prints agent responses.
type CLIChannel struct {
	BaseChannel
	sender string
	chatID string
	cancel context.CancelFunc
}

// NewCLIChannel creates a terminal channel bound to the bus.
func NewCLIChannel(b *bus.MessageBus) *CLIChannel {
	return &CLIChannel{
		BaseChannel: BaseChannel{Bus: b},
		sender:      "cli-user",
		chatID:      "cli",
	}
}

func (c *CLIChannel) Name() string { return "cli" }

// Start reads stdin lines and publishes them as inbound messages until the
// context is cancelled or stdin closes.
func (c *CLIChannel) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	c.Bus.Subscribe(c.Name(), func(msg *bus.OutboundMessage) {
		c.print(msg)
	})

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			c.Bus.PublishInbound(&bus.InboundMessage{
				Channel:   c.Name(),
				SenderID:  c.sender,
				ChatID:    c.chatID,
				TraceID:   uuid.NewString(),
				Content:   line,
				Timestamp: time.Now(),
			})
		}
	}()
	return nil
}

// Stop cancels the stdin reader.
func (c *CLIChannel) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// Send prints an outbound message to the terminal.
func (c *CLIChannel) Send(_ context.Context, msg *bus.OutboundMessage) error {
	c.print(msg)
	return nil
}

// ShowTyping prints a subtle typing indicator.
func (c *CLIChannel) ShowTyping(string) {
	fmt.Fprint(os.Stderr, color.HiBlackString("...\r"))
}

func (c *CLIChannel) print(msg *bus.OutboundMessage) {
	fmt.Println(color.CyanString("agent:"), msg.Content)
	for _, a := range msg.Attachments {
		fmt.Println(color.HiBlackString("  attachment: " + a))
	}
}
