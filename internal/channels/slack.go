package channels

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/bus"
)

// SlackChannel bridges Slack (socket mode) to the message bus.
type SlackChannel struct {
	BaseChannel
	api       *slack.Client
	socket    *socketmode.Client
	botUserID string
	allowFrom map[string]bool
	cancel    context.CancelFunc
}

// NewSlackChannel creates a Slack channel. allowFrom restricts inbound
// messages to the given user ids; empty means everyone.
func NewSlackChannel(b *bus.MessageBus, botToken, appToken string, allowFrom []string) *SlackChannel {
	api := slack.New(botToken, slack.OptionAppLevelToken(appToken))
	allowed := make(map[string]bool, len(allowFrom))
	for _, id := range allowFrom {
		allowed[id] = true
	}
	return &SlackChannel{
		BaseChannel: BaseChannel{Bus: b},
		api:         api,
		socket:      socketmode.New(api),
		allowFrom:   allowed,
	}
}

func (c *SlackChannel) Name() string { return "slack" }

// Start authenticates, subscribes to outbound messages, and runs the socket
// mode event loop in background goroutines.
func (c *SlackChannel) Start(ctx context.Context) error {
	auth, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth: %w", err)
	}
	c.botUserID = auth.UserID
	slog.Info("Slack channel connected", "bot_user", auth.UserID)

	ctx, c.cancel = context.WithCancel(ctx)

	c.Bus.Subscribe(c.Name(), func(msg *bus.OutboundMessage) {
		if err := c.Send(context.Background(), msg); err != nil {
			slog.Error("Slack send failed", "chat_id", msg.ChatID, "error", err)
		}
	})

	go c.eventLoop(ctx)
	go func() {
		if err := c.socket.RunContext(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Slack socket mode stopped", "error", err)
		}
	}()
	return nil
}

// Stop shuts down the socket mode loop.
func (c *SlackChannel) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// Send posts a response to the originating Slack channel.
func (c *SlackChannel) Send(ctx context.Context, msg *bus.OutboundMessage) error {
	_, _, err := c.api.PostMessageContext(ctx, msg.ChatID,
		slack.MsgOptionText(msg.Content, false))
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}

// ShowTyping is a no-op: the Slack Web API offers no typing indicator for
// bot users.
func (c *SlackChannel) ShowTyping(string) {}

func (c *SlackChannel) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-c.socket.Events:
			if !ok {
				return
			}
			c.handleEvent(evt)
		}
	}
}

func (c *SlackChannel) handleEvent(evt socketmode.Event) {
	if evt.Type != socketmode.EventTypeEventsAPI {
		return
	}
	apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return
	}
	if evt.Request != nil {
		c.socket.Ack(*evt.Request)
	}
	inner, ok := apiEvent.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		return
	}
	// Ignore our own messages, edits, and other bot traffic.
	if inner.User == "" || inner.User == c.botUserID || inner.BotID != "" || inner.SubType != "" {
		return
	}
	if len(c.allowFrom) > 0 && !c.allowFrom[inner.User] {
		slog.Warn("Slack message from unlisted user dropped", "user", inner.User)
		return
	}

	c.Bus.PublishInbound(&bus.InboundMessage{
		Channel:  c.Name(),
		SenderID: inner.User,
		ChatID:   inner.Channel,
		TraceID:  fmt.Sprintf("slack-%s-%s", inner.Channel, inner.TimeStamp),
		// Slack event timestamps are unique per channel message, which makes
		// them a natural dedup key across reconnect replays.
		IdempotencyKey: fmt.Sprintf("slack:%s:%s", inner.Channel, inner.TimeStamp),
		Content:        inner.Text,
		Timestamp:      time.Now(),
	})
}
