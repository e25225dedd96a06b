package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/ports"
	"github.com/bwmarrin/discordgo"
)

// Intents needed to read command messages in guilds and DMs.
const Intents = discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Bot owns the websocket connection and feeds the Gateway.
type Bot struct {
	session *discordgo.Session
	gateway *Gateway
	logger  *slog.Logger
}

// NewBot creates a bot for token. The connection is opened by Run.
func NewBot(token, applicationID string, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	s.Identify.Intents = Intents

	gw, err := NewGateway(s, WithApplicationID(applicationID), WithGatewayLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Bot{session: s, gateway: gw, logger: logger}, nil
}

// Gateway returns the ports.Gateway backed by this bot.
func (b *Bot) Gateway() *Gateway {
	return b.gateway
}

// Run connects, forwards every inbound message to handler and blocks until ctx
// is done.
func (b *Bot) Run(ctx context.Context, handler ports.TriggerHandler) error {
	removers := []func(){
		b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
			b.logger.Info("connected to discord", "user", r.User.Username, "guilds", len(r.Guilds))
		}),
		b.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			b.gateway.HandleMessage(ctx, m.Message, handler)
		}),
		b.session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
			b.gateway.HandleInteraction(ctx, i.Interaction)
		}),
	}
	defer func() {
		for _, remove := range removers {
			remove()
		}
	}()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord: open connection: %w", err)
	}
	<-ctx.Done()

	if err := b.session.Close(); err != nil {
		b.logger.Warn("discord: close connection", "err", err)
	}
	return nil
}
