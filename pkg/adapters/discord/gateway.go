package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	messageDedupCacheSize = 1024
	messageDedupTTL       = 10 * time.Minute
	subscriptionBuffer    = 16
)

// API is the subset of *discordgo.Session used by the Gateway.
type API interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// Gateway implements ports.Gateway for Discord.
type Gateway struct {
	api    API
	appID  string
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string]*subscription

	dedupMu    sync.Mutex
	dedupCache *lru.Cache[string, time.Time]
	now        func() time.Time
}

// GatewayOption configures the Gateway.
type GatewayOption func(*Gateway)

// WithApplicationID drops interactions addressed to other applications.
func WithApplicationID(id string) GatewayOption {
	return func(g *Gateway) {
		g.appID = id
	}
}

// WithGatewayLogger sets a custom structured logger.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// NewGateway creates a Gateway over api.
func NewGateway(api API, opts ...GatewayOption) (*Gateway, error) {
	cache, err := lru.New[string, time.Time](messageDedupCacheSize)
	if err != nil {
		return nil, fmt.Errorf("discord message deduper init: %w", err)
	}
	g := &Gateway{
		api:        api,
		logger:     logging.NewNop(),
		subs:       make(map[string]*subscription),
		dedupCache: cache,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Send implements ports.Gateway.
func (g *Gateway) Send(ctx context.Context, channelID string, view domain.MessageView) (domain.MessageRef, error) {
	msg, err := g.api.ChannelMessageSendComplex(channelID, messageSend(view), discordgo.WithContext(ctx))
	if err != nil {
		return domain.MessageRef{}, fmt.Errorf("discord: send message: %w", err)
	}
	return domain.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

// Edit implements ports.Gateway.
func (g *Gateway) Edit(ctx context.Context, ref domain.MessageRef, view domain.MessageView) error {
	if _, err := g.api.ChannelMessageEditComplex(messageEdit(ref, view), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: edit message %s: %w", ref.MessageID, err)
	}
	return nil
}

// Reply implements ports.Gateway.
func (g *Gateway) Reply(ctx context.Context, ref domain.MessageRef, content string) error {
	reference := &discordgo.MessageReference{MessageID: ref.MessageID, ChannelID: ref.ChannelID}
	if _, err := g.api.ChannelMessageSendReply(ref.ChannelID, content, reference, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: reply to %s: %w", ref.MessageID, err)
	}
	return nil
}

// Subscribe implements ports.Gateway. A later Subscribe for the same message
// replaces the earlier one.
func (g *Gateway) Subscribe(ref domain.MessageRef) ports.Subscription {
	sub := &subscription{
		gateway:   g,
		messageID: ref.MessageID,
		buttons:   make(chan domain.ButtonActivated, subscriptionBuffer),
		forms:     make(chan domain.FormSubmitted, subscriptionBuffer),
		done:      make(chan struct{}),
	}
	g.mu.Lock()
	g.subs[ref.MessageID] = sub
	g.mu.Unlock()
	return sub
}

func (g *Gateway) lookup(messageID string) *subscription {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.subs[messageID]
}

func (g *Gateway) unsubscribe(sub *subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.subs[sub.messageID] == sub {
		delete(g.subs, sub.messageID)
	}
}

// HandleMessage turns an inbound message into a Trigger and passes it to handler.
// Messages written by bots and redeliveries of an already seen message are dropped.
func (g *Gateway) HandleMessage(ctx context.Context, m *discordgo.Message, handler ports.TriggerHandler) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	if g.isDuplicateMessage(m.ID) {
		g.logger.Debug("duplicate message dropped", "message_id", m.ID)
		return
	}

	trigger := domain.Trigger{
		MessageID:  m.ID,
		ChannelID:  m.ChannelID,
		GuildID:    m.GuildID,
		AuthorID:   m.Author.ID,
		Content:    m.Content,
		ReceivedAt: m.Timestamp,
	}
	if trigger.ReceivedAt.IsZero() {
		trigger.ReceivedAt = g.now()
	}
	if err := handler(ctx, trigger); err != nil {
		g.logger.Error("trigger handler failed", "message_id", m.ID, "err", err)
	}
}

func (g *Gateway) isDuplicateMessage(messageID string) bool {
	if messageID == "" {
		return false
	}
	g.dedupMu.Lock()
	defer g.dedupMu.Unlock()

	now := g.now()
	if ts, ok := g.dedupCache.Get(messageID); ok {
		if now.Sub(ts) <= messageDedupTTL {
			return true
		}
		g.dedupCache.Remove(messageID)
	}
	g.dedupCache.Add(messageID, now)
	return false
}

// HandleInteraction routes a component or modal interaction to the subscription
// of the message it was issued on. It reports whether the interaction was routed.
func (g *Gateway) HandleInteraction(ctx context.Context, i *discordgo.Interaction) bool {
	if i == nil || i.Message == nil {
		return false
	}
	if g.appID != "" && i.AppID != g.appID {
		g.logger.Debug("interaction for another application", "app_id", i.AppID)
		return false
	}
	if i.Type != discordgo.InteractionMessageComponent && i.Type != discordgo.InteractionModalSubmit {
		return false
	}

	sub := g.lookup(i.Message.ID)
	if sub == nil {
		g.logger.Debug("interaction on a message without session", "message_id", i.Message.ID)
		g.dismiss(ctx, i)
		return false
	}

	ack := domain.NewAck(&responder{api: g.api, interaction: i})
	userID := interactionUser(i)

	var routed bool
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		routed = sub.deliverButton(ctx, domain.ButtonActivated{
			ControlID: i.MessageComponentData().CustomID,
			UserID:    userID,
			Ack:       ack,
		})
	default:
		data := i.ModalSubmitData()
		routed = sub.deliverForm(ctx, domain.FormSubmitted{
			FormID: data.CustomID,
			Values: formValues(data),
			UserID: userID,
			Ack:    ack,
		})
	}
	if !routed {
		g.logger.Debug("interaction arrived after its session ended", "message_id", i.Message.ID)
		g.dismiss(ctx, i)
	}
	return routed
}

// dismiss acknowledges an interaction nobody will handle so the client does
// not report it as failed. The message is left as it is.
func (g *Gateway) dismiss(ctx context.Context, i *discordgo.Interaction) {
	r := &responder{api: g.api, interaction: i}
	if err := r.Defer(context.WithoutCancel(ctx)); err != nil {
		g.logger.Warn("failed to acknowledge unrouted interaction", "message_id", i.Message.ID, "err", err)
	}
}

func interactionUser(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

type subscription struct {
	gateway   *Gateway
	messageID string
	buttons   chan domain.ButtonActivated
	forms     chan domain.FormSubmitted
	done      chan struct{}
	once      sync.Once
}

func (s *subscription) Buttons() <-chan domain.ButtonActivated { return s.buttons }
func (s *subscription) Forms() <-chan domain.FormSubmitted     { return s.forms }

// Close stops delivery. The event channels are left open; readers stop on
// their own context.
func (s *subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		s.gateway.unsubscribe(s)
	})
}

func (s *subscription) deliverButton(ctx context.Context, ev domain.ButtonActivated) bool {
	select {
	case s.buttons <- ev:
		return true
	case <-s.done:
	case <-ctx.Done():
	}
	return false
}

func (s *subscription) deliverForm(ctx context.Context, ev domain.FormSubmitted) bool {
	select {
	case s.forms <- ev:
		return true
	case <-s.done:
	case <-ctx.Done():
	}
	return false
}

// responder answers one interaction through its token.
type responder struct {
	api         API
	interaction *discordgo.Interaction
}

func (r *responder) ShowForm(ctx context.Context, form domain.Form) error {
	return r.respond(ctx, modalResponse(form))
}

func (r *responder) Defer(ctx context.Context) error {
	return r.respond(ctx, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

func (r *responder) UpdateMessage(ctx context.Context, view domain.MessageView) error {
	return r.respond(ctx, updateResponse(view))
}

func (r *responder) respond(ctx context.Context, resp *discordgo.InteractionResponse) error {
	if err := r.api.InteractionRespond(r.interaction, resp, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: respond to interaction %s: %w", r.interaction.ID, err)
	}
	return nil
}
