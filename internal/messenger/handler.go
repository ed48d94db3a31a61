// Package messenger is the Facebook Messenger channel: webhook intake,
// event classification, outbound template compilation and Graph API calls.
package messenger

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pagebridge/internal/bus"
	"pagebridge/internal/config"
	"pagebridge/internal/domain"
	"pagebridge/internal/metrics"
)

// ChannelName identifies this channel on subscriber records and bus events.
const ChannelName = "messenger"

const maxBodyBytes = 1 << 20

// typingCap bounds the simulated typing delay before an outbound message.
const typingCap = 20 * time.Second

// Channel ties the webhook shell to the Graph client, the event bus and the
// persistence interfaces.
type Channel struct {
	cfg         config.MessengerConfig
	api         *GraphClient
	bus         *bus.EventBus
	subscribers domain.SubscriberStore
	attachments domain.AttachmentResolver
	formatter   *Formatter
	logger      *slog.Logger
	mux         *http.ServeMux
}

// ChannelOptions collects the collaborators a Channel needs. Subscribers and
// Attachments may be nil; the related enrichment is then skipped.
type ChannelOptions struct {
	Config      config.MessengerConfig
	WebhookPath string
	API         *GraphClient
	Bus         *bus.EventBus
	Subscribers domain.SubscriberStore
	Attachments domain.AttachmentResolver
	Translator  domain.Translator
	Logger      *slog.Logger
}

// NewChannel builds the channel and mounts its webhook routes.
func NewChannel(opts ChannelOptions) *Channel {
	c := &Channel{
		cfg:         opts.Config,
		api:         opts.API,
		bus:         opts.Bus,
		subscribers: opts.Subscribers,
		attachments: opts.Attachments,
		formatter:   NewFormatter(opts.Translator),
		logger:      opts.Logger.With("channel", ChannelName),
		mux:         http.NewServeMux(),
	}
	webhookPath := opts.WebhookPath
	if webhookPath == "" {
		webhookPath = "/webhook/messenger"
	}
	c.mux.HandleFunc("GET "+webhookPath, c.handleSubscribe)
	c.mux.HandleFunc("POST "+webhookPath, c.handleWebhook)
	return c
}

// Handler returns the webhook handler, to be mounted on the main mux.
func (c *Channel) Handler() http.Handler { return c.mux }

// handleSubscribe answers the platform's one-time webhook verification
// handshake by echoing the challenge.
func (c *Channel) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode != "subscribe" || token == "" {
		c.logger.Warn("webhook subscription refused", "mode", mode)
		writeJSONError(w, http.StatusInternalServerError, "Wrong verification token!")
		return
	}
	if token != c.cfg.VerifyToken {
		c.logger.Warn("webhook subscription token mismatch")
		writeJSONError(w, http.StatusInternalServerError, "Wrong verification token!")
		return
	}

	c.logger.Info("webhook subscription confirmed")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, html.EscapeString(challenge))
}

// handleWebhook ingests one webhook delivery. The batch is acknowledged as a
// whole; individual event failures are contained so one bad event cannot
// poison its batch.
func (c *Channel) handleWebhook(w http.ResponseWriter, r *http.Request) {
	metrics.WebhookRequests.Inc()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "unable to read request body")
		return
	}

	// An absent header skips verification; a present one must match.
	if sig := r.Header.Get("X-Hub-Signature"); sig != "" {
		if !ValidSignature(body, c.cfg.AppSecret, sig) {
			metrics.SignatureRejects.Inc()
			c.logger.Warn("webhook signature mismatch", "remote", r.RemoteAddr)
			writeJSONError(w, http.StatusInternalServerError, "Failed validation. Make sure the validation tokens match.")
			return
		}
	}

	var payload WebhookBody
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Warn("webhook body unparseable", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Object != "page" {
		c.logger.Warn("webhook for unexpected object", "object", payload.Object)
		writeJSONError(w, http.StatusBadRequest, "expected a page subscription")
		return
	}
	if payload.Entry == nil {
		c.logger.Error("webhook payload without entry")
		writeJSONError(w, http.StatusInternalServerError, "missing entry")
		return
	}

	for _, entry := range payload.Entry {
		for i := range entry.Messaging {
			c.handleEvent(r.Context(), &entry.Messaging[i])
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"success":true}`)
}

// handleEvent classifies and publishes one raw event, absorbing panics so
// the remaining events of the batch still run.
func (c *Channel) handleEvent(ctx context.Context, raw *RawEvent) {
	defer func() {
		if r := recover(); r != nil {
			metrics.EventsFailed.Inc()
			c.logger.Error("event handling panic", "panic", r, "sender", raw.Sender.ID)
		}
	}()

	ev := Classify(raw)
	if ctr, ok := metrics.EventsByType[string(ev.EventType())]; ok {
		ctr.Inc()
	}

	if ev.EventType() == domain.EventUnknown {
		c.logger.Debug("unknown webhook event", "sender", raw.Sender.ID)
		c.bus.Emit(bus.Event{Type: bus.EventChatbotUnknown, Source: ChannelName, Payload: ev})
		return
	}

	c.enrich(ctx, ev)
	c.bus.Emit(bus.Event{
		Type:    "chatbot:" + string(ev.EventType()),
		Source:  ChannelName,
		Payload: ev,
	})
}

// enrich attaches subscriber and attachment context ahead of publication.
// Both lookups are best effort; a cold store never blocks intake.
func (c *Channel) enrich(ctx context.Context, ev *Event) {
	if c.subscribers != nil && ev.EventType() == domain.EventMessage {
		sub, err := c.ensureSubscriber(ctx, ev.SenderForeignID())
		if err != nil {
			c.logger.Warn("subscriber lookup failed", "sender", ev.SenderForeignID(), "error", err)
		} else {
			ev.SetProfile(sub)
		}
	}

	if c.attachments != nil && ev.MessageType() == domain.MessageAttachments {
		atts := ev.Raw().Message.Attachments
		resolved := make([]domain.AttachmentMetadata, len(atts))
		for i, att := range atts {
			meta, err := c.attachments.ResolveAttachment(ctx, att.Payload.URL)
			if err != nil {
				c.logger.Warn("attachment resolution failed", "url", att.Payload.URL, "error", err)
				continue
			}
			if meta != nil {
				resolved[i] = *meta
			}
		}
		ev.SetResolvedAttachments(resolved)
	}
}

// ensureSubscriber returns the stored subscriber, fetching the public
// profile from the Graph API on first contact.
func (c *Channel) ensureSubscriber(ctx context.Context, psid string) (*domain.Subscriber, error) {
	sub, err := c.subscribers.GetSubscriber(ctx, psid)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		sub.LastVisit = time.Now()
		if err := c.subscribers.UpsertSubscriber(ctx, *sub); err != nil {
			c.logger.Warn("subscriber refresh failed", "sender", psid, "error", err)
		}
		return sub, nil
	}

	fresh := domain.Subscriber{ForeignID: psid, Channel: ChannelName}
	if profile, err := c.api.UserProfile(ctx, psid); err != nil {
		c.logger.Warn("profile fetch failed", "sender", psid, "error", err)
	} else {
		fresh.FirstName = profile.FirstName
		fresh.LastName = profile.LastName
		fresh.Gender = profile.Gender
		fresh.Locale = profile.Locale
		fresh.Timezone = profile.Timezone
	}
	if err := c.subscribers.UpsertSubscriber(ctx, fresh); err != nil {
		return nil, err
	}
	return &fresh, nil
}

// SendMessage compiles and delivers one outbound envelope, preceded by a
// typing indicator scaled to the text length.
func (c *Channel) SendMessage(ctx context.Context, recipientID string, env *domain.StdOutgoingEnvelope, opts domain.ContentOptions) (string, error) {
	msg, err := c.formatter.FormatMessage(env, opts)
	if err != nil {
		return "", err
	}

	c.indicateTyping(ctx, recipientID, len(env.Text))

	mid, err := c.api.Send(ctx, OutgoingMessage{
		Recipient: Party{ID: recipientID},
		Message:   *msg,
	})
	if err != nil {
		metrics.SendErrors.Inc()
		return "", err
	}
	metrics.MessagesSent.Inc()
	c.bus.Emit(bus.Event{Type: bus.EventMessageSent, Source: ChannelName, Payload: mid})
	return mid, nil
}

// indicateTyping marks the message seen and simulates typing for 10ms per
// character, capped at 20 seconds. Indicator failures are logged only.
func (c *Channel) indicateTyping(ctx context.Context, recipientID string, textLen int) {
	if err := c.api.SenderAction(ctx, recipientID, ActionMarkSeen); err != nil {
		c.logger.Debug("mark_seen failed", "recipient", recipientID, "error", err)
		return
	}
	if err := c.api.SenderAction(ctx, recipientID, ActionTypingOn); err != nil {
		c.logger.Debug("typing_on failed", "recipient", recipientID, "error", err)
		return
	}

	delay := min(time.Duration(textLen)*10*time.Millisecond, typingCap)
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}

	if err := c.api.SenderAction(ctx, recipientID, ActionTypingOff); err != nil {
		c.logger.Debug("typing_off failed", "recipient", recipientID, "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"err": msg})
}
