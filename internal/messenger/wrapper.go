package messenger

import (
	"errors"
	"fmt"

	"pagebridge/internal/domain"
)

var (
	// ErrNoMessageID is returned by Event.ID for events that carry no
	// platform message id (postbacks, malformed messages).
	ErrNoMessageID = errors.New("messenger: event has no message id")

	// ErrNotMessageEvent is returned by Event.Message for event types that
	// have no message body to normalize.
	ErrNotMessageEvent = errors.New("messenger: not a message event")

	// ErrUnknownMessageType is returned by Event.Message when the message
	// shape matched none of the known variants.
	ErrUnknownMessageType = errors.New("messenger: unknown message type")
)

// Event wraps one raw webhook event with its classification. Classification
// happens exactly once, in Classify; every accessor afterwards branches on
// the stored verdicts and never re-inspects raw keys.
type Event struct {
	raw         *RawEvent
	eventType   domain.StdEventType
	messageType domain.IncomingMessageType

	resolved []domain.AttachmentMetadata
	profile  *domain.Subscriber
}

// Classify wraps a raw webhook event, deciding its event type and, for
// message-bearing events, its message type. The checks run in a fixed
// order so overlapping shapes resolve deterministically: a quick reply
// wins over its accompanying text, text wins over attachments.
func Classify(raw *RawEvent) *Event {
	ev := &Event{raw: raw, eventType: domain.EventUnknown, messageType: domain.MessageUnknown}

	switch {
	case raw.Message != nil:
		if raw.Message.IsEcho {
			ev.eventType = domain.EventEcho
		} else {
			ev.eventType = domain.EventMessage
		}
		msg := raw.Message
		switch {
		case msg.QuickReply != nil:
			ev.messageType = domain.MessageQuickReply
		case msg.Text != nil:
			ev.messageType = domain.MessageText
		case len(msg.Attachments) > 0:
			if msg.Attachments[0].Type == AttachmentLocation {
				ev.messageType = domain.MessageLocation
			} else {
				ev.messageType = domain.MessageAttachments
			}
		}
	case raw.Postback != nil:
		ev.eventType = domain.EventMessage
		ev.messageType = domain.MessagePostback
	case raw.Delivery != nil:
		ev.eventType = domain.EventDelivery
	case raw.Read != nil:
		ev.eventType = domain.EventRead
	}
	return ev
}

// EventType reports the classification verdict.
func (e *Event) EventType() domain.StdEventType { return e.eventType }

// MessageType reports the message-level verdict; unknown for non-message events.
func (e *Event) MessageType() domain.IncomingMessageType { return e.messageType }

// Raw exposes the underlying wire event.
func (e *Event) Raw() *RawEvent { return e.raw }

// ID returns the platform message id. Postbacks carry none; asking for one
// is a caller bug surfaced as ErrNoMessageID.
func (e *Event) ID() (string, error) {
	if e.messageType == domain.MessagePostback {
		return "", ErrNoMessageID
	}
	if e.raw.Message == nil || e.raw.Message.Mid == "" {
		return "", ErrNoMessageID
	}
	return e.raw.Message.Mid, nil
}

// SenderForeignID returns the page-scoped id of the event sender.
func (e *Event) SenderForeignID() string { return e.raw.Sender.ID }

// RecipientForeignID returns the page-scoped id of the event recipient.
func (e *Event) RecipientForeignID() string { return e.raw.Recipient.ID }

// Timestamp returns the platform event timestamp in epoch milliseconds.
func (e *Event) Timestamp() int64 { return e.raw.Timestamp }

// SetResolvedAttachments records the stored metadata of this event's
// attachments, in wire order. It is the only post-classification mutation
// an Event accepts.
func (e *Event) SetResolvedAttachments(meta []domain.AttachmentMetadata) {
	e.resolved = meta
}

// SetProfile attaches the sender's subscriber record, when known.
func (e *Event) SetProfile(sub *domain.Subscriber) { e.profile = sub }

// Profile returns the attached subscriber record, or nil.
func (e *Event) Profile() *domain.Subscriber { return e.profile }

// Payload returns the actionable payload of a message event: the postback or
// quick-reply payload string, shared coordinates, or the first attachment
// reference. Non-message events and plain text messages have none.
func (e *Event) Payload() *domain.Payload {
	if e.eventType != domain.EventMessage {
		return nil
	}
	switch e.messageType {
	case domain.MessagePostback:
		return &domain.Payload{Text: e.raw.Postback.Payload}
	case domain.MessageQuickReply:
		return &domain.Payload{Text: e.raw.Message.QuickReply.Payload}
	case domain.MessageLocation:
		coords := &domain.Coordinates{}
		if c := e.raw.Message.Attachments[0].Payload.Coordinates; c != nil {
			coords.Lat = c.Lat
			coords.Lon = c.Long
		}
		return &domain.Payload{Type: domain.PayloadLocation, Coordinates: coords}
	case domain.MessageAttachments:
		att := e.attachmentPayload(0)
		return &domain.Payload{Type: domain.PayloadAttachments, Attachments: &att}
	default:
		return nil
	}
}

// attachmentPayload builds the typed reference for the i-th wire attachment,
// preferring resolved metadata when available. Unresolved attachments keep a
// nil id so storage can backfill later.
func (e *Event) attachmentPayload(i int) domain.AttachmentPayload {
	wire := e.raw.Message.Attachments[i]
	if i < len(e.resolved) && e.resolved[i].ID != "" {
		meta := e.resolved[i]
		id := meta.ID
		url := meta.URL
		if url == "" {
			url = wire.Payload.URL
		}
		return domain.AttachmentPayload{
			Type:    domain.FileTypeOfMime(meta.MimeType),
			Payload: domain.AttachmentForeignKey{ID: &id, URL: url},
		}
	}
	return domain.AttachmentPayload{
		Type:    domain.FileTypeOf(string(wire.Type)),
		Payload: domain.AttachmentForeignKey{ID: nil, URL: wire.Payload.URL},
	}
}

// serializeAttachment renders one attachment into the text placeholder used
// when a message has no text of its own.
func serializeAttachment(att RawAttachment) string {
	if att.Type == AttachmentFallback {
		return "attachment:fallback"
	}
	if att.Payload.StickerID != 0 {
		return fmt.Sprintf("attachment:sticker:%d", att.Payload.StickerID)
	}
	ref := att.Payload.URL
	if ref == "" {
		ref = att.Payload.Title
	}
	return fmt.Sprintf("attachment:%s:%s", att.Type, ref)
}

// Message normalizes a message or echo event into the standard incoming
// shape. Attachment-only messages get a deterministic serialized text,
// derived from the first attachment, so full-text search has something to
// index.
func (e *Event) Message() (domain.StdIncomingMessage, error) {
	if e.eventType != domain.EventMessage && e.eventType != domain.EventEcho {
		return domain.StdIncomingMessage{}, ErrNotMessageEvent
	}

	switch e.messageType {
	case domain.MessageText:
		return domain.StdIncomingMessage{
			Type: domain.MessageText,
			Text: *e.raw.Message.Text,
		}, nil

	case domain.MessageQuickReply:
		msg := domain.StdIncomingMessage{
			Type:     domain.MessageQuickReply,
			Postback: e.raw.Message.QuickReply.Payload,
		}
		if e.raw.Message.Text != nil {
			msg.Text = *e.raw.Message.Text
		} else {
			msg.Text = msg.Postback
		}
		return msg, nil

	case domain.MessagePostback:
		pb := e.raw.Postback
		return domain.StdIncomingMessage{
			Type:     domain.MessagePostback,
			Postback: pb.Payload,
			Text:     pb.Title,
		}, nil

	case domain.MessageLocation:
		coords := &domain.Coordinates{}
		if c := e.raw.Message.Attachments[0].Payload.Coordinates; c != nil {
			coords.Lat = c.Lat
			coords.Lon = c.Long
		}
		return domain.StdIncomingMessage{
			Type:        domain.MessageLocation,
			Coordinates: coords,
		}, nil

	case domain.MessageAttachments:
		atts := e.raw.Message.Attachments
		msg := domain.StdIncomingMessage{
			Type:           domain.MessageAttachments,
			SerializedText: serializeAttachment(atts[0]),
			Attachment:     make(domain.AttachmentList, 0, len(atts)),
		}
		for i := range atts {
			msg.Attachment = append(msg.Attachment, e.attachmentPayload(i))
		}
		return msg, nil
	}
	return domain.StdIncomingMessage{}, ErrUnknownMessageType
}

// DeliveredMessages lists the message ids acknowledged by a delivery event.
func (e *Event) DeliveredMessages() []string {
	if e.raw.Delivery == nil {
		return nil
	}
	return e.raw.Delivery.Mids
}

// Watermark returns the read/delivery watermark, or zero.
func (e *Event) Watermark() int64 {
	switch {
	case e.raw.Read != nil:
		return e.raw.Read.Watermark
	case e.raw.Delivery != nil:
		return e.raw.Delivery.Watermark
	}
	return 0
}
