package domain

// OutgoingMessageFormat tags a standard outbound envelope.
type OutgoingMessageFormat string

const (
	FormatText         OutgoingMessageFormat = "text"
	FormatQuickReplies OutgoingMessageFormat = "quickReplies"
	FormatButtons      OutgoingMessageFormat = "buttons"
	FormatAttachment   OutgoingMessageFormat = "attachment"
	FormatList         OutgoingMessageFormat = "list"
	FormatCarousel     OutgoingMessageFormat = "carousel"
)

// ViewMorePayload is the reserved postback payload carried by the synthetic
// "view more" element appended to paginated lists.
const ViewMorePayload = "VIEW_MORE"

// ButtonType distinguishes postback buttons from link buttons.
type ButtonType string

const (
	ButtonPostback ButtonType = "postback"
	ButtonWebURL   ButtonType = "web_url"
)

// Button is a call-to-action attached to messages and template elements.
type Button struct {
	Type    ButtonType `json:"type"`
	Title   string     `json:"title,omitempty"`
	Payload string     `json:"payload,omitempty"`
	URL     string     `json:"url,omitempty"`
}

// StdQuickReply is a lightweight tappable option attached to a text message.
// Quick replies need no platform-specific transform and pass through verbatim.
type StdQuickReply struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title,omitempty"`
	Payload     string `json:"payload,omitempty"`
}

// StdOutgoingAttachment is an outbound file attachment by URL.
type StdOutgoingAttachment struct {
	Type FileType `json:"type"`
	URL  string   `json:"url"`
}

// Pagination describes the window of a list/carousel over its full content set.
type Pagination struct {
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// ContentItem is one CMS content row projected into a template element.
// Field names are caller-defined; ContentFields maps them.
type ContentItem map[string]any

// ContentFields names the item fields used when projecting content into
// template elements.
type ContentFields struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	ActionTitle string `json:"action_title,omitempty"`
	URL         string `json:"url,omitempty"`
}

// ContentOptions is the caller-supplied projection config for list/carousel
// compilation: the field mapping plus the button set stamped on every element.
type ContentOptions struct {
	Fields  ContentFields `json:"fields"`
	Buttons []Button      `json:"buttons,omitempty"`
}

// StdOutgoingEnvelope is the standard outbound message produced by the dialog
// engine. Format selects which fields are meaningful; the envelope is
// read-only input to the template compiler.
type StdOutgoingEnvelope struct {
	Format       OutgoingMessageFormat  `json:"format"`
	Text         string                 `json:"text,omitempty"`
	QuickReplies []StdQuickReply        `json:"quick_replies,omitempty"`
	Buttons      []Button               `json:"buttons,omitempty"`
	Attachment   *StdOutgoingAttachment `json:"attachment,omitempty"`
	Elements     []ContentItem          `json:"elements,omitempty"`
	Pagination   *Pagination            `json:"pagination,omitempty"`
}
