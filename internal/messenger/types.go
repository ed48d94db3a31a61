package messenger

// Wire types for the Messenger webhook and Send API. Field sets follow the
// Graph API payloads; optional keys are pointers so presence survives a
// JSON round trip.

// Party identifies a sender or recipient by page-scoped id.
type Party struct {
	ID string `json:"id"`
}

// AttachmentType is the wire attachment type vocabulary. It is wider than
// the platform's FileType: location and fallback exist only on the wire.
type AttachmentType string

const (
	AttachmentImage    AttachmentType = "image"
	AttachmentVideo    AttachmentType = "video"
	AttachmentAudio    AttachmentType = "audio"
	AttachmentFile     AttachmentType = "file"
	AttachmentLocation AttachmentType = "location"
	AttachmentFallback AttachmentType = "fallback"
	AttachmentTemplate AttachmentType = "template"
)

// RawCoordinates is a shared-location coordinate pair as Messenger sends it.
type RawCoordinates struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// RawAttachmentPayload is the payload of an inbound attachment. Which fields
// are set depends on the attachment type.
type RawAttachmentPayload struct {
	URL         string          `json:"url,omitempty"`
	Title       string          `json:"title,omitempty"`
	StickerID   int64           `json:"sticker_id,omitempty"`
	Coordinates *RawCoordinates `json:"coordinates,omitempty"`
}

// RawAttachment is one inbound attachment.
type RawAttachment struct {
	Type    AttachmentType       `json:"type"`
	Payload RawAttachmentPayload `json:"payload"`
}

// RawQuickReply is the echo of a tapped quick reply.
type RawQuickReply struct {
	Payload string `json:"payload"`
}

// RawMessage is the message part of a webhook event.
type RawMessage struct {
	Mid         string          `json:"mid,omitempty"`
	Text        *string         `json:"text,omitempty"`
	QuickReply  *RawQuickReply  `json:"quick_reply,omitempty"`
	Attachments []RawAttachment `json:"attachments,omitempty"`
	IsEcho      bool            `json:"is_echo,omitempty"`
}

// RawPostback is a button or persistent-menu tap.
type RawPostback struct {
	Title   string `json:"title,omitempty"`
	Payload string `json:"payload"`
}

// RawDelivery acknowledges messages delivered to the user's device.
type RawDelivery struct {
	Mids      []string `json:"mids,omitempty"`
	Watermark int64    `json:"watermark"`
}

// RawRead acknowledges messages seen by the user.
type RawRead struct {
	Watermark int64 `json:"watermark"`
}

// RawEvent is one messaging entry of a webhook delivery. Exactly one of the
// pointer members is set; presence drives classification.
type RawEvent struct {
	Sender    Party        `json:"sender"`
	Recipient Party        `json:"recipient"`
	Timestamp int64        `json:"timestamp,omitempty"`
	Message   *RawMessage  `json:"message,omitempty"`
	Postback  *RawPostback `json:"postback,omitempty"`
	Delivery  *RawDelivery `json:"delivery,omitempty"`
	Read      *RawRead     `json:"read,omitempty"`
}

// WebhookEntry groups the events of one page.
type WebhookEntry struct {
	ID        string     `json:"id"`
	Time      int64      `json:"time,omitempty"`
	Messaging []RawEvent `json:"messaging"`
}

// WebhookBody is the top-level webhook POST body. Entry stays nil when the
// key is absent, which the handler treats differently from an empty batch.
type WebhookBody struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// TemplateType selects the structured template variant of an outbound
// attachment payload.
type TemplateType string

const (
	TemplateButton  TemplateType = "button"
	TemplateGeneric TemplateType = "generic"
)

// DefaultAction is the tap target of a whole template element.
type DefaultAction struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// MessageElement is one card of a generic template.
type MessageElement struct {
	Title         string         `json:"title"`
	Subtitle      string         `json:"subtitle,omitempty"`
	ImageURL      string         `json:"image_url,omitempty"`
	DefaultAction *DefaultAction `json:"default_action,omitempty"`
	Buttons       []Button       `json:"buttons,omitempty"`
}

// Button is an outbound call-to-action.
type Button struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Payload string `json:"payload,omitempty"`
	URL     string `json:"url,omitempty"`
}

// QuickReply is an outbound quick reply option.
type QuickReply struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title,omitempty"`
	Payload     string `json:"payload,omitempty"`
}

// AttachmentOutPayload is the payload of an outbound attachment: either a
// template (TemplateType set) or a file by URL.
type AttachmentOutPayload struct {
	TemplateType TemplateType     `json:"template_type,omitempty"`
	Text         string           `json:"text,omitempty"`
	Buttons      []Button         `json:"buttons,omitempty"`
	Elements     []MessageElement `json:"elements,omitempty"`
	URL          string           `json:"url,omitempty"`
	IsReusable   *bool            `json:"is_reusable,omitempty"`
}

// OutgoingAttachment wraps an outbound attachment payload.
type OutgoingAttachment struct {
	Type    string               `json:"type"`
	Payload AttachmentOutPayload `json:"payload"`
}

// OutgoingMessageBase is the message part of a Send API call.
type OutgoingMessageBase struct {
	Text         string              `json:"text,omitempty"`
	QuickReplies []QuickReply        `json:"quick_replies,omitempty"`
	Attachment   *OutgoingAttachment `json:"attachment,omitempty"`
}

// OutgoingMessage is a full Send API request body.
type OutgoingMessage struct {
	Recipient Party               `json:"recipient"`
	Message   OutgoingMessageBase `json:"message"`
}

// SenderAction values accepted by the Send API.
const (
	ActionMarkSeen  = "mark_seen"
	ActionTypingOn  = "typing_on"
	ActionTypingOff = "typing_off"
)

// GreetingText is one locale entry of the page greeting.
type GreetingText struct {
	Locale string `json:"locale"`
	Text   string `json:"text"`
}

// GetStarted configures the get-started button payload.
type GetStarted struct {
	Payload string `json:"payload"`
}

// CallToAction is one persistent-menu item on the wire. Nested items carry
// their children in CallToActions.
type CallToAction struct {
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	Payload       string         `json:"payload,omitempty"`
	URL           string         `json:"url,omitempty"`
	CallToActions []CallToAction `json:"call_to_actions,omitempty"`
}

// PersistentMenu is one locale entry of the page menu.
type PersistentMenu struct {
	Locale                string         `json:"locale"`
	ComposerInputDisabled bool           `json:"composer_input_disabled"`
	CallToActions         []CallToAction `json:"call_to_actions"`
}

// Profile is the messenger_profile document the page exposes.
type Profile struct {
	Greeting       []GreetingText   `json:"greeting,omitempty"`
	GetStarted     *GetStarted      `json:"get_started,omitempty"`
	PersistentMenu []PersistentMenu `json:"persistent_menu,omitempty"`
}

// UserProfile is what the Graph API returns for a page-scoped user id.
type UserProfile struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	ProfilePic string `json:"profile_pic,omitempty"`
	Locale     string `json:"locale,omitempty"`
	Timezone   int    `json:"timezone,omitempty"`
	Gender     string `json:"gender,omitempty"`
}
