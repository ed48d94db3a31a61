package messenger

import (
	"errors"
	"fmt"
	"strings"

	"pagebridge/internal/domain"
)

// ErrUnknownFormat is returned for envelope formats the compiler does not know.
var ErrUnknownFormat = errors.New("messenger: unknown outgoing message format")

const (
	maxListElements     = 9
	maxCarouselElements = 10
)

// Formatter compiles standard outbound envelopes into Send API message
// bodies. UI strings on synthetic elements go through the translator.
type Formatter struct {
	i18n domain.Translator
}

// NewFormatter builds a Formatter around the given translator.
func NewFormatter(t domain.Translator) *Formatter {
	return &Formatter{i18n: t}
}

// FormatMessage dispatches on the envelope format and returns the wire
// message body ready to wrap in a Send API request.
func (f *Formatter) FormatMessage(env *domain.StdOutgoingEnvelope, opts domain.ContentOptions) (*OutgoingMessageBase, error) {
	switch env.Format {
	case domain.FormatText:
		return f.formatText(env), nil
	case domain.FormatQuickReplies:
		return f.formatQuickReplies(env), nil
	case domain.FormatButtons:
		return f.formatButtons(env), nil
	case domain.FormatAttachment:
		return f.formatAttachment(env)
	case domain.FormatList:
		return f.formatList(env, opts)
	case domain.FormatCarousel:
		return f.formatCarousel(env, opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, env.Format)
}

func (f *Formatter) formatText(env *domain.StdOutgoingEnvelope) *OutgoingMessageBase {
	return &OutgoingMessageBase{Text: env.Text}
}

func (f *Formatter) formatQuickReplies(env *domain.StdOutgoingEnvelope) *OutgoingMessageBase {
	replies := make([]QuickReply, 0, len(env.QuickReplies))
	for _, qr := range env.QuickReplies {
		replies = append(replies, QuickReply{
			ContentType: qr.ContentType,
			Title:       qr.Title,
			Payload:     qr.Payload,
		})
	}
	return &OutgoingMessageBase{Text: env.Text, QuickReplies: replies}
}

func (f *Formatter) formatButtons(env *domain.StdOutgoingEnvelope) *OutgoingMessageBase {
	return &OutgoingMessageBase{
		Attachment: &OutgoingAttachment{
			Type: string(AttachmentTemplate),
			Payload: AttachmentOutPayload{
				TemplateType: TemplateButton,
				Text:         env.Text,
				Buttons:      projectButtons(env.Buttons),
			},
		},
	}
}

func (f *Formatter) formatAttachment(env *domain.StdOutgoingEnvelope) (*OutgoingMessageBase, error) {
	if env.Attachment == nil {
		return nil, errors.New("messenger: attachment envelope without attachment")
	}
	reusable := false
	msg := &OutgoingMessageBase{
		Attachment: &OutgoingAttachment{
			Type: string(env.Attachment.Type),
			Payload: AttachmentOutPayload{
				URL:        env.Attachment.URL,
				IsReusable: &reusable,
			},
		},
	}
	if len(env.QuickReplies) > 0 {
		msg.QuickReplies = make([]QuickReply, 0, len(env.QuickReplies))
		for _, qr := range env.QuickReplies {
			msg.QuickReplies = append(msg.QuickReplies, QuickReply{
				ContentType: qr.ContentType,
				Title:       qr.Title,
				Payload:     qr.Payload,
			})
		}
	}
	return msg, nil
}

func (f *Formatter) formatList(env *domain.StdOutgoingEnvelope, opts domain.ContentOptions) (*OutgoingMessageBase, error) {
	n := len(env.Elements)
	if n == 0 || n > maxListElements {
		return nil, fmt.Errorf("messenger: invalid content count for list (0 < count <= %d), got %d", maxListElements, n)
	}
	elements, err := f.projectElements(env.Elements, opts)
	if err != nil {
		return nil, err
	}
	if remaining(env.Pagination) > 0 {
		elements = append(elements, f.viewMoreElement())
	}
	return wrapGeneric(elements), nil
}

func (f *Formatter) formatCarousel(env *domain.StdOutgoingEnvelope, opts domain.ContentOptions) (*OutgoingMessageBase, error) {
	n := len(env.Elements)
	if n == 0 || n > maxCarouselElements {
		return nil, fmt.Errorf("messenger: invalid content count for carousel (0 < count <= %d), got %d", maxCarouselElements, n)
	}
	elements, err := f.projectElements(env.Elements, opts)
	if err != nil {
		return nil, err
	}
	return wrapGeneric(elements), nil
}

// remaining reports how many content items exist beyond the current window.
func remaining(p *domain.Pagination) int {
	if p == nil {
		return 0
	}
	return p.Total - p.Skip - p.Limit
}

// viewMoreElement is the synthetic trailing card that cues pagination. Its
// postback payload is reserved; the dialog engine answers it with the next
// window.
func (f *Formatter) viewMoreElement() MessageElement {
	return MessageElement{
		Title:    f.i18n.T("More"),
		Subtitle: f.i18n.T("Click on the button below to view more of the content"),
		Buttons: []Button{{
			Type:    string(domain.ButtonPostback),
			Title:   f.i18n.T("View More"),
			Payload: domain.ViewMorePayload,
		}},
	}
}

func wrapGeneric(elements []MessageElement) *OutgoingMessageBase {
	return &OutgoingMessageBase{
		Attachment: &OutgoingAttachment{
			Type: string(AttachmentTemplate),
			Payload: AttachmentOutPayload{
				TemplateType: TemplateGeneric,
				Elements:     elements,
			},
		},
	}
}

func projectButtons(buttons []domain.Button) []Button {
	out := make([]Button, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, Button{
			Type:    string(b.Type),
			Title:   b.Title,
			Payload: b.Payload,
			URL:     b.URL,
		})
	}
	return out
}

// projectElements turns content items into template cards using the
// caller-supplied field mapping and button set.
func (f *Formatter) projectElements(items []domain.ContentItem, opts domain.ContentOptions) ([]MessageElement, error) {
	elements := make([]MessageElement, 0, len(items))
	for _, item := range items {
		title := stringField(item, opts.Fields.Title)
		if title == "" {
			return nil, errors.New("messenger: content item is missing its title field")
		}
		el := MessageElement{
			Title:    title,
			Subtitle: stringField(item, opts.Fields.Subtitle),
			ImageURL: imageField(item, opts.Fields.ImageURL),
		}

		buttons := itemButtons(item)
		for _, b := range opts.Buttons {
			btn := Button{Type: string(b.Type), Title: b.Title}
			if b.Type == domain.ButtonWebURL {
				btn.URL = normalizeURL(contentURL(item, opts.Fields))
				if el.DefaultAction == nil {
					el.DefaultAction = &DefaultAction{
						Type: string(domain.ButtonWebURL),
						URL:  btn.URL,
					}
				}
			} else {
				// Keyed on the configured title; the action title
				// override below changes only what is displayed.
				btn.Payload = b.Title + ":" + contentPayload(item, title)
			}
			buttons = append(buttons, btn)
		}
		if len(buttons) > 0 {
			if opts.Fields.ActionTitle != "" {
				if t := stringField(item, opts.Fields.ActionTitle); t != "" {
					buttons[0].Title = t
				}
			}
			el.Buttons = buttons
		}
		elements = append(elements, el)
	}
	return elements, nil
}

// itemButtons passes through buttons stored on the content item itself,
// ahead of the configured button set. Stored items carry them as decoded
// JSON maps already in wire shape.
func itemButtons(item domain.ContentItem) []Button {
	raw, ok := item["buttons"].([]any)
	if !ok {
		return nil
	}
	out := make([]Button, 0, len(raw))
	for _, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Button{
			Type:    stringField(m, "type"),
			Title:   stringField(m, "title"),
			Payload: stringField(m, "payload"),
			URL:     stringField(m, "url"),
		})
	}
	return out
}

// contentURL resolves the link target of an item: the mapped URL field when
// configured, the canonical "url" field otherwise.
func contentURL(item domain.ContentItem, fields domain.ContentFields) string {
	if fields.URL != "" {
		if u := stringField(item, fields.URL); u != "" {
			return u
		}
	}
	return stringField(item, "url")
}

// contentPayload resolves the postback payload of an item, falling back to
// its title so every card stays actionable.
func contentPayload(item domain.ContentItem, title string) string {
	if p := stringField(item, "payload"); p != "" {
		return p
	}
	return title
}

// normalizeURL prefixes bare hosts with https so the platform accepts them.
func normalizeURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http") {
		return u
	}
	return "https://" + u
}

func stringField(item domain.ContentItem, field string) string {
	if field == "" {
		return ""
	}
	s, _ := item[field].(string)
	return s
}

// imageField accepts either a plain URL string or a stored attachment shape
// holding the URL under payload.url.
func imageField(item domain.ContentItem, field string) string {
	if field == "" {
		return ""
	}
	switch v := item[field].(type) {
	case string:
		return v
	case map[string]any:
		if payload, ok := v["payload"].(map[string]any); ok {
			if u, ok := payload["url"].(string); ok {
				return u
			}
		}
	}
	return ""
}
