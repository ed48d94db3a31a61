package domain

import (
	"encoding/json"
	"strings"
)

// StdEventType classifies an inbound platform event once, at wrap time.
// Downstream consumers branch on this value and never re-inspect raw keys.
type StdEventType string

const (
	EventMessage  StdEventType = "message"
	EventEcho     StdEventType = "echo"
	EventDelivery StdEventType = "delivery"
	EventRead     StdEventType = "read"
	EventUnknown  StdEventType = "unknown"
)

// IncomingMessageType refines StdEventType for message/echo events.
type IncomingMessageType string

const (
	MessageText        IncomingMessageType = "message"
	MessageQuickReply  IncomingMessageType = "quick_reply"
	MessagePostback    IncomingMessageType = "postback"
	MessageLocation    IncomingMessageType = "location"
	MessageAttachments IncomingMessageType = "attachments"
	MessageUnknown     IncomingMessageType = "unknown"
)

// PayloadType tags structured payloads carried by location and attachment messages.
type PayloadType string

const (
	PayloadLocation    PayloadType = "location"
	PayloadAttachments PayloadType = "attachments"
)

// FileType is the closed set of attachment kinds the platform core understands.
type FileType string

const (
	FileImage   FileType = "image"
	FileVideo   FileType = "video"
	FileAudio   FileType = "audio"
	FileFile    FileType = "file"
	FileUnknown FileType = "unknown"
)

// FileTypeOf maps an arbitrary wire attachment type to the closed FileType
// set, defaulting to unknown for anything unrecognized.
func FileTypeOf(wire string) FileType {
	switch FileType(wire) {
	case FileImage, FileVideo, FileAudio, FileFile:
		return FileType(wire)
	default:
		return FileUnknown
	}
}

// FileTypeOfMime derives a FileType from a stored attachment's MIME type.
func FileTypeOfMime(mime string) FileType {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return FileImage
	case strings.HasPrefix(mime, "video/"):
		return FileVideo
	case strings.HasPrefix(mime, "audio/"):
		return FileAudio
	case mime != "":
		return FileFile
	default:
		return FileUnknown
	}
}

// Coordinates is a normalized lat/lon pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AttachmentMetadata is what the attachment resolver returns for a
// platform-issued attachment identifier.
type AttachmentMetadata struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	URL      string `json:"url,omitempty"`
}

// AttachmentForeignKey references a stored attachment. ID stays nil until
// the asynchronous metadata resolution has completed.
type AttachmentForeignKey struct {
	ID  *string `json:"id"`
	URL string  `json:"url,omitempty"`
}

// AttachmentPayload is a typed attachment reference.
type AttachmentPayload struct {
	Type    FileType             `json:"type"`
	Payload AttachmentForeignKey `json:"payload"`
}

// AttachmentList marshals as a single object when it holds exactly one
// attachment. The single-attachment flattening is part of the storage
// contract and must be preserved.
type AttachmentList []AttachmentPayload

func (l AttachmentList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	return json.Marshal([]AttachmentPayload(l))
}

// Payload is what a button tap, quick reply, shared location or attachment
// carries. Text is set for postback/quick-reply payload strings; the typed
// fields are set for location/attachment payloads.
type Payload struct {
	Type        PayloadType        `json:"type,omitempty"`
	Text        string             `json:"text,omitempty"`
	Coordinates *Coordinates       `json:"coordinates,omitempty"`
	Attachments *AttachmentPayload `json:"attachments,omitempty"`
}

// StdIncomingMessage is the normalized message handed to the storage layer.
// Exactly one shape is populated, per IncomingMessageType.
type StdIncomingMessage struct {
	Type           IncomingMessageType `json:"type,omitempty"`
	Text           string              `json:"text,omitempty"`
	Postback       string              `json:"postback,omitempty"`
	Coordinates    *Coordinates        `json:"coordinates,omitempty"`
	SerializedText string              `json:"serialized_text,omitempty"`
	Attachment     AttachmentList      `json:"attachment,omitempty"`
}
