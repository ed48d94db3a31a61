package messenger

import (
	"encoding/json"
	"errors"
	"testing"

	"pagebridge/internal/domain"
)

func strptr(s string) *string { return &s }

func textEvent(text string) *RawEvent {
	return &RawEvent{
		Sender:    Party{ID: "user-1"},
		Recipient: Party{ID: "page-1"},
		Timestamp: 1700000000000,
		Message:   &RawMessage{Mid: "mid.text", Text: strptr(text)},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		raw         *RawEvent
		eventType   domain.StdEventType
		messageType domain.IncomingMessageType
	}{
		{
			name:        "text message",
			raw:         textEvent("Hello"),
			eventType:   domain.EventMessage,
			messageType: domain.MessageText,
		},
		{
			name: "quick reply wins over text",
			raw: &RawEvent{
				Sender: Party{ID: "user-1"},
				Message: &RawMessage{
					Mid:        "mid.qr",
					Text:       strptr("Yes"),
					QuickReply: &RawQuickReply{Payload: "YES"},
				},
			},
			eventType:   domain.EventMessage,
			messageType: domain.MessageQuickReply,
		},
		{
			name: "text wins over attachments",
			raw: &RawEvent{
				Sender: Party{ID: "user-1"},
				Message: &RawMessage{
					Mid:  "mid.mixed",
					Text: strptr("look at this"),
					Attachments: []RawAttachment{
						{Type: AttachmentImage, Payload: RawAttachmentPayload{URL: "https://cdn.example.com/a.jpg"}},
					},
				},
			},
			eventType:   domain.EventMessage,
			messageType: domain.MessageText,
		},
		{
			name: "echo message",
			raw: &RawEvent{
				Sender:  Party{ID: "page-1"},
				Message: &RawMessage{Mid: "mid.echo", Text: strptr("auto reply"), IsEcho: true},
			},
			eventType:   domain.EventEcho,
			messageType: domain.MessageText,
		},
		{
			name: "location attachment",
			raw: &RawEvent{
				Sender: Party{ID: "user-1"},
				Message: &RawMessage{
					Mid: "mid.loc",
					Attachments: []RawAttachment{
						{Type: AttachmentLocation, Payload: RawAttachmentPayload{
							Coordinates: &RawCoordinates{Lat: 2.0545, Long: -0.1854},
						}},
					},
				},
			},
			eventType:   domain.EventMessage,
			messageType: domain.MessageLocation,
		},
		{
			name: "file attachment",
			raw: &RawEvent{
				Sender: Party{ID: "user-1"},
				Message: &RawMessage{
					Mid: "mid.file",
					Attachments: []RawAttachment{
						{Type: AttachmentImage, Payload: RawAttachmentPayload{URL: "https://cdn.example.com/a.jpg"}},
					},
				},
			},
			eventType:   domain.EventMessage,
			messageType: domain.MessageAttachments,
		},
		{
			name: "postback",
			raw: &RawEvent{
				Sender:   Party{ID: "user-1"},
				Postback: &RawPostback{Title: "Get Started", Payload: "GET_STARTED"},
			},
			eventType:   domain.EventMessage,
			messageType: domain.MessagePostback,
		},
		{
			name:      "delivery",
			raw:       &RawEvent{Delivery: &RawDelivery{Mids: []string{"mid.1"}, Watermark: 1700000001000}},
			eventType: domain.EventDelivery,
		},
		{
			name:      "read",
			raw:       &RawEvent{Read: &RawRead{Watermark: 1700000002000}},
			eventType: domain.EventRead,
		},
		{
			name:      "empty event",
			raw:       &RawEvent{Sender: Party{ID: "user-1"}},
			eventType: domain.EventUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Classify(tt.raw)
			if ev.EventType() != tt.eventType {
				t.Errorf("EventType = %q, want %q", ev.EventType(), tt.eventType)
			}
			wantMsgType := tt.messageType
			if wantMsgType == "" {
				wantMsgType = domain.MessageUnknown
			}
			if ev.MessageType() != wantMsgType {
				t.Errorf("MessageType = %q, want %q", ev.MessageType(), wantMsgType)
			}

			// Classification is stable across repeated reads.
			if ev.EventType() != Classify(tt.raw).EventType() {
				t.Error("classification not deterministic")
			}
		})
	}
}

func TestEventID(t *testing.T) {
	ev := Classify(textEvent("hi"))
	id, err := ev.ID()
	if err != nil {
		t.Fatalf("ID() error: %v", err)
	}
	if id != "mid.text" {
		t.Errorf("ID = %q, want mid.text", id)
	}

	pb := Classify(&RawEvent{Postback: &RawPostback{Payload: "GO"}})
	if _, err := pb.ID(); !errors.Is(err, ErrNoMessageID) {
		t.Errorf("postback ID() error = %v, want ErrNoMessageID", err)
	}

	missing := Classify(&RawEvent{Message: &RawMessage{Text: strptr("no mid")}})
	if _, err := missing.ID(); !errors.Is(err, ErrNoMessageID) {
		t.Errorf("missing mid ID() error = %v, want ErrNoMessageID", err)
	}
}

func TestEventPayload(t *testing.T) {
	t.Run("plain text has no payload", func(t *testing.T) {
		if p := Classify(textEvent("hi")).Payload(); p != nil {
			t.Errorf("Payload = %+v, want nil", p)
		}
	})

	t.Run("postback", func(t *testing.T) {
		ev := Classify(&RawEvent{Postback: &RawPostback{Title: "Start", Payload: "GET_STARTED"}})
		p := ev.Payload()
		if p == nil || p.Text != "GET_STARTED" {
			t.Fatalf("Payload = %+v, want text GET_STARTED", p)
		}
	})

	t.Run("quick reply", func(t *testing.T) {
		ev := Classify(&RawEvent{Message: &RawMessage{
			Mid: "mid.qr", QuickReply: &RawQuickReply{Payload: "MAYBE"},
		}})
		p := ev.Payload()
		if p == nil || p.Text != "MAYBE" {
			t.Fatalf("Payload = %+v, want text MAYBE", p)
		}
	})

	t.Run("location defaults missing coordinates to zero", func(t *testing.T) {
		ev := Classify(&RawEvent{Message: &RawMessage{
			Mid:         "mid.loc",
			Attachments: []RawAttachment{{Type: AttachmentLocation}},
		}})
		p := ev.Payload()
		if p == nil || p.Type != domain.PayloadLocation {
			t.Fatalf("Payload = %+v, want location", p)
		}
		if p.Coordinates == nil || p.Coordinates.Lat != 0 || p.Coordinates.Lon != 0 {
			t.Errorf("Coordinates = %+v, want zero pair", p.Coordinates)
		}
	})

	t.Run("unresolved attachment keeps nil id", func(t *testing.T) {
		ev := Classify(&RawEvent{Message: &RawMessage{
			Mid: "mid.att",
			Attachments: []RawAttachment{
				{Type: AttachmentImage, Payload: RawAttachmentPayload{URL: "https://cdn.example.com/a.jpg"}},
			},
		}})
		p := ev.Payload()
		if p == nil || p.Type != domain.PayloadAttachments || p.Attachments == nil {
			t.Fatalf("Payload = %+v, want attachments", p)
		}
		if p.Attachments.Payload.ID != nil {
			t.Errorf("attachment id = %v, want nil before resolution", *p.Attachments.Payload.ID)
		}
		if p.Attachments.Type != domain.FileImage {
			t.Errorf("attachment type = %q, want image", p.Attachments.Type)
		}
	})

	t.Run("resolved attachment carries stored id", func(t *testing.T) {
		ev := Classify(&RawEvent{Message: &RawMessage{
			Mid: "mid.att",
			Attachments: []RawAttachment{
				{Type: AttachmentFallback, Payload: RawAttachmentPayload{URL: "https://cdn.example.com/doc"}},
			},
		}})
		ev.SetResolvedAttachments([]domain.AttachmentMetadata{
			{ID: "att-42", MimeType: "application/pdf", URL: "https://store.example.com/att-42"},
		})
		p := ev.Payload()
		if p == nil || p.Attachments == nil || p.Attachments.Payload.ID == nil {
			t.Fatalf("Payload = %+v, want resolved attachment", p)
		}
		if *p.Attachments.Payload.ID != "att-42" {
			t.Errorf("attachment id = %q, want att-42", *p.Attachments.Payload.ID)
		}
		if p.Attachments.Type != domain.FileFile {
			t.Errorf("attachment type = %q, want file (from mime)", p.Attachments.Type)
		}
	})

	t.Run("delivery has no payload", func(t *testing.T) {
		ev := Classify(&RawEvent{Delivery: &RawDelivery{Watermark: 1}})
		if p := ev.Payload(); p != nil {
			t.Errorf("Payload = %+v, want nil", p)
		}
	})
}

func TestEventMessage(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		msg, err := Classify(textEvent("Hello")).Message()
		if err != nil {
			t.Fatal(err)
		}
		if msg.Type != domain.MessageText || msg.Text != "Hello" {
			t.Errorf("Message = %+v", msg)
		}
	})

	t.Run("quick reply", func(t *testing.T) {
		ev := Classify(&RawEvent{Message: &RawMessage{
			Mid:        "mid.qr",
			Text:       strptr("Yes"),
			QuickReply: &RawQuickReply{Payload: "YES"},
		}})
		msg, err := ev.Message()
		if err != nil {
			t.Fatal(err)
		}
		if msg.Postback != "YES" || msg.Text != "Yes" {
			t.Errorf("Message = %+v", msg)
		}
	})

	t.Run("postback", func(t *testing.T) {
		ev := Classify(&RawEvent{Postback: &RawPostback{Title: "Get Started", Payload: "GET_STARTED"}})
		msg, err := ev.Message()
		if err != nil {
			t.Fatal(err)
		}
		if msg.Postback != "GET_STARTED" || msg.Text != "Get Started" {
			t.Errorf("Message = %+v", msg)
		}
	})

	t.Run("location", func(t *testing.T) {
		ev := Classify(&RawEvent{Message: &RawMessage{
			Mid: "mid.loc",
			Attachments: []RawAttachment{
				{Type: AttachmentLocation, Payload: RawAttachmentPayload{
					Coordinates: &RawCoordinates{Lat: 2.0545, Long: -0.1854},
				}},
			},
		}})
		msg, err := ev.Message()
		if err != nil {
			t.Fatal(err)
		}
		if msg.Coordinates == nil || msg.Coordinates.Lat != 2.0545 || msg.Coordinates.Lon != -0.1854 {
			t.Errorf("Coordinates = %+v", msg.Coordinates)
		}
	})

	t.Run("delivery is not a message", func(t *testing.T) {
		ev := Classify(&RawEvent{Delivery: &RawDelivery{Watermark: 1}})
		if _, err := ev.Message(); !errors.Is(err, ErrNotMessageEvent) {
			t.Errorf("error = %v, want ErrNotMessageEvent", err)
		}
	})
}

func TestEventMessageSerializedText(t *testing.T) {
	tests := []struct {
		name string
		att  RawAttachment
		want string
	}{
		{
			name: "fallback",
			att:  RawAttachment{Type: AttachmentFallback, Payload: RawAttachmentPayload{Title: "some link"}},
			want: "attachment:fallback",
		},
		{
			name: "sticker",
			att:  RawAttachment{Type: AttachmentImage, Payload: RawAttachmentPayload{StickerID: 42, URL: "https://cdn.example.com/42.png"}},
			want: "attachment:sticker:42",
		},
		{
			name: "image by url",
			att:  RawAttachment{Type: AttachmentImage, Payload: RawAttachmentPayload{URL: "https://cdn.example.com/a.jpg"}},
			want: "attachment:image:https://cdn.example.com/a.jpg",
		},
		{
			name: "title fallback when url missing",
			att:  RawAttachment{Type: AttachmentFile, Payload: RawAttachmentPayload{Title: "report.pdf"}},
			want: "attachment:file:report.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Classify(&RawEvent{Message: &RawMessage{Mid: "mid", Attachments: []RawAttachment{tt.att}}})
			msg, err := ev.Message()
			if err != nil {
				t.Fatal(err)
			}
			if msg.SerializedText != tt.want {
				t.Errorf("SerializedText = %q, want %q", msg.SerializedText, tt.want)
			}
		})
	}

	t.Run("first attachment only", func(t *testing.T) {
		ev := Classify(&RawEvent{Message: &RawMessage{
			Mid: "mid",
			Attachments: []RawAttachment{
				{Type: AttachmentImage, Payload: RawAttachmentPayload{URL: "https://cdn.example.com/u1.jpg"}},
				{Type: AttachmentVideo, Payload: RawAttachmentPayload{URL: "https://cdn.example.com/u2.mp4"}},
			},
		}})
		msg, err := ev.Message()
		if err != nil {
			t.Fatal(err)
		}
		if want := "attachment:image:https://cdn.example.com/u1.jpg"; msg.SerializedText != want {
			t.Errorf("SerializedText = %q, want %q", msg.SerializedText, want)
		}
		if len(msg.Attachment) != 2 {
			t.Errorf("Attachment count = %d, want both attachments kept", len(msg.Attachment))
		}
	})
}

func TestEventMessageAttachmentFlattening(t *testing.T) {
	single := Classify(&RawEvent{Message: &RawMessage{
		Mid: "mid.one",
		Attachments: []RawAttachment{
			{Type: AttachmentImage, Payload: RawAttachmentPayload{URL: "https://cdn.example.com/a.jpg"}},
		},
	}})
	msg, err := single.Message()
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(msg.Attachment)
	if err != nil {
		t.Fatal(err)
	}
	if data[0] != '{' {
		t.Errorf("single attachment marshals as %s, want an object", data)
	}

	double := Classify(&RawEvent{Message: &RawMessage{
		Mid: "mid.two",
		Attachments: []RawAttachment{
			{Type: AttachmentImage, Payload: RawAttachmentPayload{URL: "https://cdn.example.com/a.jpg"}},
			{Type: AttachmentVideo, Payload: RawAttachmentPayload{URL: "https://cdn.example.com/b.mp4"}},
		},
	}})
	msg, err = double.Message()
	if err != nil {
		t.Fatal(err)
	}
	data, err = json.Marshal(msg.Attachment)
	if err != nil {
		t.Fatal(err)
	}
	if data[0] != '[' {
		t.Errorf("two attachments marshal as %s, want an array", data)
	}
	if len(msg.Attachment) != 2 {
		t.Errorf("Attachment count = %d, want 2", len(msg.Attachment))
	}
}

func TestDeliveryAccessors(t *testing.T) {
	ev := Classify(&RawEvent{Delivery: &RawDelivery{
		Mids:      []string{"mid.1", "mid.2"},
		Watermark: 1700000001000,
	}})
	mids := ev.DeliveredMessages()
	if len(mids) != 2 || mids[0] != "mid.1" {
		t.Errorf("DeliveredMessages = %v", mids)
	}
	if ev.Watermark() != 1700000001000 {
		t.Errorf("Watermark = %d", ev.Watermark())
	}

	read := Classify(&RawEvent{Read: &RawRead{Watermark: 1700000002000}})
	if read.Watermark() != 1700000002000 {
		t.Errorf("read Watermark = %d", read.Watermark())
	}
	if read.DeliveredMessages() != nil {
		t.Error("read event should have no delivered messages")
	}
}

func TestSenderRecipient(t *testing.T) {
	ev := Classify(textEvent("hi"))
	if ev.SenderForeignID() != "user-1" || ev.RecipientForeignID() != "page-1" {
		t.Errorf("sender=%q recipient=%q", ev.SenderForeignID(), ev.RecipientForeignID())
	}
	if ev.Timestamp() != 1700000000000 {
		t.Errorf("Timestamp = %d", ev.Timestamp())
	}
}
