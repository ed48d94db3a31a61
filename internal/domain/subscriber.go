package domain

import (
	"context"
	"time"
)

// Subscriber is an end user known to the bot, keyed by the platform-scoped
// id (PSID) in ForeignID.
type Subscriber struct {
	ForeignID    string    `json:"foreign_id"`
	Channel      string    `json:"channel"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	Locale       string    `json:"locale,omitempty"`
	Timezone     int       `json:"timezone,omitempty"`
	Labels       []string  `json:"labels,omitempty"`
	LastVisit    time.Time `json:"last_visit,omitzero"`
	RetainedFrom time.Time `json:"retained_from,omitzero"`
}

// Label pairs a platform-internal label name with the external platform's
// label identifier once synced.
type Label struct {
	Name      string `json:"name"`
	ForeignID string `json:"foreign_id,omitempty"`
}

// LabelDiff describes a subscriber label change to be mirrored externally.
type LabelDiff struct {
	SubscriberForeignID string   `json:"subscriber_foreign_id"`
	Old                 []string `json:"old"`
	New                 []string `json:"new"`
}

// SubscriberStore persists subscribers. Persistence itself is outside the
// adapter core; the interface is what the webhook shell consumes.
type SubscriberStore interface {
	UpsertSubscriber(ctx context.Context, sub Subscriber) error
	GetSubscriber(ctx context.Context, foreignID string) (*Subscriber, error)
}

// AttachmentResolver maps platform-issued attachment identifiers to stored
// attachment metadata. Resolution may lag behind classification; callers
// must tolerate a nil result.
type AttachmentResolver interface {
	ResolveAttachment(ctx context.Context, foreignID string) (*AttachmentMetadata, error)
}

// LabelStore persists the mapping between label names and external label ids.
type LabelStore interface {
	SaveLabel(ctx context.Context, label Label) error
	GetLabel(ctx context.Context, name string) (*Label, error)
	DeleteLabel(ctx context.Context, name string) error
}

// Translator resolves UI strings ("More", "View More") for outbound content.
type Translator interface {
	T(key string) string
}
