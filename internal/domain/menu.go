package domain

import "time"

// MenuType distinguishes link items, postback items, and nested submenus.
type MenuType string

const (
	MenuWebURL   MenuType = "web_url"
	MenuPostback MenuType = "postback"
	MenuNested   MenuType = "nested"
)

// MenuNode is one entry of the persistent menu tree. ID and timestamps are
// internal bookkeeping and are stripped before the tree is sent to the
// external platform.
type MenuNode struct {
	ID        string    `json:"id,omitempty" yaml:"id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`

	Type    MenuType `json:"type" yaml:"type"`
	Title   string   `json:"title" yaml:"title"`
	Payload string   `json:"payload,omitempty" yaml:"payload,omitempty"`
	URL     string   `json:"url,omitempty" yaml:"url,omitempty"`

	CallToActions MenuTree `json:"call_to_actions,omitempty" yaml:"call_to_actions,omitempty"`
}

// MenuTree is a recursive menu structure.
type MenuTree []MenuNode
