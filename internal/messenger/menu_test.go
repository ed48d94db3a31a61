package messenger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pagebridge/internal/domain"
)

func TestProjectMenu(t *testing.T) {
	tree := domain.MenuTree{
		{
			ID:        "m1",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
			Type:      domain.MenuWebURL,
			Title:     "Website",
			URL:       "https://example.com",
		},
		{
			ID:    "m2",
			Type:  domain.MenuNested,
			Title: "Help",
			CallToActions: domain.MenuTree{
				{ID: "m3", Type: domain.MenuPostback, Title: "FAQ", Payload: "FAQ"},
			},
		},
		{
			ID:    "m4",
			Type:  domain.MenuNested,
			Title: "Empty",
		},
	}

	actions := ProjectMenu(tree)
	if len(actions) != 3 {
		t.Fatalf("actions = %d, want 3", len(actions))
	}

	if actions[0].Type != "web_url" || actions[0].URL != "https://example.com" {
		t.Errorf("web_url action = %+v", actions[0])
	}
	if actions[1].CallToActions == nil || actions[1].CallToActions[0].Payload != "FAQ" {
		t.Errorf("nested action = %+v", actions[1])
	}
	if actions[2].CallToActions != nil {
		t.Errorf("childless nested action = %+v, want nil children", actions[2])
	}

	// Internal bookkeeping never reaches the wire.
	data, err := json.Marshal(actions)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"m1", "created_at", "updated_at"} {
		if strings.Contains(string(data), key) {
			t.Errorf("projected menu leaks %q: %s", key, data)
		}
	}
	// Childless nested item omits the children key entirely.
	if strings.Contains(string(data), `"Empty","call_to_actions"`) {
		t.Errorf("empty children serialized: %s", data)
	}
}

func TestLoadMenuFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.yaml")
	content := `
- type: web_url
  title: Website
  url: https://example.com
- type: nested
  title: Help
  call_to_actions:
    - type: postback
      title: FAQ
      payload: FAQ
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tree, err := LoadMenuFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree) != 2 {
		t.Fatalf("tree = %d nodes, want 2", len(tree))
	}
	if tree[1].CallToActions[0].Title != "FAQ" {
		t.Errorf("nested node = %+v", tree[1])
	}

	if _, err := LoadMenuFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("want error for missing file")
	}
}

func TestProfileBuilders(t *testing.T) {
	p := PersistentMenuProfile(domain.MenuTree{
		{Type: domain.MenuPostback, Title: "Start", Payload: "GET_STARTED"},
	})
	if len(p.PersistentMenu) != 1 || p.PersistentMenu[0].Locale != "default" {
		t.Errorf("profile = %+v", p)
	}
	if p.PersistentMenu[0].ComposerInputDisabled {
		t.Error("composer should stay enabled")
	}

	g := GreetingProfile("hello")
	if len(g.Greeting) != 1 || g.Greeting[0].Text != "hello" {
		t.Errorf("greeting = %+v", g)
	}

	gs := GetStartedProfile()
	if gs.GetStarted == nil || gs.GetStarted.Payload != GetStartedPayload {
		t.Errorf("get started = %+v", gs)
	}
}
