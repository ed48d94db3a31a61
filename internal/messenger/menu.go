package messenger

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pagebridge/internal/domain"
)

// GetStartedPayload is the postback payload of the get-started button.
const GetStartedPayload = "GET_STARTED"

// ProjectMenu renders a menu tree into persistent-menu call-to-actions.
// Internal ids and timestamps never reach the wire; childless nested items
// keep a nil children slice so the key is omitted entirely.
func ProjectMenu(tree domain.MenuTree) []CallToAction {
	if len(tree) == 0 {
		return nil
	}
	actions := make([]CallToAction, 0, len(tree))
	for _, node := range tree {
		cta := CallToAction{
			Type:  string(node.Type),
			Title: node.Title,
		}
		switch node.Type {
		case domain.MenuWebURL:
			cta.URL = node.URL
		case domain.MenuPostback:
			cta.Payload = node.Payload
		case domain.MenuNested:
			cta.CallToActions = ProjectMenu(node.CallToActions)
		}
		actions = append(actions, cta)
	}
	return actions
}

// LoadMenuFile reads a persistent menu definition from a YAML file.
func LoadMenuFile(path string) (domain.MenuTree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu file: %w", err)
	}
	var tree domain.MenuTree
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse menu file %s: %w", path, err)
	}
	return tree, nil
}

// GreetingProfile builds the default-locale greeting setting.
func GreetingProfile(text string) Profile {
	return Profile{
		Greeting: []GreetingText{{Locale: "default", Text: text}},
	}
}

// GetStartedProfile builds the get-started button setting.
func GetStartedProfile() Profile {
	return Profile{GetStarted: &GetStarted{Payload: GetStartedPayload}}
}

// PersistentMenuProfile builds the default-locale persistent menu setting.
func PersistentMenuProfile(tree domain.MenuTree) Profile {
	return Profile{
		PersistentMenu: []PersistentMenu{{
			Locale:                "default",
			ComposerInputDisabled: false,
			CallToActions:         ProjectMenu(tree),
		}},
	}
}
