package messenger

import (
	"context"

	"pagebridge/internal/domain"
)

// SyncProfile publishes the greeting, get-started button and persistent
// menu to the page profile in one call.
func (c *Channel) SyncProfile(ctx context.Context, tree domain.MenuTree) error {
	profile := Profile{
		GetStarted: &GetStarted{Payload: GetStartedPayload},
	}
	if c.cfg.Greeting != "" {
		profile.Greeting = GreetingProfile(c.cfg.Greeting).Greeting
	}
	if len(tree) > 0 {
		profile.PersistentMenu = PersistentMenuProfile(tree).PersistentMenu
	}
	if err := c.api.SetProfile(ctx, profile); err != nil {
		return err
	}
	c.logger.Info("page profile synced", "menu_items", len(tree))
	return nil
}

// ClearProfile removes the page profile settings. The persistent menu must
// go before the get-started button, which the platform requires it to hang
// off.
func (c *Channel) ClearProfile(ctx context.Context) error {
	if err := c.api.DeleteProfile(ctx, []string{"persistent_menu"}); err != nil {
		return err
	}
	if err := c.api.DeleteProfile(ctx, []string{"get_started", "greeting"}); err != nil {
		return err
	}
	c.logger.Info("page profile cleared")
	return nil
}
