package messenger

import (
	"context"
	"slices"

	"pagebridge/internal/bus"
	"pagebridge/internal/domain"
)

// RegisterLabelHooks mirrors label lifecycle events onto the platform's
// custom labels. All hooks are best effort: a Graph API failure is logged
// and the event is otherwise dropped, never retried here.
func (c *Channel) RegisterLabelHooks(ctx context.Context, labels domain.LabelStore) {
	c.bus.On(bus.EventLabelCreated, func(e bus.Event) {
		label, ok := e.Payload.(domain.Label)
		if !ok {
			return
		}
		id, err := c.api.CreateLabel(ctx, label.Name)
		if err != nil {
			c.logger.Warn("label create failed", "label", label.Name, "error", err)
			return
		}
		label.ForeignID = id
		if err := labels.SaveLabel(ctx, label); err != nil {
			c.logger.Warn("label mapping save failed", "label", label.Name, "error", err)
		}
	})

	c.bus.On(bus.EventLabelDeleted, func(e bus.Event) {
		label, ok := e.Payload.(domain.Label)
		if !ok {
			return
		}
		stored, err := labels.GetLabel(ctx, label.Name)
		if err != nil || stored == nil {
			return
		}
		if stored.ForeignID != "" {
			if err := c.api.DeleteLabel(ctx, stored.ForeignID); err != nil {
				c.logger.Warn("label delete failed", "label", label.Name, "error", err)
			}
		}
		if err := labels.DeleteLabel(ctx, label.Name); err != nil {
			c.logger.Warn("label mapping delete failed", "label", label.Name, "error", err)
		}
	})

	c.bus.On(bus.EventSubscriberLabeled, func(e bus.Event) {
		diff, ok := e.Payload.(domain.LabelDiff)
		if !ok {
			return
		}
		c.applyLabelDiff(ctx, labels, diff)
	})
}

// applyLabelDiff associates added labels and dissociates removed ones for a
// subscriber. Labels with no known external id are skipped.
func (c *Channel) applyLabelDiff(ctx context.Context, labels domain.LabelStore, diff domain.LabelDiff) {
	for _, name := range diff.New {
		if slices.Contains(diff.Old, name) {
			continue
		}
		stored, err := labels.GetLabel(ctx, name)
		if err != nil || stored == nil || stored.ForeignID == "" {
			c.logger.Warn("cannot label subscriber: unknown label", "label", name)
			continue
		}
		if err := c.api.LabelUser(ctx, stored.ForeignID, diff.SubscriberForeignID); err != nil {
			c.logger.Warn("label user failed", "label", name, "subscriber", diff.SubscriberForeignID, "error", err)
		}
	}
	for _, name := range diff.Old {
		if slices.Contains(diff.New, name) {
			continue
		}
		stored, err := labels.GetLabel(ctx, name)
		if err != nil || stored == nil || stored.ForeignID == "" {
			continue
		}
		if err := c.api.UnlabelUser(ctx, stored.ForeignID, diff.SubscriberForeignID); err != nil {
			c.logger.Warn("unlabel user failed", "label", name, "subscriber", diff.SubscriberForeignID, "error", err)
		}
	}
}
