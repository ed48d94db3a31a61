package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pagebridge/internal/bus"
	"pagebridge/internal/config"
	"pagebridge/internal/domain"
	"pagebridge/internal/i18n"
	"pagebridge/internal/messenger"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the page's messenger profile",
	}
	cmd.AddCommand(profileSyncCmd())
	cmd.AddCommand(profileClearCmd())
	return cmd
}

func profileChannel(cfg *config.Config) *messenger.Channel {
	return messenger.NewChannel(messenger.ChannelOptions{
		Config:     cfg.Messenger,
		API:        newGraphClient(cfg),
		Bus:        bus.NewEventBus(logger),
		Translator: i18n.New(),
		Logger:     logger,
	})
}

func profileSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Publish greeting, get-started button and persistent menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			tree, err := loadMenu(cfg)
			if err != nil {
				return err
			}
			return profileChannel(cfg).SyncProfile(cmd.Context(), tree)
		},
	}
}

func profileClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove greeting, get-started button and persistent menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return profileChannel(cfg).ClearProfile(cmd.Context())
		},
	}
}

func loadMenu(cfg *config.Config) (domain.MenuTree, error) {
	if cfg.Menu.Path == "" {
		return nil, nil
	}
	tree, err := messenger.LoadMenuFile(cfg.Menu.Path)
	if err != nil {
		return nil, fmt.Errorf("load menu: %w", err)
	}
	return tree, nil
}
