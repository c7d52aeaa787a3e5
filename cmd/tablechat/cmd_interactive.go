package main

import (
	"context"
	"fmt"

	"tablechat/cmd/tablechat/chat"
	"tablechat/internal/engine"
)

// runInteractiveChat starts the bubbletea chat over the seed table.
func runInteractiveChat(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	eng := engine.NewFromConfig(ctx, cfg)
	s, err := eng.NewTable(cfg.Table.Headers, cfg.Table.Rows)
	if err != nil {
		return fmt.Errorf("invalid seed table: %w", err)
	}
	return chat.Run(ctx, eng, s)
}
