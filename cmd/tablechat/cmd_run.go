package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tablechat/cmd/tablechat/chat"
	"tablechat/internal/engine"
	"tablechat/internal/export"
	"tablechat/internal/table"
)

// exportPath is set by run --export.
var exportPath string

// runCommands applies each argument to the seed table in order. A command
// that changes nothing leaves the table as it was for the next one.
func runCommands(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	eng := engine.NewFromConfig(ctx, cfg)
	s, err := eng.NewTable(cfg.Table.Headers, cfg.Table.Rows)
	if err != nil {
		return fmt.Errorf("invalid seed table: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, text := range args {
		logger.Info("Processing command", zap.String("input", text))
		next, reply := eng.Dispatch(ctx, text, s)
		if next != nil {
			s = next
		}
		fmt.Fprintf(out, "> %s\n%s\n\n", text, reply)
	}

	fmt.Fprintln(out, chat.RenderTable(s, table.View(s, table.DefaultViewOptions()), chat.DefaultStyles()))
	fmt.Fprintf(out, "Provider: %s\n", eng.Status().Label())

	if exportPath != "" {
		if err := export.WriteXLSX(s, exportPath); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Fprintf(out, "Exported %d rows to %s\n", s.RowCount(), exportPath)
	}
	return nil
}
