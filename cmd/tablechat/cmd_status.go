package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tablechat/internal/engine"
)

// showStatus prints the provider configuration without calling the
// provider. The API key itself is never printed.
func showStatus(cmd *cobra.Command, args []string) error {
	eng := engine.NewFromConfig(context.Background(), cfg)
	state := eng.Status()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config:     %s\n", resolveConfigPath())
	fmt.Fprintf(out, "Provider:   %s\n", cfg.LLM.Provider)
	fmt.Fprintf(out, "Model:      %s\n", cfg.LLM.ResolvedModel())
	fmt.Fprintf(out, "Credential: %s\n", credentialState(cfg.LLM.HasCredential()))
	fmt.Fprintf(out, "State:      %s (%s)\n", state, state.Label())
	if state != engine.Configured {
		fmt.Fprintln(out, engine.Hint(state))
	}
	return nil
}

func credentialState(ok bool) string {
	if ok {
		return "present"
	}
	return "missing"
}
