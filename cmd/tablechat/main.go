package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tablechat/internal/config"
	"tablechat/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	// Loaded once per invocation in PersistentPreRunE
	cfg *config.Config

	// Logger
	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tablechat",
	Short: "tablechat - edit a table of integers by chatting with it",
	Long: `tablechat keeps a small table of integers and changes it in response to
plain-language commands such as "add row 10, 20, 30" or "delete row 2".

With GEMINI_API_KEY, OPENAI_API_KEY or OPENROUTER_API_KEY set, commands are
interpreted by a language model. Without one, or when the provider's quota
runs out, a fixed set of commands is understood locally.

Run without arguments to start the interactive chat interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}

		// Interactive mode owns the terminal: only log when a file is configured
		if cmd == cmd.Root() && cfg.Logging.File == "" {
			return nil
		}

		opts := cfg.Logging.Options()
		if verbose {
			opts.Level = "debug"
		}
		if err := logging.Initialize(opts); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logging.Boot()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch interactive chat
		return runInteractiveChat(cmd.Context())
	},
}

// runCmd applies commands to the seed table without the chat UI
var runCmd = &cobra.Command{
	Use:   "run [command]...",
	Short: "Apply one or more commands to the seed table and print the result",
	Long: `Applies each argument, in order, as one command to the configured seed table.
Each reply is printed, followed by the final table.

Example:
  tablechat run "add row 10, 20, 30" "delete row 1" --export out.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommands,
}

// statusCmd reports the provider state a new session would start in
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the model provider configuration",
	RunE:  showStatus,
}

// configCmd groups configuration helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration file helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE:  initConfig,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.tablechat/config.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall timeout for the run command")

	// Run flags
	runCmd.Flags().StringVarP(&exportPath, "export", "o", "", "Write the final table to an .xlsx file")

	// Config subcommands
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	// Add commands to root
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfigPath returns --config or the default location.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() (*config.Config, error) {
	c, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", resolveConfigPath(), err)
	}
	return c, nil
}
