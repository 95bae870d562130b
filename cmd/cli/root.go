package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/flowbaker/sortinghat/internal/config"
	"github.com/flowbaker/sortinghat/internal/initialization"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sortinghat",
		Short: "The Sorting Hat",
		Long: `The Sorting Hat places images, descriptions and websites into one of the four
Hogwarts houses, explains its decision in character, and restyles the subject for its new house.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewSortCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadContainer reads configuration, applies the log level and wires the service.
func loadContainer(ctx context.Context, cmd *cobra.Command) (*initialization.Container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.Level()
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	return initialization.NewContainer(ctx, cfg)
}
