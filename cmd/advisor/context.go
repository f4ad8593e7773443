package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"campus-advisor/internal/service"
)

var errNoIndex = errors.New("no published index, run 'advisor ingest' first")

var contextCmd = &cobra.Command{
	Use:   "context [question]",
	Short: "Print the context bundle for a question",
	Long: `Classifies the question, resolves any module it names and prints the
context that would be handed to the generation backend, as JSON.
No answer is generated.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	a, restored, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()
	if !restored {
		return errNoIndex
	}

	bundle, err := a.Advisor().Context(ctx, service.AskRequest{Question: args[0]})
	if err != nil {
		return fmt.Errorf("failed to build context: %w", err)
	}
	return printJSON(cmd, bundle)
}
