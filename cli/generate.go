package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jesspatton/lazyspec/gherkin"
)

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <feature-file>",
		Short: "Print a step definition library for a feature file",
		Long: `Print a step definition library template with one entry per distinct
step of the feature, in the order the steps first appear.

Examples:
  lazyspec generate tests/login.feature > tests/login-steps.js`,
		Args: cobra.ExactArgs(1),
		RunE: generateCommand,
	}

	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")

	return cmd
}

func generateCommand(cmd *cobra.Command, args []string) error {
	feature, err := gherkin.ParseFile(args[0])
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return gherkin.GenerateLibrary(cmd.OutOrStdout(), feature)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := gherkin.GenerateLibrary(f, feature); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
