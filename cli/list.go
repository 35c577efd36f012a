package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jesspatton/lazyspec/engine"
	"github.com/jesspatton/lazyspec/filesystem"
	"github.com/jesspatton/lazyspec/selection"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"})
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#A0A0A0"})
)

// NewListCommand creates the list command
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [path...]",
		Short: "Show which files a run would use",
		Long: `Discover and classify files exactly like run, without executing anything.

Rejected feature files are listed as sources unless --keep-excluded is set.`,
		RunE: listCommand,
	}

	addSelectionFlags(cmd)
	cmd.Flags().Bool("keep-excluded", false, "List rejected feature files separately")
	cmd.Flags().Bool("json", false, "Print the result as JSON")

	return cmd
}

func listCommand(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	mode := selection.FoldExcluded
	if keep, _ := cmd.Flags().GetBool("keep-excluded"); keep {
		mode = selection.KeepExcluded
	}

	e, err := engine.New(s.cfg, nil, engine.Options{
		WorkDir:      s.workDir,
		ExcludedMode: mode,
		Logger:       s.logger,
	})
	if err != nil {
		return err
	}

	result, err := e.Discover(args)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(cmd.OutOrStdout(), result, s.workDir, mode == selection.KeepExcluded)
	return nil
}

func printResult(w io.Writer, r selection.Result, workDir string, withExcluded bool) {
	section := func(title string, paths []string) {
		fmt.Fprintf(w, "%s %s\n", headerStyle.Render(title), countStyle.Render(fmt.Sprintf("(%d)", len(paths))))
		for _, p := range paths {
			fmt.Fprintf(w, "  %s\n", filesystem.RelativeTo(workDir, p))
		}
		fmt.Fprintln(w)
	}

	section("Features", r.Specs)
	section("Step definitions", r.Steps)
	section("Sources", r.Sources)
	if withExcluded {
		section("Excluded features", r.Excluded)
	}
}
