package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xinjiayu/rxcore/internal/playground"
)

// NewListCmd creates the "list" subcommand.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available scenarios",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	cmd.Flags().String("chapter", "", "Only list scenarios of this chapter")
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	chapter, _ := cmd.Flags().GetString("chapter")

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHAPTER\tNAME\tDESCRIPTION")

	listed := 0
	for _, s := range playground.Catalogue() {
		if chapter != "" && string(s.Chapter) != chapter {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Chapter, s.Name, s.Description)
		listed++
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if listed == 0 {
		return exitError(exitUsage, "no scenarios in chapter %q", chapter)
	}
	return nil
}
