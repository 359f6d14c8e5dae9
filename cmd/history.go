package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nilesh-r/jobsense/internal/analysis"
)

const timeLayout = "2006-01-02 15:04"

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored analyses",
	Run: func(cmd *cobra.Command, _ []string) {
		history(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().BoolP("interactive", "i", false, "choose an analysis to show its details")
}

func history(cmd *cobra.Command) {
	ctx := context.Background()

	rt := setup(ctx, true)
	defer rt.close()

	if rt.store == nil {
		rt.logger.Fatal("analysis store is disabled", zap.String("hint", "set store.driver to file or postgres"))
	}

	items, err := rt.service.List(ctx)
	if err != nil {
		rt.logger.Fatal("listing analyses", zap.Error(err))
	}

	if len(items) == 0 {
		rt.logger.Info("exiting", zap.String("reason", "no analyses stored yet"))
		return
	}

	out := cmd.OutOrStdout()

	if interactive, _ := cmd.Flags().GetBool("interactive"); !interactive {
		printHistory(out, items)
		return
	}

	for {
		labels := make([]string, 0, len(items)+1)
		for _, a := range items {
			labels = append(labels, historyLabel(a))
		}

		historyPrompt := promptui.Select{
			Label: "Choose an analysis and press ENTER",
			Items: append(labels, PromptBack),
			Size:  10,
		}

		idx, selected, err := historyPrompt.Run()
		if err != nil {
			rt.logger.Fatal("exiting", zap.Error(err))
		}
		if selected == PromptBack {
			return
		}

		pretty, _ := json.MarshalIndent(items[idx], "", "  ")
		fmt.Fprintln(out, string(pretty))
	}
}

func printHistory(out io.Writer, items []*analysis.Analysis) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tJOB\tATS\tKEYWORDS\tEXPERIENCE")
	for _, a := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			a.ID, a.CreatedAt.Format(timeLayout), jobLabel(a), a.ATSScore, a.KeywordMatchScore, a.ExperienceMatchScore)
	}
	w.Flush()
}

func historyLabel(a *analysis.Analysis) string {
	return fmt.Sprintf("%s  %3d  %s", a.CreatedAt.Format(timeLayout), a.ATSScore, jobLabel(a))
}

func jobLabel(a *analysis.Analysis) string {
	if a.JobTitle != "" {
		return a.JobTitle
	}
	return a.JobID
}
