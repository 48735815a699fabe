package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show upload run history",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent upload runs",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [job-id]",
	Short: "Show an upload run and its batches",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsListCmd.Flags().IntP("limit", "n", 20, "maximum number of runs to show (0 = all)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

const timeLayout = "2006-01-02 15:04:05"

func runRunsList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := historyService.List(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	styles := newStatusStyles(cmd.OutOrStdout())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-36s  %-11s  %-5s  %-9s  %-19s  %s\n",
		"JOB ID", "STATUS", "INPUT", "DONE", "STARTED", "COLLECTION")
	for _, r := range runs {
		fmt.Fprintf(out, "%-36s  %s  %-5s  %-9s  %-19s  %s/%s\n",
			r.JobID,
			styles.render(string(r.Status), 11),
			r.InputType,
			fmt.Sprintf("%d/%d", r.Total-r.Remaining, r.Total),
			r.StartedAt.Local().Format(timeLayout),
			r.ProjectKey, r.IndexKey)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	run, batches, err := historyService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	styles := newStatusStyles(cmd.OutOrStdout())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job:        %s\n", run.JobID)
	fmt.Fprintf(out, "Status:     %s\n", styles.render(string(run.Status), 0))
	fmt.Fprintf(out, "Input:      %s\n", run.InputType)
	fmt.Fprintf(out, "Collection: %s/%s\n", run.ProjectKey, run.IndexKey)
	fmt.Fprintf(out, "Progress:   %d/%d (%d failed batches)\n", run.Total-run.Remaining, run.Total, run.FailedBatches)
	fmt.Fprintf(out, "Checkpoint: %s\n", run.CheckpointPath)
	fmt.Fprintf(out, "Started:    %s\n", run.StartedAt.Local().Format(timeLayout))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(out, "Finished:   %s (%s)\n", run.FinishedAt.Local().Format(timeLayout),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	}

	if len(batches) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%-5s  %-9s  %-36s  %s\n", "BATCH", "OUTCOME", "TASK ID", "ITEMS")
	for _, b := range batches {
		fmt.Fprintf(out, "%-5d  %s  %-36s  %s\n",
			b.BatchIndex, styles.render(string(b.Outcome), 9), b.TaskID, summarizeItems(b.Items))
		if b.Error != "" {
			fmt.Fprintf(out, "       error: %s\n", b.Error)
		}
	}
	return nil
}

func summarizeItems(items []domain.WorkItem) string {
	switch len(items) {
	case 0:
		return "-"
	case 1:
		return items[0].String()
	default:
		return fmt.Sprintf("%s (+%d more)", items[0], len(items)-1)
	}
}

// statusStyles colours run states and batch outcomes on a terminal.
type statusStyles struct {
	enabled bool
	styles  map[string]lipgloss.Style
}

func newStatusStyles(w io.Writer) statusStyles {
	f, ok := w.(*os.File)
	return statusStyles{
		enabled: ok && term.IsTerminal(int(f.Fd())),
		styles: map[string]lipgloss.Style{
			string(domain.RunStatusCompleted):   lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
			string(domain.OutcomeSucceeded):     lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
			string(domain.RunStatusRunning):     lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
			string(domain.RunStatusInterrupted): lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
			string(domain.OutcomeFailed):        lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
			string(domain.OutcomeErrored):       lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Bold(true),
		},
	}
}

// render pads s to width before styling so ANSI codes do not break columns.
func (s statusStyles) render(value string, width int) string {
	if width > len(value) {
		value += strings.Repeat(" ", width-len(value))
	}
	if !s.enabled {
		return value
	}
	style, ok := s.styles[strings.TrimSpace(value)]
	if !ok {
		return value
	}
	return style.Render(value)
}
