package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("28")).
				Padding(0, 1)

	statusLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("28"))

	statusDimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	statusOKStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusWarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon configuration, dedup state, and the latest report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var b strings.Builder

		b.WriteString(statusTitleStyle.Render(" courtwatch status "))
		b.WriteString("\n\n")

		b.WriteString(statusLabelStyle.Render("Watch"))
		b.WriteString("\n")
		fmt.Fprintf(&b, "  directory      %s\n", Config.WatchDir)
		fmt.Fprintf(&b, "  extension      %s\n", Config.FileExtension)
		fmt.Fprintf(&b, "  debounce       %ds\n", Config.DebounceSeconds)

		b.WriteString("\n")
		b.WriteString(statusLabelStyle.Render("Analyzer"))
		b.WriteString("\n")
		fmt.Fprintf(&b, "  model          %s\n", Config.Analyzer.Model)
		if Analyzer != nil && Analyzer.Available() {
			fmt.Fprintf(&b, "  credential     %s\n", statusOKStyle.Render("present"))
		} else {
			fmt.Fprintf(&b, "  credential     %s\n", statusWarnStyle.Render("missing (reports degrade to unavailable)"))
		}

		b.WriteString("\n")
		b.WriteString(statusLabelStyle.Render("Processed workouts"))
		b.WriteString("\n")
		if State != nil {
			ids := State.ProcessedIDs()
			fmt.Fprintf(&b, "  committed      %d\n", len(ids))
			if len(ids) > 0 {
				fmt.Fprintf(&b, "  most recent    %s\n", ids[len(ids)-1])
			}
		}

		b.WriteString("\n")
		b.WriteString(statusLabelStyle.Render("Latest report"))
		b.WriteString("\n")
		if Cache != nil {
			if latest, err := Cache.ReadLatest(); err == nil {
				fmt.Fprintf(&b, "  workout        %s\n", latest.WorkoutID)
				fmt.Fprintf(&b, "  written        %s\n", latest.Timestamp)
				fmt.Fprintf(&b, "  %s\n", statusDimStyle.Render(firstLine(latest.AIReport)))
			} else {
				fmt.Fprintf(&b, "  %s\n", statusDimStyle.Render("none cached yet"))
			}
		}

		fmt.Println(b.String())
		return nil
	},
}

// firstLine truncates a report to its first non-empty line for the summary view.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			if len([]rune(line)) > 60 {
				return string([]rune(line)[:60]) + "…"
			}
			return line
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
