package cli

import (
	"fmt"
	"time"

	"github.com/dbin-w/courtwatch/internal/core"
	"github.com/spf13/cobra"
)

var (
	analyzePeriod bool
	analyzeDate   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <export-file>",
	Short: "Analyze an export file without watching or delivering",
	Long: `Read a Health Auto Export JSON file, filter it to valid tennis workouts,
and print an AI report for each. Nothing is delivered and no workout is
marked processed; this is a dry inspection of the analysis stage.

With --period, a single multi-match physiological review is generated for
all valid workouts in the file instead of one report per match.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Reader == nil || Analyzer == nil {
			return fmt.Errorf("analysis pipeline not initialized")
		}

		doc, usedFallback, err := Reader.ReadDocument(args[0])
		if err != nil {
			return fmt.Errorf("reading export file: %w", err)
		}
		if usedFallback {
			fmt.Println("(direct read failed; used dump fallback)")
		}

		workouts := core.FilterTennisWorkouts(doc)
		if len(workouts) == 0 {
			fmt.Println("No valid tennis workouts in this file.")
			return nil
		}

		if analyzePeriod {
			date := analyzeDate
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}
			fmt.Printf("Period review for %d workout(s) on %s:\n\n", len(workouts), date)
			fmt.Println(Analyzer.AnalyzePeriod(workouts, date))
			return nil
		}

		for _, w := range workouts {
			fmt.Printf("--- %s (%s, %.0fs) ---\n", w.Name, w.ID, w.Duration)
			fmt.Println(Analyzer.AnalyzeMatch(w))
			fmt.Println()
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzePeriod, "period", false, "Generate one multi-match review instead of per-match reports")
	analyzeCmd.Flags().StringVar(&analyzeDate, "date", "", "Date label for the period review (defaults to today)")
	rootCmd.AddCommand(analyzeCmd)
}
