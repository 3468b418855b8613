package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/pipeline"
	"github.com/spigell/job-assistant/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List stored jobs, best scores first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter, err := reviewFilter(cmd)
		if err != nil {
			return err
		}
		review(cmd.OutOrStdout(), filter)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	addReviewFlags(reviewCmd)
}

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("min-score", 0, "only list jobs scoring at least this much")
	cmd.Flags().String("status", "", "only list jobs in this status (new, scored, researched, materials-generated)")
}

func reviewFilter(cmd *cobra.Command) (store.Filter, error) {
	var filter store.Filter
	if cmd.Flags().Changed("min-score") {
		v, _ := cmd.Flags().GetFloat64("min-score")
		filter.MinScore = store.MinScore(v)
	}
	if cmd.Flags().Changed("status") {
		v, _ := cmd.Flags().GetString("status")
		status, ok := jobs.ParseStatus(strings.ToLower(strings.TrimSpace(v)))
		if !ok {
			return filter, fmt.Errorf("unknown status %q", v)
		}
		filter.Status = store.WithStatus(status)
	}
	return filter, nil
}

func review(out io.Writer, filter store.Filter) {
	s := newSession("review")
	defer s.close()

	p := s.newPipeline(pipeline.Deps{Store: s.openStore()})

	postings, err := p.Review(s.ctx, filter)
	if err != nil {
		s.fatal("listing jobs", err, "")
	}

	if postings.Len() == 0 {
		s.logger.Info("no jobs to review")
		return
	}
	s.logger.Info("jobs to review", zap.Int("count", postings.Len()))
	printJobs(out, postings)
}

func printJobs(out io.Writer, postings *jobs.Postings) {
	for _, job := range postings.Items {
		fmt.Fprintf(out, "[%s] %s at %s", job.ID, job.Title, job.Company)
		if job.Location != "" {
			fmt.Fprintf(out, " (%s)", job.Location)
		}
		fmt.Fprintln(out)

		if b := job.Score; b != nil {
			fmt.Fprintf(out, "  score: %.1f (skills %.1f, experience %.1f, preferences %.1f, location %.1f, fit %.1f)\n",
				b.Total, b.SkillsMatch, b.ExperienceMatch, b.PreferencesMatch, b.LocationMatch, b.OverallFit)
			if len(b.MissingSkills) > 0 {
				fmt.Fprintf(out, "  missing skills: %s\n", strings.Join(b.MissingSkills, ", "))
			}
			if b.NeedsReview {
				fmt.Fprintf(out, "  needs review: %s\n", strings.Join(b.ReviewReasons, "; "))
			}
		} else {
			fmt.Fprintln(out, "  score: not scored")
		}
		if job.LowConfidence {
			fmt.Fprintln(out, "  low confidence extraction")
		}

		fmt.Fprintf(out, "  status: %s\n", job.Status)
		if job.URL != "" {
			fmt.Fprintf(out, "  url: %s\n", job.URL)
		}
		if m := job.Materials; m != nil {
			fmt.Fprintf(out, "  cover letter: %s\n  highlights: %s\n", m.CoverLetterPath, m.HighlightsPath)
		}
		fmt.Fprintln(out)
	}
}
