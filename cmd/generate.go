package cmd

import (
	"errors"
	"fmt"

	"github.com/spigell/job-assistant/internal/materials"
	"github.com/spigell/job-assistant/internal/pipeline"
	"github.com/spigell/job-assistant/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write cover letters and resume highlights for high scoring jobs",
	Run: func(cmd *cobra.Command, _ []string) {
		jobID, _ := cmd.Flags().GetString("job-id")
		approved, _ := cmd.Flags().GetBool("auto-approve")
		generate(jobID, approved)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("job-id", "", "generate materials for this job only")
	generateCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation")
}

func generate(jobID string, approved bool) {
	s := newSession("generate")
	defer s.close()

	st := s.openStore()
	p := s.newPipeline(pipeline.Deps{Store: st})

	if jobID == "" && !approved {
		candidates, err := p.GenerateCandidates(s.ctx)
		if err != nil {
			s.fatal("listing jobs to generate materials for", err, "")
		}
		if candidates.Len() == 0 {
			s.logger.Info("exiting", zap.String("reason", "no high scoring jobs without materials"))
			return
		}

		ok, err := confirm(fmt.Sprintf("Generate materials for %d jobs?", candidates.Len()), candidates, s.logger)
		if err != nil {
			s.fatal("exiting", err, "")
		}
		if !ok {
			return
		}
	}

	llm := s.llm()
	snap := s.loadProfile(st, llm)
	p.Materials = materials.New(llm, s.config.Output.CoverLettersDir, s.config.Output.HighlightsDir, s.logger)

	report, err := p.Generate(s.ctx, snap, jobID)
	if errors.Is(err, store.ErrNotFound) {
		s.fatal("generating materials", err, "run `"+app+" review` to list job ids")
	}
	if report != nil && errors.Is(report.Err(), materials.ErrNotScored) {
		s.logger.Warn("some jobs are not scored yet", zap.String("hint", "run `"+app+" score` first"))
	}
	s.finish(report, err)
}
