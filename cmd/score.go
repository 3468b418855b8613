package cmd

import (
	"github.com/spigell/job-assistant/internal/pipeline"
	"github.com/spigell/job-assistant/internal/scoring"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score stored job postings against the resume",
	Run: func(cmd *cobra.Command, _ []string) {
		rescore, _ := cmd.Flags().GetBool("rescore")
		score(rescore)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().Bool("rescore", false, "score every stored job again, not only new ones")
}

func score(rescore bool) {
	s := newSession("score")
	defer s.close()

	st := s.openStore()
	llm := s.llm()
	snap := s.loadProfile(st, llm)

	p := s.newPipeline(pipeline.Deps{
		Store:  st,
		Scorer: scoring.NewScorer(scoring.NewLLMAssessor(llm), s.logger),
	})

	report, err := p.Score(s.ctx, snap, rescore)
	s.finish(report, err)
}
