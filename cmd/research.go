package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var researchCmd = &cobra.Command{
	Use:   "research <company>",
	Short: "Research a company and attach the result to its stored jobs",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		researchCompany(cmd.OutOrStdout(), args[0])
	},
}

var researchHighCmd = &cobra.Command{
	Use:   "research-high",
	Short: "Research every company with a job scoring above the research threshold",
	Run: func(cmd *cobra.Command, _ []string) {
		approved, _ := cmd.Flags().GetBool("auto-approve")
		researchHigh(approved)
	},
}

func init() {
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(researchHighCmd)

	researchHighCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation")
}

func researchCompany(out io.Writer, company string) {
	s := newSession("research")
	defer s.close()

	st := s.openStore()
	p := s.newPipeline(pipeline.Deps{Store: st, Researcher: s.researcher(s.llm())})

	result, report, err := p.Research(s.ctx, company)
	if result != nil {
		printResearch(out, result)
		if result.Error != "" {
			s.logger.Warn("research failed", zap.String("company", company), zap.String("error", result.Error))
		}
	}
	s.finish(report, err)
}

func researchHigh(approved bool) {
	s := newSession("research-high")
	defer s.close()

	st := s.openStore()
	p := s.newPipeline(pipeline.Deps{Store: st})

	candidates, err := p.ResearchCandidates(s.ctx)
	if err != nil {
		s.fatal("listing jobs to research", err, "")
	}
	if candidates.Len() == 0 {
		s.logger.Info("exiting", zap.String("reason", "no high scoring jobs left to research"))
		return
	}

	if !approved {
		ok, err := confirm(fmt.Sprintf("Research companies of %d jobs?", candidates.Len()), candidates, s.logger)
		if err != nil {
			s.fatal("exiting", err, "")
		}
		if !ok {
			return
		}
	}

	p.Researcher = s.researcher(s.llm())
	report, err := p.ResearchHigh(s.ctx)
	s.finish(report, err)
}

func printResearch(out io.Writer, r *jobs.CompanyResearch) {
	fmt.Fprintf(out, "%s\n\n%s\n", r.Company, r.Summary)

	fields := []struct {
		label string
		value string
	}{
		{"Industry", r.Industry},
		{"Size", r.Size},
		{"Funding stage", r.FundingStage},
		{"Culture", r.Culture},
		{"Tech stack", strings.Join(r.TechStack, ", ")},
		{"Values", strings.Join(r.Values, ", ")},
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(out, "%s: %s\n", f.label, f.value)
		}
	}
	for _, news := range r.RecentNews {
		fmt.Fprintf(out, "- %s\n", news)
	}
	if len(r.Sources) > 0 {
		fmt.Fprintf(out, "Sources: %s\n", strings.Join(r.Sources, " "))
	}
}
