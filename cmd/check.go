package cmd

import (
	"github.com/spigell/job-assistant/internal/extract"
	"github.com/spigell/job-assistant/internal/mail"
	"github.com/spigell/job-assistant/internal/pipeline"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Read unread job alert emails and store the postings they contain",
	Run: func(_ *cobra.Command, _ []string) {
		check()
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func check() {
	s := newSession("check")
	defer s.close()

	st := s.openStore()
	llm := s.llm()

	mailbox, err := mail.New(s.ctx, s.tokenSource(), mail.Config{
		Senders:         s.config.Mail.Senders,
		SubjectKeywords: s.config.Mail.SubjectKeywords,
	}, s.logger)
	if err != nil {
		s.fatal("creating gmail client", err, "")
	}

	p := s.newPipeline(pipeline.Deps{
		Store:     st,
		Mailbox:   mailbox,
		Extractor: extract.New(llm, s.logger),
	})

	report, err := p.Check(s.ctx)
	s.finish(report, err)
}
