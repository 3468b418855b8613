package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var refreshResumeCmd = &cobra.Command{
	Use:   "refresh-resume",
	Short: "Rebuild the cached resume profile from the resume document",
	Run: func(_ *cobra.Command, _ []string) {
		refreshResume()
	},
}

func init() {
	rootCmd.AddCommand(refreshResumeCmd)
}

func refreshResume() {
	s := newSession("refresh-resume")
	defer s.close()

	st := s.openStore()
	snap, err := s.profileLoader(st, s.llm()).Refresh(s.ctx)
	if err != nil {
		s.fatal("refreshing resume profile", err, "check that the resume document is shared with the authorised account")
	}

	fields := []zap.Field{
		zap.Int("version", snap.Version),
		zap.Int("skills", len(snap.Skills)),
		zap.String("experience_level", string(snap.ExperienceLevel)),
		zap.Float64("experience_years", snap.ExperienceYears),
	}
	if snap.Unparsed {
		s.logger.Warn("resume stored unparsed", append(fields, zap.String("parse_error", snap.ParseError))...)
		return
	}
	s.logger.Info("resume profile refreshed", fields...)
}
