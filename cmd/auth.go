package cmd

import (
	"fmt"
	"io"

	"github.com/spigell/job-assistant/internal/googleauth"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Grant access to Gmail and Google Docs and store the token",
	Run: func(cmd *cobra.Command, _ []string) {
		auth(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func auth(out io.Writer) {
	s := newSession("auth")
	defer s.close()

	cfg := s.googleConfig()
	state := uuid.NewString()

	fmt.Fprintf(out, "Open the following URL in a browser and grant access:\n\n%s\n\n", googleauth.AuthURL(cfg, state))

	prompt := promptui.Prompt{
		Label: "Authorization code or redirect URL",
		Validate: func(input string) error {
			_, err := googleauth.ParseCode(input, state)
			return err
		},
	}
	input, err := prompt.Run()
	if err != nil {
		s.fatal("exiting", err, "")
	}

	code, err := googleauth.ParseCode(input, state)
	if err != nil {
		s.fatal("parsing authorization code", err, "")
	}

	file := s.tokenFile()
	tok, err := googleauth.Exchange(s.ctx, cfg, code, file)
	if err != nil {
		s.fatal("exchanging authorization code", err, "start again with a fresh code")
	}

	s.logger.Info("google token saved",
		zap.String("file", file.Path),
		zap.Bool("refreshable", tok.RefreshToken != ""),
	)
}
