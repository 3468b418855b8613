package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spigell/job-assistant/internal/jobs"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"
)

const (
	PromptYes               = "Yes"
	PromptNo                = "No"
	PromptReportByCompanies = "Report by companies"
	PromptJobsToFile        = "Dump jobs to file"
)

// confirm asks whether to proceed with candidates. The report and dump
// actions return to the prompt.
func confirm(label string, candidates *jobs.Postings, logger *zap.Logger) (bool, error) {
	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptYes, PromptNo, PromptReportByCompanies, PromptJobsToFile},
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			return false, err
		}

		switch action {
		case PromptYes:
			return true, nil
		case PromptNo:
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return false, nil
		case PromptReportByCompanies:
			pretty, _ := json.MarshalIndent(candidates.ReportByCompany(), "", "  ")
			logger.Info(string(pretty), zap.Int("jobs count", candidates.Len()))
		case PromptJobsToFile:
			filename, err := candidates.DumpToTmpFile()
			if err != nil {
				return false, fmt.Errorf("dump jobs to file: %w", err)
			}
			logger.Info("dumping jobs to file", zap.String("filename", filename))
		default:
			return false, fmt.Errorf("invalid action: %s", action)
		}
	}
}
