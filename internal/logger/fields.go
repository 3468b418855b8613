package logger

import (
	"strings"

	"github.com/spigell/job-assistant/internal/jobs"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldRunID identifies every log line of a single CLI invocation.
	FieldRunID = "run_id"
	// FieldCommand is the CLI verb being executed.
	FieldCommand = "command"
	// FieldJobID is the posting id.
	FieldJobID = "job_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger, defaulting
// to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns standard zap fields that describe the AI provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the common AI fields to the provided logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// WithRun tags the logger with the command name and a fresh run id.
func WithRun(logger *zap.Logger, command string) (*zap.Logger, string) {
	runID := uuid.NewString()
	return WithFields(logger, StringFields(
		StringField{Key: FieldRunID, Value: runID},
		StringField{Key: FieldCommand, Value: command},
	)...), runID
}

// JobFields describes a posting in log entries.
func JobFields(p *jobs.Posting) []zap.Field {
	if p == nil {
		return nil
	}
	return StringFields(
		StringField{Key: FieldJobID, Value: p.ID},
		StringField{Key: "title", Value: p.Title},
		StringField{Key: "company", Value: p.Company},
	)
}
