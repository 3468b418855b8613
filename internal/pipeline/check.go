package pipeline

import (
	"context"
	"fmt"

	"github.com/spigell/job-assistant/internal/filtering"
	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/logger"
	"github.com/spigell/job-assistant/internal/mail"

	"go.uber.org/zap"
)

// Check reads unread alert emails, extracts postings and stores the new ones.
// An email is marked read only when all of its postings were handled; a
// failed email stays unread for the next run. Items in the report are postings.
func (p *Pipeline) Check(ctx context.Context) (*Report, error) {
	if err := required("mailbox", p.Mailbox); err != nil {
		return nil, err
	}
	if err := required("extractor", p.Extractor); err != nil {
		return nil, err
	}

	for _, st := range filtering.Describe(p.filters) {
		p.Logger.Debug("filter", zap.String("name", st.Name), zap.Bool("enabled", st.Enabled), zap.Any("details", st.Details))
	}

	messages, err := p.Mailbox.UnreadAlerts(ctx, p.cfg.MaxEmails)
	if err != nil {
		return nil, fmt.Errorf("list alert emails: %w", err)
	}
	p.Logger.Info("unread job alert emails", zap.Int("count", len(messages)))

	report := p.newReport(StageCheck)
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return p.finish(report), err
		}
		if err := p.checkMessage(ctx, msg, report); err != nil {
			p.Logger.Warn("email left unread", zap.String("message_id", msg.ID), zap.String("subject", msg.Subject), zap.Error(err))
			continue
		}
		if err := p.Mailbox.MarkRead(ctx, msg.ID); err != nil {
			p.Logger.Warn("marking email read", zap.String("message_id", msg.ID), zap.Error(err))
			report.Errors = append(report.Errors, err)
		}
	}
	return p.finish(report), nil
}

func (p *Pipeline) checkMessage(ctx context.Context, msg mail.Message, report *Report) error {
	log := p.Logger.With(zap.String("message_id", msg.ID))

	postings, err := p.Extractor.Extract(ctx, msg)
	if err != nil {
		err = fmt.Errorf("extract email %s: %w", msg.ID, err)
		p.fail(report, err)
		return err
	}
	if len(postings) == 0 {
		log.Info("email holds no job postings", zap.String("subject", msg.Subject))
		return nil
	}

	batch := &jobs.Postings{Items: postings}
	initial := batch.Len()
	left, _, err := filtering.Run(ctx, filtering.Deps{Logger: log, Store: p.Store}, p.filters, batch)
	if err != nil {
		err = fmt.Errorf("filter email %s: %w", msg.ID, err)
		p.fail(report, err)
		return err
	}
	p.skip(report, initial-left.Len())

	var saveErr error
	for _, job := range left.Items {
		if err := p.save(ctx, job); err != nil {
			p.fail(report, err)
			saveErr = err
			continue
		}
		p.succeed(report)

		fields := logger.JobFields(job)
		if job.LowConfidence {
			log.Warn("stored low confidence job", append(fields, zap.String("extraction_error", job.ExtractionError))...)
			continue
		}
		log.Info("stored new job", fields...)
	}
	return saveErr
}
