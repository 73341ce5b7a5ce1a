package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aussiebroadwan/signup/internal/signup/domain"
	"github.com/aussiebroadwan/signup/internal/signup/metrics"
	"github.com/aussiebroadwan/signup/pkg/emailx"
	"github.com/aussiebroadwan/signup/pkg/idx"
	"github.com/aussiebroadwan/signup/pkg/mailx"
	"github.com/aussiebroadwan/signup/pkg/slogx"
)

// ErrNoAddresses is returned when a pasted list contains no addresses.
var ErrNoAddresses = errors.New("no email addresses submitted")

// Inviter identifies the admin who submitted a bulk job.
type Inviter struct {
	Email string
	Name  string
}

// BulkInviteService validates pasted address lists and runs them as
// background jobs.
type BulkInviteService struct {
	Invites *InviteService
	Runner  *JobRunner
	Metrics *metrics.Metrics

	now func() time.Time
}

// Prepare splits and validates raw into a job without dispatching it.
// Validation stops at the first bad address. Addresses are kept exactly as
// submitted, repeats included; a repeat of a fresh address is invited again.
func (s *BulkInviteService) Prepare(raw string, inviter Inviter) (domain.BulkInviteJob, error) {
	candidates := emailx.SplitList(raw)
	if len(candidates) == 0 {
		return domain.BulkInviteJob{}, ErrNoAddresses
	}
	if bad, found := emailx.FirstInvalid(candidates); found {
		return domain.BulkInviteJob{}, &InvalidAddressError{Address: bad}
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}

	return domain.BulkInviteJob{
		ID:           idx.New(),
		InviterEmail: inviter.Email,
		InviterName:  inviter.Name,
		Addresses:    candidates,
		SubmittedAt:  now(),
	}, nil
}

// Submit validates raw and queues the job. It returns as soon as the job is
// queued; the outcome is only reported to the inviter by email.
func (s *BulkInviteService) Submit(ctx context.Context, raw string, inviter Inviter) (domain.BulkInviteJob, error) {
	job, err := s.Prepare(raw, inviter)
	if err != nil {
		return domain.BulkInviteJob{}, err
	}

	log := slogx.FromContext(ctx).With(slog.String("job_id", job.ID.String()))
	ctx = slogx.WithContext(ctx, log)

	if err := s.Runner.Dispatch(ctx, job.ID.String(), func(jobCtx context.Context) {
		s.Run(jobCtx, job)
	}); err != nil {
		return domain.BulkInviteJob{}, fmt.Errorf("dispatch bulk invitation: %w", err)
	}

	log.Info("bulk invitation queued",
		slog.Int("addresses", len(job.Addresses)),
		slog.String("inviter", job.InviterEmail),
	)
	return job, nil
}

// Run executes job to completion and mails exactly one report to the
// inviter: a summary on success, a failure notice otherwise. Nothing escapes
// Run, panics included.
func (s *BulkInviteService) Run(ctx context.Context, job domain.BulkInviteJob) {
	log := slogx.FromContext(ctx)
	start := time.Now()

	counts, err := s.execute(ctx, job)
	if err != nil {
		log.Error("bulk invitation failed",
			slog.Any("err", err),
			slog.Int("sent", counts.Sent),
			slog.Int("skipped", counts.Skipped),
			slog.Int("addresses", len(job.Addresses)),
			slog.Int("unprocessed", len(job.Addresses)-counts.Sent-counts.Skipped),
		)
		s.Metrics.RecordBulkJob(metrics.OutcomeFailed, len(job.Addresses), counts.Sent, counts.Skipped)
		s.report(ctx, func() (mailx.Message, error) { return s.Invites.Emails.BulkFailure(job) })
		return
	}

	log.Info("bulk invitation completed",
		slog.Int("sent", counts.Sent),
		slog.Int("skipped", counts.Skipped),
		slog.Duration("duration", time.Since(start)),
	)
	s.Metrics.RecordBulkJob(metrics.OutcomeCompleted, len(job.Addresses), counts.Sent, counts.Skipped)
	s.report(ctx, func() (mailx.Message, error) { return s.Invites.Emails.BulkReport(job, counts) })
}

// execute runs the partition and dispatch phases. A panic in either phase is
// returned as an error.
func (s *BulkInviteService) execute(ctx context.Context, job domain.BulkInviteJob) (counts domain.InviteOutcomeCounts, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
	}()

	log := slogx.FromContext(ctx)

	// Partition: existence checks in submission order, paced by the shared limiter.
	fresh := make([]string, 0, len(job.Addresses))
	for _, addr := range job.Addresses {
		exists, err := s.Invites.accountExists(ctx, addr)
		if err != nil {
			return counts, err
		}
		if exists {
			log.Info("skipping address with existing account", slog.String("email", addr))
			counts.Skipped++
			continue
		}
		fresh = append(fresh, addr)
	}

	if len(fresh) == 0 {
		return counts, nil
	}

	// Dispatch: one token and one mail per fresh address over a single connection.
	batch, err := s.Invites.Mailer.OpenBatch(ctx)
	if err != nil {
		return counts, fmt.Errorf("open mail batch: %w", err)
	}
	defer func() {
		if cerr := batch.Close(); cerr != nil {
			log.Warn("failed to close mail batch", slog.Any("err", cerr))
		}
	}()

	for _, addr := range fresh {
		msg, err := s.Invites.invitation(ctx, addr)
		if err != nil {
			return counts, err
		}
		if err := batch.Send(ctx, msg); err != nil {
			return counts, fmt.Errorf("send invitation to %s: %w", addr, err)
		}
		log.Info("invitation sent", slog.String("email", addr))
		counts.Sent++
	}

	return counts, nil
}

// report delivers the completion mail. Failures are logged and swallowed.
func (s *BulkInviteService) report(ctx context.Context, build func() (mailx.Message, error)) {
	log := slogx.FromContext(ctx)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("bulk invitation report panicked", "panic", rec, "stack", string(debug.Stack()))
		}
	}()

	msg, err := build()
	if err != nil {
		log.Error("failed to render bulk invitation report", slog.Any("err", err))
		return
	}
	if err := s.Invites.Mailer.Send(ctx, msg); err != nil {
		log.Error("failed to send bulk invitation report",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
			slog.Any("err", err),
		)
	}
}
