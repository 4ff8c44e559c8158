package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
)

// EvaluateReport summarizes an evaluation pass.
type EvaluateReport struct {
	Pending     int          `json:"pending"`
	Evaluated   int          `json:"evaluated"`
	Qualified   int          `json:"qualified"`
	UnderReview int          `json:"under_review"`
	Discarded   int          `json:"discarded"`
	Deferred    int          `json:"deferred"`
	Digest      model.Digest `json:"digest"`
}

// evaluateRun is the state of one evaluation pass.
type evaluateRun struct {
	report    EvaluateReport
	qualified []model.DigestLead
}

func (r *Runner) evaluate(ctx context.Context, log *zap.Logger, settings model.Settings) (EvaluateReport, error) {
	all, err := r.store.List(ctx)
	if err != nil {
		return EvaluateReport{}, eris.Wrap(err, "pipeline: list leads")
	}

	var pending []model.Lead
	for _, l := range all {
		if l.Status == model.StatusPending {
			pending = append(pending, l)
		}
	}
	log.Info("pipeline: evaluation starting", zap.Int("leads", len(all)), zap.Int("pending", len(pending)))

	run := &evaluateRun{report: EvaluateReport{Pending: len(pending)}}
	for i, lead := range pending {
		if ctx.Err() != nil {
			run.report.Deferred += len(pending) - i
			log.Warn("pipeline: evaluation interrupted", zap.Int("remaining", len(pending)-i))
			break
		}
		if i > 0 {
			if err := r.leadPacer.Wait(ctx); err != nil {
				run.report.Deferred += len(pending) - i
				log.Warn("pipeline: evaluation interrupted", zap.Int("remaining", len(pending)-i))
				break
			}
		}
		r.evaluateLead(ctx, log.With(zap.String("id", lead.ID), zap.Int("row", lead.Row)), run, lead, settings)
	}

	run.report.Digest = BuildDigest(run.report, run.qualified, r.topN, r.sheetURL, r.now())
	log.Info("pipeline: evaluation complete",
		zap.Int("evaluated", run.report.Evaluated),
		zap.Int("qualified", run.report.Qualified),
		zap.Int("under_review", run.report.UnderReview),
		zap.Int("discarded", run.report.Discarded),
		zap.Int("deferred", run.report.Deferred),
	)
	return run.report, nil
}

// evaluateLead researches, scores, routes and writes back one lead. Any
// failure leaves the lead pending for the next run.
func (r *Runner) evaluateLead(ctx context.Context, log *zap.Logger, run *evaluateRun, lead model.Lead, settings model.Settings) {
	if strings.TrimSpace(lead.Company) == "" {
		run.report.Deferred++
		log.Warn("pipeline: pending lead has no company")
		return
	}

	research, err := r.researcher.Research(ctx, lead.Company, settings.QueryTemplate)
	if err != nil {
		run.report.Deferred++
		log.Warn("pipeline: research failed, lead stays pending", zap.String("company", lead.Company), zap.Error(err))
		return
	}

	ev, err := r.evaluator.Evaluate(ctx, ProfileText(lead, research), settings.ICP)
	switch {
	case err != nil:
		run.report.Deferred++
		log.Warn("pipeline: evaluation failed, lead stays pending", zap.String("company", lead.Company), zap.Error(err))
		return
	case ev.Degraded:
		run.report.Deferred++
		log.Warn("pipeline: evaluation degraded, lead stays pending", zap.String("company", lead.Company), zap.String("reason", ev.Reason))
		return
	case ev.Score < 0 || ev.Score > 100:
		run.report.Deferred++
		log.Warn("pipeline: score out of range, lead stays pending", zap.String("company", lead.Company), zap.Int("score", ev.Score))
		return
	}

	status := r.policy.Route(ev.Score)
	if err := r.store.WriteEvaluation(ctx, lead.Row, ev, research, status); err != nil {
		run.report.Deferred++
		log.Warn("pipeline: failed to write evaluation", zap.String("company", lead.Company), zap.Error(err))
		return
	}

	run.report.Evaluated++
	switch status {
	case model.StatusQualified:
		run.report.Qualified++
		run.qualified = append(run.qualified, model.DigestLead{
			Name:    lead.Name,
			Role:    lead.Role,
			Company: lead.Company,
			Score:   ev.Score,
			Reason:  ev.Reason,
		})
	case model.StatusUnderReview:
		run.report.UnderReview++
	case model.StatusDiscarded:
		run.report.Discarded++
	}
	log.Info("pipeline: lead evaluated",
		zap.String("company", lead.Company),
		zap.Int("score", ev.Score),
		zap.Bool("fit", ev.Fit),
		zap.String("status", string(status)),
	)
}

// ProfileText renders the lead and its research for the evaluator.
func ProfileText(lead model.Lead, research model.Research) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	fmt.Fprintf(&b, "Role: %s\n", lead.Role)
	fmt.Fprintf(&b, "Company: %s\n", lead.Company)
	b.WriteString("\nCompany research:\n")
	b.WriteString(research.Summary)
	return b.String()
}
