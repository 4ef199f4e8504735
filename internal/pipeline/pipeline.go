// Package pipeline wires the review stages into a single processing
// flow: screening, classification, review, and investigation, with
// persistence and event notifications around them.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/opensource-finance/harrier/internal/classifier"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/investigator"
	"github.com/opensource-finance/harrier/internal/reviewer"
	"github.com/opensource-finance/harrier/internal/screening"
)

// Pipeline processes transfers through every review stage. Repository
// and event bus are optional; when nil the pipeline runs in-memory
// only.
type Pipeline struct {
	classifier   *classifier.Classifier
	reviewer     *reviewer.Reviewer
	investigator *investigator.Investigator
	screening    *screening.Engine
	repo         domain.Repository
	bus          domain.EventBus
	logger       *slog.Logger
}

// Options carries the optional collaborators for a pipeline.
type Options struct {
	Screening  *screening.Engine
	Repository domain.Repository
	EventBus   domain.EventBus
	Logger     *slog.Logger
}

// New creates a pipeline from the three stage processors and options.
func New(cls *classifier.Classifier, rev *reviewer.Reviewer, inv *investigator.Investigator, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		classifier:   cls,
		reviewer:     rev,
		investigator: inv,
		screening:    opts.Screening,
		repo:         opts.Repository,
		bus:          opts.EventBus,
		logger:       logger,
	}
}

// Process runs a single transfer through the full pipeline and returns
// its result. Validation failures and investigation-stage errors are
// recorded on the result rather than returned; the caller always gets
// a result for bookkeeping.
func (p *Pipeline) Process(ctx context.Context, t *domain.Transfer) *domain.Result {
	result := &domain.Result{Transfer: *t}

	if err := t.Validate(); err != nil {
		result.Err = err.Error()
		p.logger.Warn("transfer rejected", "transfer_id", t.ID, "error", err)
		return result
	}

	var matches []screening.Match
	if p.screening != nil {
		matches = p.screening.Evaluate(ctx, t)
	}

	cls := p.classifier.Classify(ctx, t)
	appendScreeningFactors(cls, matches)
	result.Classification = cls

	review := p.reviewer.Review(ctx, cls, t)
	if escalationMatched(matches) && review.Action == domain.ActionAgreeClose {
		review = &domain.ReviewDecision{
			Action:           domain.ActionRequestMoreInfo,
			CaseID:           reviewer.CaseID(t.ID),
			CasePriority:     domain.PriorityLow,
			AdditionalChecks: []string{"customer_profile"},
			Reasoning:        "Screening rule requires escalation despite low-risk classification",
		}
	}
	result.Review = review

	if review.OpensCase() {
		investigation, err := p.investigator.Investigate(ctx, review, t, cls)
		if err != nil {
			result.Err = fmt.Sprintf("investigation failed: %v", err)
			p.logger.Error("investigation failed", "transfer_id", t.ID, "error", err)
		} else {
			result.Investigation = investigation
		}
	}

	p.persist(ctx, t, result)
	p.publish(ctx, result)

	p.logger.Info("transfer processed",
		"transfer_id", t.ID,
		"category", cls.Category,
		"action", review.Action,
		"case_opened", review.OpensCase(),
	)

	return result
}

// Run processes transfers sequentially, preserving input order. A
// panic in one item is recovered and recorded as that item's error;
// context cancellation stops the batch and returns the results so far.
func (p *Pipeline) Run(ctx context.Context, transfers []*domain.Transfer) []*domain.Result {
	results := make([]*domain.Result, 0, len(transfers))

	for _, t := range transfers {
		if ctx.Err() != nil {
			break
		}
		results = append(results, p.safeProcess(ctx, t))
	}

	return results
}

func (p *Pipeline) safeProcess(ctx context.Context, t *domain.Transfer) (result *domain.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = &domain.Result{
				Transfer: *t,
				Err:      fmt.Sprintf("panic during processing: %v", r),
			}
			p.logger.Error("panic recovered", "transfer_id", t.ID, "panic", r)
		}
	}()
	return p.Process(ctx, t)
}

// Statistics aggregates batch results. The average ML score covers the
// classified items only and is zero for an empty or fully-failed batch.
func Statistics(results []*domain.Result) domain.BatchStatistics {
	stats := domain.BatchStatistics{Total: len(results)}

	classified := 0
	scoreSum := 0.0
	for _, r := range results {
		if r.Classification == nil {
			continue
		}
		classified++
		scoreSum += r.Transfer.MLScore

		switch r.Classification.Category {
		case domain.CategoryFlagged:
			stats.Flagged++
		case domain.CategoryInvestigate:
			stats.Investigate++
		case domain.CategoryNonFraud:
			stats.NonFraud++
		}

		if r.Review != nil && r.Review.OpensCase() {
			stats.CasesCreated++
		}
		if r.Investigation != nil && r.Investigation.CaseStatus == domain.StatusConfirmedFraud {
			stats.ConfirmedFraud++
		}
	}

	if classified > 0 {
		stats.AvgMLScore = scoreSum / float64(classified)
	}

	return stats
}

// appendScreeningFactors adds each matched rule's risk factor to the
// classification, skipping factors already present.
func appendScreeningFactors(cls *domain.Classification, matches []screening.Match) {
	if len(matches) == 0 {
		return
	}
	seen := make(map[string]bool, len(cls.RiskFactors))
	for _, f := range cls.RiskFactors {
		seen[f] = true
	}
	for _, m := range matches {
		if m.RiskFactor == "" || seen[m.RiskFactor] {
			continue
		}
		seen[m.RiskFactor] = true
		cls.RiskFactors = append(cls.RiskFactors, m.RiskFactor)
	}
}

func escalationMatched(matches []screening.Match) bool {
	for _, m := range matches {
		if m.Escalate {
			return true
		}
	}
	return false
}

func (p *Pipeline) persist(ctx context.Context, t *domain.Transfer, result *domain.Result) {
	if p.repo == nil {
		return
	}
	if err := p.repo.SaveTransfer(ctx, t); err != nil {
		p.logger.Error("failed to save transfer", "transfer_id", t.ID, "error", err)
	}
	if err := p.repo.SaveResult(ctx, result); err != nil {
		p.logger.Error("failed to save result", "transfer_id", t.ID, "error", err)
	}
}

// publish emits the lifecycle events for a processed transfer. Bus
// failures are logged and ignored; notifications never affect results.
func (p *Pipeline) publish(ctx context.Context, result *domain.Result) {
	if p.bus == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		p.logger.Error("failed to marshal result", "transfer_id", result.Transfer.ID, "error", err)
		return
	}

	p.emit(ctx, domain.TopicTransferProcessed, payload, result.Transfer.ID)

	if result.Review != nil && result.Review.OpensCase() {
		p.emit(ctx, domain.TopicCaseOpened, payload, result.Transfer.ID)
	}
	if result.Investigation != nil {
		p.emit(ctx, domain.TopicVerdict, payload, result.Transfer.ID)
		if result.Investigation.CaseStatus == domain.StatusConfirmedFraud {
			p.emit(ctx, domain.TopicAlert, payload, result.Transfer.ID)
		}
	}
}

func (p *Pipeline) emit(ctx context.Context, topic string, payload []byte, transferID string) {
	if err := p.bus.Publish(ctx, topic, payload); err != nil {
		p.logger.Error("failed to publish event", "topic", topic, "transfer_id", transferID, "error", err)
	}
}
