package server

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zombor/expense-review/internal/compliance"
	"github.com/zombor/expense-review/internal/receipt"
	"github.com/zombor/expense-review/internal/report"
	"github.com/zombor/expense-review/internal/scanning"
)

var (
	// ErrAnalysisFailed wraps failures of the receipt analysis service
	ErrAnalysisFailed = errors.New("receipt analysis failed")
	// ErrReviewFailed wraps failures of the compliance review service
	ErrReviewFailed = errors.New("compliance review failed")
	// ErrInvalidEdits is returned for user edits that name an unknown expense type
	ErrInvalidEdits = errors.New("invalid edits")
)

// Submission is a reviewed report
type Submission struct {
	LineItems []report.LineItemView `json:"line_items"`
	Review    *compliance.Response  `json:"review"`
}

// Service runs the expense report workflow against one session at a time
type Service struct {
	analyzer scanning.Analyzer
	reviewer compliance.Reviewer
	policy   *compliance.PolicySource
	logger   *zap.Logger
}

// NewService creates a new Service
func NewService(analyzer scanning.Analyzer, reviewer compliance.Reviewer, policy *compliance.PolicySource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		analyzer: analyzer,
		reviewer: reviewer,
		policy:   policy,
		logger:   logger,
	}
}

// ScanReceipt analyzes an uploaded receipt and merges the extracted values
// into the session's draft. On failure the draft is left as it was.
func (s *Service) ScanReceipt(ctx context.Context, session *report.Session, data []byte, contentType string) (report.Draft, error) {
	result, err := s.analyzer.Analyze(ctx, data, contentType)
	if err != nil {
		s.logger.Error("Failed to analyze receipt",
			zap.String("content_type", contentType),
			zap.Int("file_size", len(data)),
			zap.Error(err),
		)
		return report.Draft{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	record := receipt.Normalize(result)
	s.logger.Debug("Receipt normalized",
		zap.String("merchant", record.MerchantName),
		zap.Stringer("amount", record.EstimatedAmount),
		zap.Stringer("check_in", record.CheckIn),
		zap.Stringer("check_out", record.CheckOut),
	)
	return session.Populate(record), nil
}

// EditDraft applies user edits to the session's draft
func (s *Service) EditDraft(session *report.Session, edits report.Edits) (report.Draft, error) {
	if err := validateEdits(edits); err != nil {
		return report.Draft{}, err
	}
	return session.Edit(edits), nil
}

// CommitDraft finalizes the session's draft and returns the item with its 1-based position
func (s *Service) CommitDraft(session *report.Session, edits report.Edits) (report.LineItem, int, error) {
	if err := validateEdits(edits); err != nil {
		return report.LineItem{}, 0, err
	}
	item, n := session.Commit(edits)
	s.logger.Info("Line item committed", zap.Int("line_item_no", n), zap.String("expense_type", string(item.ExpenseType)))
	return item, n, nil
}

// Submit sends every committed line item with the policy to the reviewer.
// The session is not modified so a failed submission can be retried.
func (s *Service) Submit(ctx context.Context, session *report.Session) (*Submission, error) {
	policy, err := s.policy.Policy()
	if err != nil {
		s.logger.Warn("Submission without a usable policy", zap.Error(err))
		return nil, err
	}

	items := session.LineItems()
	req, err := compliance.BuildRequest(policy, items)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Submitting report for review", zap.Int("line_items", req.ItemCount), zap.String("policy", policy.Source))
	review, err := s.reviewer.Review(ctx, req)
	if err != nil {
		if errors.Is(err, compliance.ErrInvalidResponse) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrReviewFailed, err)
	}

	s.logger.Info("Report reviewed", zap.Int("violations", review.Violations()))
	views := make([]report.LineItemView, 0, len(items))
	for _, item := range items {
		views = append(views, item.View())
	}
	return &Submission{LineItems: views, Review: review}, nil
}

func validateEdits(edits report.Edits) error {
	if edits.ExpenseType == nil {
		return nil
	}
	if _, err := report.ParseExpenseType(string(*edits.ExpenseType)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEdits, err)
	}
	return nil
}
