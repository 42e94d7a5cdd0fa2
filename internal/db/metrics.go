package db

import (
	"context"
	"time"

	"github.com/gitdigital/founder-loan-service/internal/db/model"
	"github.com/gitdigital/founder-loan-service/internal/observability/metrics"
	"github.com/gitdigital/founder-loan-service/internal/types"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

// WithTransaction records the latency of the whole transaction, commit
// included. Calls made inside fn go through d and are recorded separately.
func (d *DbWithMetrics) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.run("WithTransaction", func() error {
		return d.db.WithTransaction(ctx, fn)
	})
}

func (d *DbWithMetrics) GetProtocolConfig(ctx context.Context) (result *model.ProtocolConfigDocument, err error) {
	//nolint:errcheck
	d.run("GetProtocolConfig", func() error {
		result, err = d.db.GetProtocolConfig(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveProtocolConfig(ctx context.Context, doc *model.ProtocolConfigDocument) error {
	return d.run("SaveProtocolConfig", func() error {
		return d.db.SaveProtocolConfig(ctx, doc)
	})
}

func (d *DbWithMetrics) UpdateProtocolConfig(ctx context.Context, doc *model.ProtocolConfigDocument, expectedVersion uint64) error {
	return d.run("UpdateProtocolConfig", func() error {
		return d.db.UpdateProtocolConfig(ctx, doc, expectedVersion)
	})
}

func (d *DbWithMetrics) GetBorrower(ctx context.Context, owner string) (result *model.BorrowerDocument, err error) {
	//nolint:errcheck
	d.run("GetBorrower", func() error {
		result, err = d.db.GetBorrower(ctx, owner)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveNewBorrower(ctx context.Context, doc *model.BorrowerDocument) error {
	return d.run("SaveNewBorrower", func() error {
		return d.db.SaveNewBorrower(ctx, doc)
	})
}

func (d *DbWithMetrics) UpdateBorrower(ctx context.Context, doc *model.BorrowerDocument, expectedVersion uint64) error {
	return d.run("UpdateBorrower", func() error {
		return d.db.UpdateBorrower(ctx, doc, expectedVersion)
	})
}

func (d *DbWithMetrics) GetLoan(ctx context.Context, loanID uint64) (result *model.LoanDocument, err error) {
	//nolint:errcheck
	d.run("GetLoan", func() error {
		result, err = d.db.GetLoan(ctx, loanID)
		return err
	})
	return
}

func (d *DbWithMetrics) GetLoansByBorrower(ctx context.Context, borrower string) (result []*model.LoanDocument, err error) {
	//nolint:errcheck
	d.run("GetLoansByBorrower", func() error {
		result, err = d.db.GetLoansByBorrower(ctx, borrower)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveNewLoan(ctx context.Context, doc *model.LoanDocument) error {
	return d.run("SaveNewLoan", func() error {
		return d.db.SaveNewLoan(ctx, doc)
	})
}

func (d *DbWithMetrics) UpdateLoan(
	ctx context.Context, doc *model.LoanDocument, expectedVersion uint64, qualifiedStatuses []types.LoanStatus,
) error {
	return d.run("UpdateLoan", func() error {
		return d.db.UpdateLoan(ctx, doc, expectedVersion, qualifiedStatuses)
	})
}

func (d *DbWithMetrics) GetTokenAccount(ctx context.Context, owner string) (result *model.TokenAccountDocument, err error) {
	//nolint:errcheck
	d.run("GetTokenAccount", func() error {
		result, err = d.db.GetTokenAccount(ctx, owner)
		return err
	})
	return
}

func (d *DbWithMetrics) CreditTokenAccount(ctx context.Context, owner string, amount uint64, delegate string) error {
	return d.run("CreditTokenAccount", func() error {
		return d.db.CreditTokenAccount(ctx, owner, amount, delegate)
	})
}

func (d *DbWithMetrics) TransferTokens(ctx context.Context, from, to, authority string, amount uint64) error {
	return d.run("TransferTokens", func() error {
		return d.db.TransferTokens(ctx, from, to, authority, amount)
	})
}

func (d *DbWithMetrics) SaveLoanEvents(ctx context.Context, docs []*model.LoanEventDocument) error {
	return d.run("SaveLoanEvents", func() error {
		return d.db.SaveLoanEvents(ctx, docs)
	})
}

func (d *DbWithMetrics) GetLoanEvents(ctx context.Context, loanID *uint64) (result []*model.LoanEventDocument, err error) {
	//nolint:errcheck
	d.run("GetLoanEvents", func() error {
		result, err = d.db.GetLoanEvents(ctx, loanID)
		return err
	})
	return
}

func (d *DbWithMetrics) GetUnpublishedLoanEvents(ctx context.Context, limit int64) (result []*model.LoanEventDocument, err error) {
	//nolint:errcheck
	d.run("GetUnpublishedLoanEvents", func() error {
		result, err = d.db.GetUnpublishedLoanEvents(ctx, limit)
		return err
	})
	return
}

func (d *DbWithMetrics) MarkLoanEventsPublished(ctx context.Context, ids []string) error {
	return d.run("MarkLoanEventsPublished", func() error {
		return d.db.MarkLoanEventsPublished(ctx, ids)
	})
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
