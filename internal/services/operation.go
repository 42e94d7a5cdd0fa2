package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gitdigital/founder-loan-service/internal/db"
	"github.com/gitdigital/founder-loan-service/internal/db/model"
	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/observability/metrics"
	"github.com/gitdigital/founder-loan-service/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const protocolLockKey = "protocol"

func loanLockKey(loanID uint64) string {
	return "loan:" + strconv.FormatUint(loanID, 10)
}

func borrowerLockKey(owner string) string {
	return "borrower:" + owner
}

// records are the documents an operation read inside its transaction. A nil
// document did not exist; the others are written back under the version they
// were read at.
type records struct {
	protocol *model.ProtocolConfigDocument
	borrower *model.BorrowerDocument
	loan     *model.LoanDocument
}

type operation struct {
	name string
	// lockKeys resolves the keys to hold, in acquisition order
	// loan, borrower, protocol.
	lockKeys func(ctx context.Context) ([]string, error)
	// qualified lists the statuses the stored loan must still be in when it
	// is written back.
	qualified []types.LoanStatus
	// apply loads the records and computes the transition. It runs inside the
	// transaction and may be called more than once.
	apply func(ctx context.Context, now int64) (*records, *loan.Transition, error)
}

type result struct {
	records    *records
	transition *loan.Transition
}

// account returns the loan as it is after the operation.
func (r *result) account() *loan.Account {
	if r.transition.Loan != nil {
		return r.transition.Loan
	}
	if r.records.loan != nil {
		return r.records.loan.ToAccount()
	}
	return nil
}

// execute runs one loan operation: it takes the operation's locks, applies
// the transition and commits transfers, records and outbox events in one
// transaction. Events are published and metadata pushed after commit while
// the locks are still held so events of one loan leave in order.
func (s *Service) execute(ctx context.Context, op operation) (*result, *types.Error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Processor.OperationTimeout)
	defer cancel()

	log := log.Ctx(ctx)
	finish := metrics.StartLoanOperationTimer(op.name)

	keys, err := op.lockKeys(ctx)
	if err != nil {
		finish(true)
		return nil, mapError(err)
	}

	unlock, err := s.locks.LockAll(ctx, keys...)
	if err != nil {
		finish(true)
		return nil, mapError(fmt.Errorf("failed to lock %v: %w", keys, err))
	}
	defer unlock()

	var (
		res    *result
		outbox []*model.LoanEventDocument
	)
	err = s.db.WithTransaction(ctx, func(txCtx context.Context) error {
		recs, tr, err := op.apply(txCtx, s.timestamp())
		if err != nil {
			return err
		}
		res = &result{records: recs, transition: tr}
		if tr.IsNoop() {
			outbox = nil
			return nil
		}

		outbox, err = s.commit(txCtx, recs, tr, op.qualified)
		return err
	})
	if err != nil {
		finish(true)
		typedErr := mapError(err)
		log.Warn().
			Err(err).
			Str("operation", op.name).
			Str("error_code", string(typedErr.ErrorCode)).
			Msg("Loan operation failed")
		return nil, typedErr
	}
	finish(false)

	if account := res.account(); account != nil {
		log.Info().
			Str("operation", op.name).
			Uint64("loan_id", account.LoanID).
			Str("status", account.Status.String()).
			Uint64("amount_repaid", account.AmountRepaid).
			Uint16("credit_score", account.CreditScore).
			Int("events", len(outbox)).
			Msg("Loan operation committed")
	}

	s.publishCommitted(ctx, outbox)
	if res.transition.Loan != nil {
		s.notifyMetadata(ctx, res.transition.Loan)
	}

	return res, nil
}

// commit performs the transfers of tr and writes every modified record and
// the outbox events. It must run inside a transaction: a failure at any step
// leaves all of them unapplied.
func (s *Service) commit(
	ctx context.Context, recs *records, tr *loan.Transition, qualified []types.LoanStatus,
) ([]*model.LoanEventDocument, error) {
	for _, transfer := range tr.Transfers {
		if err := s.token.Transfer(ctx, transfer); err != nil {
			return nil, fmt.Errorf("%w: %s of %d: %w", errTransferFailed, transfer.Purpose, transfer.Amount, err)
		}
	}

	if tr.Protocol != nil {
		if err := s.saveProtocol(ctx, recs.protocol, tr.Protocol); err != nil {
			return nil, err
		}
	}

	if tr.Profile != nil {
		if err := s.saveBorrower(ctx, recs.borrower, tr.Profile); err != nil {
			return nil, err
		}
	}

	if tr.Loan != nil {
		if err := s.saveLoan(ctx, recs.loan, tr.Loan, qualified); err != nil {
			return nil, err
		}
	}

	if len(tr.Events) == 0 {
		return nil, nil
	}

	// every transition with events writes the loan
	loanVersion := uint64(1)
	if recs.loan != nil {
		loanVersion = recs.loan.Version + 1
	}

	outbox := make([]*model.LoanEventDocument, 0, len(tr.Events))
	for i, event := range tr.Events {
		doc, err := model.NewLoanEventDocument(uuid.NewString(), loanVersion, i, event)
		if err != nil {
			return nil, err
		}
		outbox = append(outbox, doc)
	}
	if err := s.db.SaveLoanEvents(ctx, outbox); err != nil {
		return nil, fmt.Errorf("failed to save loan events: %w", err)
	}

	return outbox, nil
}

func (s *Service) saveProtocol(ctx context.Context, current *model.ProtocolConfigDocument, next *loan.Protocol) error {
	if current == nil {
		if err := s.db.SaveProtocolConfig(ctx, model.FromProtocol(next, 1)); err != nil {
			if db.IsDuplicateKeyError(err) {
				return loan.ErrAlreadyInitialized
			}
			return fmt.Errorf("failed to save protocol config: %w", err)
		}
		return nil
	}

	if err := s.db.UpdateProtocolConfig(ctx, model.FromProtocol(next, current.Version+1), current.Version); err != nil {
		return fmt.Errorf("failed to update protocol config: %w", err)
	}
	return nil
}

func (s *Service) saveBorrower(ctx context.Context, current *model.BorrowerDocument, next *loan.Profile) error {
	if current == nil {
		if err := s.db.SaveNewBorrower(ctx, model.FromProfile(next, 1)); err != nil {
			return fmt.Errorf("failed to save borrower %s: %w", next.Owner, err)
		}
		return nil
	}

	if err := s.db.UpdateBorrower(ctx, model.FromProfile(next, current.Version+1), current.Version); err != nil {
		return fmt.Errorf("failed to update borrower %s: %w", next.Owner, err)
	}
	return nil
}

func (s *Service) saveLoan(
	ctx context.Context, current *model.LoanDocument, next *loan.Account, qualified []types.LoanStatus,
) error {
	if current == nil {
		if err := s.db.SaveNewLoan(ctx, model.FromAccount(next, 1)); err != nil {
			return fmt.Errorf("failed to save loan %d: %w", next.LoanID, err)
		}
		return nil
	}

	if err := s.db.UpdateLoan(ctx, model.FromAccount(next, current.Version+1), current.Version, qualified); err != nil {
		return fmt.Errorf("failed to update loan %d: %w", next.LoanID, err)
	}
	return nil
}

// loadProtocol returns nil when the deployment is not initialized.
func (s *Service) loadProtocol(ctx context.Context) (*model.ProtocolConfigDocument, error) {
	doc, err := s.db.GetProtocolConfig(ctx)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get protocol config: %w", err)
	}
	return doc, nil
}

// loadBorrower returns nil when owner has never borrowed.
func (s *Service) loadBorrower(ctx context.Context, owner string) (*model.BorrowerDocument, error) {
	doc, err := s.db.GetBorrower(ctx, owner)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get borrower %s: %w", owner, err)
	}
	return doc, nil
}

func (s *Service) loadLoan(ctx context.Context, loanID uint64) (*model.LoanDocument, error) {
	doc, err := s.db.GetLoan(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get loan %d: %w", loanID, err)
	}
	return doc, nil
}

func protocolOf(doc *model.ProtocolConfigDocument) *loan.Protocol {
	if doc == nil {
		return nil
	}
	return doc.ToProtocol()
}

func profileOf(doc *model.BorrowerDocument) *loan.Profile {
	if doc == nil {
		return nil
	}
	return doc.ToProfile()
}
