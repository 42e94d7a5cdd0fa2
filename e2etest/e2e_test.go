//go:build e2e

package e2etest

import (
	"encoding/json"
	"testing"

	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/queue"
	"github.com/gitdigital/founder-loan-service/internal/types"
	"github.com/gitdigital/founder-loan-service/pkg"
	"github.com/gitdigital/founder-loan-service/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const principal = uint64(100_000_000)

func TestLoanLifecycleThroughQueue(t *testing.T) {
	tm := StartManager(t)
	ctx := t.Context()

	borrower, err := testutil.RandomIdentity()
	require.NoError(t, err)
	lender, err := testutil.RandomIdentity()
	require.NoError(t, err)
	require.Nil(t, tm.Service.FundAccount(ctx, borrower, 2*principal, ""))

	tm.SendCommand(t, &queue.CommandMessage{
		TraceID:             "e2e-create",
		Type:                types.CommandCreateLoan,
		Principal:           principal,
		RepaymentPercentage: 1_000,
		Borrower:            borrower,
		Lender:              lender,
	})
	created := tm.ExpectEvents(t, types.EventLoanCreated)[0]
	assert.Equal(t, uint64(1), created.LoanID)
	assert.Equal(t, queue.EventSchemaVersion, created.SchemaVersion)

	var payload loan.LoanCreated
	require.NoError(t, json.Unmarshal(created.Payload, &payload))
	assert.Equal(t, borrower, payload.Borrower)
	assert.Equal(t, principal, payload.Principal)

	// a rejected command is dropped without blocking the ones behind it
	tm.SendCommand(t, &queue.CommandMessage{
		Type:   types.CommandMakeRepayment,
		LoanID: 7,
		Amount: pkg.Ptr(principal),
	})
	tm.SendCommand(t, &queue.CommandMessage{
		Type:   types.CommandMakeRepayment,
		LoanID: 1,
		Amount: pkg.Ptr(principal),
	})
	repaid := tm.ExpectEvents(t, types.EventLoanRepaid, types.EventPaymentMade)
	assert.Equal(t, repaid[0].Timestamp, repaid[1].Timestamp)

	account, getErr := tm.Service.GetLoan(ctx, 1)
	require.Nil(t, getErr)
	assert.Equal(t, types.LoanStatusRepaid, account.Status)
	assert.Equal(t, principal, account.AmountRepaid)

	// every recorded event made it to the queue
	pending, err := tm.DbClient.GetUnpublishedLoanEvents(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestForgivenessThroughQueue(t *testing.T) {
	tm := StartManager(t)

	borrower, err := testutil.RandomIdentity()
	require.NoError(t, err)
	lender, err := testutil.RandomIdentity()
	require.NoError(t, err)

	tm.SendCommand(t, &queue.CommandMessage{
		Type:                types.CommandCreateLoan,
		Principal:           principal,
		RepaymentPercentage: 500,
		CollateralType:      string(types.CollateralRevenueShare),
		Borrower:            borrower,
		Lender:              lender,
	})
	tm.ExpectEvents(t, types.EventLoanCreated)

	tm.SendCommand(t, &queue.CommandMessage{
		Type:   types.CommandForgiveLoan,
		LoanID: 1,
		Caller: lender,
	})
	forgiven := tm.ExpectEvents(t, types.EventLoanForgiven)[0]

	var payload loan.LoanForgiven
	require.NoError(t, json.Unmarshal(forgiven.Payload, &payload))
	assert.Equal(t, principal, payload.ForgivenAmount)
	assert.Equal(t, types.LoanStatusForgiven, payload.NewStatus)
}
