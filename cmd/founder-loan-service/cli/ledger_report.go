package cli

import (
	"context"

	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/services"
	"github.com/spf13/cobra"
)

type ledgerReportView struct {
	LoanID                   *uint64            `json:"loan_id,omitempty"`
	TotalPayments            int                `json:"total_payments"`
	TotalPrincipalRepaid     string             `json:"total_principal_repaid_usdc"`
	TotalForgiven            string             `json:"total_forgiven_usdc"`
	OutstandingBalance       string             `json:"outstanding_balance_usdc"`
	AverageCreditScoreChange string             `json:"average_credit_score_change"`
	Entries                  []loan.LedgerEntry `json:"entries,omitempty"`
}

// LedgerReportCmd prints the double entry ledger of one loan, or of every loan
// when no id is given:
// ./founder-loan-service ledger-report 1 --entries --config config.yml
func LedgerReportCmd() *cobra.Command {
	var withEntries bool

	cmd := &cobra.Command{
		Use:   "ledger-report [loanID]",
		Short: "Summarize recorded loan events as ledger entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var loanID *uint64
			if len(args) == 1 {
				id, err := parseLoanID(args[0])
				if err != nil {
					return err
				}
				loanID = &id
			}

			return runOneShot(cmd.Context(), func(ctx context.Context, srv *services.Service) (any, error) {
				report, err := srv.LedgerReport(ctx, loanID)
				if err != nil {
					return nil, err
				}

				view := &ledgerReportView{
					LoanID:                   report.LoanID,
					TotalPayments:            report.TotalPayments,
					TotalPrincipalRepaid:     services.FormatUSDC(report.TotalPrincipalRepaid),
					TotalForgiven:            services.FormatUSDC(report.TotalForgiven),
					OutstandingBalance:       services.FormatUSDC(report.OutstandingBalance),
					AverageCreditScoreChange: report.AverageCreditScoreChange.String(),
				}
				if withEntries {
					view.Entries = report.Entries
				}
				return view, nil
			})
		},
	}

	cmd.Flags().BoolVar(&withEntries, "entries", false, "Include every ledger entry")

	return cmd
}
