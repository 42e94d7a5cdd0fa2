package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/services"
	"github.com/gitdigital/founder-loan-service/internal/types"
	"github.com/spf13/cobra"
)

// InitProtocolCmd initializes the deployment from the protocol section of the
// config file. It fails if the deployment is already initialized:
// ./founder-loan-service init-protocol --config config.yml
func InitProtocolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-protocol",
		Short: "Initialize the protocol configuration",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneShot(cmd.Context(), func(ctx context.Context, srv *services.Service) (any, error) {
				protocol, err := srv.InitializeProtocolFromConfig(ctx)
				return protocol, asError(err)
			})
		},
	}
}

func CreateLoanCmd() *cobra.Command {
	var (
		principal  uint64
		percentage uint16
		termMonths uint16
		collateral string
		borrower   string
		lender     string
	)

	cmd := &cobra.Command{
		Use:   "create-loan",
		Short: "Open a new loan",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			collateralType, err := types.CollateralTypeFromString(collateral)
			if err != nil {
				return err
			}

			req := loan.CreateRequest{
				Principal:           principal,
				RepaymentPercentage: percentage,
				CollateralType:      collateralType,
				Borrower:            borrower,
				Lender:              lender,
			}
			if cmd.Flags().Changed("term-months") {
				req.TermMonths = &termMonths
			}

			return runOneShot(cmd.Context(), func(ctx context.Context, srv *services.Service) (any, error) {
				account, err := srv.CreateLoan(ctx, req)
				return account, asError(err)
			})
		},
	}

	cmd.Flags().Uint64Var(&principal, "principal", 0, "Principal in USDC base units (6 decimals)")
	cmd.Flags().Uint16Var(&percentage, "repayment-percentage", 0, "Share of revenue in basis points, at most 5000")
	cmd.Flags().Uint16Var(&termMonths, "term-months", 0, "Optional informational term")
	cmd.Flags().StringVar(&collateral, "collateral", "", "Collateral type, NONE when empty")
	cmd.Flags().StringVar(&borrower, "borrower", "", "Borrower identity")
	cmd.Flags().StringVar(&lender, "lender", "", "Lender identity")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("borrower")
	_ = cmd.MarkFlagRequired("lender")

	return cmd
}

func RepayCmd() *cobra.Command {
	var amount uint64

	cmd := &cobra.Command{
		Use:   "repay [loanID]",
		Short: "Make a manual repayment from the borrower's token account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loanID, err := parseLoanID(args[0])
			if err != nil {
				return err
			}

			return runOneShot(cmd.Context(), func(ctx context.Context, srv *services.Service) (any, error) {
				account, err := srv.MakeRepayment(ctx, loanID, amount)
				return account, asError(err)
			})
		},
	}

	cmd.Flags().Uint64Var(&amount, "amount", 0, "Repayment in USDC base units")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func AutoRepayCmd() *cobra.Command {
	var (
		revenue uint64
		source  loan.RevenueSource
	)

	cmd := &cobra.Command{
		Use:   "auto-repay [loanID]",
		Short: "Apply the loan's share of a revenue event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loanID, err := parseLoanID(args[0])
			if err != nil {
				return err
			}

			return runOneShot(cmd.Context(), func(ctx context.Context, srv *services.Service) (any, error) {
				account, err := srv.AutoRepayFromRevenue(ctx, loanID, source, revenue)
				return account, asError(err)
			})
		},
	}

	cmd.Flags().Uint64Var(&revenue, "revenue", 0, "Revenue amount in USDC base units")
	cmd.Flags().StringVar(&source.Treasury, "treasury", "", "Company treasury the repayment is drawn from")
	cmd.Flags().StringVar(&source.Authority, "authority", "", "Identity allowed to move treasury funds")
	_ = cmd.MarkFlagRequired("revenue")
	_ = cmd.MarkFlagRequired("treasury")
	_ = cmd.MarkFlagRequired("authority")

	return cmd
}

func ForgiveCmd() *cobra.Command {
	var (
		caller string
		amount uint64
	)

	cmd := &cobra.Command{
		Use:   "forgive [loanID]",
		Short: "Forgive part or all of a loan, only the lender may do it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loanID, err := parseLoanID(args[0])
			if err != nil {
				return err
			}

			// without --amount the whole remainder is forgiven
			var forgiven *uint64
			if cmd.Flags().Changed("amount") {
				forgiven = &amount
			}

			return runOneShot(cmd.Context(), func(ctx context.Context, srv *services.Service) (any, error) {
				account, err := srv.ForgiveLoan(ctx, loanID, caller, forgiven)
				return account, asError(err)
			})
		},
	}

	cmd.Flags().StringVar(&caller, "caller", "", "Lender identity")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "Amount to forgive in USDC base units")
	_ = cmd.MarkFlagRequired("caller")

	return cmd
}

func parseLoanID(arg string) (uint64, error) {
	loanID, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid loan id %q: %w", arg, err)
	}
	return loanID, nil
}
