package cli

import (
	"context"

	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/queue"
	"github.com/gitdigital/founder-loan-service/internal/services"
	"github.com/spf13/cobra"
)

func ShowLoanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-loan [loanID]",
		Short: "Print a loan with its metadata view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loanID, err := parseLoanID(args[0])
			if err != nil {
				return err
			}

			return runOneShot(cmd.Context(), func(ctx context.Context, srv *services.Service) (any, error) {
				account, err := srv.GetLoan(ctx, loanID)
				if err != nil {
					return nil, err
				}
				return struct {
					Loan     *loan.Account `json:"loan"`
					Metadata any           `json:"metadata"`
				}{account, services.MetadataFor(account)}, nil
			})
		},
	}
}

func ShowBorrowerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-borrower [owner]",
		Short: "Print a borrower profile and its loans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner := args[0]
			return runOneShot(cmd.Context(), func(ctx context.Context, srv *services.Service) (any, error) {
				profile, err := srv.GetBorrower(ctx, owner)
				if err != nil {
					return nil, err
				}
				loans, err := srv.GetBorrowerLoans(ctx, owner)
				if err != nil {
					return nil, err
				}
				return struct {
					Profile *loan.Profile   `json:"profile"`
					Loans   []*loan.Account `json:"loans"`
				}{profile, loans}, nil
			})
		},
	}
}

func ShowEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-events [loanID]",
		Short: "Print recorded events in emission order, of every loan when no id is given",
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
				events, err := srv.GetLoanEvents(ctx, loanID)
				if err != nil {
					return nil, err
				}

				envelopes := make([]*queue.EventEnvelope, 0, len(events))
				for _, event := range events {
					envelope, err := queue.NewEventEnvelope(event)
					if err != nil {
						return nil, err
					}
					envelopes = append(envelopes, envelope)
				}
				return envelopes, nil
			})
		},
	}
}

func FundAccountCmd() *cobra.Command {
	var (
		amount   uint64
		delegate string
	)

	cmd := &cobra.Command{
		Use:   "fund-account [owner]",
		Short: "Credit a custodial token account, optionally setting its delegate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner := args[0]
			return runOneShot(cmd.Context(), func(ctx context.Context, srv *services.Service) (any, error) {
				if err := srv.FundAccount(ctx, owner, amount, delegate); err != nil {
					return nil, err
				}
				return balanceOf(ctx, srv, owner)
			})
		},
	}

	cmd.Flags().Uint64Var(&amount, "amount", 0, "Amount in USDC base units")
	cmd.Flags().StringVar(&delegate, "delegate", "", "Identity allowed to move the account's funds")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func BalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [owner]",
		Short: "Print the balance of a custodial token account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner := args[0]
			return runOneShot(cmd.Context(), func(ctx context.Context, srv *services.Service) (any, error) {
				return balanceOf(ctx, srv, owner)
			})
		},
	}
}

type balanceView struct {
	Owner   string `json:"owner"`
	Balance uint64 `json:"balance"`
}

func balanceOf(ctx context.Context, srv *services.Service, owner string) (*balanceView, error) {
	balance, err := srv.Balance(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &balanceView{Owner: owner, Balance: balance}, nil
}
