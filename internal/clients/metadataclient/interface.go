package metadataclient

import "context"

// LoanMetadata is the cosmetic snapshot of a loan rendered by the metadata
// service.
type LoanMetadata struct {
	LoanID               uint64 `json:"loan_id"`
	Principal            uint64 `json:"principal"`
	Repaid               uint64 `json:"repaid"`
	CreditScore          uint16 `json:"credit_score"`
	Status               string `json:"status"`
	VisualTier           string `json:"visual_tier"`
	RepaymentProgressBps uint64 `json:"repayment_progress_bps"`
}

//go:generate mockery --name=MetadataInterface --output=../../../tests/mocks --outpkg=mocks --filename=mock_metadata_client.go
type MetadataInterface interface {
	UpdateLoanMetadata(ctx context.Context, metadata LoanMetadata) error
}
