package model

import "github.com/gitdigital/founder-loan-service/internal/loan"

type BorrowerDocument struct {
	Owner              string `bson:"_id"`
	TotalLoans         uint32 `bson:"total_loans"`
	ActiveLoans        uint32 `bson:"active_loans"`
	CompletedLoans     uint32 `bson:"completed_loans"`
	TotalBorrowed      uint64 `bson:"total_borrowed"`
	TotalRepaid        uint64 `bson:"total_repaid"`
	CurrentCreditScore uint16 `bson:"current_credit_score"`
	LifetimeCreditHigh uint16 `bson:"lifetime_credit_high"`
	Version            uint64 `bson:"version"`
}

func FromProfile(p *loan.Profile, version uint64) *BorrowerDocument {
	return &BorrowerDocument{
		Owner:              p.Owner,
		TotalLoans:         p.TotalLoans,
		ActiveLoans:        p.ActiveLoans,
		CompletedLoans:     p.CompletedLoans,
		TotalBorrowed:      p.TotalBorrowed,
		TotalRepaid:        p.TotalRepaid,
		CurrentCreditScore: p.CurrentCreditScore,
		LifetimeCreditHigh: p.LifetimeCreditHigh,
		Version:            version,
	}
}

func (d *BorrowerDocument) ToProfile() *loan.Profile {
	return &loan.Profile{
		Owner:              d.Owner,
		TotalLoans:         d.TotalLoans,
		ActiveLoans:        d.ActiveLoans,
		CompletedLoans:     d.CompletedLoans,
		TotalBorrowed:      d.TotalBorrowed,
		TotalRepaid:        d.TotalRepaid,
		CurrentCreditScore: d.CurrentCreditScore,
		LifetimeCreditHigh: d.LifetimeCreditHigh,
	}
}
