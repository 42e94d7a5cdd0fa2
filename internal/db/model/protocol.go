package model

import "github.com/gitdigital/founder-loan-service/internal/loan"

// ProtocolConfigID is the _id of the singleton protocol document.
const ProtocolConfigID = "protocol"

type ProtocolConfigDocument struct {
	ID                string `bson:"_id"`
	Authority         string `bson:"authority"`
	Treasury          string `bson:"treasury"`
	ProtocolFeeBps    uint16 `bson:"protocol_fee_bps"`
	MinCreditScore    uint16 `bson:"min_credit_score"`
	TotalLoansCreated uint64 `bson:"total_loans_created"`
	TotalVolume       uint64 `bson:"total_volume"`
	Version           uint64 `bson:"version"`
}

func FromProtocol(p *loan.Protocol, version uint64) *ProtocolConfigDocument {
	return &ProtocolConfigDocument{
		ID:                ProtocolConfigID,
		Authority:         p.Authority,
		Treasury:          p.Treasury,
		ProtocolFeeBps:    p.ProtocolFeeBps,
		MinCreditScore:    p.MinCreditScore,
		TotalLoansCreated: p.TotalLoansCreated,
		TotalVolume:       p.TotalVolume,
		Version:           version,
	}
}

func (d *ProtocolConfigDocument) ToProtocol() *loan.Protocol {
	return &loan.Protocol{
		Authority:         d.Authority,
		Treasury:          d.Treasury,
		ProtocolFeeBps:    d.ProtocolFeeBps,
		MinCreditScore:    d.MinCreditScore,
		TotalLoansCreated: d.TotalLoansCreated,
		TotalVolume:       d.TotalVolume,
	}
}
