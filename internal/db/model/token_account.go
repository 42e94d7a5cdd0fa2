package model

// TokenAccountDocument is a custodial USDC balance. Funds may be moved by the
// owner or, when set, by the delegate.
type TokenAccountDocument struct {
	Owner    string `bson:"_id"`
	Delegate string `bson:"delegate,omitempty"`
	Balance  uint64 `bson:"balance"`
}

func (d *TokenAccountDocument) CanBeMovedBy(authority string) bool {
	if authority == "" {
		return false
	}
	return authority == d.Owner || authority == d.Delegate
}
