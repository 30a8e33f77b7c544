package enum

// CashMovementType classifies entries in a terminal's drawer ledger.
// The ledger is append-only; drawer balance is the sum since the last Open.
type CashMovementType string

const (
	CashMovementOpen    CashMovementType = "open"
	CashMovementCashIn  CashMovementType = "cash_in"
	CashMovementCashOut CashMovementType = "cash_out"
	CashMovementClose   CashMovementType = "close"
)

// Signed returns the amount with the sign the movement applies to the drawer
func (t CashMovementType) Signed(amount int64) int64 {
	if t == CashMovementCashOut {
		return -amount
	}
	return amount
}
