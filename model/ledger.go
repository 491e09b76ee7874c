package model

// Ledger holds the balance of every address known at a given block.
type Ledger struct {
	Balances map[string]int64
}

func NewLedger() Ledger {
	return Ledger{
		Balances: make(map[string]int64),
	}
}

// Balance of the address, zero if never seen.
func (l *Ledger) Balance(address string) int64 {
	return l.Balances[address]
}
