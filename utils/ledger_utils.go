package utils

import (
	"github.com/Luismorlan/ape_coin/model"
	"github.com/pkg/errors"
)

// Handle transaction:
// 1. Debit the sender, unless it is a reward. The sender must hold the amount.
// 2. Credit every output.
func HandleTransaction(tx *model.Transaction, l *model.Ledger) error {
	if !tx.IsReward() {
		if balance := l.Balances[tx.SenderAddress]; balance < tx.Amount {
			return errors.Errorf("%s holds %d, cannot spend %d", tx.SenderAddress, balance, tx.Amount)
		}
		l.Balances[tx.SenderAddress] -= tx.Amount
	}
	for i := 0; i < len(tx.Outputs); i++ {
		output := &tx.Outputs[i]
		l.Balances[output.Address] += output.Amount
	}
	return nil
}

// Handle a bunch of transactions, stopping at the first invalid spend.
// Note that ledger will be changed directly, when passing ledger to this function, be sure to pass a deep copy.
func HandleTransactions(txs []*model.Transaction, l *model.Ledger) error {
	for i := 0; i < len(txs); i++ {
		if err := HandleTransaction(txs[i], l); err != nil {
			return errors.Wrapf(err, "transaction %d", i)
		}
	}
	return nil
}
