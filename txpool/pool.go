// Package txpool holds pending transactions waiting to be mined.
package txpool

import (
	"github.com/Luismorlan/ape_coin/model"
	"github.com/Luismorlan/ape_coin/utils"
	"github.com/pkg/errors"
)

// ErrInvalidTransaction is returned by Submit for malformed or badly signed
// transactions.
var ErrInvalidTransaction = errors.New("invalid transaction")

// TransactionPool contains all pending transactions that haven't been checked
// in the blockchain. A sender has at most one pending transaction.
//
// The pool is not safe for concurrent use, all calls must come from the
// goroutine that owns it.
type TransactionPool struct {
	// Key is the transaction id, value is the transaction.
	txs map[string]*model.Transaction
	// Key is the sender address, value is the id of its pending transaction.
	bySender map[string]string
	// Transaction ids in insertion order.
	order []string
}

// Check is an extra rule a transaction must pass to stay in the pool.
type Check func(tx *model.Transaction) error

// NewTransactionPool creates a new transaction pool with no transaction at all.
func NewTransactionPool() *TransactionPool {
	return &TransactionPool{
		txs:      make(map[string]*model.Transaction),
		bySender: make(map[string]string),
	}
}

// Submit validates tx, runs checks on it and adds it to the pool. A pending
// transaction from the same sender is replaced and tx takes over its position.
func (p *TransactionPool) Submit(tx *model.Transaction, checks ...Check) error {
	if err := utils.IsValidTransaction(tx); err != nil {
		return errors.Wrap(ErrInvalidTransaction, err.Error())
	}
	if tx.ID == "" {
		return errors.Wrap(ErrInvalidTransaction, "transaction has no id")
	}
	if other, exist := p.txs[tx.ID]; exist && other.SenderAddress != tx.SenderAddress {
		return errors.Wrapf(ErrInvalidTransaction, "transaction id %s is taken by another sender", tx.ID)
	}
	for _, check := range checks {
		if err := check(tx); err != nil {
			return errors.Wrap(ErrInvalidTransaction, err.Error())
		}
	}

	if oldID, exist := p.bySender[tx.SenderAddress]; exist {
		delete(p.txs, oldID)
		for i, id := range p.order {
			if id == oldID {
				p.order[i] = tx.ID
				break
			}
		}
	} else {
		p.order = append(p.order, tx.ID)
	}
	p.txs[tx.ID] = tx
	p.bySender[tx.SenderAddress] = tx.ID
	return nil
}

// PickTransactions returns up to limit transactions in insertion order. The
// pool itself is left untouched.
func (p *TransactionPool) PickTransactions(limit int) []*model.Transaction {
	if limit <= 0 {
		return nil
	}
	n := len(p.order)
	if n > limit {
		n = limit
	}
	picked := make([]*model.Transaction, 0, n)
	for _, id := range p.order[:n] {
		picked = append(picked, p.txs[id])
	}
	return picked
}

// Clear removes every transaction.
func (p *TransactionPool) Clear() {
	p.txs = make(map[string]*model.Transaction)
	p.bySender = make(map[string]string)
	p.order = nil
}

// Revalidate drops every transaction whose outputs no longer add up to its
// amount or that fails one of checks, and returns how many were dropped.
func (p *TransactionPool) Revalidate(checks ...Check) int {
	dropped := 0
	kept := p.order[:0]
	for _, id := range p.order {
		tx := p.txs[id]
		if err := runChecks(tx, utils.CheckAmount, checks); err != nil {
			p.remove(tx)
			dropped++
			continue
		}
		kept = append(kept, id)
	}
	p.order = kept
	return dropped
}

// RemoveIncluded drops the pending transactions that appear in txs.
func (p *TransactionPool) RemoveIncluded(txs []*model.Transaction) int {
	included := make(map[string]bool, len(txs))
	for _, tx := range txs {
		if tx != nil {
			included[tx.ID] = true
		}
	}
	removed := 0
	kept := p.order[:0]
	for _, id := range p.order {
		if included[id] {
			p.remove(p.txs[id])
			removed++
			continue
		}
		kept = append(kept, id)
	}
	p.order = kept
	return removed
}

func runChecks(tx *model.Transaction, first Check, checks []Check) error {
	if err := first(tx); err != nil {
		return err
	}
	for _, check := range checks {
		if err := check(tx); err != nil {
			return err
		}
	}
	return nil
}

// remove deletes tx from the maps. Callers fix up order.
func (p *TransactionPool) remove(tx *model.Transaction) {
	delete(p.txs, tx.ID)
	// The sender field may have been corrupted, so look the entry up by id.
	for sender, id := range p.bySender {
		if id == tx.ID {
			delete(p.bySender, sender)
		}
	}
}

func (p *TransactionPool) Len() int {
	return len(p.order)
}

func (p *TransactionPool) Get(id string) (*model.Transaction, bool) {
	tx, ok := p.txs[id]
	return tx, ok
}

// BySender returns the pending transaction of sender.
func (p *TransactionPool) BySender(sender string) (*model.Transaction, bool) {
	id, ok := p.bySender[sender]
	if !ok {
		return nil, false
	}
	return p.txs[id], true
}
