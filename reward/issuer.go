// Package reward mints the transaction that pays a miner for a block.
package reward

import (
	"time"

	"github.com/Luismorlan/ape_coin/model"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

// FeeFunc returns the fee component collected from the picked transactions.
type FeeFunc func(picked []*model.Transaction) int64

type Option func(*Issuer)

// WithFeeFunc adds a fee component on top of the subsidy.
func WithFeeFunc(f FeeFunc) Option {
	return func(i *Issuer) {
		i.fee = f
	}
}

// WithClock overrides the time source used for reward timestamps.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// Issuer mints reward transactions. It holds no mutable state and is safe to
// share.
type Issuer struct {
	subsidy int64
	fee     FeeFunc
	now     func() time.Time
}

func NewIssuer(subsidy int64, opts ...Option) *Issuer {
	i := &Issuer{
		subsidy: subsidy,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Subsidy is the fixed amount credited per block.
func (i *Issuer) Subsidy() int64 {
	return i.subsidy
}

// Expected returns what a reward for picked must pay.
func (i *Issuer) Expected(picked []*model.Transaction) int64 {
	if i.fee == nil {
		return i.subsidy
	}
	return i.subsidy + i.fee(picked)
}

// RewardTransaction creates a fresh reward crediting minerAddress. picked is
// only consulted by the fee func.
func (i *Issuer) RewardTransaction(minerAddress string, picked []*model.Transaction) *model.Transaction {
	amount := i.Expected(picked)
	return &model.Transaction{
		ID:            uuid.NewV4().String(),
		SenderAddress: model.RewardSender,
		Amount:        amount,
		Timestamp:     i.now().UnixNano(),
		Outputs: []model.Output{
			{Address: minerAddress, Amount: amount},
		},
	}
}

// IsValidReward checks tx is a well formed reward paying exactly expected.
func IsValidReward(tx *model.Transaction, expected int64) error {
	if tx == nil {
		return errors.New("reward transaction is missing")
	}
	if !tx.IsReward() {
		return errors.Errorf("reward transaction has sender %q", tx.SenderAddress)
	}
	if len(tx.Outputs) != 1 {
		return errors.Errorf("reward transaction must have exactly 1 output, got %d", len(tx.Outputs))
	}
	if tx.Amount != expected || tx.Outputs[0].Amount != expected {
		return errors.Errorf("reward pays %d, expected %d", tx.Outputs[0].Amount, expected)
	}
	return nil
}
