package utils

import (
	"testing"

	"github.com/Luismorlan/ape_coin/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleTransactions(t *testing.T) {
	l := model.NewLedger()
	l.Balances["alice"] = 10
	txs := []*model.Transaction{
		{SenderAddress: "alice", Amount: 7, Outputs: []model.Output{{Address: "bob", Amount: 7}}},
		{SenderAddress: "bob", Amount: 7, Outputs: []model.Output{{Address: "carol", Amount: 3}, {Address: "alice", Amount: 4}}},
		{SenderAddress: model.RewardSender, Amount: 50, Outputs: []model.Output{{Address: "miner", Amount: 50}}},
	}
	require.NoError(t, HandleTransactions(txs, &l))
	assert.Equal(t, int64(7), l.Balance("alice"))
	assert.Equal(t, int64(0), l.Balance("bob"))
	assert.Equal(t, int64(3), l.Balance("carol"))
	assert.Equal(t, int64(50), l.Balance("miner"))
}

func TestHandleTransactionOverspend(t *testing.T) {
	l := model.NewLedger()
	l.Balances["alice"] = 5
	tx := &model.Transaction{SenderAddress: "alice", Amount: 6, Outputs: []model.Output{{Address: "bob", Amount: 6}}}

	err := HandleTransactions([]*model.Transaction{tx}, &l)
	assert.ErrorContains(t, err, "cannot spend 6")
	assert.Equal(t, int64(5), l.Balance("alice"))
	assert.Equal(t, int64(0), l.Balance("bob"))
}
