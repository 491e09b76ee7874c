package utils

import (
	"testing"

	"github.com/Luismorlan/ape_coin/model"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createSignedTx(t *testing.T) (*model.Transaction, *btcec.PrivateKey) {
	sk, pk, err := GenerateKeyPair()
	require.NoError(t, err)
	tx := &model.Transaction{
		ID:            "tx-1",
		SenderAddress: PublicKeyToAddress(pk),
		Amount:        15,
		Outputs: []model.Output{
			{Address: "aa", Amount: 10},
			{Address: "bb", Amount: 5},
		},
	}
	SignTransaction(tx, sk)
	return tx, sk
}

func TestIsValidTransaction(t *testing.T) {
	tx, _ := createSignedTx(t)
	assert.NoError(t, IsValidTransaction(tx))
}

func TestIsValidTransactionAmountMismatch(t *testing.T) {
	tx, sk := createSignedTx(t)
	tx.Amount = 16
	SignTransaction(tx, sk)
	assert.Error(t, IsValidTransaction(tx))
}

func TestIsValidTransactionTamperedOutputs(t *testing.T) {
	tx, _ := createSignedTx(t)
	tx.Outputs[0].Address = "cc"
	assert.Error(t, IsValidTransaction(tx))
}

func TestIsValidTransactionWrongSigner(t *testing.T) {
	tx, _ := createSignedTx(t)
	other, _, err := GenerateKeyPair()
	require.NoError(t, err)
	SignTransaction(tx, other)
	assert.Error(t, IsValidTransaction(tx))
}

func TestIsValidTransactionRejectsReward(t *testing.T) {
	tx := &model.Transaction{
		SenderAddress: model.RewardSender,
		Amount:        5,
		Outputs:       []model.Output{{Address: "aa", Amount: 5}},
	}
	assert.Error(t, IsValidTransaction(tx))
	assert.Error(t, IsValidTransaction(nil))
}

func TestCheckAmount(t *testing.T) {
	assert.Error(t, CheckAmount(&model.Transaction{Amount: 0}))
	assert.Error(t, CheckAmount(&model.Transaction{Amount: 0, Outputs: []model.Output{{Amount: 0}}}))
	assert.Error(t, CheckAmount(&model.Transaction{Amount: -1, Outputs: []model.Output{{Amount: -1}}}))
	assert.NoError(t, CheckAmount(&model.Transaction{Amount: 3, Outputs: []model.Output{{Amount: 1}, {Amount: 2}}}))
}
