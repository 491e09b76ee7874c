package utils

import (
	"github.com/Luismorlan/ape_coin/model"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
)

func GetOutputBytes(output *model.Output) []byte {
	var data []byte
	data = append(data, StringToBytes(output.Address)...)
	data = append(data, Int64ToBytes(output.Amount)...)
	return data
}

// GetOutputsBytes concats all outputs in order. This is the message a sender signs.
func GetOutputsBytes(outputs []model.Output) []byte {
	var data []byte
	for i := 0; i < len(outputs); i++ {
		data = append(data, GetOutputBytes(&outputs[i])...)
	}
	return data
}

// Concat every field of the transaction (including signature) in byte slices.
func GetTransactionBytes(t *model.Transaction) []byte {
	var data []byte
	data = append(data, StringToBytes(t.ID)...)
	data = append(data, StringToBytes(t.SenderAddress)...)
	data = append(data, Int64ToBytes(t.Amount)...)
	data = append(data, Int64ToBytes(t.Timestamp)...)
	data = append(data, Int64ToBytes(int64(len(t.Signature)))...)
	data = append(data, t.Signature...)
	data = append(data, GetOutputsBytes(t.Outputs)...)
	return data
}

// SignTransaction fills the signature of t using the sender's private key.
func SignTransaction(t *model.Transaction, sk *btcec.PrivateKey) {
	t.Signature = Sign(GetOutputsBytes(t.Outputs), sk)
}

// CheckAmount verifies the amount/outputs invariant:
// 1. There is at least one output.
// 2. Every output moves a positive value.
// 3. Outputs add up to the stated amount.
func CheckAmount(t *model.Transaction) error {
	if len(t.Outputs) == 0 {
		return errors.New("transaction has no outputs")
	}
	for i := 0; i < len(t.Outputs); i++ {
		if t.Outputs[i].Amount <= 0 {
			return errors.Errorf("output %d has non-positive amount %d", i, t.Outputs[i].Amount)
		}
	}
	if sum := t.OutputSum(); sum != t.Amount {
		return errors.Errorf("outputs sum to %d but amount is %d", sum, t.Amount)
	}
	return nil
}

// A transaction is valid if:
// 0. It is not a reward transaction, those never travel on their own.
// 1. It names a sender, and outputs match the amount.
// 2. The signature over the outputs verifies against the sender address.
func IsValidTransaction(t *model.Transaction) error {
	if t == nil {
		return errors.New("transaction is nil")
	}
	if t.IsReward() {
		return errors.New("reward transaction cannot be submitted")
	}
	if t.SenderAddress == "" {
		return errors.New("transaction has no sender")
	}
	if err := CheckAmount(t); err != nil {
		return err
	}
	pk, err := AddressToPublicKey(t.SenderAddress)
	if err != nil {
		return err
	}
	if !Verify(GetOutputsBytes(t.Outputs), pk, t.Signature) {
		return errors.New("signature doesn't match transaction outputs")
	}
	return nil
}
