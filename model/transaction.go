package model

// RewardSender is the sender identity of protocol-minted reward transactions.
// No key pair exists for it, so reward transactions carry no signature.
const RewardSender = "ape-coin-reward"

type Output struct {
	// Address of the receiver, the hex of its compressed public key.
	Address string
	// How much value to transfer, in the smallest unit.
	Amount int64
}

type Transaction struct {
	// Unique identifier of this transaction.
	ID string
	// Address of the sender, the hex of its compressed public key.
	SenderAddress string
	// Total value moved by this transaction. Must equal the sum of all outputs.
	Amount int64
	// Creation time in unix nanoseconds.
	Timestamp int64
	// Signature over the outputs using the sender's private key.
	Signature []byte
	// All outputs of this transaction, in order.
	Outputs []Output
}

// IsReward reports whether the transaction is a miner reward.
func (t *Transaction) IsReward() bool {
	return t.SenderAddress == RewardSender
}

// OutputSum adds up the amount of every output.
func (t *Transaction) OutputSum() int64 {
	var sum int64
	for i := 0; i < len(t.Outputs); i++ {
		sum += t.Outputs[i].Amount
	}
	return sum
}
