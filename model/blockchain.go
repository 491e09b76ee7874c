package model

import (
	"strings"

	"github.com/jinzhu/copier"
)

// GenesisHash is the hash of the fixed genesis block every chain starts from.
var GenesisHash = strings.Repeat("0", 64)

type Block struct {
	// Hash of this entire block in the hex string format.
	Hash string
	// Hash of the previous block in the hex format.
	PrevHash string
	// Height of this block, genesis is 0.
	Height int64
	// Assembly time in unix nanoseconds.
	Timestamp int64
	// Address credited by the reward transaction.
	Miner string
	// Transactions for this block. The last transaction is the reward transaction.
	Txs []*Transaction
	// Nonce is the miner's challenge for computing the block.
	Nonce int64
}

// Clone returns a deep copy that shares no memory with b.
func (b *Block) Clone() *Block {
	out := &Block{}
	// Copying between two values of the same struct type cannot fail.
	_ = copier.CopyWithOption(out, b, copier.Option{DeepCopy: true})
	return out
}

// Reward returns the reward transaction of the block, nil if there is none.
func (b *Block) Reward() *Transaction {
	if len(b.Txs) == 0 {
		return nil
	}
	last := b.Txs[len(b.Txs)-1]
	if last == nil || !last.IsReward() {
		return nil
	}
	return last
}

// BlockWrapper stores both the block information and it's metadata on blockchain.
type BlockWrapper struct {
	// The actual block
	B *Block
	// There can be multiple children because we allow fork.
	Children []*BlockWrapper
	// Only one parent is allowed
	Parent *BlockWrapper
	// height in the blockchain.
	Height int64
	// Ledger at that node.
	L Ledger
}

type Blockchain struct {
	// The block with the maximum height
	Tail *BlockWrapper
	// A map from hex string of the block hash to block wrapper.
	Chain map[string]*BlockWrapper
}

// Create a new blockchain
func NewBlockChain() *Blockchain {
	genesisBlock := &Block{
		Hash: GenesisHash,
	}
	genesisBlockWrapper := BlockWrapper{
		B:      genesisBlock,
		Height: 0,
		L:      NewLedger(),
	}
	return &Blockchain{
		Tail:  &genesisBlockWrapper,
		Chain: map[string]*BlockWrapper{GenesisHash: &genesisBlockWrapper},
	}
}

// ChainState is the part of the chain a proof-of-work search needs. It is a
// plain value so every holder owns its own copy.
type ChainState struct {
	TipHash    string
	Height     int64
	Difficulty int
}
