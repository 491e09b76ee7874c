// Package chain keeps the local block tree and decides which block is the tip.
package chain

import (
	"github.com/Luismorlan/ape_coin/model"
	"github.com/Luismorlan/ape_coin/reward"
	"github.com/Luismorlan/ape_coin/utils"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

var (
	ErrKnownBlock    = errors.New("block already in chain")
	ErrUnknownParent = errors.New("parent block not found in blockchain")
	ErrInvalidHash   = errors.New("block hash is invalid")
	ErrTooDeep       = errors.New("parent is buried too deep")
	ErrInvalidBlock  = errors.New("invalid block")
	// ErrReplayedTransaction marks a transaction id that is already committed
	// on the branch.
	ErrReplayedTransaction = errors.New("transaction already committed")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Chain wraps the blockchain with the rules blocks must follow to join it.
// It is not safe for concurrent use.
type Chain struct {
	bc *model.Blockchain
	// How many leading 0 bits form a valid hash.
	difficulty int
	// Blocks whose parent is more than this many blocks behind the tip are
	// rejected. Zero disables the check.
	confirmation int
	issuer       *reward.Issuer
}

func New(difficulty int, confirmation int, issuer *reward.Issuer) *Chain {
	return &Chain{
		bc:           model.NewBlockChain(),
		difficulty:   difficulty,
		confirmation: confirmation,
		issuer:       issuer,
	}
}

// Tip returns the block with the maximum height.
func (c *Chain) Tip() *model.BlockWrapper {
	return c.bc.Tail
}

func (c *Chain) Difficulty() int {
	return c.difficulty
}

// State returns a value snapshot of the tip.
func (c *Chain) State() model.ChainState {
	return model.ChainState{
		TipHash:    c.bc.Tail.B.Hash,
		Height:     c.bc.Tail.Height,
		Difficulty: c.difficulty,
	}
}

// Get returns the wrapper of the block with the given hash.
func (c *Chain) Get(hash string) (*model.BlockWrapper, bool) {
	w, ok := c.bc.Chain[hash]
	return w, ok
}

func (c *Chain) Len() int {
	return len(c.bc.Chain)
}

// Balance of address as seen at the tip.
func (c *Chain) Balance(address string) int64 {
	return c.bc.Tail.L.Balance(address)
}

// AddBlock validates the block and links it under its parent:
//  1. Hash matches the content and the difficulty.
//  2. Parent exists in the blockchain and height follows it.
//  3. Parent is not buried deeper than the confirmation depth.
//  4. The last transaction is a valid reward.
//  5. Every other transaction is validly signed, spends no more than its
//     sender holds and is not already committed on the parent's branch.
//
// The block becomes the tip only when it is strictly higher than the current
// tip. It reports whether the tip changed.
func (c *Chain) AddBlock(b *model.Block) (bool, error) {
	if b == nil {
		return false, errors.Wrap(ErrInvalidBlock, "block is nil")
	}
	if _, exist := c.bc.Chain[b.Hash]; exist {
		return false, errors.Wrap(ErrKnownBlock, b.Hash)
	}

	matched, digest := utils.MatchDifficulty(b, c.difficulty)
	if digest == "" || digest != b.Hash {
		return false, errors.Wrap(ErrInvalidHash, b.Hash)
	}
	if !matched {
		return false, errors.Wrapf(ErrInvalidHash, "%s does not match difficulty %d", b.Hash, c.difficulty)
	}

	prevBlockWrapper, ok := c.bc.Chain[b.PrevHash]
	if !ok {
		return false, errors.Wrap(ErrUnknownParent, b.PrevHash)
	}
	if b.Height != prevBlockWrapper.Height+1 {
		return false, errors.Wrapf(ErrInvalidBlock, "height %d does not follow parent height %d", b.Height, prevBlockWrapper.Height)
	}

	// If the parent already has a confirmed child it can never win, so stop
	// growing that branch.
	parentDepth := c.bc.Tail.Height - prevBlockWrapper.Height
	if c.confirmation > 0 && parentDepth > int64(c.confirmation) {
		return false, errors.Wrapf(ErrTooDeep, "depth %d", parentDepth)
	}

	rewardTx := b.Reward()
	if rewardTx == nil {
		return false, errors.Wrap(ErrInvalidBlock, "last transaction is not a reward")
	}
	picked := b.Txs[:len(b.Txs)-1]
	committed := branchTransactions(prevBlockWrapper)
	for i := 0; i < len(picked); i++ {
		if picked[i] == nil || picked[i].IsReward() {
			return false, errors.Wrapf(ErrInvalidBlock, "transaction %d is not a regular transaction", i)
		}
		if err := utils.IsValidTransaction(picked[i]); err != nil {
			return false, errors.Wrapf(ErrInvalidBlock, "transaction %d: %v", i, err)
		}
		if committed[picked[i].ID] {
			return false, errors.Wrapf(ErrInvalidBlock, "transaction %d: %v: %s", i, ErrReplayedTransaction, picked[i].ID)
		}
		committed[picked[i].ID] = true
	}
	if err := reward.IsValidReward(rewardTx, c.issuer.Expected(picked)); err != nil {
		return false, errors.Wrap(ErrInvalidBlock, err.Error())
	}

	// Here we need to make a deep copy of the entire previous block's ledger because we are changing it.
	l := model.NewLedger()
	if err := copier.CopyWithOption(&l, &prevBlockWrapper.L, copier.Option{DeepCopy: true}); err != nil {
		return false, errors.Wrap(err, "copy parent ledger")
	}
	if err := utils.HandleTransactions(b.Txs, &l); err != nil {
		return false, errors.Wrapf(ErrInvalidBlock, "%v: %v", ErrInsufficientBalance, err)
	}

	blockWrapper := &model.BlockWrapper{
		B:      b,
		Parent: prevBlockWrapper,
		Height: prevBlockWrapper.Height + 1,
		L:      l,
	}
	prevBlockWrapper.Children = append(prevBlockWrapper.Children, blockWrapper)
	c.bc.Chain[b.Hash] = blockWrapper

	if blockWrapper.Height > c.bc.Tail.Height {
		c.bc.Tail = blockWrapper
		return true, nil
	}
	return false, nil
}

// CheckTransaction reports whether tx could be committed on top of the tip:
// its id is not on the tip's branch and the sender holds the amount.
func (c *Chain) CheckTransaction(tx *model.Transaction) error {
	for w := c.bc.Tail; w != nil; w = w.Parent {
		for _, committed := range w.B.Txs {
			if committed.ID == tx.ID {
				return errors.Wrap(ErrReplayedTransaction, tx.ID)
			}
		}
	}
	if balance := c.Balance(tx.SenderAddress); balance < tx.Amount {
		return errors.Wrapf(ErrInsufficientBalance, "%s holds %d, cannot spend %d", tx.SenderAddress, balance, tx.Amount)
	}
	return nil
}

// OnMainBranch reports whether the block with hash is the tip or one of its
// ancestors.
func (c *Chain) OnMainBranch(hash string) bool {
	w, ok := c.bc.Chain[hash]
	if !ok {
		return false
	}
	tip := c.bc.Tail
	for tip != nil && tip.Height > w.Height {
		tip = tip.Parent
	}
	return tip == w
}

// branchTransactions collects the ids of every transaction from w up to the
// genesis block.
func branchTransactions(w *model.BlockWrapper) map[string]bool {
	ids := make(map[string]bool)
	for ; w != nil; w = w.Parent {
		for _, tx := range w.B.Txs {
			ids[tx.ID] = true
		}
	}
	return ids
}
