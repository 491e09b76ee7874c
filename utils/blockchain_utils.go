package utils

import (
	"context"
	"math"

	"github.com/Luismorlan/ape_coin/model"
	"github.com/pkg/errors"
)

// How many nonces Mine tries between two cancellation checks.
const checkInterval = 1024

// Mine a block, fill the nonce and hash given the current difficulty setting.
// difficulty - how many leading zero bits. Mining stops with ctx.Err() once ctx
// is done.
func Mine(ctx context.Context, block *model.Block, difficulty int) error {
	for i := int64(0); i < math.MaxInt64; i++ {
		if i%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		block.Nonce = i
		isMatched, digest := MatchDifficulty(block, difficulty)
		if isMatched {
			block.Hash = digest
			return nil
		}
	}
	return errors.New("failed to find any nonce")
}

// GetBlockBytes serializes every block field except the hash.
func GetBlockBytes(block *model.Block) ([]byte, error) {
	var rawBlock []byte

	rawBlock = append(rawBlock, Int64ToBytes(block.Nonce)...)

	preHashBytes, err := HexToBytes(block.PrevHash)
	if err != nil {
		return nil, errors.Wrap(err, "previous hash is not hex")
	}
	rawBlock = append(rawBlock, preHashBytes...)
	rawBlock = append(rawBlock, Int64ToBytes(block.Height)...)
	rawBlock = append(rawBlock, Int64ToBytes(block.Timestamp)...)
	rawBlock = append(rawBlock, StringToBytes(block.Miner)...)

	for i := 0; i < len(block.Txs); i++ {
		tx := block.Txs[i]
		if tx == nil {
			return nil, errors.Errorf("transaction %d is nil", i)
		}
		rawBlock = append(rawBlock, GetTransactionBytes(tx)...)
	}

	return rawBlock, nil
}

// HashBlock returns the hex digest of the block.
func HashBlock(block *model.Block) (string, error) {
	blockBytes, err := GetBlockBytes(block)
	if err != nil {
		return "", err
	}
	return BytesToHex(SHA256(blockBytes)), nil
}

func MatchDifficulty(block *model.Block, difficulty int) (bool, string) {
	blockBytes, err := GetBlockBytes(block)
	if err != nil {
		return false, ""
	}
	digest := SHA256(blockBytes)
	return ByteHasLeadingZeros(digest, difficulty), BytesToHex(digest)
}

func ByteHasLeadingZeros(bytes []byte, difficulty int) bool {
	numOfZeroBytes := difficulty / 8
	numOfZeroBits := difficulty % 8

	totalBytes := numOfZeroBytes
	if numOfZeroBits > 0 {
		totalBytes += 1
	}
	if totalBytes > len(bytes) {
		return false
	}
	for i := 0; i < numOfZeroBytes; i++ {
		if bytes[i] != 0 {
			return false
		}
	}
	if numOfZeroBits == 0 {
		return true
	}
	nextByte := bytes[numOfZeroBytes]

	return nextByte>>byte(8-numOfZeroBits) == 0
}
