package service

import "github.com/Luismorlan/ape_coin/model"

type SetTransactionRequest struct {
	Tx *model.Transaction `json:"tx"`
}

func (r *SetTransactionRequest) GetTx() *model.Transaction {
	if r == nil {
		return nil
	}
	return r.Tx
}

type SetTransactionResponse struct{}

type SetBlockRequest struct {
	Block *model.Block `json:"block"`
}

func (r *SetBlockRequest) GetBlock() *model.Block {
	if r == nil {
		return nil
	}
	return r.Block
}

type SetBlockResponse struct {
	// The block replaced the tail of the receiving node.
	TailChanged bool `json:"tail_changed"`
}

type NodeAddr struct {
	IpAddr string `json:"ip_addr"`
	Port   string `json:"port"`
}

type AddPeerRequest struct {
	NodeAddr *NodeAddr `json:"node_addr"`
}

type AddPeerResponse struct{}

type GetBalanceRequest struct {
	Address string `json:"address"`
}

type GetBalanceResponse struct {
	Balance int64 `json:"balance"`
	// Height of the tail the balance was read at.
	Height int64 `json:"height"`
}

type StartMiningResponse struct {
	// False when the node was already mining.
	Started bool `json:"started"`
}

type GetStatusResponse struct {
	NodeId     string `json:"node_id"`
	State      string `json:"state"`
	Round      uint64 `json:"round"`
	TipHash    string `json:"tip_hash"`
	Height     int64  `json:"height"`
	Difficulty int    `json:"difficulty"`
	PoolSize   int    `json:"pool_size"`
	Peers      int    `json:"peers"`
}
