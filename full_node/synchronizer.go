package full_node

import (
	"context"

	"github.com/Luismorlan/ape_coin/model"
	"github.com/Luismorlan/ape_coin/service"
	"go.uber.org/zap"
)

// PeerSynchronizer announces locally mined blocks to every peer.
type PeerSynchronizer struct {
	peers  *PeerSet
	logger *zap.Logger
}

func NewPeerSynchronizer(peers *PeerSet, logger *zap.Logger) *PeerSynchronizer {
	return &PeerSynchronizer{peers: peers, logger: logger}
}

// Sync never blocks the caller, peer failures are only logged.
func (p *PeerSynchronizer) Sync(block *model.Block) {
	p.logger.Debug("broadcast mined block",
		zap.String("hash", block.Hash),
		zap.Int("peers", p.peers.Len()))
	p.peers.Broadcast("SetBlock", func(ctx context.Context, client service.FullNodeServiceClient) error {
		_, err := client.SetBlock(ctx, &service.SetBlockRequest{Block: block})
		return err
	})
}
