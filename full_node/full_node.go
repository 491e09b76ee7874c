package full_node

import (
	"context"

	"github.com/Luismorlan/ape_coin/chain"
	"github.com/Luismorlan/ape_coin/config"
	"github.com/Luismorlan/ape_coin/metrics"
	"github.com/Luismorlan/ape_coin/miner"
	"github.com/Luismorlan/ape_coin/pow"
	"github.com/Luismorlan/ape_coin/reward"
	"github.com/Luismorlan/ape_coin/txpool"
	"github.com/Luismorlan/ape_coin/utils"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"
)

// A full node maintains the blockchain and the transaction pool, and mines on
// top of its tail. All of that state is owned by the miner service goroutine.
type FullNode struct {
	// keys contain private key and public key for this fullnode. The public key
	// is the address mining rewards are paid to.
	keys    *btcec.PrivateKey
	address string
	// Blockchain config.
	config config.AppConfig
	// A unique indentifier of this Fullnode, this doesn't impact consensus, only
	// used for easier implementation.
	uuid string

	worker  *pow.Worker
	service *miner.Service
	logger  *zap.Logger
}

// Create a brand new full node, which contains a genesis block in the chain.
// A nil key generates a fresh one. Collectors are registered on reg when it is
// not nil.
func NewFullNode(c config.AppConfig, sk *btcec.PrivateKey, sync miner.Synchronizer, reg prometheus.Registerer, logger *zap.Logger) (*FullNode, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if sk == nil {
		var err error
		if sk, _, err = utils.GenerateKeyPair(); err != nil {
			return nil, errors.Wrap(err, "generate node key")
		}
	}
	myuuid := uuid.NewV4()
	address := utils.PublicKeyToAddress(sk.PubKey())
	logger = logger.With(zap.String("node", myuuid.String()))

	m := metrics.New(reg)
	issuer := reward.NewIssuer(c.COINBASE_REWARD)
	results := make(chan pow.Result, 1)
	worker := pow.NewWorker(results, logger.Named("pow"))
	controller := miner.NewController(
		miner.Config{
			MinerAddress:         address,
			MaxBlockTransactions: c.MAX_BLOCK_TRANSACTIONS,
			RemineOnTipChange:    c.REMINE_ON_TAIL_CHANGE,
		},
		chain.New(c.DIFFICULTY, c.CONFIRMATION, issuer),
		txpool.NewTransactionPool(),
		issuer,
		worker,
		sync,
		logger.Named("miner"),
		m,
	)

	return &FullNode{
		keys:    sk,
		address: address,
		config:  c,
		uuid:    myuuid.String(),
		worker:  worker,
		service: miner.NewService(controller, results, logger.Named("service")),
		logger:  logger,
	}, nil
}

// Run drives the node until ctx is done, then stops every search in flight.
func (f *FullNode) Run(ctx context.Context) error {
	defer f.worker.Close()
	f.logger.Info("full node running", zap.String("address", f.address))
	return f.service.Run(ctx)
}

func (f *FullNode) Service() *miner.Service {
	return f.service
}

func (f *FullNode) Address() string {
	return f.address
}

func (f *FullNode) ID() string {
	return f.uuid
}

func (f *FullNode) Config() config.AppConfig {
	return f.config
}

// GetBalance returns the balance of address at the tail and the tail height.
func (f *FullNode) GetBalance(ctx context.Context, address string) (int64, int64, error) {
	var balance, height int64
	if err := f.service.Do(ctx, func(c *miner.Controller) {
		balance = c.Chain().Balance(address)
		height = c.Chain().Tip().Height
	}); err != nil {
		return 0, 0, err
	}
	return balance, height, nil
}
