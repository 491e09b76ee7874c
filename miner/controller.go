// Package miner drives continuous block production.
//
// Controller is a single-threaded state machine: it assembles candidate
// blocks, dispatches them to a proof-of-work worker, and reconciles worker
// results with the chain. Service funnels every external event into the
// controller from one goroutine, so the controller, the pool and the chain
// need no locking.
package miner

import (
	"time"

	"github.com/Luismorlan/ape_coin/chain"
	"github.com/Luismorlan/ape_coin/metrics"
	"github.com/Luismorlan/ape_coin/model"
	"github.com/Luismorlan/ape_coin/pow"
	"github.com/Luismorlan/ape_coin/reward"
	"github.com/Luismorlan/ape_coin/txpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrStaleResult marks a worker result that no longer matches the
	// current round or tip. It is never delivered to listeners.
	ErrStaleResult = errors.New("stale worker result")
	// ErrWorkerFailure wraps every failure that halts mining.
	ErrWorkerFailure = errors.New("proof-of-work worker failure")
)

type State int

const (
	Idle State = iota
	Mining
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Mining:
		return "mining"
	default:
		return "unknown"
	}
}

// Worker runs proof-of-work searches on another execution context.
type Worker interface {
	// Dispatch must not block on the search.
	Dispatch(job pow.Job) error
	Cancel(round uint64)
}

// Synchronizer announces newly mined blocks to the network.
type Synchronizer interface {
	Sync(block *model.Block)
}

// Scheduler runs fn after the events already waiting on the control path.
type Scheduler interface {
	Yield(fn func())
}

type immediateScheduler struct{}

func (immediateScheduler) Yield(fn func()) { fn() }

type Config struct {
	// Address credited by reward transactions.
	MinerAddress string
	// Maximum number of pool transactions per block.
	MaxBlockTransactions int
	// Abandon the current round as soon as a peer block moves the tip.
	RemineOnTipChange bool
}

// Status is a point-in-time view of the controller.
type Status struct {
	State        State
	Round        uint64
	TipHash      string
	Height       int64
	Difficulty   int
	PoolSize     int
	CandidateTxs int
	Listeners    int
}

type Controller struct {
	cfg       Config
	chain     *chain.Chain
	pool      *txpool.TransactionPool
	issuer    *reward.Issuer
	worker    Worker
	sync      Synchronizer
	scheduler Scheduler
	listeners listeners
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	state State
	// Increases with every round, results tagged with any other value are stale.
	round uint64
	// Block being searched for in the current round, nil when none is in flight.
	candidate *model.Block
	// A successful or stale round finished and the next one has been scheduled.
	restartPending bool
}

func NewController(cfg Config, c *chain.Chain, pool *txpool.TransactionPool, issuer *reward.Issuer, worker Worker, sync Synchronizer, logger *zap.Logger, m *metrics.Metrics) *Controller {
	return &Controller{
		cfg:       cfg,
		chain:     c,
		pool:      pool,
		issuer:    issuer,
		worker:    worker,
		sync:      sync,
		scheduler: immediateScheduler{},
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// SetScheduler replaces the scheduler used for automatic restarts.
func (c *Controller) SetScheduler(s Scheduler) {
	c.scheduler = s
}

// StartMining moves an idle controller to Mining and dispatches the first
// round. It returns false if the controller was already mining or the first
// round could not be dispatched.
func (c *Controller) StartMining() bool {
	if c.state == Mining {
		c.logger.Debug("mining has already been started", zap.Uint64("round", c.round))
		c.metrics.DuplicateStarts.Inc()
		return false
	}
	c.setState(Mining)
	c.logger.Info("start mining", zap.String("miner", c.cfg.MinerAddress))
	c.beginRound()
	return c.state == Mining
}

// StopMining cancels the current round and returns to Idle without waiting for
// the worker. Results of the cancelled round are ignored when they arrive.
func (c *Controller) StopMining() {
	if c.state == Idle {
		return
	}
	if c.candidate != nil {
		c.worker.Cancel(c.round)
	}
	c.candidate = nil
	c.restartPending = false
	c.setState(Idle)
	c.logger.Info("stop mining", zap.Uint64("round", c.round))
}

// OnWorkerSuccess handles a solved block from the worker.
func (c *Controller) OnWorkerSuccess(block *model.Block, round uint64) error {
	if err := c.checkRound(round); err != nil {
		return err
	}
	if block == nil {
		err := errors.Wrapf(ErrWorkerFailure, "round %d returned no block", round)
		c.fail(err)
		return err
	}

	tip := c.chain.Tip().B.Hash
	if block.PrevHash != tip || block.PrevHash != c.candidate.PrevHash {
		// The tip moved while the search was running. The round is over, so
		// start over on the new tip.
		c.logger.Info("discard stale block",
			zap.Uint64("round", round),
			zap.String("prev_hash", block.PrevHash),
			zap.String("tip", tip))
		c.metrics.StaleResults.WithLabelValues("tip").Inc()
		c.candidate = nil
		c.scheduleRestart()
		return errors.Wrapf(ErrStaleResult, "block extends %s, tip is %s", block.PrevHash, tip)
	}

	if _, err := c.chain.AddBlock(block); err != nil {
		err = errors.Wrapf(ErrWorkerFailure, "mined block rejected: %v", err)
		c.fail(err)
		return err
	}
	c.metrics.BlocksMined.Inc()
	c.metrics.TipHeight.Set(float64(block.Height))
	c.logger.Info("mined new block",
		zap.Uint64("round", round),
		zap.String("hash", block.Hash),
		zap.Int64("height", block.Height),
		zap.Int("txs", len(block.Txs)))

	c.listeners.emitNewBlock(block)
	c.sync.Sync(block)
	c.pool.RemoveIncluded(block.Txs)
	c.metrics.PoolSize.Set(float64(c.pool.Len()))

	c.candidate = nil
	c.scheduleRestart()
	return nil
}

// OnWorkerError handles a failed search. Mining halts until the next
// StartMining.
func (c *Controller) OnWorkerError(err error, round uint64) error {
	if staleErr := c.checkRound(round); staleErr != nil {
		return staleErr
	}
	c.fail(errors.Wrapf(ErrWorkerFailure, "round %d: %v", round, err))
	return nil
}

// OnExternalBlockAccepted adds a peer block to the chain. When the block lands
// on the tip's branch the pool entries it already contains are dropped. A search in flight keeps running, its result is
// caught as stale by OnWorkerSuccess. It reports whether the tip moved.
func (c *Controller) OnExternalBlockAccepted(block *model.Block) (bool, error) {
	changed, err := c.chain.AddBlock(block)
	if err != nil {
		outcome := "rejected"
		if errors.Is(err, chain.ErrKnownBlock) {
			outcome = "known"
		}
		c.metrics.ExternalBlocks.WithLabelValues(outcome).Inc()
		return false, err
	}
	removed := 0
	if c.chain.OnMainBranch(block.Hash) {
		removed = c.pool.RemoveIncluded(block.Txs)
	}
	c.metrics.ExternalBlocks.WithLabelValues("accepted").Inc()
	c.metrics.PoolSize.Set(float64(c.pool.Len()))
	c.metrics.TipHeight.Set(float64(c.chain.Tip().Height))
	c.logger.Info("accepted peer block",
		zap.String("hash", block.Hash),
		zap.Int64("height", block.Height),
		zap.Bool("tip_changed", changed),
		zap.Int("pool_removed", removed))

	if changed && c.cfg.RemineOnTipChange && c.state == Mining && c.candidate != nil {
		c.beginRound()
	}
	return changed, nil
}

// SubmitTransaction validates tx against the tip and adds it to the pool.
func (c *Controller) SubmitTransaction(tx *model.Transaction) error {
	if err := c.pool.Submit(tx, c.chain.CheckTransaction); err != nil {
		c.metrics.TxRejected.Inc()
		c.logger.Debug("reject transaction", zap.Error(err))
		return err
	}
	c.metrics.TxSubmitted.Inc()
	c.metrics.PoolSize.Set(float64(c.pool.Len()))
	return nil
}

// Subscribe registers l and returns the id to unsubscribe with.
func (c *Controller) Subscribe(l Listener) string {
	return c.listeners.add(l)
}

func (c *Controller) Unsubscribe(id string) bool {
	return c.listeners.remove(id)
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Round() uint64 {
	return c.round
}

func (c *Controller) Chain() *chain.Chain {
	return c.chain
}

func (c *Controller) Pool() *txpool.TransactionPool {
	return c.pool
}

func (c *Controller) Status() Status {
	s := Status{
		State:      c.state,
		Round:      c.round,
		TipHash:    c.chain.Tip().B.Hash,
		Height:     c.chain.Tip().Height,
		Difficulty: c.chain.Difficulty(),
		PoolSize:   c.pool.Len(),
		Listeners:  c.listeners.len(),
	}
	if c.candidate != nil {
		s.CandidateTxs = len(c.candidate.Txs)
	}
	return s
}

// beginRound assembles a candidate on the current tip and hands a private copy
// of it to the worker.
func (c *Controller) beginRound() {
	if c.candidate != nil {
		c.worker.Cancel(c.round)
		c.candidate = nil
	}
	c.restartPending = false
	c.round++

	// The tip may have moved since the transactions were admitted.
	if dropped := c.pool.Revalidate(c.chain.CheckTransaction); dropped > 0 {
		c.logger.Warn("dropped invalid pool transactions", zap.Int("count", dropped))
		c.metrics.TxDropped.Add(float64(dropped))
	}
	picked := c.pool.PickTransactions(c.cfg.MaxBlockTransactions)
	txs := make([]*model.Transaction, 0, len(picked)+1)
	txs = append(txs, picked...)
	txs = append(txs, c.issuer.RewardTransaction(c.cfg.MinerAddress, picked))

	tip := c.chain.Tip()
	candidate := &model.Block{
		PrevHash:  tip.B.Hash,
		Height:    tip.Height + 1,
		Timestamp: c.now().UnixNano(),
		Miner:     c.cfg.MinerAddress,
		Txs:       txs,
	}
	job := pow.Job{
		Round:     c.round,
		Candidate: candidate.Clone(),
		Chain:     c.chain.State(),
	}
	if err := c.worker.Dispatch(job); err != nil {
		c.fail(errors.Wrapf(ErrWorkerFailure, "dispatch round %d: %v", c.round, err))
		return
	}
	c.candidate = candidate
	c.metrics.RoundsStarted.Inc()
	c.metrics.PoolSize.Set(float64(c.pool.Len()))
	c.logger.Debug("dispatched mining round",
		zap.Uint64("round", c.round),
		zap.Int64("height", candidate.Height),
		zap.String("prev_hash", candidate.PrevHash),
		zap.Int("txs", len(txs)))
}

// scheduleRestart starts the next round once queued events have been handled.
// StopMining in between cancels it.
func (c *Controller) scheduleRestart() {
	c.restartPending = true
	c.scheduler.Yield(func() {
		if c.restartPending && c.state == Mining {
			c.beginRound()
		}
	})
}

// checkRound rejects results that do not belong to the round in flight.
func (c *Controller) checkRound(round uint64) error {
	if c.state != Mining || round != c.round || c.candidate == nil {
		c.metrics.StaleResults.WithLabelValues("round").Inc()
		c.logger.Debug("discard stale result",
			zap.Uint64("round", round),
			zap.Uint64("current_round", c.round),
			zap.Stringer("state", c.state))
		return errors.Wrapf(ErrStaleResult, "round %d, current round %d", round, c.round)
	}
	return nil
}

// fail halts mining and tells listeners why.
func (c *Controller) fail(err error) {
	c.candidate = nil
	c.restartPending = false
	c.setState(Idle)
	c.metrics.WorkerFailures.Inc()
	c.logger.Error("mining halted", zap.Error(err))
	c.listeners.emitError(err)
}

func (c *Controller) setState(s State) {
	c.state = s
	if s == Mining {
		c.metrics.Mining.Set(1)
	} else {
		c.metrics.Mining.Set(0)
	}
}
