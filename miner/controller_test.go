package miner

import (
	"context"
	"fmt"
	"testing"

	"github.com/Luismorlan/ape_coin/chain"
	"github.com/Luismorlan/ape_coin/metrics"
	"github.com/Luismorlan/ape_coin/model"
	"github.com/Luismorlan/ape_coin/pow"
	"github.com/Luismorlan/ape_coin/reward"
	"github.com/Luismorlan/ape_coin/txpool"
	"github.com/Luismorlan/ape_coin/utils"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDifficulty = 4

type fakeWorker struct {
	jobs      []pow.Job
	cancelled []uint64
	err       error
}

func (w *fakeWorker) Dispatch(job pow.Job) error {
	if w.err != nil {
		return w.err
	}
	w.jobs = append(w.jobs, job)
	return nil
}

func (w *fakeWorker) Cancel(round uint64) {
	w.cancelled = append(w.cancelled, round)
}

func (w *fakeWorker) last(t *testing.T) pow.Job {
	require.NotEmpty(t, w.jobs)
	return w.jobs[len(w.jobs)-1]
}

type mockSynchronizer struct {
	mock.Mock
}

func (m *mockSynchronizer) Sync(block *model.Block) {
	m.Called(block)
}

// queueScheduler holds yielded work until run is called.
type queueScheduler struct {
	fns []func()
}

func (q *queueScheduler) Yield(fn func()) {
	q.fns = append(q.fns, fn)
}

func (q *queueScheduler) run() {
	fns := q.fns
	q.fns = nil
	for _, fn := range fns {
		fn()
	}
}

type recorder struct {
	blocks []*model.Block
	errs   []error
}

func (r *recorder) NewBlock(block *model.Block) { r.blocks = append(r.blocks, block) }
func (r *recorder) Error(err error)             { r.errs = append(r.errs, err) }

type testEnv struct {
	ctrl    *Controller
	chain   *chain.Chain
	pool    *txpool.TransactionPool
	worker  *fakeWorker
	sync    *mockSynchronizer
	sched   *queueScheduler
	rec     *recorder
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	if cfg.MinerAddress == "" {
		cfg.MinerAddress = "miner"
	}
	if cfg.MaxBlockTransactions == 0 {
		cfg.MaxBlockTransactions = 10
	}
	env := &testEnv{
		chain:   chain.New(testDifficulty, 0, reward.NewIssuer(50)),
		pool:    txpool.NewTransactionPool(),
		worker:  &fakeWorker{},
		sync:    &mockSynchronizer{},
		sched:   &queueScheduler{},
		rec:     &recorder{},
		metrics: metrics.New(nil),
	}
	env.sync.On("Sync", mock.Anything).Return()
	env.ctrl = NewController(cfg, env.chain, env.pool, reward.NewIssuer(50), env.worker, env.sync, zap.NewNop(), env.metrics)
	env.ctrl.SetScheduler(env.sched)
	env.ctrl.Subscribe(env.rec)
	return env
}

func signedTx(t *testing.T, amount int64) *model.Transaction {
	sk, pk, err := utils.GenerateKeyPair()
	require.NoError(t, err)
	addr := utils.PublicKeyToAddress(pk)
	tx := &model.Transaction{
		ID:            fmt.Sprintf("tx-%s", addr[:12]),
		SenderAddress: addr,
		Amount:        amount,
		Outputs:       []model.Output{{Address: "receiver", Amount: amount}},
	}
	utils.SignTransaction(tx, sk)
	return tx
}

type account struct {
	sk   *btcec.PrivateKey
	addr string
}

func newAccount(t *testing.T) account {
	sk, pk, err := utils.GenerateKeyPair()
	require.NoError(t, err)
	return account{sk: sk, addr: utils.PublicKeyToAddress(pk)}
}

func (a account) pay(amount int64) *model.Transaction {
	tx := &model.Transaction{
		ID:            fmt.Sprintf("tx-%s", a.addr[:12]),
		SenderAddress: a.addr,
		Amount:        amount,
		Outputs:       []model.Output{{Address: "receiver", Amount: amount}},
	}
	utils.SignTransaction(tx, a.sk)
	return tx
}

// fund credits every address with amount on top of the tip of c. It adds two
// blocks: a reward to a fresh key, then one transfer from that key to all of
// them.
func fund(t *testing.T, c *chain.Chain, amount int64, addrs ...string) {
	bank := newAccount(t)
	_, err := c.AddBlock(minedBlock(t, c.Tip(), bank.addr))
	require.NoError(t, err)

	tx := &model.Transaction{ID: "fund-" + bank.addr[:12], SenderAddress: bank.addr}
	for _, addr := range addrs {
		tx.Outputs = append(tx.Outputs, model.Output{Address: addr, Amount: amount})
		tx.Amount += amount
	}
	utils.SignTransaction(tx, bank.sk)
	_, err = c.AddBlock(minedBlock(t, c.Tip(), bank.addr, tx))
	require.NoError(t, err)
}

// fundedAccounts returns n accounts holding 10 each.
func fundedAccounts(t *testing.T, c *chain.Chain, n int) []account {
	accounts := make([]account, n)
	addrs := make([]string, n)
	for i := range accounts {
		accounts[i] = newAccount(t)
		addrs[i] = accounts[i].addr
	}
	fund(t, c, 10, addrs...)
	return accounts
}

// fillPool submits n transactions from funded senders, paying 1..n.
func (env *testEnv) fillPool(t *testing.T, n int) []*model.Transaction {
	var txs []*model.Transaction
	for i, a := range fundedAccounts(t, env.chain, n) {
		tx := a.pay(int64(i + 1))
		require.NoError(t, env.ctrl.SubmitTransaction(tx))
		txs = append(txs, tx)
	}
	return txs
}

// solve does the worker's job on the test goroutine.
func solve(t *testing.T, job pow.Job) *model.Block {
	b := job.Candidate.Clone()
	require.NoError(t, utils.Mine(context.Background(), b, job.Chain.Difficulty))
	return b
}

func minedBlock(t *testing.T, parent *model.BlockWrapper, miner string, txs ...*model.Transaction) *model.Block {
	b := &model.Block{
		PrevHash: parent.B.Hash,
		Height:   parent.Height + 1,
		Miner:    miner,
		Txs:      append(txs, reward.NewIssuer(50).RewardTransaction(miner, txs)),
	}
	require.NoError(t, utils.Mine(context.Background(), b, testDifficulty))
	return b
}

// peerBlock mines a block on parent the way another node would.
func peerBlock(t *testing.T, parent *model.BlockWrapper, txs ...*model.Transaction) *model.Block {
	return minedBlock(t, parent, "peer", txs...)
}

func TestStartMiningDispatchesCandidate(t *testing.T) {
	env := newTestEnv(t, Config{})
	txs := env.fillPool(t, 3)
	tip := env.chain.Tip()

	assert.True(t, env.ctrl.StartMining())
	assert.Equal(t, Mining, env.ctrl.State())

	require.Len(t, env.worker.jobs, 1)
	job := env.worker.last(t)
	assert.Equal(t, uint64(1), job.Round)
	assert.Equal(t, env.chain.State(), job.Chain)
	assert.Equal(t, tip.B.Hash, job.Candidate.PrevHash)
	assert.Equal(t, tip.Height+1, job.Candidate.Height)
	assert.Equal(t, "miner", job.Candidate.Miner)
	require.Len(t, job.Candidate.Txs, 4)
	for i, tx := range txs {
		assert.Equal(t, tx.ID, job.Candidate.Txs[i].ID)
	}
	rewardTx := job.Candidate.Reward()
	require.NotNil(t, rewardTx)
	assert.NoError(t, reward.IsValidReward(rewardTx, 50))

	st := env.ctrl.Status()
	assert.Equal(t, 4, st.CandidateTxs)
	assert.Equal(t, 3, st.PoolSize)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.RoundsStarted))
}

func TestDispatchedJobIsIndependentCopy(t *testing.T) {
	env := newTestEnv(t, Config{})
	txs := env.fillPool(t, 1)
	env.ctrl.StartMining()

	job := env.worker.last(t)
	job.Candidate.Txs[0].Outputs[0].Amount = 999
	job.Candidate.PrevHash = "ff"

	assert.Equal(t, int64(1), txs[0].Outputs[0].Amount)
	assert.Equal(t, env.chain.Tip().B.Hash, env.ctrl.candidate.PrevHash)
	assert.NotSame(t, env.ctrl.candidate.Txs[0], job.Candidate.Txs[0])
}

func TestStartMiningTwiceIsNoop(t *testing.T) {
	env := newTestEnv(t, Config{})

	assert.True(t, env.ctrl.StartMining())
	assert.False(t, env.ctrl.StartMining())

	assert.Len(t, env.worker.jobs, 1)
	assert.Equal(t, uint64(1), env.ctrl.Round())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.DuplicateStarts))
}

func TestMaxBlockTransactions(t *testing.T) {
	env := newTestEnv(t, Config{MaxBlockTransactions: 2})
	env.fillPool(t, 3)
	env.ctrl.StartMining()

	job := env.worker.last(t)
	assert.Len(t, job.Candidate.Txs, 3)
	assert.True(t, job.Candidate.Txs[2].IsReward())
}

func TestStartMiningRevalidatesPool(t *testing.T) {
	env := newTestEnv(t, Config{})
	txs := env.fillPool(t, 2)
	txs[0].Amount = 100

	env.ctrl.StartMining()

	job := env.worker.last(t)
	require.Len(t, job.Candidate.Txs, 2)
	assert.Equal(t, txs[1].ID, job.Candidate.Txs[0].ID)
	assert.Equal(t, 1, env.pool.Len())
}

// A mined block is committed, announced once, its transactions leave the pool
// and a new round starts on the new tip.
func TestSuccessfulRoundRestarts(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.fillPool(t, 3)
	var poolAtNotify []int
	env.ctrl.Subscribe(ListenerFuncs{OnNewBlock: func(*model.Block) {
		poolAtNotify = append(poolAtNotify, env.pool.Len())
	}})

	env.ctrl.StartMining()
	job := env.worker.last(t)
	block := solve(t, job)
	assert.Equal(t, job.Candidate.PrevHash, block.PrevHash)

	require.NoError(t, env.ctrl.OnWorkerSuccess(block, job.Round))

	assert.Equal(t, 0, env.pool.Len())
	require.Len(t, env.rec.blocks, 1)
	assert.Equal(t, block.Hash, env.rec.blocks[0].Hash)
	assert.Equal(t, []int{3}, poolAtNotify)
	env.sync.AssertNumberOfCalls(t, "Sync", 1)
	env.sync.AssertCalled(t, "Sync", block)
	assert.Equal(t, block.Hash, env.chain.Tip().B.Hash)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.BlocksMined))

	// The restart waits for the yield.
	assert.Len(t, env.worker.jobs, 1)
	assert.Equal(t, Mining, env.ctrl.State())
	env.sched.run()

	require.Len(t, env.worker.jobs, 2)
	next := env.worker.last(t)
	assert.Equal(t, uint64(2), next.Round)
	assert.Equal(t, block.Hash, next.Candidate.PrevHash)
	assert.Len(t, next.Candidate.Txs, 1)
	assert.Equal(t, Mining, env.ctrl.State())
	assert.Empty(t, env.rec.errs)
}

// A peer block moves the tip while the search runs; the late local result is
// dropped.
func TestPeerBlockMakesLocalResultStale(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ctrl.StartMining()
	job := env.worker.last(t)

	external := peerBlock(t, env.chain.Tip())
	changed, err := env.ctrl.OnExternalBlockAccepted(external)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, env.worker.cancelled)
	assert.Equal(t, Mining, env.ctrl.State())

	local := solve(t, job)
	err = env.ctrl.OnWorkerSuccess(local, job.Round)
	assert.ErrorIs(t, err, ErrStaleResult)

	assert.Empty(t, env.rec.blocks)
	env.sync.AssertNotCalled(t, "Sync", mock.Anything)
	assert.Equal(t, external.Hash, env.chain.Tip().B.Hash)
	assert.Equal(t, 2, env.chain.Len())
	_, known := env.chain.Get(local.Hash)
	assert.False(t, known)
	assert.Empty(t, env.rec.errs)

	// The next round builds on the peer block.
	env.sched.run()
	require.Len(t, env.worker.jobs, 2)
	assert.Equal(t, external.Hash, env.worker.last(t).Candidate.PrevHash)
}

func TestResultAfterStopIsIgnored(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ctrl.StartMining()
	job := env.worker.last(t)

	env.ctrl.StopMining()
	assert.Equal(t, Idle, env.ctrl.State())
	assert.Equal(t, []uint64{job.Round}, env.worker.cancelled)

	err := env.ctrl.OnWorkerSuccess(solve(t, job), job.Round)
	assert.ErrorIs(t, err, ErrStaleResult)
	assert.ErrorIs(t, env.ctrl.OnWorkerError(errors.New("late"), job.Round), ErrStaleResult)

	assert.Equal(t, Idle, env.ctrl.State())
	assert.Empty(t, env.rec.blocks)
	assert.Empty(t, env.rec.errs)
	assert.Equal(t, model.GenesisHash, env.chain.Tip().B.Hash)
	env.sched.run()
	assert.Len(t, env.worker.jobs, 1)
}

func TestStopMiningWhenIdle(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ctrl.StopMining()
	assert.Equal(t, Idle, env.ctrl.State())
	assert.Empty(t, env.worker.cancelled)
}

func TestResultOfSupersededRoundIsIgnored(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ctrl.StartMining()
	old := env.worker.last(t)
	env.ctrl.StopMining()
	env.ctrl.StartMining()
	current := env.worker.last(t)
	assert.Equal(t, uint64(2), current.Round)

	assert.ErrorIs(t, env.ctrl.OnWorkerSuccess(solve(t, old), old.Round), ErrStaleResult)
	assert.ErrorIs(t, env.ctrl.OnWorkerError(errors.New("crash"), old.Round), ErrStaleResult)
	assert.Equal(t, Mining, env.ctrl.State())

	require.NoError(t, env.ctrl.OnWorkerSuccess(solve(t, current), current.Round))
	assert.Len(t, env.rec.blocks, 1)
}

func TestStopCancelsScheduledRestart(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ctrl.StartMining()
	job := env.worker.last(t)
	require.NoError(t, env.ctrl.OnWorkerSuccess(solve(t, job), job.Round))

	env.ctrl.StopMining()
	env.sched.run()

	assert.Equal(t, Idle, env.ctrl.State())
	assert.Len(t, env.worker.jobs, 1)
}

func TestStartDuringYieldIsDuplicate(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ctrl.StartMining()
	job := env.worker.last(t)
	require.NoError(t, env.ctrl.OnWorkerSuccess(solve(t, job), job.Round))

	assert.False(t, env.ctrl.StartMining())
	env.sched.run()
	assert.Len(t, env.worker.jobs, 2)
}

func TestWorkerErrorHaltsWithoutRestart(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ctrl.StartMining()
	job := env.worker.last(t)

	require.NoError(t, env.ctrl.OnWorkerError(errors.New("crash"), job.Round))

	assert.Equal(t, Idle, env.ctrl.State())
	require.Len(t, env.rec.errs, 1)
	assert.ErrorIs(t, env.rec.errs[0], ErrWorkerFailure)
	assert.ErrorContains(t, env.rec.errs[0], "crash")
	assert.Empty(t, env.sched.fns)
	assert.Len(t, env.worker.jobs, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.WorkerFailures))

	// Resuming needs an explicit start.
	assert.True(t, env.ctrl.StartMining())
	assert.Len(t, env.worker.jobs, 2)
}

func TestDispatchFailureHalts(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.worker.err = pow.ErrWorkerClosed

	assert.False(t, env.ctrl.StartMining())

	assert.Equal(t, Idle, env.ctrl.State())
	require.Len(t, env.rec.errs, 1)
	assert.ErrorIs(t, env.rec.errs[0], ErrWorkerFailure)

	env.worker.err = nil
	assert.True(t, env.ctrl.StartMining())
	assert.Equal(t, Mining, env.ctrl.State())
}

func TestRejectedMinedBlockHalts(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ctrl.StartMining()
	job := env.worker.last(t)
	block := solve(t, job)
	block.Hash = "00"

	err := env.ctrl.OnWorkerSuccess(block, job.Round)
	assert.ErrorIs(t, err, ErrWorkerFailure)
	assert.Equal(t, Idle, env.ctrl.State())
	assert.Len(t, env.rec.errs, 1)
	assert.Empty(t, env.rec.blocks)
	env.sync.AssertNotCalled(t, "Sync", mock.Anything)
}

func TestRemineOnTipChange(t *testing.T) {
	env := newTestEnv(t, Config{RemineOnTipChange: true})
	env.ctrl.StartMining()

	external := peerBlock(t, env.chain.Tip())
	_, err := env.ctrl.OnExternalBlockAccepted(external)
	require.NoError(t, err)

	assert.Equal(t, []uint64{1}, env.worker.cancelled)
	require.Len(t, env.worker.jobs, 2)
	next := env.worker.last(t)
	assert.Equal(t, uint64(2), next.Round)
	assert.Equal(t, external.Hash, next.Candidate.PrevHash)
}

func TestExternalBlockRemovesIncludedTransactions(t *testing.T) {
	env := newTestEnv(t, Config{})
	txs := env.fillPool(t, 2)

	_, err := env.ctrl.OnExternalBlockAccepted(peerBlock(t, env.chain.Tip(), txs[0]))
	require.NoError(t, err)

	assert.Equal(t, 1, env.pool.Len())
	_, ok := env.pool.Get(txs[1].ID)
	assert.True(t, ok)
	assert.Equal(t, Idle, env.ctrl.State())
}

func TestExternalBlockErrors(t *testing.T) {
	env := newTestEnv(t, Config{})
	block := peerBlock(t, env.chain.Tip())
	_, err := env.ctrl.OnExternalBlockAccepted(block)
	require.NoError(t, err)

	_, err = env.ctrl.OnExternalBlockAccepted(block)
	assert.ErrorIs(t, err, chain.ErrKnownBlock)

	block = peerBlock(t, env.chain.Tip())
	block.Nonce++
	_, err = env.ctrl.OnExternalBlockAccepted(block)
	assert.ErrorIs(t, err, chain.ErrInvalidHash)
}

func TestSubmitTransactionRejects(t *testing.T) {
	env := newTestEnv(t, Config{})
	tx := signedTx(t, 5)
	tx.Amount = 6

	assert.ErrorIs(t, env.ctrl.SubmitTransaction(tx), txpool.ErrInvalidTransaction)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.TxRejected))
	assert.Equal(t, 0, env.pool.Len())
}

func TestListenersInRegistrationOrder(t *testing.T) {
	env := newTestEnv(t, Config{})
	var order []string
	first := env.ctrl.Subscribe(ListenerFuncs{OnNewBlock: func(*model.Block) { order = append(order, "first") }})
	env.ctrl.Subscribe(ListenerFuncs{OnNewBlock: func(*model.Block) { order = append(order, "second") }})

	env.ctrl.StartMining()
	job := env.worker.last(t)
	require.NoError(t, env.ctrl.OnWorkerSuccess(solve(t, job), job.Round))
	assert.Equal(t, []string{"first", "second"}, order)

	assert.True(t, env.ctrl.Unsubscribe(first))
	assert.False(t, env.ctrl.Unsubscribe(first))
	env.sched.run()
	job = env.worker.last(t)
	require.NoError(t, env.ctrl.OnWorkerSuccess(solve(t, job), job.Round))
	assert.Equal(t, []string{"first", "second", "second"}, order)
}

// Transactions left out of a mined block, and ones submitted while it was
// searched for, stay pending for the next round.
func TestMinedBlockKeepsUnminedTransactions(t *testing.T) {
	env := newTestEnv(t, Config{MaxBlockTransactions: 2})
	accounts := fundedAccounts(t, env.chain, 4)
	var txs []*model.Transaction
	for _, a := range accounts[:3] {
		tx := a.pay(5)
		require.NoError(t, env.ctrl.SubmitTransaction(tx))
		txs = append(txs, tx)
	}

	env.ctrl.StartMining()
	job := env.worker.last(t)
	late := accounts[3].pay(5)
	require.NoError(t, env.ctrl.SubmitTransaction(late))
	block := solve(t, job)
	require.Len(t, block.Txs, 3)

	require.NoError(t, env.ctrl.OnWorkerSuccess(block, job.Round))
	assert.Equal(t, 2, env.pool.Len())
	for _, tx := range txs[:2] {
		_, ok := env.pool.Get(tx.ID)
		assert.False(t, ok)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.PoolSize))

	env.sched.run()
	next := env.worker.last(t)
	require.Len(t, next.Candidate.Txs, 3)
	assert.Equal(t, txs[2].ID, next.Candidate.Txs[0].ID)
	assert.Equal(t, late.ID, next.Candidate.Txs[1].ID)
}

func TestSideBranchBlockKeepsPool(t *testing.T) {
	env := newTestEnv(t, Config{})
	txs := env.fillPool(t, 1)
	fork, ok := env.chain.Get(env.chain.Tip().B.PrevHash)
	require.True(t, ok)

	side := peerBlock(t, fork, txs[0])
	changed, err := env.ctrl.OnExternalBlockAccepted(side)
	// Not funded on that branch yet.
	assert.ErrorIs(t, err, chain.ErrInvalidBlock)
	assert.False(t, changed)

	// A competing block at the tip height loses the tie.
	tip := env.chain.Tip()
	winner := peerBlock(t, tip)
	_, err = env.ctrl.OnExternalBlockAccepted(winner)
	require.NoError(t, err)
	rival := peerBlock(t, tip, txs[0])
	changed, err = env.ctrl.OnExternalBlockAccepted(rival)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, env.pool.Len())

	// The branch takes over once it is longer.
	rw, ok := env.chain.Get(rival.Hash)
	require.True(t, ok)
	changed, err = env.ctrl.OnExternalBlockAccepted(peerBlock(t, rw))
	require.NoError(t, err)
	assert.True(t, changed)
	env.ctrl.StartMining()
	assert.Equal(t, 0, env.pool.Len())
	assert.Len(t, env.worker.last(t).Candidate.Txs, 1)
}

func TestSubmitTransactionChecksTip(t *testing.T) {
	env := newTestEnv(t, Config{})
	a := fundedAccounts(t, env.chain, 1)[0]

	err := env.ctrl.SubmitTransaction(a.pay(11))
	assert.ErrorIs(t, err, txpool.ErrInvalidTransaction)
	assert.ErrorContains(t, err, chain.ErrInsufficientBalance.Error())
	assert.ErrorIs(t, env.ctrl.SubmitTransaction(signedTx(t, 1)), txpool.ErrInvalidTransaction)

	tx := a.pay(10)
	_, err = env.ctrl.OnExternalBlockAccepted(peerBlock(t, env.chain.Tip(), tx))
	require.NoError(t, err)
	err = env.ctrl.SubmitTransaction(tx)
	assert.ErrorContains(t, err, chain.ErrReplayedTransaction.Error())
	assert.Equal(t, 0, env.pool.Len())
}

// A peer block spending the same funds makes the pending transaction
// unaffordable, it is dropped before the next candidate is built.
func TestStartMiningDropsUnaffordable(t *testing.T) {
	env := newTestEnv(t, Config{})
	a := fundedAccounts(t, env.chain, 1)[0]
	require.NoError(t, env.ctrl.SubmitTransaction(a.pay(10)))

	other := a.pay(6)
	other.ID = "elsewhere"
	utils.SignTransaction(other, a.sk)
	_, err := env.ctrl.OnExternalBlockAccepted(peerBlock(t, env.chain.Tip(), other))
	require.NoError(t, err)
	assert.Equal(t, 1, env.pool.Len())

	env.ctrl.StartMining()
	assert.Equal(t, 0, env.pool.Len())
	job := env.worker.last(t)
	require.Len(t, job.Candidate.Txs, 1)
	block := solve(t, job)
	require.NoError(t, env.ctrl.OnWorkerSuccess(block, job.Round))
	assert.Equal(t, int64(4), env.chain.Balance(a.addr))
}
