// Package pow runs the proof-of-work search away from the control goroutine.
//
// The controller hands over a Job that owns its own copy of the candidate
// block and chain state. Each job is searched on a dedicated goroutine and its
// outcome is delivered as a Result message; jobs never share memory with the
// caller.
package pow

import (
	"context"
	"sync"

	"github.com/Luismorlan/ape_coin/model"
	"github.com/Luismorlan/ape_coin/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrWorkerClosed = errors.New("proof-of-work worker is closed")

// Job is one round of work. Candidate and Chain are owned by the job.
type Job struct {
	Round     uint64
	Candidate *model.Block
	Chain     model.ChainState
}

// Result reports the outcome of a job. Exactly one of Block and Err is set.
type Result struct {
	Round uint64
	Block *model.Block
	Err   error
}

// SearchFunc fills in the nonce and hash of block.
type SearchFunc func(ctx context.Context, block *model.Block, difficulty int) error

type Option func(*Worker)

// WithSearch replaces the nonce search, mostly useful for tests.
func WithSearch(f SearchFunc) Option {
	return func(w *Worker) {
		w.search = f
	}
}

type Worker struct {
	results chan<- Result
	search  SearchFunc
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Protects cancels and closed.
	m       sync.Mutex
	cancels map[uint64]context.CancelFunc
	closed  bool
}

func NewWorker(results chan<- Result, logger *zap.Logger, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		results: results,
		search:  utils.Mine,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		cancels: make(map[uint64]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dispatch starts searching job on its own goroutine and returns at once.
func (w *Worker) Dispatch(job Job) error {
	if job.Candidate == nil {
		return errors.New("job has no candidate block")
	}
	w.m.Lock()
	defer w.m.Unlock()
	if w.closed {
		return ErrWorkerClosed
	}
	if cancel, exist := w.cancels[job.Round]; exist {
		cancel()
	}
	ctx, cancel := context.WithCancel(w.ctx)
	w.cancels[job.Round] = cancel

	w.wg.Add(1)
	go w.run(ctx, job)
	return nil
}

// Cancel asks the search of round to stop. A cancelled search reports nothing.
func (w *Worker) Cancel(round uint64) {
	w.m.Lock()
	defer w.m.Unlock()
	if cancel, exist := w.cancels[round]; exist {
		cancel()
		delete(w.cancels, round)
	}
}

// Close cancels every search and waits for their goroutines to exit.
func (w *Worker) Close() {
	w.m.Lock()
	w.closed = true
	w.m.Unlock()
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, job Job) {
	defer w.wg.Done()
	defer w.forget(ctx, job.Round)

	block := job.Candidate
	err := w.searchSafely(ctx, block, job.Chain.Difficulty)
	if ctx.Err() != nil {
		w.logger.Debug("search cancelled", zap.Uint64("round", job.Round))
		return
	}

	res := Result{Round: job.Round}
	if err != nil {
		res.Err = err
	} else {
		res.Block = block
	}
	select {
	case w.results <- res:
	case <-ctx.Done():
	}
}

// searchSafely turns a panic of the search into an error.
func (w *Worker) searchSafely(ctx context.Context, block *model.Block, difficulty int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("proof-of-work search panicked: %v", r)
		}
	}()
	return w.search(ctx, block, difficulty)
}

// forget drops the cancel func of round if it still belongs to this search.
func (w *Worker) forget(ctx context.Context, round uint64) {
	w.m.Lock()
	defer w.m.Unlock()
	if cancel, exist := w.cancels[round]; exist && ctx.Err() == nil {
		cancel()
		delete(w.cancels, round)
	}
}
