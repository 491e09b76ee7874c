package miner

import (
	"context"

	"github.com/Luismorlan/ape_coin/model"
	"github.com/Luismorlan/ape_coin/pow"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrServiceStopped is returned for requests that arrive after Run returned.
var ErrServiceStopped = errors.New("miner service stopped")

// How many requests may wait for the control goroutine.
const inboxSize = 64

// Service is the single entry point to a Controller. Commands, transactions,
// peer blocks and worker results are all handled one at a time on the
// goroutine running Run.
type Service struct {
	controller *Controller
	results    <-chan pow.Result
	inbox      chan func()
	// Work scheduled with Yield, only touched by the Run goroutine.
	deferred []func()
	done     chan struct{}
	logger   *zap.Logger
}

func NewService(controller *Controller, results <-chan pow.Result, logger *zap.Logger) *Service {
	s := &Service{
		controller: controller,
		results:    results,
		inbox:      make(chan func(), inboxSize),
		done:       make(chan struct{}),
		logger:     logger,
	}
	controller.SetScheduler(s)
	return s
}

// Run processes events until ctx is done. Mining is stopped on the way out.
func (s *Service) Run(ctx context.Context) error {
	defer close(s.done)
	for {
		if len(s.deferred) > 0 {
			fns := s.deferred
			s.deferred = nil
			s.drainQueued()
			for _, fn := range fns {
				fn()
			}
			continue
		}
		select {
		case <-ctx.Done():
			s.controller.StopMining()
			s.logger.Info("miner service stopped")
			return ctx.Err()
		case fn := <-s.inbox:
			fn()
		case res := <-s.results:
			s.handleResult(res)
		}
	}
}

// Yield implements Scheduler. fn runs after every event that is already
// queued. Must be called from the Run goroutine.
func (s *Service) Yield(fn func()) {
	s.deferred = append(s.deferred, fn)
}

// drainQueued handles the events present right now, not the ones arriving
// while it runs.
func (s *Service) drainQueued() {
	n := len(s.inbox) + len(s.results)
	for i := 0; i < n; i++ {
		select {
		case fn := <-s.inbox:
			fn()
		case res := <-s.results:
			s.handleResult(res)
		default:
			return
		}
	}
}

func (s *Service) handleResult(res pow.Result) {
	var err error
	if res.Err != nil {
		err = s.controller.OnWorkerError(res.Err, res.Round)
	} else {
		err = s.controller.OnWorkerSuccess(res.Block, res.Round)
	}
	if err != nil && !errors.Is(err, ErrStaleResult) {
		s.logger.Warn("worker result failed", zap.Uint64("round", res.Round), zap.Error(err))
	}
}

// Do runs fn on the control goroutine and waits for it to finish. fn must not
// call Do itself.
func (s *Service) Do(ctx context.Context, fn func(c *Controller)) error {
	finished := make(chan struct{})
	req := func() {
		defer close(finished)
		fn(s.controller)
	}
	select {
	case s.inbox <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrServiceStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrServiceStopped
	}
}

// StartMining reports false when mining was already running.
func (s *Service) StartMining(ctx context.Context) (bool, error) {
	var started bool
	if err := s.Do(ctx, func(c *Controller) {
		started = c.StartMining()
	}); err != nil {
		return false, err
	}
	return started, nil
}

func (s *Service) StopMining(ctx context.Context) error {
	return s.Do(ctx, func(c *Controller) {
		c.StopMining()
	})
}

func (s *Service) SubmitTransaction(ctx context.Context, tx *model.Transaction) error {
	var submitErr error
	if err := s.Do(ctx, func(c *Controller) {
		submitErr = c.SubmitTransaction(tx)
	}); err != nil {
		return err
	}
	return submitErr
}

// AcceptBlock hands a peer block to the controller and reports whether the tip
// moved.
func (s *Service) AcceptBlock(ctx context.Context, block *model.Block) (bool, error) {
	var changed bool
	var acceptErr error
	if err := s.Do(ctx, func(c *Controller) {
		changed, acceptErr = c.OnExternalBlockAccepted(block)
	}); err != nil {
		return false, err
	}
	return changed, acceptErr
}

func (s *Service) Status(ctx context.Context) (Status, error) {
	var st Status
	if err := s.Do(ctx, func(c *Controller) {
		st = c.Status()
	}); err != nil {
		return Status{}, err
	}
	return st, nil
}

func (s *Service) Subscribe(ctx context.Context, l Listener) (string, error) {
	var id string
	if err := s.Do(ctx, func(c *Controller) {
		id = c.Subscribe(l)
	}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) Unsubscribe(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := s.Do(ctx, func(c *Controller) {
		ok = c.Unsubscribe(id)
	}); err != nil {
		return false, err
	}
	return ok, nil
}
