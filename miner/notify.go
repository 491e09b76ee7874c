package miner

import (
	"github.com/Luismorlan/ape_coin/model"
	uuid "github.com/satori/go.uuid"
)

// Listener receives controller notifications. Calls are made synchronously on
// the control goroutine, so a listener must not block or call back into the
// Service.
type Listener interface {
	NewBlock(block *model.Block)
	Error(err error)
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnNewBlock func(block *model.Block)
	OnError    func(err error)
}

func (f ListenerFuncs) NewBlock(block *model.Block) {
	if f.OnNewBlock != nil {
		f.OnNewBlock(block)
	}
}

func (f ListenerFuncs) Error(err error) {
	if f.OnError != nil {
		f.OnError(err)
	}
}

type subscription struct {
	id       string
	listener Listener
}

// listeners delivers to subscribers in registration order.
type listeners struct {
	subs []subscription
}

func (l *listeners) add(listener Listener) string {
	id := uuid.NewV4().String()
	l.subs = append(l.subs, subscription{id: id, listener: listener})
	return id
}

func (l *listeners) remove(id string) bool {
	for i := range l.subs {
		if l.subs[i].id == id {
			l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot lets a listener unsubscribe while being notified.
func (l *listeners) snapshot() []subscription {
	return append([]subscription(nil), l.subs...)
}

func (l *listeners) emitNewBlock(block *model.Block) {
	for _, s := range l.snapshot() {
		s.listener.NewBlock(block)
	}
}

func (l *listeners) emitError(err error) {
	for _, s := range l.snapshot() {
		s.listener.Error(err)
	}
}

func (l *listeners) len() int {
	return len(l.subs)
}
