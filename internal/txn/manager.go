// Package txn serialises every state mutation of the exchange and its in-process
// collaborators behind one critical section with an undo journal.
//
// A mutation registers how to undo itself with OnRollback. When the function given
// to Execute returns an error (or panics) the journal is replayed in reverse and the
// state is exactly as it was before the call. Execute calls made with a context that
// already carries a transaction of the same Manager join it behind a savepoint, so a
// collaborator can be used both standalone and from inside an exchange settlement.
package txn

import (
	"context"
	"go.uber.org/zap"
	"sync"
)

type Manager struct {
	mu sync.RWMutex
}

type Tx struct {
	manager     *Manager
	name        string
	undo        []func()
	afterCommit []func()
	done        bool
}

type txKey struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Execute runs fn as one indivisible unit. No other Execute or View observes the
// state until fn has returned and its effects are either committed or rolled back.
func (m *Manager) Execute(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if tx := m.active(ctx); tx != nil {
		return tx.nested(ctx, fn)
	}

	tx := &Tx{manager: m, name: name}
	if err := m.run(ctx, tx, fn); err != nil {
		return err
	}

	for _, hook := range tx.afterCommit {
		hook()
	}

	return nil
}

// View runs fn with shared access to the state. From inside a transaction it runs
// inline and sees the uncommitted state of that transaction.
func (m *Manager) View(ctx context.Context, fn func() error) error {
	if tx := m.active(ctx); tx != nil {
		return fn()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return fn()
}

func (m *Manager) run(ctx context.Context, tx *Tx, fn func(ctx context.Context) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { tx.done = true }()

	defer func() {
		if r := recover(); r != nil {
			tx.rollbackTo(0)
			zap.L().With(zap.String("tx", tx.name), zap.Any("panic", r)).Error("Txn: Rolled back after panic")
			panic(r)
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		tx.rollbackTo(0)
		zap.L().With(zap.String("tx", tx.name), zap.Error(err)).Debug("Txn: Rolled back")
		return err
	}

	return nil
}

func (m *Manager) active(ctx context.Context) *Tx {
	tx := fromContext(ctx)
	if tx == nil || tx.manager != m || tx.done {
		return nil
	}

	return tx
}

func (tx *Tx) nested(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	mark, hooks := len(tx.undo), len(tx.afterCommit)

	defer func() {
		if r := recover(); r != nil {
			tx.rollbackTo(mark)
			tx.afterCommit = tx.afterCommit[:hooks]
			panic(r)
		}
	}()

	if err = fn(ctx); err != nil {
		tx.rollbackTo(mark)
		tx.afterCommit = tx.afterCommit[:hooks]
	}

	return err
}

func (tx *Tx) rollbackTo(mark int) {
	for i := len(tx.undo) - 1; i >= mark; i-- {
		tx.undo[i]()
	}
	tx.undo = tx.undo[:mark]
}

// OnRollback records how to revert a mutation just applied inside the transaction
// carried by ctx.
func OnRollback(ctx context.Context, undo func()) {
	if tx := fromContext(ctx); tx != nil && !tx.done {
		tx.undo = append(tx.undo, undo)
	}
}

// AfterCommit schedules hook to run once the outermost transaction has committed and
// released the lock. Without a transaction the hook runs immediately.
func AfterCommit(ctx context.Context, hook func()) {
	if tx := fromContext(ctx); tx != nil && !tx.done {
		tx.afterCommit = append(tx.afterCommit, hook)
		return
	}

	hook()
}

func fromContext(ctx context.Context) *Tx {
	tx, _ := ctx.Value(txKey{}).(*Tx)
	return tx
}
