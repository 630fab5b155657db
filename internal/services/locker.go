package services

import (
	"context"
	"sync"

	"github.com/joshua-takyi/nearby/internal/models"
)

// EventLocker serializes mutations per event id. Different ids never contend.
type EventLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// KeyedLocker is an in-process EventLocker. Entries are reference counted and
// dropped once no goroutine holds or waits on them.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sem  chan struct{}
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedLock)}
}

func (k *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{sem: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.sem
			k.release(key, l)
		})
	}, nil
}

func (k *KeyedLocker) release(key string, l *keyedLock) {
	k.mu.Lock()
	defer k.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

// size is the number of live entries.
func (k *KeyedLocker) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// lockEvent acquires the per-event lock, reporting store-side lock failures
// as retryable.
func lockEvent(ctx context.Context, locker EventLocker, id string) (func(), error) {
	unlock, err := locker.Lock(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &models.PersistenceError{Op: "lock event", Err: err}
	}
	return unlock, nil
}
