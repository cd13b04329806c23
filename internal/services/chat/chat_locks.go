// File: internal/services/chat/chat_locks.go
package chat

import (
	"context"
	"sync"
)

// chatLocks hands out one mutex per chat id. Entries exist only while held
// or awaited, and a waiter gives up when its context ends.
type chatLocks struct {
	mu    sync.Mutex
	locks map[uint]*chatLock
}

type chatLock struct {
	sem  chan struct{}
	refs int
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[uint]*chatLock)}
}

// Lock blocks until the chat is free or ctx is done. The returned func
// releases the lock.
func (l *chatLocks) Lock(ctx context.Context, chatID uint) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[chatID]
	if !ok {
		entry = &chatLock{sem: make(chan struct{}, 1)}
		l.locks[chatID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
		return func() {
			<-entry.sem
			l.release(chatID, entry)
		}, nil
	case <-ctx.Done():
		l.release(chatID, entry)
		return nil, ctx.Err()
	}
}

func (l *chatLocks) release(chatID uint, entry *chatLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, chatID)
	}
}

// held reports how many chats currently have a holder or waiter.
func (l *chatLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
