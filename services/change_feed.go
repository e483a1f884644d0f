package services

import "sync"

// ChangeKind names what changed for a user.
type ChangeKind string

const (
	EntriesChanged ChangeKind = "entries.changed"
	GoalsChanged   ChangeKind = "goals.changed"
)

// Subscription receives change notifications for one user. At most one
// notification is pending; further publishes are dropped until it is read.
type Subscription struct {
	userID string
	C      <-chan ChangeKind
	ch     chan ChangeKind
}

// ChangeFeed fans change notifications out to per-user subscriptions.
type ChangeFeed struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{subs: make(map[string]map[*Subscription]struct{})}
}

func (f *ChangeFeed) Subscribe(userID string) *Subscription {
	ch := make(chan ChangeKind, 1)
	s := &Subscription{userID: userID, C: ch, ch: ch}

	f.mu.Lock()
	if f.subs[userID] == nil {
		f.subs[userID] = make(map[*Subscription]struct{})
	}
	f.subs[userID][s] = struct{}{}
	f.mu.Unlock()
	return s
}

// Unsubscribe removes s and closes its channel. Calling it twice is a no-op.
func (f *ChangeFeed) Unsubscribe(s *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.subs[s.userID]
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(f.subs, s.userID)
	}
	close(s.ch)
}

// Publish never blocks.
func (f *ChangeFeed) Publish(userID string, kind ChangeKind) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for s := range f.subs[userID] {
		select {
		case s.ch <- kind:
		default:
		}
	}
}

// Subscribers reports how many subscriptions userID has.
func (f *ChangeFeed) Subscribers(userID string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[userID])
}
