package badge

import (
	"context"
	"log"
	"sync"
	"time"

	"pharmagister-backend/internal/store"
)

// Watcher turns the store into a stream of badge snapshots for subscribed
// users. Each poll re-reads the full result set and recomputes counts from
// scratch; subscribers only hear about changes.
type Watcher struct {
	store    store.Store
	interval time.Duration

	mu   sync.Mutex
	subs map[string][]chan Badges
	last map[string]Badges
}

// NewWatcher creates a watcher polling the store at the given interval.
func NewWatcher(s store.Store, interval time.Duration) *Watcher {
	return &Watcher{
		store:    s,
		interval: interval,
		subs:     make(map[string][]chan Badges),
		last:     make(map[string]Badges),
	}
}

// Subscribe registers interest in a user's badge counts. The returned channel
// receives a snapshot whenever the counts change, starting with the first
// poll after subscription. Cancel the watcher's context to release it.
func (w *Watcher) Subscribe(userID string) <-chan Badges {
	ch := make(chan Badges, 1)
	w.mu.Lock()
	w.subs[userID] = append(w.subs[userID], ch)
	delete(w.last, userID) // force an emit on the next poll
	w.mu.Unlock()
	return ch
}

// Run polls until ctx is cancelled. The first cycle executes immediately.
func (w *Watcher) Run(ctx context.Context) {
	log.Println("Starting badge watcher...")

	w.PollOnce(ctx)

	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Badge watcher shutting down.")
			w.closeAll()
			return
		case <-timer.C:
			w.PollOnce(ctx)
			timer.Reset(w.interval)
		}
	}
}

// PollOnce performs a single poll cycle over all subscribed users.
func (w *Watcher) PollOnce(ctx context.Context) {
	w.mu.Lock()
	userIDs := make([]string, 0, len(w.subs))
	for id := range w.subs {
		userIDs = append(userIDs, id)
	}
	w.mu.Unlock()

	for _, userID := range userIDs {
		badges, err := w.compute(ctx, userID)
		if err != nil {
			log.Printf("Badge poll for user %s failed: %v", userID, err)
			continue
		}
		w.publish(userID, badges)
	}
}

// compute reads the current snapshot for one user and reduces it to counts.
func (w *Watcher) compute(ctx context.Context, userID string) (Badges, error) {
	conversations, err := w.store.ConversationsForUser(ctx, userID)
	if err != nil {
		return Badges{}, err
	}
	unread, err := w.store.UnreadNotifications(ctx, userID)
	if err != nil {
		return Badges{}, err
	}
	return ComputeBadges(userID, conversations, unread), nil
}

func (w *Watcher) publish(userID string, badges Badges) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if last, ok := w.last[userID]; ok && last == badges {
		return
	}
	w.last[userID] = badges

	for _, ch := range w.subs[userID] {
		// Drop the stale snapshot if the subscriber hasn't drained it;
		// only the latest counts matter.
		select {
		case <-ch:
		default:
		}
		ch <- badges
	}
}

func (w *Watcher) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, chans := range w.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	w.subs = make(map[string][]chan Badges)
}
