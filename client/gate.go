package client

import "sync"

type gateState int

const (
	gateIdle gateState = iota
	gateRefreshing
)

// refreshOutcome is broadcast to every waiter when the in-flight refresh
// settles. ok false means "no token": each waiter surfaces its own original
// error and the client transitions to logged out.
type refreshOutcome struct {
	token string
	ok    bool
}

// refreshGate is the single-flight state machine: at most one refresh call
// is in flight per client instance, and every request that expires while it
// runs queues for the broadcast instead of issuing its own call.
//
// The state and waiter list are an explicit structure rather than ambient
// closures so the one-in-flight invariant is directly testable.
type refreshGate struct {
	mu      sync.Mutex
	state   gateState
	waiters []chan refreshOutcome
}

// begin makes the caller the leader when the gate is idle. Followers receive
// a buffered channel that will carry the leader's outcome; the buffer means
// a follower that gives up (context cancelled) never blocks the broadcast.
func (g *refreshGate) begin() (leader bool, wait <-chan refreshOutcome) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == gateIdle {
		g.state = gateRefreshing
		return true, nil
	}
	ch := make(chan refreshOutcome, 1)
	g.waiters = append(g.waiters, ch)
	return false, ch
}

// finish broadcasts the outcome to all queued waiters and returns the gate
// to idle. Only the leader calls finish, exactly once per begin.
func (g *refreshGate) finish(out refreshOutcome) {
	g.mu.Lock()
	waiters := g.waiters
	g.waiters = nil
	g.state = gateIdle
	g.mu.Unlock()

	for _, ch := range waiters {
		ch <- out
	}
}
