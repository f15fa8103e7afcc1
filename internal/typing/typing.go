package typing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	SignalInterval = 2 * time.Second
	PollInterval   = 4 * time.Second
)

// Backend is the typing collaborator: a fire-and-forget signal and a poll.
type Backend interface {
	SignalTyping(ctx context.Context, threadKey string) error
	PollTyping(ctx context.Context, threadKey, orgID string) (bool, error)
}

// Signaler throttles outbound typing signals to one per SignalInterval per
// thread, however often Signal is called.
type Signaler struct {
	backend  Backend
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	wg       sync.WaitGroup
}

func NewSignaler(b Backend, log *slog.Logger) *Signaler {
	if log == nil {
		log = slog.Default()
	}
	return &Signaler{
		backend:  b,
		interval: SignalInterval,
		now:      time.Now,
		log:      log.With("component", "typing"),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Signal dispatches a typing signal for threadKey unless one went out within
// the interval. It never blocks on the network and reports whether a signal
// was dispatched.
func (s *Signaler) Signal(ctx context.Context, threadKey string) bool {
	if threadKey == "" || !s.limiter(threadKey).AllowN(s.now(), 1) {
		return false
	}
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, s.interval)
		defer cancel()
		if err := s.backend.SignalTyping(ctx, threadKey); err != nil {
			s.log.Debug("typing signal failed", "thread", threadKey, "err", err)
		}
	}()
	return true
}

// Wait blocks until dispatched signals have completed.
func (s *Signaler) Wait() {
	s.wg.Wait()
}

func (s *Signaler) limiter(threadKey string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[threadKey]
	if !ok {
		l = rate.NewLimiter(rate.Every(s.interval), 1)
		s.limiters[threadKey] = l
	}
	return l
}

// Poller checks whether the peer of a thread is typing.
type Poller struct {
	backend  Backend
	interval time.Duration
	log      *slog.Logger
}

func NewPoller(b Backend, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	return &Poller{backend: b, interval: PollInterval, log: log.With("component", "typing")}
}

// Poll asks once. Errors read as not typing.
func (p *Poller) Poll(ctx context.Context, threadKey, orgID string) bool {
	typing, err := p.backend.PollTyping(ctx, threadKey, orgID)
	if err != nil {
		p.log.Debug("typing poll failed", "thread", threadKey, "err", err)
		return false
	}
	return typing
}

// Run polls every interval until ctx is done, handing each result to set.
// orgID is read through the callback so a scope switch is seen by the next
// poll.
func (p *Poller) Run(ctx context.Context, threadKey string, orgID func() string, set func(bool)) {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			set(p.Poll(ctx, threadKey, orgID()))
		}
	}
}
