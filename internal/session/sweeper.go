package session

import (
	"context"
	"fmt"

	"github.com/oklahomer/go-kasumi/logger"
	"github.com/robfig/cron/v3"
)

// Sweepable is a store whose expired entries can be purged.
type Sweepable interface {
	Kind() string
	SweepExpired() int
}

// SweepObserver is notified of each sweep result.
type SweepObserver func(kind string, removed int)

// Sweeper purges expired sessions on a cron schedule, independent of access patterns.
type Sweeper struct {
	cron     *cron.Cron
	stores   []Sweepable
	observer SweepObserver
}

// NewSweeper creates a Sweeper running on schedule, e.g. "@every 5m".
func NewSweeper(schedule string, observer SweepObserver, stores ...Sweepable) (*Sweeper, error) {
	s := &Sweeper{
		cron:     cron.New(),
		stores:   stores,
		observer: observer,
	}

	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Sweep runs one pass over all stores.
func (s *Sweeper) Sweep() {
	for _, store := range s.stores {
		removed := store.SweepExpired()
		if removed > 0 {
			logger.Debugf("Swept %d expired %s session(s).", removed, store.Kind())
		}
		if s.observer != nil {
			s.observer(store.Kind(), removed)
		}
	}
}

// Run starts the schedule and blocks until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
}
