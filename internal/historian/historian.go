// internal/historian/historian.go
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taki/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Source yields queued action records. Pop returns (nil, nil) when nothing
// arrived within timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*models.ActionRecord, error)
}

// Store persists batches and closes out idle sessions.
type Store interface {
	InsertActions(ctx context.Context, recs []models.ActionRecord) error
	MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error)
}

type Config struct {
	BatchSize  int
	FlushDelay time.Duration
	// Inactivity is how long a game may go without actions before it is
	// marked abandoned.
	Inactivity    time.Duration
	CheckInterval time.Duration
	PopTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		BatchSize:     20,
		FlushDelay:    500 * time.Millisecond,
		Inactivity:    10 * time.Minute,
		CheckInterval: time.Minute,
		PopTimeout:    3 * time.Second,
	}
}

// Service drains the action queue into the store in batches and marks games
// abandoned when they stop producing actions.
type Service struct {
	source Source
	store  Store
	cfg    Config
	logger *logrus.Logger

	batchMu sync.Mutex
	batch   []models.ActionRecord
	flushMu sync.Mutex

	activityMu   sync.Mutex
	lastActivity map[uuid.UUID]time.Time
}

func New(source Source, store Store, cfg Config, logger *logrus.Logger) *Service {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return &Service{
		source:       source,
		store:        store,
		cfg:          cfg,
		logger:       logger,
		batch:        make([]models.ActionRecord, 0, cfg.BatchSize),
		lastActivity: make(map[uuid.UUID]time.Time),
	}
}

// Run blocks until ctx is cancelled, then flushes whatever is still batched.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readLoop(gctx) })
	g.Go(func() error { return s.flushLoop(gctx) })
	g.Go(func() error { return s.inactivityLoop(gctx) })
	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(flushCtx)
	return err
}

// Pending reports how many records are batched but not yet written.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

func (s *Service) readLoop(ctx context.Context) error {
	for {
		rec, err := s.source.Pop(ctx, s.cfg.PopTimeout)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			s.logger.Errorf("pop: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		if rec == nil {
			continue
		}

		s.touch(*rec)
		if s.append(*rec) {
			s.flush(ctx)
		}
	}
}

func (s *Service) flushLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.flush(ctx)
		}
	}
}

func (s *Service) inactivityLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			for _, gameID := range s.idleGames(now) {
				s.markAbandoned(ctx, gameID)
			}
		}
	}
}

// touch tracks the game's last activity. Finished games stop being tracked.
func (s *Service) touch(rec models.ActionRecord) {
	s.activityMu.Lock()
	defer s.activityMu.Unlock()
	if rec.ActionType == models.ActionTypeEndGame {
		delete(s.lastActivity, rec.GameID)
		return
	}
	s.lastActivity[rec.GameID] = time.Now()
}

func (s *Service) idleGames(now time.Time) []uuid.UUID {
	s.activityMu.Lock()
	defer s.activityMu.Unlock()
	var idle []uuid.UUID
	for id, last := range s.lastActivity {
		if now.Sub(last) > s.cfg.Inactivity {
			idle = append(idle, id)
			delete(s.lastActivity, id)
		}
	}
	return idle
}

// append adds rec to the batch and reports whether the batch is full.
func (s *Service) append(rec models.ActionRecord) bool {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.batch = append(s.batch, rec)
	return len(s.batch) >= s.cfg.BatchSize
}

// flush writes the current batch in one store call. A failed batch is logged
// and dropped.
func (s *Service) flush(ctx context.Context) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	batch := s.batch
	s.batch = make([]models.ActionRecord, 0, s.cfg.BatchSize)
	s.batchMu.Unlock()

	if err := s.store.InsertActions(ctx, batch); err != nil {
		s.logger.Errorf("flush of %d actions failed: %v", len(batch), err)
		return
	}
	s.logger.Debugf("flushed %d actions", len(batch))
}

// markAbandoned flushes first so the session row exists before it is updated.
func (s *Service) markAbandoned(ctx context.Context, gameID uuid.UUID) {
	s.flush(ctx)
	changed, err := s.store.MarkAbandoned(ctx, gameID)
	if err != nil {
		s.logger.Errorf("failed to mark game %v abandoned: %v", gameID, err)
		return
	}
	if changed {
		s.logger.Infof("marked game %v as abandoned due to inactivity", gameID)
	}
}
