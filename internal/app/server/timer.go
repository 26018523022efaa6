package server

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/checkmate-live/checkmate/pkg/logging"
)

// timerService owns one ticking task per live game. Tasks are keyed by
// game id and cancellation is idempotent: flag-fall and forced close may
// both try to stop the same ticker.
type timerService struct {
	period time.Duration

	mu    sync.Mutex
	tasks map[string]*timerTask
}

type timerTask struct {
	stop chan struct{}
	once sync.Once
}

func (t *timerTask) cancel() {
	t.once.Do(func() {
		close(t.stop)
	})
}

func newTimerService(period time.Duration) *timerService {
	return &timerService{
		period: period,
		tasks:  make(map[string]*timerTask),
	}
}

// start spawns the ticking task for a session. No-op if one is already
// running. onFlag is invoked outside the service lock with the identity
// whose clock reached zero.
func (t *timerService) start(session *Session, onFlag func(identity string)) {
	t.mu.Lock()
	if _, running := t.tasks[session.id]; running {
		t.mu.Unlock()
		return
	}
	task := &timerTask{stop: make(chan struct{})}
	t.tasks[session.id] = task
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(t.period)
		defer ticker.Stop()
		for {
			select {
			case <-task.stop:
				return
			case <-ticker.C:
				if loser := session.tick(); loser != "" {
					logging.Info("flag fall",
						zap.String("game_id", session.id),
						zap.String("identity", loser),
					)
					onFlag(loser)
					task.cancel()
					return
				}
			}
		}
	}()
}

// cancel stops the task for a game id, if any. Safe to call repeatedly.
func (t *timerService) cancel(gameId string) {
	t.mu.Lock()
	task, ok := t.tasks[gameId]
	if ok {
		delete(t.tasks, gameId)
	}
	t.mu.Unlock()
	if ok {
		task.cancel()
	}
}
