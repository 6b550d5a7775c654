package consultation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type pendingNote struct {
	text  string
	timer *time.Timer
}

// QuickNotes debounces note edits: each keystroke replaces the pending text
// and restarts the idle timer, and only the idle expiry (or an explicit
// flush) reaches the source. Closing the editor flushes immediately so no
// text is lost.
type QuickNotes struct {
	mu      sync.Mutex
	src     Source
	idle    time.Duration
	pending map[uuid.UUID]*pendingNote
	logger  zerolog.Logger
}

func NewQuickNotes(src Source, idle time.Duration, logger zerolog.Logger) *QuickNotes {
	return &QuickNotes{
		src:     src,
		idle:    idle,
		pending: make(map[uuid.UUID]*pendingNote),
		logger:  logger.With().Str("component", "quicknotes").Logger(),
	}
}

// Update records the latest text and restarts the idle timer.
func (q *QuickNotes) Update(id uuid.UUID, text string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if p, ok := q.pending[id]; ok {
		p.text = text
		p.timer.Reset(q.idle)
		return
	}
	q.pending[id] = &pendingNote{
		text: text,
		timer: time.AfterFunc(q.idle, func() {
			if err := q.Flush(id); err != nil {
				q.logger.Error().Err(err).Str("consultation_id", id.String()).Msg("autosave failed")
			}
		}),
	}
}

// Flush writes the pending text now and drops the timer. Flushing with
// nothing pending is a no-op.
func (q *QuickNotes) Flush(id uuid.UUID) error {
	q.mu.Lock()
	p, ok := q.pending[id]
	if ok {
		p.timer.Stop()
		delete(q.pending, id)
	}
	q.mu.Unlock()

	if !ok {
		return nil
	}
	return q.src.UpdateNotes(context.Background(), id, p.text)
}

// FlushAll drains every pending note. Called at shutdown.
func (q *QuickNotes) FlushAll() {
	q.mu.Lock()
	ids := make([]uuid.UUID, 0, len(q.pending))
	for id := range q.pending {
		ids = append(ids, id)
	}
	q.mu.Unlock()

	for _, id := range ids {
		if err := q.Flush(id); err != nil {
			q.logger.Error().Err(err).Str("consultation_id", id.String()).Msg("flush failed")
		}
	}
}

// Pending reports whether a consultation has unsaved text.
func (q *QuickNotes) Pending(id uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pending[id]
	return ok
}
