package alarm

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrAborted is returned by a Player whose playback was cut short by a
// state change. It is expected and never logged.
var ErrAborted = errors.New("playback aborted")

// Player loops an audio resource until ctx is cancelled.
type Player interface {
	Play(ctx context.Context) error
	// Rewind puts the playback position back at the start.
	Rewind()
}

// Playback runs at most one Player loop at a time.
type Playback struct {
	player Player
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPlayback(player Player, logger *zap.Logger) *Playback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Playback{player: player, logger: logger.Named("playback")}
}

// Start begins looped playback in the background. It returns immediately
// and does nothing if playback is already running.
func (p *Playback) Start() {
	if p == nil || p.player == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go func() {
		defer close(done)
		err := p.player.Play(ctx)
		if err != nil && !errors.Is(err, ErrAborted) && !errors.Is(err, context.Canceled) {
			p.logger.Warn("Alarm playback failed", zap.Error(err))
		}

		// the player gave up on its own; Stop has nothing left to wait for
		p.mu.Lock()
		if p.done == done {
			p.cancel()
			p.cancel, p.done = nil, nil
		}
		p.mu.Unlock()
	}()
}

// Stop halts playback, waits for the loop to exit and rewinds.
func (p *Playback) Stop() {
	if p == nil || p.player == nil {
		return
	}

	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	p.player.Rewind()
}

// Playing reports whether a loop is running.
func (p *Playback) Playing() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}
