package canvas

import (
	"sync"
	"time"
)

// Animator drives a per-frame draw callback while a simulation runs. The
// callback runs on the animator's goroutine and must not call Stop.
type Animator struct {
	interval time.Duration
	draw     func(time.Time)

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewAnimator(interval time.Duration, draw func(time.Time)) *Animator {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &Animator{interval: interval, draw: draw}
}

func (a *Animator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stop != nil {
		return
	}
	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	go a.loop(a.stop, a.done)
}

func (a *Animator) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case t := <-ticker.C:
			a.draw(t)
		}
	}
}

// Stop cancels the frame loop and waits until no further frame can be drawn.
func (a *Animator) Stop() {
	a.mu.Lock()
	stop, done := a.stop, a.done
	a.stop, a.done = nil, nil
	a.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stop != nil
}

// Sync starts or stops the loop to match running.
func (a *Animator) Sync(running bool) {
	if running {
		a.Start()
		return
	}
	a.Stop()
}
