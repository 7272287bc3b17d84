package notify

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/hashicorp/go-hclog"

	"minetwin/internal/types"
)

const sampleRate = beep.SampleRate(44100)

// Chime plays a short tone for success notifications. Audio is best effort:
// if the speaker cannot be opened the chime stays silent.
type Chime struct {
	mu          sync.Mutex
	initialized bool
	tried       bool
	log         hclog.Logger
}

func NewChime(log hclog.Logger) *Chime {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Chime{log: log}
}

func (c *Chime) init() bool {
	if c.tried {
		return c.initialized
	}
	c.tried = true
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		c.log.Debug("audio unavailable", "error", err)
		return false
	}
	c.initialized = true
	return true
}

// Notify is a Feed listener.
func (c *Chime) Notify(n types.Notification) {
	if n.Kind != "success" {
		return
	}
	c.Play()
}

func (c *Chime) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.init() {
		return
	}
	sine, err := generators.SineTone(sampleRate, 880)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(120*time.Millisecond), sine))
}

func (c *Chime) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		speaker.Close()
		c.initialized = false
	}
}
