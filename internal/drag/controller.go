package drag

import (
	"errors"
	"sync"

	"minetwin/internal/types"
)

var ErrNothingGrabbed = errors.New("no equipment grabbed")

type PositionStore interface {
	Position(id string) (types.Position, error)
	SetPosition(id string, p types.Position) error
}

// Controller moves one grabbed node with the pointer. Positions are written
// straight through to the store with no clamping.
type Controller struct {
	store PositionStore

	mu      sync.Mutex
	grabbed string
	offset  types.Position
}

func NewController(store PositionStore) *Controller {
	return &Controller{store: store}
}

// Grab records the pointer's offset from the node. A second Grab replaces
// the first.
func (c *Controller) Grab(id string, pointer types.Position) error {
	pos, err := c.store.Position(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.grabbed = id
	c.offset = pointer.Sub(pos)
	c.mu.Unlock()
	return nil
}

// Move places the grabbed node at pointer minus the grab offset. Without a
// grab it does nothing and returns ErrNothingGrabbed.
func (c *Controller) Move(pointer types.Position) (types.Position, error) {
	c.mu.Lock()
	id, offset := c.grabbed, c.offset
	c.mu.Unlock()
	if id == "" {
		return types.Position{}, ErrNothingGrabbed
	}
	next := pointer.Sub(offset)
	if err := c.store.SetPosition(id, next); err != nil {
		return types.Position{}, err
	}
	return next, nil
}

func (c *Controller) Release() {
	c.mu.Lock()
	c.grabbed = ""
	c.offset = types.Position{}
	c.mu.Unlock()
}

// Grabbed returns the id of the held node, or "" if none.
func (c *Controller) Grabbed() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.grabbed
}
