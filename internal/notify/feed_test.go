package notify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minetwin/internal/types"
)

func TestFeedKeepsNewestFive(t *testing.T) {
	f := NewFeed()
	for i := 0; i < 7; i++ {
		f.Push("info", fmt.Sprintf("message %d", i))
	}

	items := f.List()
	require.Len(t, items, MaxNotifications)
	assert.Equal(t, "message 6", items[0].Message)
	assert.Equal(t, "message 2", items[4].Message)
}

func TestFeedCallsListeners(t *testing.T) {
	var got []types.Notification
	f := NewFeed(func(n types.Notification) { got = append(got, n) })

	f.Push("success", "Simulation completed successfully!")

	require.Len(t, got, 1)
	assert.Equal(t, "success", got[0].Kind)
	assert.NotEmpty(t, got[0].ID)
	assert.NotEmpty(t, got[0].Timestamp)
}

func TestChimeIgnoresNonSuccess(t *testing.T) {
	c := NewChime(nil)
	c.Notify(types.Notification{Kind: "info"})
	assert.False(t, c.tried)
}
