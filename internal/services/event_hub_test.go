package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasklist/domain"
)

func TestEventHub_DeliversToSubscribers(t *testing.T) {
	hub := NewEventHub(4, nil)
	events, cancel := hub.Subscribe()
	defer cancel()

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	hub.Notify(domain.Notification{Kind: domain.NotifyReminder, TaskID: 7, Message: `Reminder: "Buy milk"`, At: at})
	hub.Refresh()

	ev := <-events
	assert.Equal(t, EventNotification, ev.Name)
	var n domain.Notification
	require.NoError(t, json.Unmarshal(ev.Data, &n))
	assert.Equal(t, domain.NotifyReminder, n.Kind)
	assert.Equal(t, int64(7), n.TaskID)

	ev = <-events
	assert.Equal(t, EventRefresh, ev.Name)
}

func TestEventHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewEventHub(1, nil)
	events, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < 10; i++ {
		hub.Refresh()
	}
	assert.Len(t, events, 1)
}

func TestEventHub_CancelAndClose(t *testing.T) {
	hub := NewEventHub(1, nil)
	first, cancelFirst := hub.Subscribe()
	second, cancelSecond := hub.Subscribe()
	assert.Equal(t, 2, hub.Subscribers())

	cancelFirst()
	cancelFirst()
	_, open := <-first
	assert.False(t, open)
	assert.Equal(t, 1, hub.Subscribers())

	hub.Close()
	_, open = <-second
	assert.False(t, open)
	cancelSecond()

	late, _ := hub.Subscribe()
	_, open = <-late
	assert.False(t, open)
}
