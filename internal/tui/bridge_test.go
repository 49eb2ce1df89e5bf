package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/fastygo/tasklist/domain"
)

func TestBridge_CoalescesRefreshes(t *testing.T) {
	b := NewBridge(nil)
	b.Refresh()
	b.Refresh()
	b.Notify(domain.Notification{Kind: domain.NotifyReminder})
	b.Refresh()

	assert.Len(t, b.msgs, 2)
}

func TestBridge_ForwardsInOrder(t *testing.T) {
	b := NewBridge(nil)
	got := make(chan tea.Msg, 4)
	go b.forward(func(msg tea.Msg) { got <- msg })
	defer b.Close()

	b.Notify(domain.Notification{Kind: domain.NotifyReminder, TaskID: 1})
	b.Refresh()

	first := <-got
	assert.Equal(t, domain.NotifyReminder, domain.Notification(first.(notificationMsg)).Kind)
	assert.IsType(t, refreshMsg{}, <-got)

	// A refresh can be queued again once the previous one was forwarded.
	b.Refresh()
	select {
	case msg := <-got:
		assert.IsType(t, refreshMsg{}, msg)
	case <-time.After(time.Second):
		t.Fatal("refresh not forwarded")
	}
}

func TestBridge_DropsAfterClose(t *testing.T) {
	b := NewBridge(nil)
	b.Close()
	b.Close()
	b.Notify(domain.Notification{Kind: domain.NotifyReminder})
	b.Refresh()
	assert.Empty(t, b.msgs)
}
