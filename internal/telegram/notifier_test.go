package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"telemart/internal/types/order"
)

func TestFormatOrderItems(t *testing.T) {
	items := []order.Item{
		{ServiceName: "Spotify", DurationLabel: "1 Месяц", Quantity: 2},
		{ServiceName: "Netflix", DurationLabel: "1 Год", Quantity: 1},
	}
	assert.Equal(t, "• Spotify (1 Месяц) x2\n• Netflix (1 Год) x1", FormatOrderItems(items))
}

func TestNilNotifierIsSafe(t *testing.T) {
	var n *Notifier
	assert.NotPanics(t, func() {
		n.Broadcast("hello")
		n.OrderCreated(&order.Order{ID: "ord-1"})
		n.PendingReminder([]order.Order{{ID: "ord-1"}})
	})
}

func TestNewNotifierWithoutToken(t *testing.T) {
	n, err := NewNotifier("", []string{"1"})
	assert.NoError(t, err)
	assert.Nil(t, n)
}
