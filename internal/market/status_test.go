package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, CanTransition(OrderPending, OrderPaid))
	assert.True(t, CanTransition(OrderPending, OrderCancelled))
	assert.True(t, CanTransition(OrderPaid, OrderCompleted))

	assert.False(t, CanTransition(OrderCompleted, OrderPending))
	assert.False(t, CanTransition(OrderCancelled, OrderPaid))
	assert.False(t, CanTransition(OrderPending, OrderCompleted))
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory(CategoryProduce))
	assert.False(t, ValidCategory(Category("gadgets")))
	assert.False(t, ValidCategory(Category("")))
}
