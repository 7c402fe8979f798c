// internal/services/order_transition_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storelink/storelink-backend/internal/models"
)

func TestCanTransitionForwardPath(t *testing.T) {
	assert.True(t, CanTransition(models.OrderStatusPendingPayment, models.OrderStatusPaidByUser))
	assert.True(t, CanTransition(models.OrderStatusPaidByUser, models.OrderStatusProcessing))
	assert.True(t, CanTransition(models.OrderStatusProcessing, models.OrderStatusCompleted))
}

func TestCanTransitionCancelFromNonTerminal(t *testing.T) {
	for _, from := range []models.OrderStatus{
		models.OrderStatusPendingPayment,
		models.OrderStatusPaidByUser,
		models.OrderStatusProcessing,
	} {
		assert.True(t, CanTransition(from, models.OrderStatusCancelled), "from=%s", from)
	}
}

func TestCanTransitionNoSkipping(t *testing.T) {
	assert.False(t, CanTransition(models.OrderStatusPendingPayment, models.OrderStatusProcessing))
	assert.False(t, CanTransition(models.OrderStatusPendingPayment, models.OrderStatusCompleted))
	assert.False(t, CanTransition(models.OrderStatusPaidByUser, models.OrderStatusCompleted))
}

func TestCanTransitionNoBackward(t *testing.T) {
	assert.False(t, CanTransition(models.OrderStatusPaidByUser, models.OrderStatusPendingPayment))
	assert.False(t, CanTransition(models.OrderStatusProcessing, models.OrderStatusPaidByUser))
	assert.False(t, CanTransition(models.OrderStatusCompleted, models.OrderStatusProcessing))
}

func TestCanTransitionTerminalStates(t *testing.T) {
	all := []models.OrderStatus{
		models.OrderStatusPendingPayment,
		models.OrderStatusPaidByUser,
		models.OrderStatusProcessing,
		models.OrderStatusCompleted,
		models.OrderStatusCancelled,
	}

	for _, to := range all {
		assert.False(t, CanTransition(models.OrderStatusCompleted, to), "completed -> %s", to)
		assert.False(t, CanTransition(models.OrderStatusCancelled, to), "cancelled -> %s", to)
	}
}

func TestCanTransitionSelfLoopsRejected(t *testing.T) {
	all := []models.OrderStatus{
		models.OrderStatusPendingPayment,
		models.OrderStatusPaidByUser,
		models.OrderStatusProcessing,
		models.OrderStatusCompleted,
		models.OrderStatusCancelled,
	}

	for _, status := range all {
		assert.False(t, CanTransition(status, status), "%s -> %s", status, status)
	}
}

func TestOrderTerminal(t *testing.T) {
	assert.True(t, (&models.Order{Status: models.OrderStatusCompleted}).Terminal())
	assert.True(t, (&models.Order{Status: models.OrderStatusCancelled}).Terminal())
	assert.False(t, (&models.Order{Status: models.OrderStatusProcessing}).Terminal())
	assert.False(t, (&models.Order{Status: models.OrderStatusPendingPayment}).Terminal())
}
