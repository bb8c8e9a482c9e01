package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tradepost/internal/service/fulfillment/domain"
)

func TestOrderModelRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	order := &domain.Order{
		ID:         "order-1",
		UserID:     "user-1",
		BidID:      "bid-1",
		Status:     domain.StatusCompleted,
		PaymentID:  "pay-1",
		ShipmentID: "ship-1",
		StorageID:  "sto-1",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	assert.Equal(t, order, ToDomainOrder(FromDomainOrder(order)))
}

func TestFromDomainOrder_EmptyReferencesAreNull(t *testing.T) {
	model := FromDomainOrder(&domain.Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: domain.StatusPendingPayment,
	})

	// 直购订单没有出价引用，未履约的订单没有外部引用，落库为 NULL
	assert.False(t, model.BidID.Valid)
	assert.False(t, model.PaymentID.Valid)
	assert.False(t, model.ShipmentID.Valid)
	assert.False(t, model.StorageID.Valid)
	assert.Equal(t, "PENDING_PAYMENT", model.Status)
}
