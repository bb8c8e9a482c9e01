package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_TransitionTo(t *testing.T) {
	order := &Order{ID: "order-1", Status: StatusPendingPayment}

	require.NoError(t, order.TransitionTo(StatusPaymentCompleted))
	assert.Equal(t, StatusPaymentCompleted, order.Status)

	// 跳级迁移被拒绝，状态保持不变
	err := order.TransitionTo(StatusCompleted)
	require.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, StatusPaymentCompleted, order.Status)
}

func TestOrder_AdvanceIfLegal(t *testing.T) {
	order := &Order{ID: "order-1", Status: StatusPaymentCompleted}

	assert.True(t, order.AdvanceIfLegal(StatusPreparing))
	assert.Equal(t, StatusPreparing, order.Status)

	// 非法推进只是跳过，不报错
	assert.False(t, order.AdvanceIfLegal(StatusCompleted))
	assert.Equal(t, StatusPreparing, order.Status)
}

func TestOrder_AttachReferencesOnce(t *testing.T) {
	order := &Order{ID: "order-1", Status: StatusPendingPayment}

	require.NoError(t, order.AttachPayment("pay-1"))
	require.NoError(t, order.AttachShipment("ship-1"))
	require.NoError(t, order.AttachStorage("sto-1"))

	assert.ErrorIs(t, order.AttachPayment("pay-2"), ErrReferenceAssigned)
	assert.ErrorIs(t, order.AttachShipment("ship-2"), ErrReferenceAssigned)
	assert.ErrorIs(t, order.AttachStorage("sto-2"), ErrReferenceAssigned)

	// 首次赋值保持不变
	assert.Equal(t, "pay-1", order.PaymentID)
	assert.Equal(t, "ship-1", order.ShipmentID)
	assert.Equal(t, "sto-1", order.StorageID)
}

func TestOrder_Fulfillable(t *testing.T) {
	assert.True(t, (&Order{Status: StatusPendingPayment}).Fulfillable())
	for _, s := range []Status{StatusPaymentCompleted, StatusPreparing, StatusInWarehouse, StatusCompleted} {
		assert.False(t, (&Order{Status: s}).Fulfillable(), string(s))
	}
}

func TestOrder_OwnedBy(t *testing.T) {
	order := &Order{ID: "order-1", UserID: "user-1"}
	assert.True(t, order.OwnedBy("user-1"))
	assert.False(t, order.OwnedBy("user-2"))
}
