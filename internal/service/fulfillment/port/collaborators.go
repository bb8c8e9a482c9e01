// internal/service/fulfillment/port/collaborators.go
package port

import (
	"context"

	"tradepost/internal/service/fulfillment/domain"
)

// PaymentGateway 是支付协作方的出站端口。
// Capture 返回的结果必须检查 Successful()，网关层面的"失败"不是 error。
type PaymentGateway interface {
	Capture(ctx context.Context, order *domain.Order, user *domain.User, req domain.PaymentRequest) (*domain.Payment, error)
}

// ShipmentService 是运单协作方的出站端口。
type ShipmentService interface {
	Create(ctx context.Context, order *domain.Order, receiverName, receiverPhone, postalCode, address string) (*domain.Shipment, error)
}

// WarehouseService 是入仓协作方的出站端口。
type WarehouseService interface {
	CreateStorage(ctx context.Context, order *domain.Order, user *domain.User) (*domain.WarehouseStorage, error)
}
