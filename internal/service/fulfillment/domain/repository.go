// internal/service/fulfillment/domain/repository.go
package domain

import "context"

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，由基础设施层实现。
type OrderRepository interface {
	// FindByID 根据 ID 查找订单，不存在时返回 ErrOrderNotFound。
	FindByID(ctx context.Context, id string) (*Order, error)

	// Save 保存订单（状态与引用的变更）。
	Save(ctx context.Context, order *Order) error
}

// UserRepository 是用户查询的窄接口，履约流程只做身份核对。
type UserRepository interface {
	// FindByID 根据 ID 查找用户，不存在时返回 ErrUserNotFound。
	FindByID(ctx context.Context, id string) (*User, error)
}
