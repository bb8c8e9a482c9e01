// internal/service/fulfillment/infrastructure/gorm_model.go
package infrastructure

import (
	"database/sql"
	"time"

	"tradepost/internal/service/fulfillment/domain"
)

// OrderModel 对应数据库中的 orders 表。
type OrderModel struct {
	ID         string `gorm:"primaryKey;size:36"`
	UserID     string `gorm:"size:36;index"`
	BidID      sql.NullString
	Status     string `gorm:"size:32;index"`
	PaymentID  sql.NullString
	ShipmentID sql.NullString
	StorageID  sql.NullString
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName 指定 GORM 应该使用的表名。
func (OrderModel) TableName() string {
	return "orders"
}

// UserModel 对应数据库中的 users 表。
type UserModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	Nickname  string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserModel) TableName() string {
	return "users"
}

// ToDomainOrder 把数据库模型转换为领域模型。
func ToDomainOrder(m *OrderModel) *domain.Order {
	return &domain.Order{
		ID:         m.ID,
		UserID:     m.UserID,
		BidID:      m.BidID.String,
		Status:     domain.Status(m.Status),
		PaymentID:  m.PaymentID.String,
		ShipmentID: m.ShipmentID.String,
		StorageID:  m.StorageID.String,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// FromDomainOrder 把领域模型转换为数据库模型。
func FromDomainOrder(o *domain.Order) *OrderModel {
	return &OrderModel{
		ID:         o.ID,
		UserID:     o.UserID,
		BidID:      nullString(o.BidID),
		Status:     string(o.Status),
		PaymentID:  nullString(o.PaymentID),
		ShipmentID: nullString(o.ShipmentID),
		StorageID:  nullString(o.StorageID),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func ToDomainUser(m *UserModel) *domain.User {
	return &domain.User{
		ID:       m.ID,
		Nickname: m.Nickname,
		Email:    m.Email,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
