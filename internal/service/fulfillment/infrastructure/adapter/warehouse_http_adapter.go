// internal/service/fulfillment/infrastructure/adapter/warehouse_http_adapter.go
package adapter

import (
	"context"
	"time"

	"tradepost/internal/pkg/httpclient"
	"tradepost/internal/service/fulfillment/domain"
)

// WarehouseHTTPAdapter 实现 port.WarehouseService，调用内部仓储服务。
type WarehouseHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

func NewWarehouseHTTPAdapter(client *httpclient.Client, baseURL string) *WarehouseHTTPAdapter {
	return &WarehouseHTTPAdapter{client: client, baseURL: baseURL}
}

type createStorageRequest struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
}

type createStorageResponse struct {
	StorageID string `json:"storageId"`
	Location  string `json:"location"`
	StoredAt  int64  `json:"storedAt"`
}

func (a *WarehouseHTTPAdapter) CreateStorage(ctx context.Context, order *domain.Order, user *domain.User) (*domain.WarehouseStorage, error) {
	req := createStorageRequest{OrderID: order.ID, UserID: user.ID}
	var resp createStorageResponse
	if err := a.client.PostJSON(ctx, a.baseURL+"/internal/storages", req, &resp); err != nil {
		return nil, err
	}
	return &domain.WarehouseStorage{
		ID:       resp.StorageID,
		OrderID:  order.ID,
		UserID:   user.ID,
		Location: resp.Location,
		StoredAt: time.UnixMilli(resp.StoredAt),
	}, nil
}
