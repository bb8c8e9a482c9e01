// internal/service/fulfillment/infrastructure/adapter/shipment_http_adapter.go
package adapter

import (
	"context"

	"tradepost/internal/pkg/httpclient"
	"tradepost/internal/service/fulfillment/domain"
)

// ShipmentHTTPAdapter 实现 port.ShipmentService，调用内部物流服务。
type ShipmentHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

func NewShipmentHTTPAdapter(client *httpclient.Client, baseURL string) *ShipmentHTTPAdapter {
	return &ShipmentHTTPAdapter{client: client, baseURL: baseURL}
}

type createShipmentRequest struct {
	OrderID       string `json:"orderId"`
	ReceiverName  string `json:"receiverName"`
	ReceiverPhone string `json:"receiverPhone"`
	PostalCode    string `json:"postalCode"`
	Address       string `json:"address"`
}

type createShipmentResponse struct {
	ShipmentID string `json:"shipmentId"`
	TrackingNo string `json:"trackingNo"`
}

func (a *ShipmentHTTPAdapter) Create(ctx context.Context, order *domain.Order, receiverName, receiverPhone, postalCode, address string) (*domain.Shipment, error) {
	req := createShipmentRequest{
		OrderID:       order.ID,
		ReceiverName:  receiverName,
		ReceiverPhone: receiverPhone,
		PostalCode:    postalCode,
		Address:       address,
	}
	var resp createShipmentResponse
	if err := a.client.PostJSON(ctx, a.baseURL+"/internal/shipments", req, &resp); err != nil {
		return nil, err
	}
	return &domain.Shipment{
		ID:            resp.ShipmentID,
		OrderID:       order.ID,
		ReceiverName:  receiverName,
		ReceiverPhone: receiverPhone,
		PostalCode:    postalCode,
		Address:       address,
		TrackingNo:    resp.TrackingNo,
	}, nil
}
