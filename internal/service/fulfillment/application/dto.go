// internal/service/fulfillment/application/dto.go
package application

import "tradepost/internal/service/fulfillment/domain"

// FulfillOrderRequest 是触发履约用例的输入数据，由结算完成后的接口层提交。
type FulfillOrderRequest struct {
	OrderID string                    `json:"orderId"`
	UserID  string                    `json:"userId"`
	Request domain.FulfillmentRequest `json:"request"`
}

// FulfillOrderResponse 告知客户端请求已被接受；结果通过推送异步送达。
type FulfillOrderResponse struct {
	OrderID string `json:"orderId"`
	EventID string `json:"eventId"`
	Message string `json:"message"`
}
