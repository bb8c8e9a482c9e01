// internal/service/fulfillment/infrastructure/adapter/payment_http_adapter.go
package adapter

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"tradepost/internal/pkg/httpclient"
	"tradepost/internal/service/fulfillment/domain"
)

// PaymentHTTPAdapter 实现 port.PaymentGateway，调用内部支付服务。
type PaymentHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

func NewPaymentHTTPAdapter(client *httpclient.Client, baseURL string) *PaymentHTTPAdapter {
	return &PaymentHTTPAdapter{client: client, baseURL: baseURL}
}

type captureResponse struct {
	PaymentID  string `json:"paymentId"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	CapturedAt int64  `json:"capturedAt"`
}

// Capture 对支付方式做一次分派，生成网关扣款请求并调用支付服务。
// 网关明确返回的失败（余额不足、卡被拒）体现在 Payment.Status 上，不是 error。
func (a *PaymentHTTPAdapter) Capture(ctx context.Context, order *domain.Order, user *domain.User, req domain.PaymentRequest) (*domain.Payment, error) {
	captureReq, err := domain.ResolveCapture(order.ID, user.ID, req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve capture request")
	}

	var resp captureResponse
	if err := a.client.PostJSON(ctx, a.baseURL+"/internal/payments/capture", captureReq, &resp); err != nil {
		return nil, err
	}

	return &domain.Payment{
		ID:         resp.PaymentID,
		OrderID:    order.ID,
		Amount:     req.Amount,
		MethodKind: req.Method.Kind,
		Status:     resp.Status,
		Reason:     resp.Reason,
		CapturedAt: time.UnixMilli(resp.CapturedAt),
	}, nil
}
