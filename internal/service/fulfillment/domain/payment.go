// internal/service/fulfillment/domain/payment.go
package domain

import (
	"fmt"
	"time"
)

// PaymentMethodKind 枚举了支持的支付方式。
type PaymentMethodKind string

const (
	MethodCard         PaymentMethodKind = "CARD"
	MethodBankTransfer PaymentMethodKind = "BANK_TRANSFER"
	MethodPoints       PaymentMethodKind = "POINTS" // 平台积分
)

// PaymentMethod 是支付方式的带标签联合。
// Kind 决定哪一个分支字段有效，其余分支保持 nil。
type PaymentMethod struct {
	Kind         PaymentMethodKind `json:"kind"`
	Card         *CardDetails      `json:"card,omitempty"`
	BankTransfer *BankDetails      `json:"bankTransfer,omitempty"`
	Points       *PointsDetails    `json:"points,omitempty"`
}

type CardDetails struct {
	Token      string `json:"token"` // 网关侧的卡片令牌，不落明文卡号
	Issuer     string `json:"issuer"`
	Installmts int    `json:"installments"`
}

type BankDetails struct {
	BankCode string `json:"bankCode"`
	Account  string `json:"account"`
}

type PointsDetails struct {
	WalletID string `json:"walletId"`
}

// PaymentRequest 是事件里携带的支付请求快照。
type PaymentRequest struct {
	Method PaymentMethod `json:"method"`
	Amount int64         `json:"amount"` // 最小货币单位
}

// CaptureRequest 是发给支付网关的扣款请求，由 ResolveCapture 统一生成。
type CaptureRequest struct {
	OrderID    string            `json:"orderId"`
	UserID     string            `json:"userId"`
	Amount     int64             `json:"amount"`
	MethodKind PaymentMethodKind `json:"methodKind"`
	Reference  string            `json:"reference"` // 方式专属的扣款凭据
}

// ResolveCapture 是支付方式的唯一分派点：把联合类型展开成网关请求。
// 新增支付方式时只需要扩展这里，调用方不感知具体分支。
func ResolveCapture(orderID, userID string, req PaymentRequest) (CaptureRequest, error) {
	capture := CaptureRequest{
		OrderID:    orderID,
		UserID:     userID,
		Amount:     req.Amount,
		MethodKind: req.Method.Kind,
	}
	switch req.Method.Kind {
	case MethodCard:
		if req.Method.Card == nil {
			return CaptureRequest{}, fmt.Errorf("card payment without card details")
		}
		capture.Reference = req.Method.Card.Token
	case MethodBankTransfer:
		if req.Method.BankTransfer == nil {
			return CaptureRequest{}, fmt.Errorf("bank transfer payment without bank details")
		}
		capture.Reference = req.Method.BankTransfer.BankCode + ":" + req.Method.BankTransfer.Account
	case MethodPoints:
		if req.Method.Points == nil {
			return CaptureRequest{}, fmt.Errorf("points payment without wallet details")
		}
		capture.Reference = req.Method.Points.WalletID
	default:
		return CaptureRequest{}, fmt.Errorf("unknown payment method kind: %q", req.Method.Kind)
	}
	return capture, nil
}

// Payment 是支付协作方返回的扣款结果。
type Payment struct {
	ID         string
	OrderID    string
	Amount     int64
	MethodKind PaymentMethodKind
	Status     string // "SUCCESS" / "FAILED"
	Reason     string // 失败原因，成功时为空
	CapturedAt time.Time
}

// Successful 判断扣款是否成功。
func (p *Payment) Successful() bool {
	return p.Status == "SUCCESS"
}

// Shipment 是运单协作方创建的运单记录。
type Shipment struct {
	ID            string
	OrderID       string
	ReceiverName  string
	ReceiverPhone string
	PostalCode    string
	Address       string
	TrackingNo    string
}

// WarehouseStorage 是入仓协作方创建的保管记录。
type WarehouseStorage struct {
	ID       string
	OrderID  string
	UserID   string
	Location string
	StoredAt time.Time
}
