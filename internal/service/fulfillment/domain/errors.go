// internal/service/fulfillment/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// 履约流程的错误分类学。
// 消费侧只关心一个问题：这个错误值不值得重试。
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrNotOrderOwner     = errors.New("requesting user is not the order owner")
	ErrIllegalTransition = errors.New("illegal order status transition")
	// 同一轮履约中，payment/shipment/storage 引用只允许赋值一次
	ErrReferenceAssigned = errors.New("fulfillment reference already assigned")
)

// PaymentError 表示支付网关返回了非成功结果。默认可重试。
type PaymentError struct {
	Reason string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment capture failed: %s", e.Reason)
}

// Outcome 是失败分类的结果，计算一次后由调用方统一执行。
type Outcome int

const (
	OutcomeRetryable Outcome = iota
	OutcomeTerminal
)

func (o Outcome) String() string {
	if o == OutcomeTerminal {
		return "TERMINAL"
	}
	return "RETRYABLE"
}

// Classify 把一个错误映射到 Retryable/Terminal。
// 业务上不可能自愈的错误（找不到、越权、非法迁移）是终态；
// 支付失败和其余一切基础设施错误默认可重试——重试次数的上限由调用方把关。
func Classify(err error) Outcome {
	switch {
	case errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrNotOrderOwner),
		errors.Is(err, ErrIllegalTransition),
		errors.Is(err, ErrReferenceAssigned):
		return OutcomeTerminal
	default:
		return OutcomeRetryable
	}
}
