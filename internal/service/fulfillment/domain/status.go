// internal/service/fulfillment/domain/status.go
package domain

// Status 定义了订单的生命周期状态。
type Status string

const (
	StatusPendingPayment   Status = "PENDING_PAYMENT"   // 下单完成，等待履约流程收款
	StatusPaymentCompleted Status = "PAYMENT_COMPLETED" // 货款已收取
	StatusPreparing        Status = "PREPARING"         // 卖家备货中（直邮订单到此为止）
	StatusInWarehouse      Status = "IN_WAREHOUSE"      // 已入仓保管
	StatusCompleted        Status = "COMPLETED"         // 入仓订单的最终状态
)

// transitions 是合法状态迁移图。严格的 DAG，没有回边。
// 失败不体现在状态上：订单停留在最后一个稳定状态，失败通过通知告知。
var transitions = map[Status][]Status{
	StatusPendingPayment:   {StatusPaymentCompleted},
	StatusPaymentCompleted: {StatusPreparing},
	StatusPreparing:        {StatusInWarehouse},
	StatusInWarehouse:      {StatusCompleted},
	StatusCompleted:        {},
}

// CanTransitionTo 检查从当前状态迁移到 next 是否合法。
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid 检查状态值本身是否在迁移图中。
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}
