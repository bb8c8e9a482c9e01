// internal/service/fulfillment/port/tx.go
package port

import "context"

// TransactionManager 把一段函数包进一个数据库事务。
// fn 返回错误时事务回滚；fn 收到的 ctx 携带事务句柄，
// 仓储实现从 ctx 中取事务，没有事务时退回普通连接。
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
