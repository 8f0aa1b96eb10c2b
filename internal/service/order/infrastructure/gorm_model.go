package infrastructure

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// OrderModel 对应数据库中的 orders 表，只映射巡检需要的列
type OrderModel struct {
	ID           int64           `gorm:"primaryKey"`
	Number       string          `gorm:"size:50"`
	Status       int             `gorm:"index:idx_status_order_time,priority:1"`
	UserID       int64           `gorm:"index"`
	OrderTime    time.Time       `gorm:"index:idx_status_order_time,priority:2"`
	CheckoutTime sql.NullTime
	Amount       decimal.Decimal `gorm:"type:decimal(10,2)"`
	CancelReason sql.NullString  `gorm:"size:255"`
	CancelTime   sql.NullTime
}

// TableName 指定 GORM 应该使用的表名
func (OrderModel) TableName() string {
	return "orders"
}
