package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// orderRow 是报表对 orders 表的只读视图
type orderRow struct {
	ID        int64 `gorm:"primaryKey"`
	Status    int
	OrderTime time.Time
	Amount    decimal.Decimal `gorm:"type:decimal(10,2)"`
}

func (orderRow) TableName() string {
	return "orders"
}

// UserModel 对应 user 表，报表只关心注册时间
type UserModel struct {
	ID         int64 `gorm:"primaryKey"`
	Openid     string
	Name       string
	CreateTime time.Time `gorm:"index"`
}

func (UserModel) TableName() string {
	return "user"
}

// OrderDetailModel 对应 order_detail 表
type OrderDetailModel struct {
	ID        int64 `gorm:"primaryKey"`
	Name      string
	OrderID   int64 `gorm:"index"`
	DishID    *int64
	SetmealID *int64
	Number    int
	Amount    decimal.Decimal `gorm:"type:decimal(10,2)"`
}

func (OrderDetailModel) TableName() string {
	return "order_detail"
}
