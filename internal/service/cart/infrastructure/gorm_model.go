package infrastructure

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// ShoppingCartModel 对应数据库中的 shopping_cart 表
type ShoppingCartModel struct {
	ID         int64 `gorm:"primaryKey"`
	Name       string
	Image      string
	UserID     int64 `gorm:"index"`
	DishID     sql.NullInt64
	SetmealID  sql.NullInt64
	DishFlavor sql.NullString
	Number     int
	Amount     decimal.Decimal `gorm:"type:decimal(10,2)"`
	CreateTime time.Time
}

// TableName 指定 GORM 应该使用的表名
func (ShoppingCartModel) TableName() string {
	return "shopping_cart"
}

// DishModel 对应 dish 表，只读
type DishModel struct {
	ID     int64 `gorm:"primaryKey"`
	Name   string
	Image  string
	Price  decimal.Decimal `gorm:"type:decimal(10,2)"`
	Status int
}

func (DishModel) TableName() string {
	return "dish"
}

// SetmealModel 对应 setmeal 表，只读
type SetmealModel struct {
	ID     int64 `gorm:"primaryKey"`
	Name   string
	Image  string
	Price  decimal.Decimal `gorm:"type:decimal(10,2)"`
	Status int
}

func (SetmealModel) TableName() string {
	return "setmeal"
}
