// internal/service/cart/domain/cart.go
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrCartItemNotFound    = errors.New("shopping cart item not found")
	ErrCatalogItemNotFound = errors.New("dish or setmeal not found")
	// ErrInvalidCartKey 菜品和套餐必须且只能指定一个
	ErrInvalidCartKey = errors.New("exactly one of dishId and setmealId is required")
)

// Item 是购物车中的一行，同一菜品不同口味各占一行
type Item struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"userId"`
	Name       string          `json:"name"`
	Image      string          `json:"image"`
	DishID     *int64          `json:"dishId"`
	SetmealID  *int64          `json:"setmealId"`
	DishFlavor string          `json:"dishFlavor"`
	Number     int             `json:"number"`
	Amount     decimal.Decimal `json:"amount"` // 单价
	CreateTime time.Time       `json:"createTime"`
}

// Key 标识购物车中的一个商品
type Key struct {
	DishID     *int64 `json:"dishId"`
	SetmealID  *int64 `json:"setmealId"`
	DishFlavor string `json:"dishFlavor"`
}

func (k Key) Validate() error {
	if (k.DishID == nil) == (k.SetmealID == nil) {
		return ErrInvalidCartKey
	}
	return nil
}

// CatalogItem 是菜品或套餐的只读视图
type CatalogItem struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Image string          `json:"image"`
	Price decimal.Decimal `json:"price"`
}

// CartRepository 定义了购物车的持久化接口
type CartRepository interface {
	// FindOne 按用户和商品查找，不存在时返回 ErrCartItemNotFound
	FindOne(ctx context.Context, userID int64, key Key) (*Item, error)
	List(ctx context.Context, userID int64) ([]*Item, error)
	Insert(ctx context.Context, item *Item) error
	// AddNumber 原子地调整数量
	AddNumber(ctx context.Context, id int64, delta int) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}

// Catalog 查询菜品和套餐，不存在时返回 ErrCatalogItemNotFound
type Catalog interface {
	Dish(ctx context.Context, id int64) (*CatalogItem, error)
	Setmeal(ctx context.Context, id int64) (*CatalogItem, error)
}
