package infrastructure

import (
	"database/sql"

	"sky-takeout/internal/service/cart/domain"
)

// ToDomainItem 将数据库模型转换为领域模型
func ToDomainItem(model *ShoppingCartModel) *domain.Item {
	if model == nil {
		return nil
	}
	return &domain.Item{
		ID:         model.ID,
		UserID:     model.UserID,
		Name:       model.Name,
		Image:      model.Image,
		DishID:     nullInt64Ptr(model.DishID),
		SetmealID:  nullInt64Ptr(model.SetmealID),
		DishFlavor: model.DishFlavor.String,
		Number:     model.Number,
		Amount:     model.Amount,
		CreateTime: model.CreateTime,
	}
}

// FromDomainItem 将领域模型转换为数据库模型 (用于插入)
func FromDomainItem(item *domain.Item) *ShoppingCartModel {
	if item == nil {
		return nil
	}
	return &ShoppingCartModel{
		ID:         item.ID,
		Name:       item.Name,
		Image:      item.Image,
		UserID:     item.UserID,
		DishID:     int64PtrNull(item.DishID),
		SetmealID:  int64PtrNull(item.SetmealID),
		DishFlavor: sql.NullString{String: item.DishFlavor, Valid: item.DishFlavor != ""},
		Number:     item.Number,
		Amount:     item.Amount,
		CreateTime: item.CreateTime,
	}
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func int64PtrNull(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
