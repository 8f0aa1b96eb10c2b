package infrastructure

import (
	"testing"
	"time"

	"sky-takeout/internal/service/cart/domain"

	"github.com/shopspring/decimal"
)

func TestItemMapping_KeepsOptionalIDs(t *testing.T) {
	dishID := int64(3)
	item := &domain.Item{
		ID:         1,
		UserID:     7,
		Name:       "水煮鱼",
		DishID:     &dishID,
		Number:     2,
		Amount:     decimal.RequireFromString("48.00"),
		CreateTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	model := FromDomainItem(item)
	if !model.DishID.Valid || model.SetmealID.Valid || model.DishFlavor.Valid {
		t.Errorf("unexpected nullable columns %+v", model)
	}

	back := ToDomainItem(model)
	if back.DishID == nil || *back.DishID != 3 || back.SetmealID != nil {
		t.Errorf("unexpected ids %+v", back)
	}
	if back.Number != 2 || !back.Amount.Equal(item.Amount) || back.Name != item.Name {
		t.Errorf("round trip changed item: %+v", back)
	}
}
