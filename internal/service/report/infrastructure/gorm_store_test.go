package infrastructure

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sky-takeout/internal/pkg/database"
	orderdomain "sky-takeout/internal/service/order/domain"
)

// 需要设置 REPORT_TEST_MYSQL_DSN 指向一个可丢弃的库
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("REPORT_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("REPORT_TEST_MYSQL_DSN not set, skipping mysql integration test")
	}
	db, err := database.OpenMySQL(database.Options{DSN: dsn})
	if err != nil {
		t.Skipf("mysql not available: %v", err)
	}
	if err := db.AutoMigrate(&orderRow{}, &UserModel{}, &OrderDetailModel{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM order_detail")
		db.Exec("DELETE FROM orders")
		db.Exec("DELETE FROM user")
	})
	return db
}

func TestGormStore_Aggregates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local)
	completed := int(orderdomain.StatusCompleted)

	orders := []orderRow{
		{ID: 1, Status: completed, OrderTime: day.Add(10 * time.Hour), Amount: decimal.RequireFromString("30.50")},
		{ID: 2, Status: int(orderdomain.StatusCancelled), OrderTime: day.Add(11 * time.Hour), Amount: decimal.NewFromInt(20)},
		{ID: 3, Status: completed, OrderTime: day.AddDate(0, 0, 1), Amount: decimal.NewFromInt(99)},
	}
	if err := db.Create(&orders).Error; err != nil {
		t.Fatalf("seed orders: %v", err)
	}
	details := []OrderDetailModel{
		{ID: 1, Name: "米饭", OrderID: 1, Number: 2},
		{ID: 2, Name: "宫保鸡丁", OrderID: 1, Number: 1},
		{ID: 3, Name: "米饭", OrderID: 2, Number: 5},
	}
	if err := db.Create(&details).Error; err != nil {
		t.Fatalf("seed details: %v", err)
	}
	if err := db.Create(&[]UserModel{{ID: 1, CreateTime: day.Add(-time.Hour)}, {ID: 2, CreateTime: day.Add(time.Hour)}}).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}

	store := NewGormStore(db)
	end := day.AddDate(0, 0, 1)

	sum, err := store.Turnover(ctx, day, end)
	if err != nil || !sum.Equal(decimal.RequireFromString("30.5")) {
		t.Errorf("Turnover = %s, %v", sum, err)
	}
	if empty, err := store.Turnover(ctx, day.AddDate(0, 0, 5), day.AddDate(0, 0, 6)); err != nil || !empty.IsZero() {
		t.Errorf("expected zero turnover for empty day, got %s, %v", empty, err)
	}
	if n, err := store.CountOrders(ctx, day, end, false); err != nil || n != 2 {
		t.Errorf("CountOrders(all) = %d, %v", n, err)
	}
	if n, err := store.CountOrders(ctx, day, end, true); err != nil || n != 1 {
		t.Errorf("CountOrders(valid) = %d, %v", n, err)
	}
	if n, err := store.CountUsers(ctx, time.Time{}, end); err != nil || n != 2 {
		t.Errorf("CountUsers(total) = %d, %v", n, err)
	}
	if n, err := store.CountUsers(ctx, day, end); err != nil || n != 1 {
		t.Errorf("CountUsers(new) = %d, %v", n, err)
	}

	sales, err := store.SalesTop(ctx, day, end, 10)
	if err != nil {
		t.Fatalf("SalesTop: %v", err)
	}
	if len(sales) != 2 || sales[0].Name != "米饭" || sales[0].Number != 2 {
		t.Errorf("unexpected sales %+v", sales)
	}
}
