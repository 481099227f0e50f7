package odata

import (
	"bytes"
	"context"
	"errors"
	"testing"

	noopmetric "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Product struct {
	ID    uint    `gorm:"primarykey"`
	Name  string
	Price float64
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&Product{}); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	products := []Product{
		{Name: "Laptop", Price: 999},
		{Name: "Mouse", Price: 25},
		{Name: "Keyboard", Price: 75},
		{Name: "Monitor", Price: 300},
	}
	if err := db.Create(&products).Error; err != nil {
		t.Fatalf("Failed to seed database: %v", err)
	}
	return db
}

func TestParser_ApplyGORM(t *testing.T) {
	db := setupTestDB(t)
	var buf bytes.Buffer
	p := newTestParser(&buf, WithObservability(ObservabilityConfig{
		TracerProvider:          tracenoop.NewTracerProvider(),
		MeterProvider:           noopmetric.NewMeterProvider(),
		EnableDetailedDBTracing: true,
	}))
	if err := p.InstrumentDB(db); err != nil {
		t.Fatalf("InstrumentDB failed: %v", err)
	}
	ctx := context.Background()

	opts, err := p.ParseQueryString(ctx, "$filter=Price gt 50&$orderby=Price desc&$top=2&$count=true")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	scoped, err := p.ApplyGORM(ctx, db.Model(&Product{}), opts, nil, ApplyOptions{})
	if err != nil {
		t.Fatalf("ApplyGORM failed: %v", err)
	}
	var products []Product
	if err := scoped.Find(&products).Error; err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(products) != 2 || products[0].Name != "Laptop" || products[1].Name != "Monitor" {
		t.Errorf("Unexpected products %+v", products)
	}

	counting, err := p.ApplyGORM(ctx, db.Model(&Product{}), opts.WithoutPagination(), nil, ApplyOptions{})
	if err != nil {
		t.Fatalf("ApplyGORM failed: %v", err)
	}
	var count int64
	if err := counting.Count(&count).Error; err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}
}

func TestParser_ApplyGORMError(t *testing.T) {
	db := setupTestDB(t)
	var buf bytes.Buffer
	p := newTestParser(&buf)

	opts, err := p.ParseQueryString(context.Background(), "$filter=Tags has 'x'")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	_, err = p.ApplyGORM(context.Background(), db.Model(&Product{}), opts, nil, ApplyOptions{})
	if !errors.Is(err, ErrOperatorNotSupported) {
		t.Fatalf("Expected operator not supported, got %v", err)
	}
	if qerr, _ := AsError(err); qerr.Option != "$filter" {
		t.Errorf("Option = %q, want $filter", qerr.Option)
	}
}

func TestParser_ApplyGORMNilDB(t *testing.T) {
	var buf bytes.Buffer
	p := newTestParser(&buf)

	opts, err := p.ParseQueryString(context.Background(), "$top=1")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	out, err := p.ApplyGORM(context.Background(), nil, opts, nil, ApplyOptions{})
	if !errors.Is(err, ErrNilDB) {
		t.Fatalf("Expected ErrNilDB, got %v", err)
	}
	if out != nil {
		t.Error("Expected no query")
	}
	if status := MapErrorToHTTPStatus(err); status != 500 {
		t.Errorf("Expected 500, got %d", status)
	}
}

func TestParser_MongoFind(t *testing.T) {
	var buf bytes.Buffer
	p := newTestParser(&buf)
	ctx := context.Background()

	opts, err := p.ParseQueryString(ctx, "$filter=Price lt 100&$skip=1&$orderby=Name")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	filter, find, err := p.MongoFind(ctx, opts, nil, nil)
	if err != nil {
		t.Fatalf("MongoFind failed: %v", err)
	}
	if filter["Price"] == nil {
		t.Errorf("Unexpected filter %v", filter)
	}
	if find.Skip == nil || *find.Skip != 1 {
		t.Errorf("Unexpected skip %v", find.Skip)
	}
}
