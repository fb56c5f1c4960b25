package postgres

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// stringList is a string slice stored as a JSON array.
type stringList []string

func (l *stringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan stringList: unsupported type %T", value)
	}
	return json.Unmarshal(raw, (*[]string)(l))
}

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	payload, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

type ingredientModel struct {
	ID         string          `gorm:"primaryKey"`
	Name       string          `gorm:"not null"`
	Type       string          `gorm:"not null"`
	Unit       string          `gorm:"not null;default:''"`
	Price      decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	StartStock decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	StockIn    decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	Used       decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	Wasted     decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	Stock      decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	StockMin   decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	IsActive   bool            `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ingredientModel) TableName() string { return "ingredients" }

type ingredientCompositionModel struct {
	SemiFinishedID  string          `gorm:"primaryKey"`
	RawIngredientID string          `gorm:"primaryKey"`
	Amount          decimal.Decimal `gorm:"type:numeric(18,4);not null"`
}

func (ingredientCompositionModel) TableName() string { return "ingredient_compositions" }

type gudangModel struct {
	IngredientID string          `gorm:"primaryKey"`
	StartStock   decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	StockIn      decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	Used         decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	Wasted       decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	Stock        decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	UpdatedAt    time.Time
}

func (gudangModel) TableName() string { return "gudang" }

type stockMovementModel struct {
	ID           string          `gorm:"primaryKey"`
	IngredientID string          `gorm:"index;not null"`
	Kind         string          `gorm:"not null"`
	Quantity     decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	RefID        string          `gorm:"index;not null;default:''"`
	Note         string          `gorm:"not null;default:''"`
	CreatedAt    time.Time       `gorm:"index"`
}

func (stockMovementModel) TableName() string { return "stock_movements" }

type menuModel struct {
	ID          string     `gorm:"primaryKey"`
	Name        string     `gorm:"not null"`
	Category    string     `gorm:"not null;default:''"`
	Price       int64      `gorm:"not null"`
	HargaBakul  int64      `gorm:"not null;default:0"`
	Status      string     `gorm:"not null"`
	MaxBeli     int64      `gorm:"not null;default:0"`
	IsActive    bool       `gorm:"not null;default:true"`
	ModifierIDs stringList `gorm:"type:jsonb;not null;default:'[]'"`
	DiscountIDs stringList `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (menuModel) TableName() string { return "menus" }

type menuIngredientModel struct {
	MenuID       string          `gorm:"primaryKey"`
	IngredientID string          `gorm:"primaryKey;index"`
	Amount       decimal.Decimal `gorm:"type:numeric(18,4);not null"`
}

func (menuIngredientModel) TableName() string { return "menu_ingredients" }

type bundleModel struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	BundlePrice int64  `gorm:"not null"`
	IsActive    bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
}

func (bundleModel) TableName() string { return "bundles" }

type bundleMenuModel struct {
	BundleID string `gorm:"primaryKey"`
	MenuID   string `gorm:"primaryKey"`
	Position int    `gorm:"not null;default:0"`
	Quantity int    `gorm:"not null"`
}

func (bundleMenuModel) TableName() string { return "bundle_menus" }

type modifierCategoryModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	CreatedAt time.Time
}

func (modifierCategoryModel) TableName() string { return "modifier_categories" }

type modifierModel struct {
	ID         string `gorm:"primaryKey"`
	CategoryID string `gorm:"index;not null"`
	Name       string `gorm:"not null"`
	Price      int64  `gorm:"not null;default:0"`
	IsActive   bool   `gorm:"not null;default:true"`
	CreatedAt  time.Time
}

func (modifierModel) TableName() string { return "modifiers" }

type modifierIngredientModel struct {
	ModifierID   string          `gorm:"primaryKey"`
	IngredientID string          `gorm:"primaryKey"`
	Amount       decimal.Decimal `gorm:"type:numeric(18,4);not null"`
}

func (modifierIngredientModel) TableName() string { return "modifier_ingredients" }

type discountModel struct {
	ID        string          `gorm:"primaryKey"`
	Name      string          `gorm:"not null"`
	Type      string          `gorm:"not null"`
	Value     decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Scope     string          `gorm:"not null"`
	IsActive  bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
}

func (discountModel) TableName() string { return "discounts" }

type taxModel struct {
	ID        string          `gorm:"primaryKey"`
	Name      string          `gorm:"not null"`
	Rate      decimal.Decimal `gorm:"type:numeric(9,4);not null"`
	IsActive  bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
}

func (taxModel) TableName() string { return "taxes" }

type gratuityModel struct {
	ID        string          `gorm:"primaryKey"`
	Name      string          `gorm:"not null"`
	Rate      decimal.Decimal `gorm:"type:numeric(9,4);not null"`
	IsActive  bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
}

func (gratuityModel) TableName() string { return "gratuities" }

type orderModel struct {
	ID             string `gorm:"primaryKey"`
	TableNumber    string `gorm:"not null;default:''"`
	CustomerName   string `gorm:"not null;default:''"`
	Status         string `gorm:"index;not null"`
	PaymentMethod  string `gorm:"not null;default:''"`
	PaymentID      string `gorm:"not null;default:''"`
	DiscountID     string `gorm:"not null;default:''"`
	Total          int64  `gorm:"not null"`
	DiscountAmount int64  `gorm:"not null;default:0"`
	TaxAmount      int64  `gorm:"not null;default:0"`
	GratuityAmount int64  `gorm:"not null;default:0"`
	FinalTotal     int64  `gorm:"not null"`
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

func (orderModel) TableName() string { return "orders" }

type orderItemModel struct {
	ID             string `gorm:"primaryKey"`
	OrderID        string `gorm:"index;not null"`
	Position       int    `gorm:"not null"`
	MenuID         string `gorm:"not null;default:''"`
	BundleID       string `gorm:"not null;default:''"`
	Quantity       int    `gorm:"not null"`
	Price          int64  `gorm:"not null"`
	DiscountAmount int64  `gorm:"not null;default:0"`
	Modifiers      string `gorm:"type:jsonb;not null;default:'[]'"`
	Note           string `gorm:"not null;default:''"`
}

func (orderItemModel) TableName() string { return "order_items" }

type completedOrderModel struct {
	ID             string `gorm:"primaryKey"`
	OrderID        string `gorm:"uniqueIndex;not null"`
	TableNumber    string `gorm:"not null;default:''"`
	CustomerName   string `gorm:"not null;default:''"`
	Total          int64  `gorm:"not null"`
	DiscountID     string `gorm:"not null;default:''"`
	DiscountAmount int64  `gorm:"not null;default:0"`
	TaxAmount      int64  `gorm:"not null;default:0"`
	GratuityAmount int64  `gorm:"not null;default:0"`
	FinalTotal     int64  `gorm:"not null"`
	PaymentMethod  string `gorm:"not null;default:''"`
	PaymentID      string `gorm:"not null;default:''"`
	CreatedAt      time.Time `gorm:"index"`
}

func (completedOrderModel) TableName() string { return "completed_orders" }

type completedOrderItemModel struct {
	ID               string `gorm:"primaryKey"`
	CompletedOrderID string `gorm:"index;not null"`
	Position         int    `gorm:"not null"`
	MenuID           string `gorm:"not null"`
	MenuName         string `gorm:"not null"`
	Category         string `gorm:"not null;default:''"`
	Quantity         int    `gorm:"not null"`
	Price            int64  `gorm:"not null"`
	HargaBakul       int64  `gorm:"not null;default:0"`
	DiscountAmount   int64  `gorm:"not null;default:0"`
	Note             string `gorm:"not null;default:''"`
	BundleID         string `gorm:"index;not null;default:''"`
	BundleName       string `gorm:"not null;default:''"`
	BundlePrice      int64  `gorm:"not null;default:0"`
	BundleMenuQty    int    `gorm:"not null;default:0"`
	Modifiers        string `gorm:"type:jsonb;not null;default:'[]'"`
}

func (completedOrderItemModel) TableName() string { return "completed_order_items" }

type auditLogModel struct {
	ID            string `gorm:"primaryKey"`
	ActorUsername string `gorm:"not null"`
	ActorRole     string `gorm:"not null"`
	Action        string `gorm:"not null"`
	EntityType    string `gorm:"not null"`
	EntityID      string `gorm:"not null"`
	Detail        string `gorm:"not null;default:''"`
	CreatedAt     time.Time `gorm:"index"`
}

func (auditLogModel) TableName() string { return "audit_logs" }

type appUserModel struct {
	Username  string `gorm:"primaryKey"`
	Password  string `gorm:"not null"`
	Role      string `gorm:"not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (appUserModel) TableName() string { return "app_users" }

func models() []any {
	return []any{
		&ingredientModel{},
		&ingredientCompositionModel{},
		&gudangModel{},
		&stockMovementModel{},
		&menuModel{},
		&menuIngredientModel{},
		&bundleModel{},
		&bundleMenuModel{},
		&modifierCategoryModel{},
		&modifierModel{},
		&modifierIngredientModel{},
		&discountModel{},
		&taxModel{},
		&gratuityModel{},
		&orderModel{},
		&orderItemModel{},
		&completedOrderModel{},
		&completedOrderItemModel{},
		&auditLogModel{},
		&appUserModel{},
	}
}

// Migrate creates or updates every table the repository reads and writes.
func Migrate(ctx context.Context, dsn string) error {
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return db.WithContext(ctx).AutoMigrate(models()...)
}
