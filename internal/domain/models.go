package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type IngredientType string

const (
	IngredientRaw          IngredientType = "RAW"
	IngredientSemiFinished IngredientType = "SEMI_FINISHED"
)

type Ingredient struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Type         IngredientType          `json:"type"`
	Unit         string                  `json:"unit"`
	Price        decimal.Decimal         `json:"price"`
	Start        decimal.Decimal         `json:"start"`
	StockIn      decimal.Decimal         `json:"stock_in"`
	Used         decimal.Decimal         `json:"used"`
	Wasted       decimal.Decimal         `json:"wasted"`
	Stock        decimal.Decimal         `json:"stock"`
	StockMin     decimal.Decimal         `json:"stock_min"`
	IsActive     bool                    `json:"is_active"`
	Compositions []IngredientComposition `json:"compositions,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// IngredientComposition is the raw input needed for one unit of a
// semi-finished ingredient.
type IngredientComposition struct {
	RawIngredientID string          `json:"raw_ingredient_id"`
	Amount          decimal.Decimal `json:"amount"`
}

// Gudang is the warehouse-side mirror of an ingredient's stock fields.
type Gudang struct {
	IngredientID string          `json:"ingredient_id"`
	Start        decimal.Decimal `json:"start"`
	StockIn      decimal.Decimal `json:"stock_in"`
	Used         decimal.Decimal `json:"used"`
	Wasted       decimal.Decimal `json:"wasted"`
	Stock        decimal.Decimal `json:"stock"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type MovementKind string

const (
	MovementRestock     MovementKind = "restock"
	MovementConsumption MovementKind = "consumption"
	MovementWaste       MovementKind = "waste"
	MovementProduction  MovementKind = "production"
	MovementAdjustment  MovementKind = "adjustment"
)

type StockMovement struct {
	ID           string          `json:"id"`
	IngredientID string          `json:"ingredient_id"`
	Kind         MovementKind    `json:"kind"`
	Quantity     decimal.Decimal `json:"quantity"`
	RefID        string          `json:"ref_id,omitempty"`
	Note         string          `json:"note,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

const (
	MenuStatusAvailable = "Tersedia"
	MenuStatusSoldOut   = "Habis"
)

type Menu struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Category    string           `json:"category"`
	Price       int64            `json:"price"`
	HargaBakul  int64            `json:"harga_bakul"`
	Status      string           `json:"status"`
	MaxBeli     int64            `json:"max_beli"`
	IsActive    bool             `json:"is_active"`
	Ingredients []MenuIngredient `json:"ingredients"`
	ModifierIDs []string         `json:"modifier_ids,omitempty"`
	DiscountIDs []string         `json:"discount_ids,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type MenuIngredient struct {
	IngredientID string          `json:"ingredient_id"`
	Amount       decimal.Decimal `json:"amount"`
}

type MenuAvailability struct {
	MenuID  string `json:"menu_id"`
	Name    string `json:"name"`
	MaxBeli int64  `json:"max_beli"`
	Status  string `json:"status"`
}

type Bundle struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	BundlePrice int64        `json:"bundle_price"`
	IsActive    bool         `json:"is_active"`
	Menus       []BundleMenu `json:"menus"`
	MaxBeli     int64        `json:"max_beli"`
	HargaBakul  int64        `json:"harga_bakul"`
	CreatedAt   time.Time    `json:"created_at"`
}

type BundleMenu struct {
	MenuID   string `json:"menu_id"`
	Quantity int    `json:"quantity"`
}

type ModifierCategory struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Modifier struct {
	ID          string               `json:"id"`
	CategoryID  string               `json:"category_id"`
	Name        string               `json:"name"`
	Price       int64                `json:"price"`
	IsActive    bool                 `json:"is_active"`
	Ingredients []ModifierIngredient `json:"ingredients"`
	MaxBeli     int64                `json:"max_beli"`
	CreatedAt   time.Time            `json:"created_at"`
}

type ModifierIngredient struct {
	IngredientID string          `json:"ingredient_id"`
	Amount       decimal.Decimal `json:"amount"`
}

const (
	DiscountTypeRate  = "RATE"
	DiscountTypeFixed = "FIXED"

	DiscountScopeMenu  = "MENU"
	DiscountScopeTotal = "TOTAL"
)

type Discount struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Value     decimal.Decimal `json:"value"`
	Scope     string          `json:"scope"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

type Tax struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Rate      decimal.Decimal `json:"rate"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

type Gratuity struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Rate      decimal.Decimal `json:"rate"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

const (
	OrderStatusOpen      = "Open"
	OrderStatusCompleted = "Selesai"
)

type Order struct {
	ID             string      `json:"id"`
	TableNumber    string      `json:"table_number"`
	CustomerName   string      `json:"customer_name,omitempty"`
	Status         string      `json:"status"`
	PaymentMethod  string      `json:"payment_method"`
	PaymentID      string      `json:"payment_id,omitempty"`
	DiscountID     string      `json:"discount_id,omitempty"`
	Total          int64       `json:"total"`
	DiscountAmount int64       `json:"discount_amount"`
	TaxAmount      int64       `json:"tax_amount"`
	GratuityAmount int64       `json:"gratuity_amount"`
	FinalTotal     int64       `json:"final_total"`
	Items          []OrderItem `json:"items"`
	CreatedAt      time.Time   `json:"created_at"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
}

// OrderItem references exactly one of MenuID or BundleID.
type OrderItem struct {
	ID             string              `json:"id"`
	MenuID         string              `json:"menu_id,omitempty"`
	BundleID       string              `json:"bundle_id,omitempty"`
	Quantity       int                 `json:"quantity"`
	Price          int64               `json:"price"`
	DiscountAmount int64               `json:"discount_amount"`
	Modifiers      []OrderItemModifier `json:"modifiers,omitempty"`
	Note           string              `json:"note,omitempty"`
}

type OrderItemModifier struct {
	ModifierID string `json:"modifier_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
}

type CompletedOrder struct {
	ID             string               `json:"id"`
	OrderID        string               `json:"order_id"`
	TableNumber    string               `json:"table_number"`
	CustomerName   string               `json:"customer_name,omitempty"`
	Total          int64                `json:"total"`
	DiscountID     string               `json:"discount_id,omitempty"`
	DiscountAmount int64                `json:"discount_amount"`
	TaxAmount      int64                `json:"tax_amount"`
	GratuityAmount int64                `json:"gratuity_amount"`
	FinalTotal     int64                `json:"final_total"`
	PaymentMethod  string               `json:"payment_method"`
	PaymentID      string               `json:"payment_id,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	Items          []CompletedOrderItem `json:"items"`
}

// CompletedOrderItem is one menu line of a completed order. Bundle purchases
// expand into one row per constituent menu, all sharing BundleID and Quantity.
type CompletedOrderItem struct {
	ID             string              `json:"id"`
	MenuID         string              `json:"menu_id"`
	MenuName       string              `json:"menu_name"`
	Category       string              `json:"category"`
	Quantity       int                 `json:"quantity"`
	Price          int64               `json:"price"`
	HargaBakul     int64               `json:"harga_bakul"`
	DiscountAmount int64               `json:"discount_amount"`
	Note           string              `json:"note,omitempty"`
	BundleID       string              `json:"bundle_id,omitempty"`
	BundleName     string              `json:"bundle_name,omitempty"`
	BundlePrice    int64               `json:"bundle_price,omitempty"`
	BundleMenuQty  int                 `json:"bundle_menu_qty,omitempty"`
	Modifiers      []OrderItemModifier `json:"modifiers,omitempty"`
}

// IngredientUsage is the aggregated consumption of one ingredient by a
// completed order.
type IngredientUsage struct {
	IngredientID string          `json:"ingredient_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	StockAfter   decimal.Decimal `json:"stock_after"`
}

type CompletionResult struct {
	CompletedOrder CompletedOrder     `json:"completed_order"`
	Consumed       []IngredientUsage  `json:"consumed"`
	Availability   []MenuAvailability `json:"availability"`
	Warnings       []string           `json:"warnings,omitempty"`
}

type IngredientChange struct {
	Ingredient   Ingredient         `json:"ingredient"`
	Gudang       *Gudang            `json:"gudang,omitempty"`
	Availability []MenuAvailability `json:"availability"`
	Warnings     []string           `json:"warnings,omitempty"`
}

type LowStockAlert struct {
	IngredientID string          `json:"ingredient_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Stock        decimal.Decimal `json:"stock"`
	StockMin     decimal.Decimal `json:"stock_min"`
	Depleted     bool            `json:"depleted"`
}

type CostLine struct {
	IngredientID string          `json:"ingredient_id"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Cost         decimal.Decimal `json:"cost"`
}

type MenuCost struct {
	MenuID       string     `json:"menu_id"`
	HargaBakul   int64      `json:"harga_bakul"`
	ComputedCost int64      `json:"computed_cost"`
	Lines        []CostLine `json:"lines"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}
