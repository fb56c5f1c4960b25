package domain

import "github.com/shopspring/decimal"

type IngredientCreateRequest struct {
	Name         string                  `json:"name"`
	Type         IngredientType          `json:"type"`
	Unit         string                  `json:"unit"`
	Price        decimal.Decimal         `json:"price"`
	Start        decimal.Decimal         `json:"start"`
	StockMin     decimal.Decimal         `json:"stock_min"`
	Compositions []IngredientComposition `json:"compositions,omitempty"`
}

// IngredientUpdateRequest edits ledger fields directly. Compositions, when
// present, replace the stored list wholesale.
type IngredientUpdateRequest struct {
	Name         *string                  `json:"name,omitempty"`
	Unit         *string                  `json:"unit,omitempty"`
	Price        *decimal.Decimal         `json:"price,omitempty"`
	Start        *decimal.Decimal         `json:"start,omitempty"`
	StockIn      *decimal.Decimal         `json:"stock_in,omitempty"`
	Used         *decimal.Decimal         `json:"used,omitempty"`
	Wasted       *decimal.Decimal         `json:"wasted,omitempty"`
	StockMin     *decimal.Decimal         `json:"stock_min,omitempty"`
	IsActive     *bool                    `json:"is_active,omitempty"`
	Compositions *[]IngredientComposition `json:"compositions,omitempty"`
}

type RestockRequest struct {
	Quantity   decimal.Decimal `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Note       string          `json:"note,omitempty"`
}

type StockQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Note     string          `json:"note,omitempty"`
}

type MenuCreateRequest struct {
	Name        string           `json:"name"`
	Category    string           `json:"category"`
	Price       int64            `json:"price"`
	HargaBakul  int64            `json:"harga_bakul"`
	Ingredients []MenuIngredient `json:"ingredients"`
	ModifierIDs []string         `json:"modifier_ids,omitempty"`
	DiscountIDs []string         `json:"discount_ids,omitempty"`
}

type MenuUpdateRequest struct {
	Name        *string           `json:"name,omitempty"`
	Category    *string           `json:"category,omitempty"`
	Price       *int64            `json:"price,omitempty"`
	HargaBakul  *int64            `json:"harga_bakul,omitempty"`
	IsActive    *bool             `json:"is_active,omitempty"`
	Ingredients *[]MenuIngredient `json:"ingredients,omitempty"`
	ModifierIDs *[]string         `json:"modifier_ids,omitempty"`
	DiscountIDs *[]string         `json:"discount_ids,omitempty"`
}

type BundleCreateRequest struct {
	Name        string       `json:"name"`
	BundlePrice int64        `json:"bundle_price"`
	Menus       []BundleMenu `json:"menus"`
}

type ModifierCategoryCreateRequest struct {
	Name string `json:"name"`
}

type ModifierCreateRequest struct {
	CategoryID  string               `json:"category_id"`
	Name        string               `json:"name"`
	Price       int64                `json:"price"`
	Ingredients []ModifierIngredient `json:"ingredients"`
}

type DiscountCreateRequest struct {
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Value decimal.Decimal `json:"value"`
	Scope string          `json:"scope"`
}

type RateCreateRequest struct {
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

type ToggleRequest struct {
	IsActive bool `json:"is_active"`
}

type OrderItemRequest struct {
	MenuID      string   `json:"menu_id,omitempty"`
	BundleID    string   `json:"bundle_id,omitempty"`
	Quantity    int      `json:"quantity"`
	ModifierIDs []string `json:"modifier_ids,omitempty"`
	Note        string   `json:"note,omitempty"`
}

type OrderCreateRequest struct {
	TableNumber   string             `json:"table_number"`
	CustomerName  string             `json:"customer_name,omitempty"`
	PaymentMethod string             `json:"payment_method"`
	PaymentID     string             `json:"payment_id,omitempty"`
	DiscountID    string             `json:"discount_id,omitempty"`
	Items         []OrderItemRequest `json:"items"`
}

type CompleteOrderRequest struct {
	OrderID       string `json:"orderId"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	PaymentID     string `json:"paymentId,omitempty"`
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
