package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"kafe/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderCompleted    = errors.New("pesanan sudah selesai")
	ErrConflict          = errors.New("concurrent update conflict, retry")
)

// CompleteOrderInput carries the optional payment override applied when the
// order is moved to completed history.
type CompleteOrderInput struct {
	OrderID       string
	PaymentMethod string
	PaymentID     string
	CompletedAt   time.Time
}

type Repository interface {
	ListIngredients(ctx context.Context) ([]domain.Ingredient, error)
	GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error)
	CreateIngredient(ctx context.Context, ingredient domain.Ingredient) (*domain.Ingredient, error)
	UpdateIngredient(ctx context.Context, id string, req domain.IngredientUpdateRequest) (*domain.IngredientChange, error)
	RestockIngredient(ctx context.Context, id string, qty decimal.Decimal, totalPrice decimal.Decimal, note string) (*domain.IngredientChange, error)
	RecordWaste(ctx context.Context, id string, qty decimal.Decimal, note string) (*domain.IngredientChange, error)
	ProduceSemiFinished(ctx context.Context, id string, qty decimal.Decimal, note string) (*domain.IngredientChange, error)
	ListGudang(ctx context.Context) ([]domain.Gudang, error)
	ListStockMovements(ctx context.Context, ingredientID string, limit int) ([]domain.StockMovement, error)

	ListMenus(ctx context.Context) ([]domain.Menu, error)
	GetMenu(ctx context.Context, id string) (*domain.Menu, error)
	CreateMenu(ctx context.Context, menu domain.Menu) (*domain.Menu, error)
	UpdateMenu(ctx context.Context, menu domain.Menu) (*domain.Menu, error)

	ListBundles(ctx context.Context) ([]domain.Bundle, error)
	GetBundle(ctx context.Context, id string) (*domain.Bundle, error)
	CreateBundle(ctx context.Context, bundle domain.Bundle) (*domain.Bundle, error)

	ListModifierCategories(ctx context.Context) ([]domain.ModifierCategory, error)
	CreateModifierCategory(ctx context.Context, category domain.ModifierCategory) (*domain.ModifierCategory, error)
	ListModifiers(ctx context.Context) ([]domain.Modifier, error)
	CreateModifier(ctx context.Context, modifier domain.Modifier) (*domain.Modifier, error)

	ListDiscounts(ctx context.Context) ([]domain.Discount, error)
	CreateDiscount(ctx context.Context, discount domain.Discount) (*domain.Discount, error)
	SetDiscountActive(ctx context.Context, id string, active bool) (*domain.Discount, error)
	ListTaxes(ctx context.Context) ([]domain.Tax, error)
	CreateTax(ctx context.Context, tax domain.Tax) (*domain.Tax, error)
	SetTaxActive(ctx context.Context, id string, active bool) (*domain.Tax, error)
	ListGratuities(ctx context.Context) ([]domain.Gratuity, error)
	CreateGratuity(ctx context.Context, gratuity domain.Gratuity) (*domain.Gratuity, error)
	SetGratuityActive(ctx context.Context, id string, active bool) (*domain.Gratuity, error)

	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, status string, limit int) ([]domain.Order, error)
	CompleteOrder(ctx context.Context, input CompleteOrderInput) (*domain.CompletionResult, error)
	GetCompletedOrder(ctx context.Context, id string) (*domain.CompletedOrder, error)
	ListCompletedOrders(ctx context.Context, from time.Time, to time.Time) ([]domain.CompletedOrder, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
