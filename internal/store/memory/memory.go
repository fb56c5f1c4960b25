package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/ledger"
	"kafe/backend/internal/recipe"
	"kafe/backend/internal/store"
	"kafe/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	ingredients     map[string]domain.Ingredient
	gudang          map[string]domain.Gudang
	movements       []domain.StockMovement
	menus           map[string]domain.Menu
	bundles         map[string]domain.Bundle
	categories      map[string]domain.ModifierCategory
	modifiers       map[string]domain.Modifier
	discounts       map[string]domain.Discount
	taxes           map[string]domain.Tax
	gratuities      map[string]domain.Gratuity
	orders          map[string]domain.Order
	completed       map[string]domain.CompletedOrder
	completedByTime []string
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD;
// when unset the dev defaults are used and a warning is printed.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// New returns a store with seeded users and an empty catalog.
func New() *Store {
	return &Store{
		ingredients:     make(map[string]domain.Ingredient),
		gudang:          make(map[string]domain.Gudang),
		movements:       make([]domain.StockMovement, 0, 128),
		menus:           make(map[string]domain.Menu),
		bundles:         make(map[string]domain.Bundle),
		categories:      make(map[string]domain.ModifierCategory),
		modifiers:       make(map[string]domain.Modifier),
		discounts:       make(map[string]domain.Discount),
		taxes:           make(map[string]domain.Tax),
		gratuities:      make(map[string]domain.Gratuity),
		orders:          make(map[string]domain.Order),
		completed:       make(map[string]domain.CompletedOrder),
		completedByTime: make([]string, 0, 64),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: seedUsers(),
	}
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// NewSeeded returns a store with a small demo café catalog.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	ingredients := []domain.Ingredient{
		{ID: "ing-susu", Name: "Susu Segar", Type: domain.IngredientRaw, Unit: "ml", Price: dec("20"), Start: dec("1000"), StockMin: dec("400")},
		{ID: "ing-kopi", Name: "Biji Kopi", Type: domain.IngredientRaw, Unit: "gram", Price: dec("250"), Start: dec("500"), StockMin: dec("100")},
		{ID: "ing-gula", Name: "Gula Aren", Type: domain.IngredientRaw, Unit: "gram", Price: dec("30"), Start: dec("1000"), StockMin: dec("200")},
		{ID: "ing-air", Name: "Air Mineral", Type: domain.IngredientRaw, Unit: "ml", Price: dec("1"), Start: dec("5000"), StockMin: dec("1000")},
		{ID: "ing-cokelat", Name: "Cokelat Batang", Type: domain.IngredientRaw, Unit: "gram", Price: dec("120"), Start: dec("500"), StockMin: dec("100")},
		{
			ID: "ing-sirup-aren", Name: "Sirup Gula Aren", Type: domain.IngredientSemiFinished, Unit: "ml",
			Price: dec("15.5"), Start: dec("300"), StockMin: dec("50"),
			Compositions: []domain.IngredientComposition{
				{RawIngredientID: "ing-gula", Amount: dec("0.5")},
				{RawIngredientID: "ing-air", Amount: dec("0.5")},
			},
		},
	}
	for _, ing := range ingredients {
		ing.IsActive = true
		ing.CreatedAt = now
		ing.UpdatedAt = now
		ledger.Recompute(&ing)
		s.ingredients[ing.ID] = ing
		g := domain.Gudang{IngredientID: ing.ID, Start: ing.Start, UpdatedAt: now}
		ledger.RecomputeGudang(&g)
		s.gudang[ing.ID] = g
	}

	s.categories["modcat-extra"] = domain.ModifierCategory{ID: "modcat-extra", Name: "Extra", CreatedAt: now}
	s.modifiers["mod-extra-shot"] = domain.Modifier{
		ID: "mod-extra-shot", CategoryID: "modcat-extra", Name: "Extra Shot", Price: 5000, IsActive: true, CreatedAt: now,
		Ingredients: []domain.ModifierIngredient{{IngredientID: "ing-kopi", Amount: dec("18")}},
	}
	s.modifiers["mod-less-sugar"] = domain.Modifier{
		ID: "mod-less-sugar", CategoryID: "modcat-extra", Name: "Less Sugar", Price: 0, IsActive: true, CreatedAt: now,
	}

	menus := []domain.Menu{
		{
			ID: "menu-latte", Name: "Latte", Category: "Coffee", Price: 20000, HargaBakul: 8000,
			Ingredients: []domain.MenuIngredient{{IngredientID: "ing-susu", Amount: dec("200")}, {IngredientID: "ing-kopi", Amount: dec("18")}},
			ModifierIDs: []string{"mod-extra-shot", "mod-less-sugar"},
		},
		{
			ID: "menu-espresso", Name: "Espresso", Category: "Coffee", Price: 15000, HargaBakul: 5000,
			Ingredients: []domain.MenuIngredient{{IngredientID: "ing-kopi", Amount: dec("18")}},
			ModifierIDs: []string{"mod-extra-shot"},
		},
		{
			ID: "menu-kopi-aren", Name: "Es Kopi Susu Aren", Category: "Coffee", Price: 22000, HargaBakul: 9000,
			Ingredients: []domain.MenuIngredient{
				{IngredientID: "ing-susu", Amount: dec("150")},
				{IngredientID: "ing-kopi", Amount: dec("18")},
				{IngredientID: "ing-sirup-aren", Amount: dec("20")},
			},
			ModifierIDs: []string{"mod-extra-shot", "mod-less-sugar"},
		},
		{
			ID: "menu-brownie", Name: "Brownie", Category: "Pastry", Price: 15000, HargaBakul: 6000,
			Ingredients: []domain.MenuIngredient{{IngredientID: "ing-cokelat", Amount: dec("50")}},
		},
	}
	stock := s.stockIndexLocked()
	for _, menu := range menus {
		menu.IsActive = true
		menu.CreatedAt = now
		menu.UpdatedAt = now
		menu.MaxBeli = recipe.MaxBeli(recipe.MenuLines(menu), stock)
		menu.Status = recipe.StatusFor(menu.MaxBeli)
		s.menus[menu.ID] = menu
	}

	s.bundles["bundle-hemat"] = domain.Bundle{
		ID: "bundle-hemat", Name: "Paket Hemat", BundlePrice: 30000, IsActive: true, CreatedAt: now,
		Menus: []domain.BundleMenu{{MenuID: "menu-latte", Quantity: 1}, {MenuID: "menu-brownie", Quantity: 1}},
	}

	s.discounts["disc-member"] = domain.Discount{ID: "disc-member", Name: "Member 10%", Type: domain.DiscountTypeRate, Value: dec("10"), Scope: domain.DiscountScopeTotal, IsActive: true, CreatedAt: now}
	s.taxes["tax-pb1"] = domain.Tax{ID: "tax-pb1", Name: "PB1", Rate: dec("10"), IsActive: true, CreatedAt: now}
	s.gratuities["grat-service"] = domain.Gratuity{ID: "grat-service", Name: "Service", Rate: dec("5"), IsActive: false, CreatedAt: now}

	return s
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidInput
	}
	user.Username = username
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cloneIngredient(src domain.Ingredient) domain.Ingredient {
	dst := src
	dst.Compositions = slices.Clone(src.Compositions)
	return dst
}

func cloneMenu(src domain.Menu) domain.Menu {
	dst := src
	dst.Ingredients = slices.Clone(src.Ingredients)
	dst.ModifierIDs = slices.Clone(src.ModifierIDs)
	dst.DiscountIDs = slices.Clone(src.DiscountIDs)
	return dst
}

func cloneBundle(src domain.Bundle) domain.Bundle {
	dst := src
	dst.Menus = slices.Clone(src.Menus)
	return dst
}

func cloneModifier(src domain.Modifier) domain.Modifier {
	dst := src
	dst.Ingredients = slices.Clone(src.Ingredients)
	return dst
}

func cloneOrder(src domain.Order) domain.Order {
	dst := src
	dst.Items = make([]domain.OrderItem, len(src.Items))
	for i, item := range src.Items {
		item.Modifiers = slices.Clone(item.Modifiers)
		dst.Items[i] = item
	}
	if src.CompletedAt != nil {
		at := *src.CompletedAt
		dst.CompletedAt = &at
	}
	return dst
}

func cloneCompleted(src domain.CompletedOrder) domain.CompletedOrder {
	dst := src
	dst.Items = make([]domain.CompletedOrderItem, len(src.Items))
	for i, item := range src.Items {
		item.Modifiers = slices.Clone(item.Modifiers)
		dst.Items[i] = item
	}
	return dst
}
