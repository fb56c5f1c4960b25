package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"kafe/backend/internal/completion"
	"kafe/backend/internal/domain"
	"kafe/backend/internal/ledger"
	"kafe/backend/internal/store"
	"kafe/backend/internal/xid"
)

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(order.Items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", store.ErrInvalidInput)
	}
	if order.ID == "" {
		order.ID = xid.New("ord")
	}
	if _, exists := s.orders[order.ID]; exists {
		return nil, fmt.Errorf("%w: order %s already exists", store.ErrInvalidInput, order.ID)
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = xid.New("oi")
		}
	}
	order.Status = domain.OrderStatusOpen
	order.CompletedAt = nil
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	s.orders[order.ID] = cloneOrder(order)
	out := cloneOrder(order)
	return &out, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneOrder(order)
	return &out, nil
}

func (s *Store) ListOrders(_ context.Context, status string, limit int) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if status != "" && order.Status != status {
			continue
		}
		result = append(result, cloneOrder(order))
	}
	slices.SortFunc(result, func(a, b domain.Order) int {
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

// CompleteOrder runs the whole completion under the write lock. Every change
// is planned on copies first so a failure leaves the store untouched.
func (s *Store) CompleteOrder(_ context.Context, input store.CompleteOrderInput) (*domain.CompletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[input.OrderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	plan, err := completion.Build(order, completion.Catalog{
		Menus:     s.menus,
		Bundles:   s.bundles,
		Modifiers: s.modifiers,
	})
	if err != nil {
		return nil, err
	}

	touched := plan.Consumption.IDs()
	updated := make(map[string]domain.Ingredient, len(touched))
	consumed := make([]domain.IngredientUsage, 0, len(touched))
	warnings := make([]string, 0)
	for _, id := range touched {
		current, ok := s.ingredients[id]
		if !ok {
			return nil, fmt.Errorf("%w: ingredient %s is missing", store.ErrInvalidInput, id)
		}
		next := cloneIngredient(current)
		negative, err := ledger.ApplyConsumption(&next, plan.Consumption[id])
		if err != nil {
			return nil, err
		}
		if negative {
			warnings = append(warnings, completion.NegativeStockWarning(next))
		}
		updated[id] = next
		consumed = append(consumed, domain.IngredientUsage{
			IngredientID: id,
			Name:         next.Name,
			Unit:         next.Unit,
			Quantity:     plan.Consumption[id],
			StockAfter:   next.Stock,
		})
	}

	if input.CompletedAt.IsZero() {
		input.CompletedAt = time.Now().UTC()
	}
	now := input.CompletedAt
	snapshot := completion.Snapshot(order, plan, input)

	for _, id := range touched {
		next := updated[id]
		next.UpdatedAt = now
		s.ingredients[id] = next
		s.appendMovementLocked(id, domain.MovementConsumption, plan.Consumption[id], order.ID, "order completion", now)
	}
	availability := s.recomputeMenusLocked(touched, now)

	order = cloneOrder(order)
	order.Status = domain.OrderStatusCompleted
	order.PaymentMethod = snapshot.PaymentMethod
	order.PaymentID = snapshot.PaymentID
	order.CompletedAt = &now
	s.orders[order.ID] = order

	s.completed[snapshot.ID] = cloneCompleted(snapshot)
	s.completedByTime = append(s.completedByTime, snapshot.ID)

	return &domain.CompletionResult{
		CompletedOrder: snapshot,
		Consumed:       consumed,
		Availability:   availability,
		Warnings:       warnings,
	}, nil
}

func (s *Store) GetCompletedOrder(_ context.Context, id string) (*domain.CompletedOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	completed, ok := s.completed[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneCompleted(completed)
	return &out, nil
}

func (s *Store) ListCompletedOrders(_ context.Context, from time.Time, to time.Time) ([]domain.CompletedOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CompletedOrder, 0, len(s.completedByTime))
	for _, id := range s.completedByTime {
		completed := s.completed[id]
		if completed.CreatedAt.Before(from) || !completed.CreatedAt.Before(to) {
			continue
		}
		result = append(result, cloneCompleted(completed))
	}
	slices.SortStableFunc(result, func(a, b domain.CompletedOrder) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result, nil
}
