package httpapi

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"kafe/backend/internal/domain"
	"kafe/backend/internal/logger"
	"kafe/backend/internal/metrics"
	"kafe/backend/internal/service"
	"kafe/backend/internal/store"
)

type Options struct {
	AllowedOrigin string
	// LoginRateLimit uses the limiter format, e.g. "5-M" for five per minute.
	LoginRateLimit string
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
}

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *limiter.Limiter
	csrfSecret    []byte
	log           *zap.Logger
	metrics       *metrics.Metrics
}

func New(svc *service.Service, auth *AuthManager, opts Options) (*API, error) {
	if opts.LoginRateLimit == "" {
		opts.LoginRateLimit = "5-M"
	}
	rate, err := limiter.NewRateFromFormatted(opts.LoginRateLimit)
	if err != nil {
		return nil, fmt.Errorf("parse login rate limit: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	csrfSecret := make([]byte, 32)
	if _, err := rand.Read(csrfSecret); err != nil {
		return nil, fmt.Errorf("generate csrf secret: %w", err)
	}
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: opts.AllowedOrigin,
		loginLimiter:  limiter.New(limitermemory.NewStore(), rate),
		csrfSecret:    csrfSecret,
		log:           opts.Logger,
		metrics:       opts.Metrics,
	}, nil
}

// csrfTokenForHour is the hex HMAC of an hour bucket in Unix seconds.
func (a *API) csrfTokenForHour(hourBucket int64) string {
	h := hmac.New(sha256.New, a.csrfSecret)
	fmt.Fprintf(h, "%d", hourBucket)
	return hex.EncodeToString(h.Sum(nil))
}

func (a *API) generateCSRFToken() string {
	return a.csrfTokenForHour(time.Now().UTC().Truncate(time.Hour).Unix())
}

// validateCSRFToken accepts tokens of the current and the previous hour.
func (a *API) validateCSRFToken(token string) bool {
	if token == "" {
		return false
	}
	current := time.Now().UTC().Truncate(time.Hour).Unix()
	return hmac.Equal([]byte(token), []byte(a.csrfTokenForHour(current))) ||
		hmac.Equal([]byte(token), []byte(a.csrfTokenForHour(current-3600)))
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	staff := []string{roleCashier, roleAdmin}

	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.Handle("GET /metrics", a.metrics.Handler())
	mux.HandleFunc("POST /api/v1/auth/login", a.handleLogin)
	mux.HandleFunc("GET /api/v1/auth/csrf-token", a.handleCSRFToken)

	mux.HandleFunc("GET /api/v1/ingredients", a.requireAuth(a.handleListIngredients, staff...))
	mux.HandleFunc("POST /api/v1/ingredients", a.requireAuth(a.handleCreateIngredient, roleAdmin))
	mux.HandleFunc("GET /api/v1/ingredients/{id}", a.requireAuth(a.handleGetIngredient, roleAdmin))
	mux.HandleFunc("PUT /api/v1/ingredients/{id}", a.requireAuth(a.handleUpdateIngredient, roleAdmin))
	mux.HandleFunc("POST /api/v1/ingredients/{id}/restock", a.requireAuth(a.handleRestockIngredient, roleAdmin))
	mux.HandleFunc("POST /api/v1/ingredients/{id}/waste", a.requireAuth(a.handleRecordWaste, roleAdmin))
	mux.HandleFunc("POST /api/v1/ingredients/{id}/produce", a.requireAuth(a.handleProduceSemiFinished, roleAdmin))
	mux.HandleFunc("GET /api/v1/ingredients/{id}/movements", a.requireAuth(a.handleStockMovements, roleAdmin))
	mux.HandleFunc("GET /api/v1/gudang", a.requireAuth(a.handleListGudang, roleAdmin))
	mux.HandleFunc("GET /api/v1/alerts/low-stock", a.requireAuth(a.handleLowStockAlerts, roleAdmin))

	mux.HandleFunc("GET /api/v1/menus", a.requireAuth(a.handleListMenus, staff...))
	mux.HandleFunc("POST /api/v1/menus", a.requireAuth(a.handleCreateMenu, roleAdmin))
	mux.HandleFunc("GET /api/v1/menus/{id}", a.requireAuth(a.handleGetMenu, staff...))
	mux.HandleFunc("PUT /api/v1/menus/{id}", a.requireAuth(a.handleUpdateMenu, roleAdmin))
	mux.HandleFunc("GET /api/v1/menus/{id}/cost", a.requireAuth(a.handleMenuCost, roleAdmin))
	mux.HandleFunc("GET /api/v1/bundles", a.requireAuth(a.handleListBundles, staff...))
	mux.HandleFunc("POST /api/v1/bundles", a.requireAuth(a.handleCreateBundle, roleAdmin))
	mux.HandleFunc("GET /api/v1/modifier-categories", a.requireAuth(a.handleListModifierCategories, staff...))
	mux.HandleFunc("POST /api/v1/modifier-categories", a.requireAuth(a.handleCreateModifierCategory, roleAdmin))
	mux.HandleFunc("GET /api/v1/modifiers", a.requireAuth(a.handleListModifiers, staff...))
	mux.HandleFunc("POST /api/v1/modifiers", a.requireAuth(a.handleCreateModifier, roleAdmin))

	mux.HandleFunc("GET /api/v1/discounts", a.requireAuth(a.handleListDiscounts, staff...))
	mux.HandleFunc("POST /api/v1/discounts", a.requireAuth(a.handleCreateDiscount, roleAdmin))
	mux.HandleFunc("PATCH /api/v1/discounts/{id}", a.requireAuth(a.handleToggleDiscount, roleAdmin))
	mux.HandleFunc("GET /api/v1/taxes", a.requireAuth(a.handleListTaxes, staff...))
	mux.HandleFunc("POST /api/v1/taxes", a.requireAuth(a.handleCreateTax, roleAdmin))
	mux.HandleFunc("PATCH /api/v1/taxes/{id}", a.requireAuth(a.handleToggleTax, roleAdmin))
	mux.HandleFunc("GET /api/v1/gratuities", a.requireAuth(a.handleListGratuities, staff...))
	mux.HandleFunc("POST /api/v1/gratuities", a.requireAuth(a.handleCreateGratuity, roleAdmin))
	mux.HandleFunc("PATCH /api/v1/gratuities/{id}", a.requireAuth(a.handleToggleGratuity, roleAdmin))

	mux.HandleFunc("POST /api/v1/orders", a.requireAuth(a.handleCreateOrder, staff...))
	mux.HandleFunc("GET /api/v1/orders", a.requireAuth(a.handleListOrders, staff...))
	mux.HandleFunc("GET /api/v1/orders/{id}", a.requireAuth(a.handleGetOrder, staff...))
	mux.HandleFunc("PUT /api/v1/order/complete", a.requireAuth(a.handleCompleteOrder, staff...))
	mux.HandleFunc("GET /api/v1/completed-orders", a.requireAuth(a.handleListCompletedOrders, roleAdmin))
	mux.HandleFunc("GET /api/v1/completed-orders/{id}", a.requireAuth(a.handleGetCompletedOrder, roleAdmin))

	mux.HandleFunc("GET /api/v1/reports/sales-summary", a.requireAuth(a.handleSalesSummary, roleAdmin))
	mux.HandleFunc("GET /api/v1/reports/gross-profit", a.requireAuth(reportHandler(a.service.GrossProfit), roleAdmin))
	mux.HandleFunc("GET /api/v1/reports/item-sales", a.requireAuth(reportHandler(a.service.ItemSales), roleAdmin))
	mux.HandleFunc("GET /api/v1/reports/category-sales", a.requireAuth(reportHandler(a.service.CategorySales), roleAdmin))
	mux.HandleFunc("GET /api/v1/reports/modifier-sales", a.requireAuth(reportHandler(a.service.ModifierSales), roleAdmin))
	mux.HandleFunc("GET /api/v1/reports/payment-methods", a.requireAuth(reportHandler(a.service.PaymentMethodSales), roleAdmin))
	mux.HandleFunc("GET /api/v1/reports/tax-report", a.requireAuth(reportHandler(a.service.TaxReport), roleAdmin))
	mux.HandleFunc("GET /api/v1/reports/discount-report", a.requireAuth(reportHandler(a.service.DiscountReport), roleAdmin))
	mux.HandleFunc("GET /api/v1/reports/gratuity-report", a.requireAuth(reportHandler(a.service.GratuityReport), roleAdmin))

	mux.HandleFunc("GET /api/v1/audit-logs", a.requireAuth(a.handleAuditLogs, roleAdmin))
	mux.HandleFunc("GET /api/v1/users/cashiers", a.requireAuth(a.handleListCashiers, roleAdmin))
	mux.HandleFunc("POST /api/v1/users/cashiers", a.requireAuth(a.handleCreateCashier, roleAdmin))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, r, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !slices.Contains(roles, actor.Role) {
			writeError(w, r, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		ctx := service.WithActor(r.Context(), actor)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx, a.log).With(zap.String("actor", actor.Username)))
		next(w, r.WithContext(ctx))
	}
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	limit, err := a.loginLimiter.Get(r.Context(), clientKey(r))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(limit.Remaining, 10))
	if limit.Reached {
		w.Header().Set("Retry-After", strconv.FormatInt(max(limit.Reset-time.Now().Unix(), 1), 10))
		writeError(w, r, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleCSRFToken returns the token mutating requests must echo in X-CSRF-Token.
func (a *API) handleCSRFToken(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": a.generateCSRFToken(),
	})
}

// csrfExemptPaths are called before a client can hold a token.
var csrfExemptPaths = []string{
	"/api/v1/auth/login",
}

func (a *API) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	method := r.Method
	if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch {
		return true
	}
	if slices.Contains(csrfExemptPaths, r.URL.Path) {
		return true
	}
	token := strings.TrimSpace(r.Header.Get("X-CSRF-Token"))
	if !a.validateCSRFToken(token) {
		writeError(w, r, http.StatusForbidden, errors.New("missing or invalid CSRF token"))
		return false
	}
	return true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		reqLog := a.log.With(zap.String("request_id", requestID))
		r = r.WithContext(logger.WithContext(r.Context(), reqLog))

		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-CSRF-Token, X-Request-ID")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		startedAt := time.Now()
		if a.checkCSRF(rec, r) {
			next.ServeHTTP(rec, r)
		}
		elapsed := time.Since(startedAt)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		a.metrics.ObserveHTTP(r.Method, route, rec.status, elapsed)
		reqLog.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed),
		)
	})
}

// statusFor maps service and store errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalidInput), errors.Is(err, store.ErrOrderCompleted):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInsufficientStock), errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, statusFor(err), err)
}

// respond writes payload under key, or the mapped error.
func respond(w http.ResponseWriter, r *http.Request, status int, key string, payload any, err error) {
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, status, map[string]any{key: payload})
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", store.ErrInvalidInput, err)
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// writeError hides 5xx causes from clients and logs them instead.
func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		logger.FromContext(r.Context(), nil).Error("request failed", zap.Int("status", status), zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
