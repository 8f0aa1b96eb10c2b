// internal/service/cart/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"sky-takeout/internal/pkg/logger"
	"sky-takeout/internal/pkg/result"
	"sky-takeout/internal/pkg/session"
	"sky-takeout/internal/service/cart/domain"

	"github.com/pkg/errors"
)

// CartUseCase 由 application.CartService 实现
type CartUseCase interface {
	Add(ctx context.Context, userID int64, key domain.Key) error
	Sub(ctx context.Context, userID int64, key domain.Key) error
	List(ctx context.Context, userID int64) ([]*domain.Item, error)
	Clean(ctx context.Context, userID int64) error
}

// CartHandler 封装了 C 端购物车接口
type CartHandler struct {
	service CartUseCase
}

func NewCartHandler(service CartUseCase) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *CartHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /users/shoppingCart/add", h.withUser(h.add))
	mux.HandleFunc("POST /users/shoppingCart/sub", h.withUser(h.sub))
	mux.HandleFunc("GET /users/shoppingCart/list", h.withUser(h.list))
	mux.HandleFunc("DELETE /users/shoppingCart/clean", h.withUser(h.clean))
}

type userHandlerFunc func(w http.ResponseWriter, r *http.Request, userID int64)

// withUser 从 context 取出当前用户，未登录返回 401
func (h *CartHandler) withUser(next userHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := session.UserIDFrom(r.Context())
		if !ok {
			result.Fail(w, r, http.StatusUnauthorized, "user not logged in")
			return
		}
		next(w, r, userID)
	}
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request, userID int64) {
	key, ok := decodeKey(w, r)
	if !ok {
		return
	}
	logger.Ctx(r.Context()).Info().Int64("user_id", userID).Interface("item", key).Msg("adding shopping cart")
	h.respond(w, r, nil, h.service.Add(r.Context(), userID, key))
}

func (h *CartHandler) sub(w http.ResponseWriter, r *http.Request, userID int64) {
	key, ok := decodeKey(w, r)
	if !ok {
		return
	}
	h.respond(w, r, nil, h.service.Sub(r.Context(), userID, key))
}

func (h *CartHandler) list(w http.ResponseWriter, r *http.Request, userID int64) {
	items, err := h.service.List(r.Context(), userID)
	if items == nil {
		items = []*domain.Item{}
	}
	h.respond(w, r, items, err)
}

func (h *CartHandler) clean(w http.ResponseWriter, r *http.Request, userID int64) {
	h.respond(w, r, nil, h.service.Clean(r.Context(), userID))
}

func decodeKey(w http.ResponseWriter, r *http.Request) (domain.Key, bool) {
	var key domain.Key
	if err := json.NewDecoder(r.Body).Decode(&key); err != nil {
		result.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return key, false
	}
	return key, true
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, data any, err error) {
	switch {
	case err == nil:
		result.OK(w, r, data)
	case errors.Is(err, domain.ErrInvalidCartKey):
		result.Fail(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrCartItemNotFound), errors.Is(err, domain.ErrCatalogItemNotFound):
		result.Fail(w, r, http.StatusNotFound, err.Error())
	default:
		logger.Ctx(r.Context()).Error().Err(err).Msg("shopping cart request failed")
		result.Fail(w, r, http.StatusInternalServerError, "internal error")
	}
}
