package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"sky-takeout/internal/pkg/session"
	"sky-takeout/internal/service/cart/domain"
)

type fakeCartUseCase struct {
	mu      sync.Mutex
	userIDs []int64
	keys    []domain.Key
	subErr  error
	items   []*domain.Item
}

func (f *fakeCartUseCase) record(userID int64, key domain.Key) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userIDs = append(f.userIDs, userID)
	f.keys = append(f.keys, key)
}

func (f *fakeCartUseCase) Add(_ context.Context, userID int64, key domain.Key) error {
	f.record(userID, key)
	return key.Validate()
}

func (f *fakeCartUseCase) Sub(_ context.Context, userID int64, key domain.Key) error {
	f.record(userID, key)
	return f.subErr
}

func (f *fakeCartUseCase) List(_ context.Context, userID int64) ([]*domain.Item, error) {
	f.record(userID, domain.Key{})
	return f.items, nil
}

func (f *fakeCartUseCase) Clean(_ context.Context, userID int64) error {
	f.record(userID, domain.Key{})
	return nil
}

func newMux(uc CartUseCase) http.Handler {
	mux := http.NewServeMux()
	NewCartHandler(uc).RegisterRoutes(mux)
	return session.Middleware(mux)
}

func doRequest(h http.Handler, method, path, body string, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set(session.UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCartHandler_AddUsesRequestUser(t *testing.T) {
	uc := &fakeCartUseCase{}
	rec := doRequest(newMux(uc), http.MethodPost, "/users/shoppingCart/add", `{"dishId":3,"dishFlavor":"微辣"}`, "42")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(uc.userIDs) != 1 || uc.userIDs[0] != 42 {
		t.Errorf("expected user 42, got %v", uc.userIDs)
	}
	if uc.keys[0].DishID == nil || *uc.keys[0].DishID != 3 || uc.keys[0].DishFlavor != "微辣" {
		t.Errorf("unexpected key %+v", uc.keys[0])
	}
}

func TestCartHandler_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		body       string
		user       string
		subErr     error
		wantStatus int
	}{
		{"missing user", http.MethodGet, "/users/shoppingCart/list", "", "", nil, http.StatusUnauthorized},
		{"bad body", http.MethodPost, "/users/shoppingCart/add", "{", "1", nil, http.StatusBadRequest},
		{"invalid key", http.MethodPost, "/users/shoppingCart/add", `{}`, "1", nil, http.StatusBadRequest},
		{"sub missing item", http.MethodPost, "/users/shoppingCart/sub", `{"setmealId":2}`, "1", domain.ErrCartItemNotFound, http.StatusNotFound},
		{"wrong method", http.MethodPost, "/users/shoppingCart/clean", "", "1", nil, http.StatusMethodNotAllowed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &fakeCartUseCase{subErr: tc.subErr}
			rec := doRequest(newMux(uc), tc.method, tc.path, tc.body, tc.user)
			if rec.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestCartHandler_ListReturnsEmptyArray(t *testing.T) {
	rec := doRequest(newMux(&fakeCartUseCase{}), http.MethodGet, "/users/shoppingCart/list", "", "5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Code int               `json:"code"`
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Code != 1 || body.Data == nil {
		t.Errorf("expected empty array data, got %s", rec.Body.String())
	}
}

func TestCartHandler_Clean(t *testing.T) {
	uc := &fakeCartUseCase{}
	rec := doRequest(newMux(uc), http.MethodDelete, "/users/shoppingCart/clean", "", "9")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(uc.userIDs) != 1 || uc.userIDs[0] != 9 {
		t.Errorf("expected clean for user 9, got %v", uc.userIDs)
	}
}
