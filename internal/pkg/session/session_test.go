package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUserIDFrom(t *testing.T) {
	if _, ok := UserIDFrom(context.Background()); ok {
		t.Fatal("expected no user id in empty context")
	}
	id, ok := UserIDFrom(WithUserID(context.Background(), 42))
	if !ok || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, ok)
	}
}

func TestMiddleware(t *testing.T) {
	testCases := []struct {
		header string
		wantID int64
		wantOK bool
	}{
		{"7", 7, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-1", 0, false},
	}
	for _, tc := range testCases {
		var gotID int64
		var gotOK bool
		h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID, gotOK = UserIDFrom(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set(UserIDHeader, tc.header)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
		if gotID != tc.wantID || gotOK != tc.wantOK {
			t.Errorf("header %q: got (%d, %v), want (%d, %v)", tc.header, gotID, gotOK, tc.wantID, tc.wantOK)
		}
	}
}
