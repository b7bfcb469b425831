package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"healthstore/model"
	"healthstore/storage"
)

func newStorage() *storage.Storage { return storage.New(storage.NewMemory(), nil) }

func TestLoginStoresSessionAndLogoutClears(t *testing.T) {
	st := newStorage()
	a := NewAuth(&fakeAPI{
		LoginFn: func(_ context.Context, u, p string) (model.LoginResponse, error) {
			if u != "u" || p != "p" {
				t.Fatalf("unexpected credentials %q %q", u, p)
			}
			return model.LoginResponse{Token: "tok", User: model.User{ID: 1, Username: "u", Role: model.RoleAdmin}}, nil
		},
	}, st)

	if a.IsAuthenticated() {
		t.Fatalf("expected no session before login")
	}
	if _, err := a.Login(context.Background(), "u", "p"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !a.IsAuthenticated() || !a.IsAdmin() || a.Token() != "tok" {
		t.Fatalf("expected admin session, got token=%q user=%+v", a.Token(), a.User())
	}
	if a.Loading() || a.Err() != nil {
		t.Fatalf("expected settled state, loading=%v err=%v", a.Loading(), a.Err())
	}
	if got := storage.GetOr(st, model.StorageKeyAuthToken, ""); got != "tok" {
		t.Fatalf("expected stored token, got %q", got)
	}
	var u model.User
	if !st.Get(model.StorageKeyUserData, &u) || u.Username != "u" {
		t.Fatalf("expected stored user, got %+v", u)
	}

	a.Logout()
	if a.IsAuthenticated() || a.User() != nil {
		t.Fatalf("expected cleared session")
	}
	if storage.GetOr(st, model.StorageKeyAuthToken, "") != "" || st.Get(model.StorageKeyUserData, &u) {
		t.Fatalf("expected storage cleared")
	}
}

func TestLoginFailureSetsError(t *testing.T) {
	a := NewAuth(&fakeAPI{
		LoginFn: func(context.Context, string, string) (model.LoginResponse, error) {
			return model.LoginResponse{}, errors.New("invalid credentials")
		},
	}, newStorage())

	if _, err := a.Login(context.Background(), "u", "bad"); err == nil {
		t.Fatalf("expected error")
	}
	if a.Loading() {
		t.Fatalf("loading should be false after failure")
	}
	if a.Err() == nil || a.Err().Error() != "invalid credentials" {
		t.Fatalf("expected error recorded, got %v", a.Err())
	}
	if a.IsAuthenticated() {
		t.Fatalf("failed login must not authenticate")
	}

	// empty credentials fail before the API is called
	if _, err := a.Login(context.Background(), "", ""); err == nil || a.Err() == nil {
		t.Fatalf("expected validation error")
	}
}

func TestRegisterValidatesAndForwards(t *testing.T) {
	called := false
	a := NewAuth(&fakeAPI{
		RegisterFn: func(_ context.Context, r model.Registration) (model.User, error) {
			called = true
			return model.User{ID: 2, Username: r.Username, Role: model.RoleCustomer}, nil
		},
	}, newStorage())

	if _, err := a.Register(context.Background(), model.Registration{Username: "ab", Password: "secret1"}); err == nil {
		t.Fatalf("expected error for short username")
	}
	if called {
		t.Fatalf("API should not be called on invalid input")
	}
	u, err := a.Register(context.Background(), model.Registration{Username: "abc", Password: "secret1"})
	if err != nil || u.ID != 2 {
		t.Fatalf("unexpected register result %+v %v", u, err)
	}
	if a.Err() != nil || a.IsAuthenticated() {
		t.Fatalf("register should clear error and not log in")
	}
}

func TestRestoresStoredSession(t *testing.T) {
	st := newStorage()
	st.Set(model.StorageKeyAuthToken, "opaque")
	st.Set(model.StorageKeyUserData, model.User{ID: 4, Username: "kim", Role: model.RoleCustomer})

	a := NewAuth(&fakeAPI{}, st)
	if !a.IsAuthenticated() || a.IsAdmin() || a.User().Username != "kim" {
		t.Fatalf("expected restored customer session, got %+v", a.User())
	}

	// token without user is not a session
	st2 := newStorage()
	st2.Set(model.StorageKeyAuthToken, "opaque")
	if NewAuth(&fakeAPI{}, st2).IsAuthenticated() {
		t.Fatalf("token alone should not restore a session")
	}
}

func TestExpiredJWTIsDiscarded(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	sign := func(exp time.Time) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return tok
	}

	st := newStorage()
	st.Set(model.StorageKeyAuthToken, sign(now.Add(-time.Minute)))
	st.Set(model.StorageKeyUserData, model.User{ID: 1})
	a := NewAuth(&fakeAPI{}, st, WithClock(func() time.Time { return now }))
	if a.IsAuthenticated() {
		t.Fatalf("expired token should not restore")
	}
	if storage.GetOr(st, model.StorageKeyAuthToken, "") != "" {
		t.Fatalf("expired token should be removed from storage")
	}

	st.Set(model.StorageKeyAuthToken, sign(now.Add(time.Hour)))
	st.Set(model.StorageKeyUserData, model.User{ID: 1})
	a.Reload()
	if !a.IsAuthenticated() {
		t.Fatalf("valid token should restore on reload")
	}
}

func TestCustomStorageKeys(t *testing.T) {
	st := newStorage()
	a := NewAuth(&fakeAPI{
		LoginFn: func(context.Context, string, string) (model.LoginResponse, error) {
			return model.LoginResponse{Token: "t", User: model.User{ID: 1}}, nil
		},
	}, st, WithStorageKeys("tk", "uk"))

	if _, err := a.Login(context.Background(), "u", "p"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if storage.GetOr(st, "tk", "") != "t" {
		t.Fatalf("expected token under custom key")
	}
	if storage.GetOr(st, model.StorageKeyAuthToken, "") != "" {
		t.Fatalf("default key should be unused")
	}
}
