package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"healthstore/model"
	"healthstore/storage"
)

// Auth owns the session: token and user, mirrored to storage.
type Auth struct {
	state

	api      AuthAPI
	storage  *storage.Storage
	tokenKey string
	userKey  string
	now      func() time.Time

	token string
	user  *model.User
}

type AuthOption func(*Auth)

// WithStorageKeys overrides the keys the session is persisted under.
func WithStorageKeys(tokenKey, userKey string) AuthOption {
	return func(a *Auth) {
		if tokenKey != "" {
			a.tokenKey = tokenKey
		}
		if userKey != "" {
			a.userKey = userKey
		}
	}
}

// WithClock sets the time source used for token expiry checks.
func WithClock(now func() time.Time) AuthOption { return func(a *Auth) { a.now = now } }

// NewAuth builds the store and restores any session found in st.
func NewAuth(api AuthAPI, st *storage.Storage, opts ...AuthOption) *Auth {
	a := &Auth{
		api:      api,
		storage:  st,
		tokenKey: model.StorageKeyAuthToken,
		userKey:  model.StorageKeyUserData,
		now:      time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	a.Reload()
	return a
}

// Reload replaces the in-memory session with what storage holds. A session
// is restored only when both token and user are present and the token has
// not expired; an expired session is removed from storage.
func (a *Auth) Reload() {
	token := storage.GetOr(a.storage, a.tokenKey, "")
	var user model.User
	hasUser := a.storage.Get(a.userKey, &user)

	a.mu.Lock()
	defer a.mu.Unlock()
	if token == "" || !hasUser {
		a.token, a.user = "", nil
		return
	}
	if a.expired(token) {
		a.token, a.user = "", nil
		a.storage.Remove(a.tokenKey)
		a.storage.Remove(a.userKey)
		return
	}
	a.token, a.user = token, &user
}

// expired reports whether token is a JWT whose exp is in the past. Opaque
// tokens never expire client-side.
func (a *Auth) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !a.now().Before(exp.Time)
}

// Login exchanges credentials for a session and persists it.
func (a *Auth) Login(ctx context.Context, username, password string) (model.LoginResponse, error) {
	release := a.begin()
	defer release()

	if strings.TrimSpace(username) == "" || password == "" {
		return model.LoginResponse{}, a.fail(errors.New("username and password required"))
	}
	resp, err := a.api.Login(ctx, username, password)
	if err != nil {
		return resp, a.fail(err)
	}
	if resp.Token == "" {
		return resp, a.fail(errors.New("login response carried no token"))
	}

	user := resp.User
	a.mu.Lock()
	a.token, a.user = resp.Token, &user
	a.mu.Unlock()

	a.storage.Set(a.tokenKey, resp.Token)
	a.storage.Set(a.userKey, resp.User)
	return resp, nil
}

// Register creates an account. It does not log in.
func (a *Auth) Register(ctx context.Context, r model.Registration) (model.User, error) {
	release := a.begin()
	defer release()

	if err := model.ValidateRegistration(r); err != nil {
		return model.User{}, a.fail(err)
	}
	u, err := a.api.Register(ctx, r)
	if err != nil {
		return u, a.fail(err)
	}
	return u, nil
}

// Logout drops the session from memory and storage.
func (a *Auth) Logout() {
	a.mu.Lock()
	a.token, a.user = "", nil
	a.mu.Unlock()

	a.storage.Remove(a.tokenKey)
	a.storage.Remove(a.userKey)
}

func (a *Auth) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

// User returns a copy of the logged-in user, or nil.
func (a *Auth) User() *model.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return nil
	}
	u := *a.user
	return &u
}

func (a *Auth) IsAuthenticated() bool { return a.Token() != "" }

func (a *Auth) IsAdmin() bool {
	u := a.User()
	return u != nil && u.Role == model.RoleAdmin
}
