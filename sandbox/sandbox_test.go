package sandbox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthstore/api"
	"healthstore/httpclient"
	"healthstore/model"
	"healthstore/storage"
	"healthstore/store"
)

type harness struct {
	srv   *httptest.Server
	st    *storage.Storage
	api   *api.API
	auth  *store.Auth
	cart  *store.Cart
	prods *store.Products
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	sb, err := New("test-secret", opts...)
	require.NoError(t, err)
	srv := httptest.NewServer(sb.Handler())
	t.Cleanup(srv.Close)

	st := storage.New(storage.NewMemory(), nil)
	client := httpclient.New(srv.URL, st.String(model.StorageKeyAuthToken),
		httpclient.WithDownloadDir(t.TempDir()))
	a := api.New(client)
	return &harness{
		srv:   srv,
		st:    st,
		api:   a,
		auth:  store.NewAuth(a, st),
		cart:  store.NewCart(a),
		prods: store.NewProducts(a),
	}
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var ae *httpclient.APIError
	require.True(t, errors.As(err, &ae), "expected *APIError, got %T: %v", err, err)
	return ae.StatusCode
}

func TestShoppingFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.auth.Register(ctx, model.Registration{Username: "jane", Email: "j@x.io", Password: "secret1"})
	require.NoError(t, err)
	assert.False(t, h.auth.IsAuthenticated(), "register must not log in")

	_, err = h.auth.Login(ctx, "jane", "nope")
	assert.Equal(t, http.StatusUnauthorized, apiStatus(t, err))
	assert.Equal(t, "Invalid credentials", err.Error())

	_, err = h.auth.Login(ctx, "jane", "secret1")
	require.NoError(t, err)
	assert.True(t, h.auth.IsAuthenticated())
	assert.False(t, h.auth.IsAdmin())
	assert.NotEmpty(t, storage.GetOr(h.st, model.StorageKeyAuthToken, ""))

	require.NoError(t, h.prods.Refresh(ctx))
	assert.Len(t, h.prods.Products(), len(seedProducts))
	assert.Len(t, h.prods.Categories(), len(seedCategories))
	h.prods.SetSelectedCategory(2)
	h.prods.SetSearchQuery("veg")
	filtered := h.prods.FilteredProducts()
	require.Len(t, filtered, 1)
	assert.Equal(t, "Green Vegetable Mix", filtered[0].Name)

	require.NoError(t, h.cart.AddToCart(ctx, 1, 2))
	require.NoError(t, h.cart.AddToCart(ctx, 3, 0))
	assert.Equal(t, 3, h.cart.ItemCount())
	assert.InDelta(t, 2*12.99+7.25, h.cart.Total(), 1e-9)

	err = h.cart.AddToCart(ctx, 6, 11)
	assert.EqualError(t, err, "insufficient stock")
	assert.Equal(t, 3, h.cart.ItemCount(), "failed add keeps the mirrored cart")

	items := h.cart.Cart().Items
	require.NoError(t, h.cart.RemoveFromCart(ctx, items[1].ID))
	assert.Equal(t, 2, h.cart.ItemCount())

	order, err := h.api.PlaceOrder(ctx, model.PaymentBankTransfer, "First Bank")
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, "First Bank", order.BankName)

	_, err = h.cart.FetchCart(ctx)
	require.NoError(t, err)
	assert.Zero(t, h.cart.ItemCount())

	orders, err := h.api.GetOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	cancelled, err := h.api.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, cancelled.Status)

	fb, err := h.api.SubmitFeedback(ctx, 1, "great", 5)
	require.NoError(t, err)
	assert.NotZero(t, fb.ID)

	_, err = h.api.GetAllOrders(ctx)
	assert.Equal(t, http.StatusForbidden, apiStatus(t, err))

	h.auth.Logout()
	_, err = h.api.GetCart(ctx)
	assert.Equal(t, http.StatusUnauthorized, apiStatus(t, err))
}

func TestAdminFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.auth.Login(ctx, SeedAdminUsername, SeedAdminPassword)
	require.NoError(t, err)
	require.True(t, h.auth.IsAdmin())

	cat, err := h.api.CreateCategory(ctx, model.CategoryInput{Name: "Herbs"})
	require.NoError(t, err)

	img := &httpclient.File{Name: "mint.png", Content: strings.NewReader("png-bytes")}
	p, err := h.prods.CreateProduct(ctx, model.ProductInput{Name: "Mint Tea", Price: 4.5, Stock: 3, CategoryID: cat.ID}, img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.ImageURL, "/uploads/"))
	assert.True(t, strings.HasSuffix(p.ImageURL, "-mint.png"))
	assert.Len(t, h.prods.Products(), len(seedProducts)+1)

	up, err := h.prods.UpdateProduct(ctx, p.ID, model.ProductInput{Name: "Mint Tea", Price: 5, Stock: 3, CategoryID: cat.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5.0, up.Price)
	assert.Equal(t, p.ImageURL, up.ImageURL)

	require.NoError(t, h.prods.DeleteProduct(ctx, p.ID))
	_, err = h.api.GetProduct(ctx, p.ID)
	assert.Equal(t, http.StatusNotFound, apiStatus(t, err))
	require.NoError(t, h.api.DeleteCategory(ctx, cat.ID))

	users, err := h.api.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	err = h.api.DeleteUser(ctx, users[0].ID)
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))

	path, err := h.api.GenerateReport(ctx, api.ReportRequest{Type: model.ReportInventory, Format: model.ReportCSV})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "product_id,name,stock,price\n"))

	_, err = h.api.GenerateReport(ctx, api.ReportRequest{Type: "weekly"})
	assert.EqualError(t, err, "Failed to generate report")
}

func TestShopAndGuestbookFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.api.Register(ctx, model.Registration{Username: "kim", Password: "secret1"})
	require.NoError(t, err)
	_, err = h.auth.Login(ctx, "kim", "secret1")
	require.NoError(t, err)

	req, err := h.api.RequestShop(ctx, "Kim's Kombucha", "fermented")
	require.NoError(t, err)
	entry, err := h.api.SignGuestbook(ctx, "", "lovely")
	require.NoError(t, err)
	assert.Equal(t, "kim", entry.Name)

	_, err = h.auth.Login(ctx, SeedAdminUsername, SeedAdminPassword)
	require.NoError(t, err)
	reqs, err := h.api.GetShopRequests(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	approved, err := h.api.ApproveShopRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ShopRequestApproved, approved.Status)
	_, err = h.api.RejectShopRequest(ctx, req.ID)
	assert.Equal(t, http.StatusConflict, apiStatus(t, err))

	h.auth.Logout()
	shops, err := h.api.GetShops(ctx)
	require.NoError(t, err)
	require.Len(t, shops, 1)
	assert.Equal(t, "Kim's Kombucha", shops[0].Name)

	book, err := h.api.GetGuestbook(ctx)
	require.NoError(t, err)
	require.Len(t, book, 1)

	_, err = h.auth.Login(ctx, SeedAdminUsername, SeedAdminPassword)
	require.NoError(t, err)
	require.NoError(t, h.api.DeleteGuestbookEntry(ctx, entry.ID))
	book, err = h.api.GetAdminGuestbook(ctx)
	require.NoError(t, err)
	assert.Empty(t, book)
}

func TestExpiredTokenRejected(t *testing.T) {
	var now atomic.Int64
	now.Store(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano())
	clock := func() time.Time { return time.Unix(0, now.Load()) }
	h := newHarness(t, WithClock(clock))
	ctx := context.Background()

	_, err := h.auth.Login(ctx, SeedAdminUsername, SeedAdminPassword)
	require.NoError(t, err)
	_, err = h.api.GetAllUsers(ctx)
	require.NoError(t, err)

	now.Add(int64(25 * time.Hour))
	_, err = h.api.GetAllUsers(ctx)
	assert.Equal(t, http.StatusUnauthorized, apiStatus(t, err))
	assert.Equal(t, "invalid or expired token", err.Error())
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t, WithoutSeed())
	resp, err := http.Get(h.srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	sb, err := New("s", WithoutSeed())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sb.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
