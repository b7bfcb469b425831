// Package api is the backend facade: one method per endpoint, fixed verb and
// path, no retries. Errors are whatever the HTTP client returns.
package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"healthstore/httpclient"
	"healthstore/model"
)

// Transport is the subset of *httpclient.Client the facade needs.
type Transport interface {
	Get(ctx context.Context, path string, out any, opts ...httpclient.RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...httpclient.RequestOption) error
	Put(ctx context.Context, path string, body, out any, opts ...httpclient.RequestOption) error
	Delete(ctx context.Context, path string, out any, opts ...httpclient.RequestOption) error
	DownloadFile(ctx context.Context, path, filename string, opts ...httpclient.RequestOption) (string, error)
}

type API struct {
	t   Transport
	now func() time.Time
}

func New(t Transport) *API {
	return &API{t: t, now: time.Now}
}

// --- auth ---

func (a *API) Register(ctx context.Context, r model.Registration) (model.User, error) {
	var u model.User
	err := a.t.Post(ctx, PathRegister, r, &u, httpclient.WithoutAuth())
	return u, err
}

func (a *API) Login(ctx context.Context, username, password string) (model.LoginResponse, error) {
	var resp model.LoginResponse
	body := map[string]string{"username": username, "password": password}
	err := a.t.Post(ctx, PathLogin, body, &resp, httpclient.WithoutAuth())
	return resp, err
}

// --- products ---

func (a *API) GetProducts(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	err := a.t.Get(ctx, PathProducts, &out, httpclient.WithoutAuth())
	return out, err
}

func (a *API) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := a.t.Get(ctx, PathProduct(id), &p, httpclient.WithoutAuth())
	return p, err
}

// productBody sends JSON, or a multipart form when an image is attached.
func productBody(in model.ProductInput, image *httpclient.File) any {
	if image == nil {
		return in
	}
	return httpclient.NewForm().
		Set("name", in.Name).
		Set("description", in.Description).
		Set("price", strconv.FormatFloat(in.Price, 'f', -1, 64)).
		Set("stock", strconv.Itoa(in.Stock)).
		Set("category_id", strconv.FormatInt(in.CategoryID, 10)).
		Attach("image", image)
}

// CreateProduct creates a product. image may be nil.
func (a *API) CreateProduct(ctx context.Context, in model.ProductInput, image *httpclient.File) (model.Product, error) {
	var p model.Product
	err := a.t.Post(ctx, PathAdminProducts, productBody(in, image), &p)
	return p, err
}

// UpdateProduct replaces a product. image may be nil.
func (a *API) UpdateProduct(ctx context.Context, id int64, in model.ProductInput, image *httpclient.File) (model.Product, error) {
	var p model.Product
	err := a.t.Put(ctx, PathAdminProduct(id), productBody(in, image), &p)
	return p, err
}

func (a *API) DeleteProduct(ctx context.Context, id int64) error {
	return a.t.Delete(ctx, PathAdminProduct(id), nil)
}

// --- categories ---

func (a *API) GetCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := a.t.Get(ctx, PathCategories, &out, httpclient.WithoutAuth())
	return out, err
}

func (a *API) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	err := a.t.Get(ctx, PathCategory(id), &c, httpclient.WithoutAuth())
	return c, err
}

func (a *API) CreateCategory(ctx context.Context, in model.CategoryInput) (model.Category, error) {
	var c model.Category
	err := a.t.Post(ctx, PathAdminCategories, in, &c)
	return c, err
}

func (a *API) UpdateCategory(ctx context.Context, id int64, in model.CategoryInput) (model.Category, error) {
	var c model.Category
	err := a.t.Put(ctx, PathAdminCategory(id), in, &c)
	return c, err
}

func (a *API) DeleteCategory(ctx context.Context, id int64) error {
	return a.t.Delete(ctx, PathAdminCategory(id), nil)
}

// --- cart ---

func (a *API) GetCart(ctx context.Context) (model.CartResponse, error) {
	var resp model.CartResponse
	err := a.t.Get(ctx, PathCart, &resp)
	return resp, err
}

func (a *API) AddToCart(ctx context.Context, productID int64, quantity int) error {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	return a.t.Post(ctx, PathCart, body, nil)
}

func (a *API) RemoveFromCart(ctx context.Context, cartItemID int64) error {
	return a.t.Delete(ctx, PathCartItem(cartItemID), nil)
}

// --- orders ---

func (a *API) PlaceOrder(ctx context.Context, method model.PaymentMethod, bankName string) (model.Order, error) {
	var o model.Order
	body := map[string]string{"payment_method": string(method), "bank_name": bankName}
	err := a.t.Post(ctx, PathOrders, body, &o)
	return o, err
}

func (a *API) GetOrders(ctx context.Context) ([]model.Order, error) {
	var out []model.Order
	err := a.t.Get(ctx, PathOrders, &out)
	return out, err
}

func (a *API) GetOrder(ctx context.Context, id int64) (model.Order, error) {
	var o model.Order
	err := a.t.Get(ctx, PathOrder(id), &o)
	return o, err
}

func (a *API) CancelOrder(ctx context.Context, id int64) (model.Order, error) {
	var o model.Order
	err := a.t.Put(ctx, PathCancelOrder(id), nil, &o)
	return o, err
}

func (a *API) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	var out []model.Order
	err := a.t.Get(ctx, PathAdminOrders, &out)
	return out, err
}

func (a *API) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (model.Order, error) {
	var o model.Order
	err := a.t.Put(ctx, PathAdminOrderStatus(id), map[string]string{"status": string(status)}, &o)
	return o, err
}

// --- feedback ---

func (a *API) SubmitFeedback(ctx context.Context, productID int64, comment string, rating int) (model.Feedback, error) {
	var f model.Feedback
	body := map[string]any{"product_id": productID, "comment": comment, "rating": rating}
	err := a.t.Post(ctx, PathFeedback, body, &f)
	return f, err
}

// --- users ---

func (a *API) GetAllUsers(ctx context.Context) ([]model.User, error) {
	var out []model.User
	err := a.t.Get(ctx, PathAdminUsers, &out)
	return out, err
}

func (a *API) GetUser(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := a.t.Get(ctx, PathAdminUser(id), &u)
	return u, err
}

func (a *API) UpdateUser(ctx context.Context, id int64, in model.UserUpdate) (model.User, error) {
	var u model.User
	err := a.t.Put(ctx, PathAdminUser(id), in, &u)
	return u, err
}

func (a *API) DeleteUser(ctx context.Context, id int64) error {
	return a.t.Delete(ctx, PathAdminUser(id), nil)
}

// --- reports ---

// ReportRequest selects an admin report. Empty Type and Format default to
// summary and pdf; empty dates are omitted.
type ReportRequest struct {
	Type      model.ReportType
	Format    model.ReportFormat
	StartDate string
	EndDate   string
}

// GenerateReport downloads a report and returns the saved file path.
func (a *API) GenerateReport(ctx context.Context, r ReportRequest) (string, error) {
	if r.Type == "" {
		r.Type = model.ReportSummary
	}
	if r.Format == "" {
		r.Format = model.ReportPDF
	}
	q := url.Values{}
	q.Set("type", string(r.Type))
	q.Set("format", string(r.Format))
	if r.StartDate != "" {
		q.Set("start_date", r.StartDate)
	}
	if r.EndDate != "" {
		q.Set("end_date", r.EndDate)
	}
	name := fmt.Sprintf("report_%s_%d.%s", r.Type, a.now().UnixMilli(), r.Format)
	return a.t.DownloadFile(ctx, PathAdminReport, name,
		httpclient.WithQuery(q),
		httpclient.WithFailureMessage("Failed to generate report"))
}

// --- shops ---

func (a *API) GetShops(ctx context.Context) ([]model.Shop, error) {
	var out []model.Shop
	err := a.t.Get(ctx, PathShops, &out, httpclient.WithoutAuth())
	return out, err
}

func (a *API) RequestShop(ctx context.Context, name, description string) (model.ShopRequest, error) {
	var r model.ShopRequest
	err := a.t.Post(ctx, PathShops, map[string]string{"name": name, "description": description}, &r)
	return r, err
}

func (a *API) GetShopRequests(ctx context.Context) ([]model.ShopRequest, error) {
	var out []model.ShopRequest
	err := a.t.Get(ctx, PathAdminShopRequests, &out)
	return out, err
}

func (a *API) ApproveShopRequest(ctx context.Context, id int64) (model.ShopRequest, error) {
	var r model.ShopRequest
	err := a.t.Put(ctx, PathAdminShopRequestApprove(id), nil, &r)
	return r, err
}

func (a *API) RejectShopRequest(ctx context.Context, id int64) (model.ShopRequest, error) {
	var r model.ShopRequest
	err := a.t.Put(ctx, PathAdminShopRequestReject(id), nil, &r)
	return r, err
}

// --- guestbook ---

func (a *API) GetGuestbook(ctx context.Context) ([]model.GuestbookEntry, error) {
	var out []model.GuestbookEntry
	err := a.t.Get(ctx, PathGuestbook, &out, httpclient.WithoutAuth())
	return out, err
}

func (a *API) SignGuestbook(ctx context.Context, name, message string) (model.GuestbookEntry, error) {
	var e model.GuestbookEntry
	err := a.t.Post(ctx, PathGuestbook, map[string]string{"name": name, "message": message}, &e)
	return e, err
}

func (a *API) GetAdminGuestbook(ctx context.Context) ([]model.GuestbookEntry, error) {
	var out []model.GuestbookEntry
	err := a.t.Get(ctx, PathAdminGuestbook, &out)
	return out, err
}

func (a *API) DeleteGuestbookEntry(ctx context.Context, id int64) error {
	return a.t.Delete(ctx, PathAdminGuestbookEntry(id), nil)
}
