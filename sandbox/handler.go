package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"healthstore/logging"
	"healthstore/model"
)

// Handler is the HTTP layer that talks to the sandbox service.
type Handler struct {
	svc    ServiceInterface
	tokens *Issuer
	logger *zap.Logger
}

func NewHandler(s ServiceInterface, tokens *Issuer, logger *zap.Logger) *Handler {
	return &Handler{svc: s, tokens: tokens, logger: logging.OrNop(logger)}
}

// RegisterRoutes registers every storefront route on r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Use(h.logRequests)

	// Auth
	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	// Public catalogue
	r.HandleFunc("/api/products", h.ListProducts).Methods(http.MethodGet)
	r.HandleFunc("/api/products/{id:[0-9]+}", h.GetProduct).Methods(http.MethodGet)
	r.HandleFunc("/api/categories", h.ListCategories).Methods(http.MethodGet)
	r.HandleFunc("/api/categories/{id:[0-9]+}", h.GetCategory).Methods(http.MethodGet)
	r.HandleFunc("/shops", h.ListShops).Methods(http.MethodGet)
	r.HandleFunc("/guestbook", h.ListGuestbook).Methods(http.MethodGet)
	r.HandleFunc("/guestbook", h.SignGuestbook).Methods(http.MethodPost)

	// Customer
	r.Handle("/cart/", h.auth(h.GetCart)).Methods(http.MethodGet)
	r.Handle("/cart/", h.auth(h.AddToCart)).Methods(http.MethodPost)
	r.Handle("/cart/{id:[0-9]+}", h.auth(h.RemoveFromCart)).Methods(http.MethodDelete)
	r.Handle("/orders/", h.auth(h.PlaceOrder)).Methods(http.MethodPost)
	r.Handle("/orders/", h.auth(h.ListOrders)).Methods(http.MethodGet)
	r.Handle("/orders/{id:[0-9]+}", h.auth(h.GetOrder)).Methods(http.MethodGet)
	r.Handle("/orders/{id:[0-9]+}/cancel", h.auth(h.CancelOrder)).Methods(http.MethodPut)
	r.Handle("/feedback/", h.auth(h.SubmitFeedback)).Methods(http.MethodPost)
	r.Handle("/shops", h.auth(h.RequestShop)).Methods(http.MethodPost)

	// Admin
	r.Handle("/admin/products", h.admin(h.CreateProduct)).Methods(http.MethodPost)
	r.Handle("/admin/products/{id:[0-9]+}", h.admin(h.UpdateProduct)).Methods(http.MethodPut)
	r.Handle("/admin/products/{id:[0-9]+}", h.admin(h.DeleteProduct)).Methods(http.MethodDelete)
	r.Handle("/admin/categories", h.admin(h.CreateCategory)).Methods(http.MethodPost)
	r.Handle("/admin/categories/{id:[0-9]+}", h.admin(h.UpdateCategory)).Methods(http.MethodPut)
	r.Handle("/admin/categories/{id:[0-9]+}", h.admin(h.DeleteCategory)).Methods(http.MethodDelete)
	r.Handle("/admin/orders/", h.admin(h.AllOrders)).Methods(http.MethodGet)
	r.Handle("/admin/orders/{id:[0-9]+}/status", h.admin(h.UpdateOrderStatus)).Methods(http.MethodPut)
	r.Handle("/admin/users", h.admin(h.ListUsers)).Methods(http.MethodGet)
	r.Handle("/admin/users/{id:[0-9]+}", h.admin(h.GetUser)).Methods(http.MethodGet)
	r.Handle("/admin/users/{id:[0-9]+}", h.admin(h.UpdateUser)).Methods(http.MethodPut)
	r.Handle("/admin/users/{id:[0-9]+}", h.admin(h.DeleteUser)).Methods(http.MethodDelete)
	r.Handle("/admin/report", h.admin(h.Report)).Methods(http.MethodGet)
	r.Handle("/admin/shop-requests", h.admin(h.ListShopRequests)).Methods(http.MethodGet)
	r.Handle("/admin/shop-requests/{id:[0-9]+}/approve", h.admin(h.ApproveShopRequest)).Methods(http.MethodPut)
	r.Handle("/admin/shop-requests/{id:[0-9]+}/reject", h.admin(h.RejectShopRequest)).Methods(http.MethodPut)
	r.Handle("/admin/guestbook", h.admin(h.ListGuestbook)).Methods(http.MethodGet)
	r.Handle("/admin/guestbook/{id:[0-9]+}", h.admin(h.DeleteGuestbookEntry)).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// --- request shapes ---

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type addToCartReq struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type placeOrderReq struct {
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	BankName      string              `json:"bank_name"`
}

type statusReq struct {
	Status model.OrderStatus `json:"status"`
}

type shopReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type signReq struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeFailure(w http.ResponseWriter, err error) {
	writeErr(w, statusOf(err), err.Error())
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, model.Message{Message: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("sandbox request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// --- auth middleware ---

type userKey struct{}

func currentUser(r *http.Request) model.User {
	u, _ := r.Context().Value(userKey{}).(model.User)
	return u
}

func (h *Handler) authenticate(r *http.Request) (model.User, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return model.User{}, unauthorized("authorization required")
	}
	id, err := h.tokens.Verify(raw)
	if err != nil {
		return model.User{}, unauthorized("invalid or expired token")
	}
	u, err := h.svc.GetUser(id)
	if err != nil {
		return model.User{}, unauthorized("invalid or expired token")
	}
	return u, nil
}

func (h *Handler) auth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := h.authenticate(r)
		if err != nil {
			writeFailure(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	})
}

func (h *Handler) admin(next http.HandlerFunc) http.Handler {
	return h.auth(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r).Role != model.RoleAdmin {
			writeFailure(w, forbidden("admin access required"))
			return
		}
		next(w, r)
	})
}

// --- auth ---

// Register handles POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.Registration
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.Register(req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.Login(req.Username, req.Password)
	if err != nil {
		writeFailure(w, err)
		return
	}
	tok, err := h.tokens.Issue(u)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, model.LoginResponse{Token: tok, User: u})
}

// --- catalogue ---

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListProducts())
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProduct(pathID(r))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// productInput reads a product from JSON or, when an image is attached,
// from a multipart form. The image is not stored; only a URL is derived.
func productInput(r *http.Request) (model.ProductInput, string, error) {
	var in model.ProductInput
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, "", errors.New("invalid json")
		}
		return in, "", nil
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		return in, "", errors.New("invalid multipart form")
	}
	in.Name = r.FormValue("name")
	in.Description = r.FormValue("description")
	var err error
	if v := r.FormValue("price"); v != "" {
		if in.Price, err = strconv.ParseFloat(v, 64); err != nil {
			return in, "", errors.New("invalid price")
		}
	}
	if v := r.FormValue("stock"); v != "" {
		if in.Stock, err = strconv.Atoi(v); err != nil {
			return in, "", errors.New("invalid stock")
		}
	}
	if v := r.FormValue("category_id"); v != "" {
		if in.CategoryID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return in, "", errors.New("invalid category_id")
		}
	}

	var imageURL string
	if f, hdr, err := r.FormFile("image"); err == nil {
		f.Close()
		imageURL = fmt.Sprintf("/uploads/%s-%s", uuid.NewString(), filepath.Base(hdr.Filename))
	}
	return in, imageURL, nil
}

// CreateProduct handles POST /admin/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	in, img, err := productInput(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.CreateProduct(in, img)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	in, img, err := productInput(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.UpdateProduct(pathID(r), in, img)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProduct(pathID(r)); err != nil {
		writeFailure(w, err)
		return
	}
	writeMessage(w, "product deleted")
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListCategories())
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetCategory(pathID(r))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in model.CategoryInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.CreateCategory(in)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in model.CategoryInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.UpdateCategory(pathID(r), in)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCategory(pathID(r)); err != nil {
		writeFailure(w, err)
		return
	}
	writeMessage(w, "category deleted")
}

// --- cart ---

// GetCart handles GET /cart/
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart := h.svc.GetCart(currentUser(r).ID)
	writeJSON(w, http.StatusOK, model.CartResponse{Cart: &cart})
}

// AddToCart handles POST /cart/
// body: { "product_id": 1, "quantity": 2 }
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartReq
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		writeErr(w, http.StatusBadRequest, "quantity must be > 0")
		return
	}
	if err := h.svc.AddToCart(currentUser(r).ID, req.ProductID, req.Quantity); err != nil {
		writeFailure(w, err)
		return
	}
	writeMessage(w, "added to cart")
}

// RemoveFromCart handles DELETE /cart/{id}
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveFromCart(currentUser(r).ID, pathID(r)); err != nil {
		writeFailure(w, err)
		return
	}
	writeMessage(w, "removed from cart")
}

// --- orders ---

// PlaceOrder handles POST /orders/
// body: { "payment_method": "credit_card", "bank_name": "" }
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if !decode(w, r, &req) {
		return
	}
	o, err := h.svc.PlaceOrder(currentUser(r).ID, req.PaymentMethod, req.BankName)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListOrders(currentUser(r).ID))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	o, err := h.svc.GetOrder(u.ID, pathID(r), u.Role == model.RoleAdmin)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.CancelOrder(currentUser(r).ID, pathID(r))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) AllOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.AllOrders())
}

// UpdateOrderStatus handles PUT /admin/orders/{id}/status
// body: { "status": "shipped" }
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if !decode(w, r, &req) {
		return
	}
	o, err := h.svc.UpdateOrderStatus(pathID(r), req.Status)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// SubmitFeedback handles POST /feedback/
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req model.Feedback
	if !decode(w, r, &req) {
		return
	}
	f, err := h.svc.SubmitFeedback(currentUser(r).ID, req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// --- users ---

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListUsers())
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetUser(pathID(r))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in model.UserUpdate
	if !decode(w, r, &in) {
		return
	}
	u, err := h.svc.UpdateUser(pathID(r), in)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if id == currentUser(r).ID {
		writeErr(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}
	if err := h.svc.DeleteUser(id); err != nil {
		writeFailure(w, err)
		return
	}
	writeMessage(w, "user deleted")
}

// --- report ---

// Report handles GET /admin/report?type=&format=&start_date=&end_date=
// Dates are YYYY-MM-DD; end_date is inclusive.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ := model.ReportType(q.Get("type"))
	if typ == "" {
		typ = model.ReportSummary
	}
	format := model.ReportFormat(q.Get("format"))
	if format == "" {
		format = model.ReportPDF
	}
	var from, to time.Time
	var err error
	if v := q.Get("start_date"); v != "" {
		if from, err = time.Parse(time.DateOnly, v); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid start_date")
			return
		}
	}
	if v := q.Get("end_date"); v != "" {
		if to, err = time.Parse(time.DateOnly, v); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid end_date")
			return
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	body, ct, err := h.svc.Report(typ, format, from, to)
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// --- shops ---

func (h *Handler) ListShops(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListShops())
}

// RequestShop handles POST /shops
func (h *Handler) RequestShop(w http.ResponseWriter, r *http.Request) {
	var req shopReq
	if !decode(w, r, &req) {
		return
	}
	sr, err := h.svc.RequestShop(currentUser(r).ID, req.Name, req.Description)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sr)
}

func (h *Handler) ListShopRequests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListShopRequests())
}

func (h *Handler) ApproveShopRequest(w http.ResponseWriter, r *http.Request) {
	h.reviewShopRequest(w, r, true)
}

func (h *Handler) RejectShopRequest(w http.ResponseWriter, r *http.Request) {
	h.reviewShopRequest(w, r, false)
}

func (h *Handler) reviewShopRequest(w http.ResponseWriter, r *http.Request, approve bool) {
	sr, err := h.svc.ReviewShopRequest(pathID(r), approve)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sr)
}

// --- guestbook ---

func (h *Handler) ListGuestbook(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListGuestbook())
}

// SignGuestbook handles POST /guestbook. A signed-in caller that leaves the
// name empty signs with their username.
func (h *Handler) SignGuestbook(w http.ResponseWriter, r *http.Request) {
	var req signReq
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		if u, err := h.authenticate(r); err == nil {
			req.Name = u.Username
		}
	}
	e, err := h.svc.SignGuestbook(req.Name, req.Message)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) DeleteGuestbookEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGuestbookEntry(pathID(r)); err != nil {
		writeFailure(w, err)
		return
	}
	writeMessage(w, "entry deleted")
}
