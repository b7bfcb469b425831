package sandbox

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"healthstore/model"
)

type account struct {
	user model.User
	hash []byte
}

type cartLine struct {
	id        int64
	productID int64
	qty       int
}

// Service is the in-memory backend state. One mutex guards everything;
// the sandbox serves a single developer.
type Service struct {
	mu  sync.Mutex
	now func() time.Time
	ids map[string]int64

	accounts   map[int64]*account
	products   map[int64]model.Product
	categories map[int64]model.Category
	carts      map[int64][]cartLine
	orders     map[int64]model.Order
	feedback   []model.Feedback
	shops      map[int64]model.Shop
	requests   map[int64]model.ShopRequest
	guestbook  map[int64]model.GuestbookEntry
}

func NewService(now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		now:        now,
		ids:        map[string]int64{},
		accounts:   map[int64]*account{},
		products:   map[int64]model.Product{},
		categories: map[int64]model.Category{},
		carts:      map[int64][]cartLine{},
		orders:     map[int64]model.Order{},
		shops:      map[int64]model.Shop{},
		requests:   map[int64]model.ShopRequest{},
		guestbook:  map[int64]model.GuestbookEntry{},
	}
}

// nextID must be called with s.mu held.
func (s *Service) nextID(kind string) int64 {
	s.ids[kind]++
	return s.ids[kind]
}

func sortedValues[T any](m map[int64]T) []T {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// --- users ---

func (s *Service) Register(r model.Registration) (model.User, error) {
	if err := model.ValidateRegistration(r); err != nil {
		return model.User{}, err
	}
	return s.addUser(strings.TrimSpace(r.Username), r.Email, r.Password, model.RoleCustomer)
}

func (s *Service) addUser(username, email, password string, role model.Role) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Username, username) {
			return model.User{}, conflict("username already taken")
		}
	}
	u := model.User{ID: s.nextID("user"), Username: username, Email: email, Role: role}
	s.accounts[u.ID] = &account{user: u, hash: hash}
	return u, nil
}

func (s *Service) Login(username, password string) (model.User, error) {
	if username == "" || password == "" {
		return model.User{}, badRequest("username and password required")
	}
	// Copy out under the lock; bcrypt runs without it.
	var (
		user  model.User
		hash  []byte
		found bool
	)
	s.mu.Lock()
	for _, a := range s.accounts {
		if a.user.Username == username {
			user, hash, found = a.user, a.hash, true
			break
		}
	}
	s.mu.Unlock()

	if !found || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return model.User{}, unauthorized("Invalid credentials")
	}
	return user, nil
}

func (s *Service) GetUser(id int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return model.User{}, notFound("user not found")
	}
	return a.user, nil
}

func (s *Service) ListUsers() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.accounts))
	for _, a := range sortedValues(s.accounts) {
		out = append(out, a.user)
	}
	return out
}

func (s *Service) UpdateUser(id int64, in model.UserUpdate) (model.User, error) {
	if in.Role != "" && in.Role != model.RoleAdmin && in.Role != model.RoleCustomer {
		return model.User{}, badRequest("invalid role")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return model.User{}, notFound("user not found")
	}
	if in.Username != "" {
		a.user.Username = in.Username
	}
	if in.Email != "" {
		a.user.Email = in.Email
	}
	if in.Role != "" {
		a.user.Role = in.Role
	}
	return a.user, nil
}

func (s *Service) DeleteUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return notFound("user not found")
	}
	delete(s.accounts, id)
	delete(s.carts, id)
	return nil
}

// --- products ---

func (s *Service) ListProducts() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.products)
}

func (s *Service) GetProduct(id int64) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return model.Product{}, notFound("product not found")
	}
	return p, nil
}

func (s *Service) CreateProduct(in model.ProductInput, imageURL string) (model.Product, error) {
	if err := model.ValidateProduct(in); err != nil {
		return model.Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCategory(in.CategoryID); err != nil {
		return model.Product{}, err
	}
	p := productFrom(s.nextID("product"), in, imageURL)
	s.products[p.ID] = p
	return p, nil
}

func (s *Service) UpdateProduct(id int64, in model.ProductInput, imageURL string) (model.Product, error) {
	if err := model.ValidateProduct(in); err != nil {
		return model.Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.products[id]
	if !ok {
		return model.Product{}, notFound("product not found")
	}
	if err := s.checkCategory(in.CategoryID); err != nil {
		return model.Product{}, err
	}
	if imageURL == "" {
		imageURL = old.ImageURL
	}
	p := productFrom(id, in, imageURL)
	s.products[id] = p
	return p, nil
}

func (s *Service) DeleteProduct(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return notFound("product not found")
	}
	delete(s.products, id)
	for uid, lines := range s.carts {
		kept := lines[:0]
		for _, l := range lines {
			if l.productID != id {
				kept = append(kept, l)
			}
		}
		s.carts[uid] = kept
	}
	return nil
}

func productFrom(id int64, in model.ProductInput, imageURL string) model.Product {
	return model.Product{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
		ImageURL:    imageURL,
	}
}

// checkCategory must be called with s.mu held. 0 means uncategorised.
func (s *Service) checkCategory(id int64) error {
	if id == 0 {
		return nil
	}
	if _, ok := s.categories[id]; !ok {
		return badRequest("category not found")
	}
	return nil
}

// --- categories ---

func (s *Service) ListCategories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.categories)
}

func (s *Service) GetCategory(id int64) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return model.Category{}, notFound("category not found")
	}
	return c, nil
}

func (s *Service) CreateCategory(in model.CategoryInput) (model.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Category{}, errors.New("name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := model.Category{ID: s.nextID("category"), Name: strings.TrimSpace(in.Name), Description: in.Description}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Service) UpdateCategory(id int64, in model.CategoryInput) (model.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Category{}, errors.New("name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return model.Category{}, notFound("category not found")
	}
	c := model.Category{ID: id, Name: strings.TrimSpace(in.Name), Description: in.Description}
	s.categories[id] = c
	return c, nil
}

func (s *Service) DeleteCategory(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return notFound("category not found")
	}
	for _, p := range s.products {
		if p.CategoryID == id {
			return conflict("category is in use")
		}
	}
	delete(s.categories, id)
	return nil
}

// --- cart ---

// GetCart returns the user's cart priced at current product values. The
// cart id is the user id.
func (s *Service) GetCart(userID int64) model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := model.Cart{ID: userID, Items: []model.CartItem{}}
	for _, l := range s.carts[userID] {
		p, ok := s.products[l.productID]
		if !ok {
			continue
		}
		cart.Items = append(cart.Items, model.CartItem{ID: l.id, Product: p, Quantity: l.qty})
	}
	return cart
}

// AddToCart merges into an existing line for the same product and refuses
// to exceed stock.
func (s *Service) AddToCart(userID, productID int64, qty int) error {
	if qty <= 0 {
		return errors.New("quantity must be > 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return notFound("product not found")
	}
	lines := s.carts[userID]
	for i, l := range lines {
		if l.productID == productID {
			if l.qty+qty > p.Stock {
				return badRequest("insufficient stock")
			}
			lines[i].qty += qty
			return nil
		}
	}
	if qty > p.Stock {
		return badRequest("insufficient stock")
	}
	s.carts[userID] = append(lines, cartLine{id: s.nextID("cart_item"), productID: productID, qty: qty})
	return nil
}

func (s *Service) RemoveFromCart(userID, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[userID]
	for i, l := range lines {
		if l.id == itemID {
			s.carts[userID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return notFound("cart item not found")
}

// --- orders ---

// PlaceOrder turns the cart into a pending order, decrements stock and
// empties the cart.
func (s *Service) PlaceOrder(userID int64, method model.PaymentMethod, bankName string) (model.Order, error) {
	if !method.Valid() {
		return model.Order{}, errors.New("invalid payment method")
	}
	if method == model.PaymentBankTransfer && strings.TrimSpace(bankName) == "" {
		return model.Order{}, errors.New("bank_name required for bank transfer")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[userID]
	if len(lines) == 0 {
		return model.Order{}, errors.New("cart is empty")
	}

	order := model.Order{
		ID:            s.nextID("order"),
		UserID:        userID,
		Status:        model.OrderPending,
		PaymentMethod: method,
		BankName:      bankName,
		CreatedAt:     s.now().UTC(),
	}
	for _, l := range lines {
		p, ok := s.products[l.productID]
		if !ok {
			return model.Order{}, fmt.Errorf("product %d not found", l.productID)
		}
		if l.qty > p.Stock {
			return model.Order{}, badRequest(fmt.Sprintf("insufficient stock for %s", p.Name))
		}
	}
	for _, l := range lines {
		p := s.products[l.productID]
		p.Stock -= l.qty
		s.products[p.ID] = p
		order.Items = append(order.Items, model.OrderItem{
			ID:        s.nextID("order_item"),
			ProductID: p.ID,
			Product:   p,
			Quantity:  l.qty,
			Price:     p.Price,
		})
		order.Total += p.Price * float64(l.qty)
	}
	s.orders[order.ID] = order
	delete(s.carts, userID)
	return order, nil
}

func (s *Service) ListOrders(userID int64) []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Order{}
	for _, o := range sortedValues(s.orders) {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out
}

// GetOrder returns an order its owner or an admin may see.
func (s *Service) GetOrder(userID, orderID int64, admin bool) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || (!admin && o.UserID != userID) {
		return model.Order{}, notFound("order not found")
	}
	return o, nil
}

// CancelOrder cancels a pending or processing order and restocks it.
func (s *Service) CancelOrder(userID, orderID int64) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.UserID != userID {
		return model.Order{}, notFound("order not found")
	}
	if o.Status != model.OrderPending && o.Status != model.OrderProcessing {
		return model.Order{}, badRequest(fmt.Sprintf("cannot cancel a %s order", o.Status))
	}
	s.restock(o)
	o.Status = model.OrderCancelled
	s.orders[o.ID] = o
	return o, nil
}

// restock must be called with s.mu held.
func (s *Service) restock(o model.Order) {
	for _, it := range o.Items {
		if p, ok := s.products[it.ProductID]; ok {
			p.Stock += it.Quantity
			s.products[p.ID] = p
		}
	}
}

func (s *Service) AllOrders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.orders)
}

func (s *Service) UpdateOrderStatus(orderID int64, status model.OrderStatus) (model.Order, error) {
	if !status.Valid() {
		return model.Order{}, errors.New("invalid status")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return model.Order{}, notFound("order not found")
	}
	if o.Status == model.OrderCancelled && status != model.OrderCancelled {
		return model.Order{}, badRequest("order is cancelled")
	}
	if status == model.OrderCancelled && o.Status != model.OrderCancelled {
		s.restock(o)
	}
	o.Status = status
	s.orders[o.ID] = o
	return o, nil
}

// --- feedback ---

func (s *Service) SubmitFeedback(userID int64, f model.Feedback) (model.Feedback, error) {
	if err := model.ValidateFeedback(f); err != nil {
		return model.Feedback{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[f.ProductID]; !ok {
		return model.Feedback{}, notFound("product not found")
	}
	f.ID = s.nextID("feedback")
	f.UserID = userID
	f.CreatedAt = s.now().UTC()
	s.feedback = append(s.feedback, f)
	return f, nil
}

// --- shops ---

func (s *Service) ListShops() []model.Shop {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.shops)
}

func (s *Service) RequestShop(userID int64, name, description string) (model.ShopRequest, error) {
	if strings.TrimSpace(name) == "" {
		return model.ShopRequest{}, errors.New("name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.UserID == userID && r.Status == model.ShopRequestPending {
			return model.ShopRequest{}, conflict("a shop request is already pending")
		}
	}
	r := model.ShopRequest{
		ID:          s.nextID("shop_request"),
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		Description: description,
		Status:      model.ShopRequestPending,
	}
	s.requests[r.ID] = r
	return r, nil
}

func (s *Service) ListShopRequests() []model.ShopRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.requests)
}

// ReviewShopRequest approves (opening the shop) or rejects a pending request.
func (s *Service) ReviewShopRequest(id int64, approve bool) (model.ShopRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return model.ShopRequest{}, notFound("shop request not found")
	}
	if r.Status != model.ShopRequestPending {
		return model.ShopRequest{}, conflict("shop request already reviewed")
	}
	if approve {
		r.Status = model.ShopRequestApproved
		shop := model.Shop{ID: s.nextID("shop"), Name: r.Name, Description: r.Description, OwnerID: r.UserID}
		s.shops[shop.ID] = shop
	} else {
		r.Status = model.ShopRequestRejected
	}
	s.requests[id] = r
	return r, nil
}

// --- guestbook ---

func (s *Service) ListGuestbook() []model.GuestbookEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.guestbook)
}

func (s *Service) SignGuestbook(name, message string) (model.GuestbookEntry, error) {
	if strings.TrimSpace(name) == "" {
		return model.GuestbookEntry{}, errors.New("name required")
	}
	if strings.TrimSpace(message) == "" {
		return model.GuestbookEntry{}, errors.New("message required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := model.GuestbookEntry{
		ID:        s.nextID("guestbook"),
		Name:      strings.TrimSpace(name),
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	s.guestbook[e.ID] = e
	return e, nil
}

func (s *Service) DeleteGuestbookEntry(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.guestbook[id]; !ok {
		return notFound("guestbook entry not found")
	}
	delete(s.guestbook, id)
	return nil
}
