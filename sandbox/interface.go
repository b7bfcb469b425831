package sandbox

import (
	"time"

	"healthstore/model"
)

// ServiceInterface is everything the HTTP layer needs from the backend.
type ServiceInterface interface {
	Register(r model.Registration) (model.User, error)
	Login(username, password string) (model.User, error)
	GetUser(id int64) (model.User, error)
	ListUsers() []model.User
	UpdateUser(id int64, in model.UserUpdate) (model.User, error)
	DeleteUser(id int64) error

	ListProducts() []model.Product
	GetProduct(id int64) (model.Product, error)
	CreateProduct(in model.ProductInput, imageURL string) (model.Product, error)
	UpdateProduct(id int64, in model.ProductInput, imageURL string) (model.Product, error)
	DeleteProduct(id int64) error

	ListCategories() []model.Category
	GetCategory(id int64) (model.Category, error)
	CreateCategory(in model.CategoryInput) (model.Category, error)
	UpdateCategory(id int64, in model.CategoryInput) (model.Category, error)
	DeleteCategory(id int64) error

	GetCart(userID int64) model.Cart
	AddToCart(userID, productID int64, qty int) error
	RemoveFromCart(userID, itemID int64) error

	PlaceOrder(userID int64, method model.PaymentMethod, bankName string) (model.Order, error)
	ListOrders(userID int64) []model.Order
	GetOrder(userID, orderID int64, admin bool) (model.Order, error)
	CancelOrder(userID, orderID int64) (model.Order, error)
	AllOrders() []model.Order
	UpdateOrderStatus(orderID int64, status model.OrderStatus) (model.Order, error)

	SubmitFeedback(userID int64, f model.Feedback) (model.Feedback, error)

	Report(typ model.ReportType, format model.ReportFormat, from, to time.Time) ([]byte, string, error)

	ListShops() []model.Shop
	RequestShop(userID int64, name, description string) (model.ShopRequest, error)
	ListShopRequests() []model.ShopRequest
	ReviewShopRequest(id int64, approve bool) (model.ShopRequest, error)

	ListGuestbook() []model.GuestbookEntry
	SignGuestbook(name, message string) (model.GuestbookEntry, error)
	DeleteGuestbookEntry(id int64) error
}
