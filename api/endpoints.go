package api

import "fmt"

// Backend paths, relative to the base URL.
const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"

	PathProducts   = "/api/products"
	PathCategories = "/api/categories"

	PathCart   = "/cart/"
	PathOrders = "/orders/"

	PathAdminProducts     = "/admin/products"
	PathAdminCategories   = "/admin/categories"
	PathAdminOrders       = "/admin/orders/"
	PathAdminUsers        = "/admin/users"
	PathAdminReport       = "/admin/report"
	PathAdminShopRequests = "/admin/shop-requests"
	PathAdminGuestbook    = "/admin/guestbook"

	PathFeedback  = "/feedback/"
	PathShops     = "/shops"
	PathGuestbook = "/guestbook"
)

func PathProduct(id int64) string  { return fmt.Sprintf("%s/%d", PathProducts, id) }
func PathCategory(id int64) string { return fmt.Sprintf("%s/%d", PathCategories, id) }

func PathCartItem(id int64) string    { return fmt.Sprintf("/cart/%d", id) }
func PathOrder(id int64) string       { return fmt.Sprintf("/orders/%d", id) }
func PathCancelOrder(id int64) string { return fmt.Sprintf("/orders/%d/cancel", id) }

func PathAdminProduct(id int64) string     { return fmt.Sprintf("%s/%d", PathAdminProducts, id) }
func PathAdminCategory(id int64) string    { return fmt.Sprintf("%s/%d", PathAdminCategories, id) }
func PathAdminOrderStatus(id int64) string { return fmt.Sprintf("/admin/orders/%d/status", id) }
func PathAdminUser(id int64) string        { return fmt.Sprintf("%s/%d", PathAdminUsers, id) }

func PathAdminShopRequest(id int64) string { return fmt.Sprintf("%s/%d", PathAdminShopRequests, id) }
func PathAdminShopRequestApprove(id int64) string {
	return PathAdminShopRequest(id) + "/approve"
}
func PathAdminShopRequestReject(id int64) string {
	return PathAdminShopRequest(id) + "/reject"
}
func PathAdminGuestbookEntry(id int64) string { return fmt.Sprintf("%s/%d", PathAdminGuestbook, id) }
