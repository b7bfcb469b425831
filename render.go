package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"healthstore/model"
	"healthstore/ui"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10b981"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ef4444"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	notificationColors = map[ui.NotificationType]lipgloss.Color{
		ui.TypeSuccess: "#10b981",
		ui.TypeError:   "#ef4444",
		ui.TypeWarning: "#f59e0b",
		ui.TypeInfo:    "#3b82f6",
	}

	variantColors = map[ui.Variant]lipgloss.Color{
		ui.VariantDanger:  "#ef4444",
		ui.VariantWarning: "#f59e0b",
		ui.VariantInfo:    "#3b82f6",
		ui.VariantDefault: "#6b7280",
	}
)

func money(v float64) string { return fmt.Sprintf("$%.2f", v) }

func statusBadge(s model.OrderStatus) string {
	st := lipgloss.NewStyle().Bold(true)
	if c := s.Color(); c != "" {
		st = st.Foreground(lipgloss.Color(c))
	}
	return st.Render(s.Label())
}

func renderNotification(n ui.Notification) string {
	badge := lipgloss.NewStyle().Bold(true).
		Foreground(notificationColors[n.Type]).
		Render(strings.ToUpper(string(n.Type)))
	return badge + " " + n.Message
}

func renderConfirm(o ui.ConfirmOptions) string {
	st := boxStyle.BorderForeground(variantColors[o.Variant])
	return st.Render(titleStyle.Render(o.Title) + "\n" + o.Message)
}

// table renders rows as aligned columns under a bold header.
func table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if w := lipgloss.Width(c); i < len(widths) && w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = lipgloss.NewStyle().Width(widths[i]).Render(c)
		}
		return strings.Join(parts, "  ")
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(line(header)))
	for _, r := range rows {
		b.WriteByte('\n')
		b.WriteString(line(r))
	}
	return b.String()
}

func renderProducts(ps []model.Product) string {
	if len(ps) == 0 {
		return dimStyle.Render("no products")
	}
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, []string{
			fmt.Sprint(p.ID), p.Name, money(p.Price), fmt.Sprint(p.Stock), fmt.Sprint(p.CategoryID),
		})
	}
	return table([]string{"ID", "NAME", "PRICE", "STOCK", "CATEGORY"}, rows)
}

func renderProduct(p model.Product) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Name))
	fmt.Fprintf(&b, "\n%s\n\nprice %s  stock %d  category %d", p.Description, money(p.Price), p.Stock, p.CategoryID)
	if p.ImageURL != "" {
		fmt.Fprintf(&b, "\nimage %s", p.ImageURL)
	}
	return boxStyle.Render(b.String())
}

func renderCategories(cs []model.Category) string {
	if len(cs) == 0 {
		return dimStyle.Render("no categories")
	}
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{fmt.Sprint(c.ID), c.Name, c.Description})
	}
	return table([]string{"ID", "NAME", "DESCRIPTION"}, rows)
}

func renderCart(c *model.Cart) string {
	if c == nil || len(c.Items) == 0 {
		return dimStyle.Render("cart is empty")
	}
	rows := make([][]string, 0, len(c.Items))
	for _, it := range c.Items {
		rows = append(rows, []string{
			fmt.Sprint(it.ID), it.Product.Name, fmt.Sprint(it.Quantity),
			money(it.Product.Price), money(it.Product.Price * float64(it.Quantity)),
		})
	}
	return table([]string{"ITEM", "PRODUCT", "QTY", "PRICE", "SUBTOTAL"}, rows) +
		fmt.Sprintf("\n\n%s %d items, %s", titleStyle.Render("Total"), c.ItemCount(), money(c.Total()))
}

func renderOrders(orders []model.Order) string {
	if len(orders) == 0 {
		return dimStyle.Render("no orders")
	}
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			fmt.Sprint(o.ID), fmt.Sprint(o.UserID), statusBadge(o.Status),
			o.PaymentMethod.Label(), money(o.Total), o.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return table([]string{"ID", "USER", "STATUS", "PAYMENT", "TOTAL", "CREATED"}, rows)
}

func renderOrder(o model.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(fmt.Sprintf("Order #%d", o.ID)), statusBadge(o.Status))
	fmt.Fprintf(&b, "%s", o.PaymentMethod.Label())
	if o.BankName != "" {
		fmt.Fprintf(&b, " (%s)", o.BankName)
	}
	b.WriteString("\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "\n%dx %s  %s", it.Quantity, it.Product.Name, money(it.Price*float64(it.Quantity)))
	}
	fmt.Fprintf(&b, "\n\ntotal %s", money(o.Total))
	return boxStyle.Render(b.String())
}

func renderUsers(us []model.User) string {
	rows := make([][]string, 0, len(us))
	for _, u := range us {
		rows = append(rows, []string{fmt.Sprint(u.ID), u.Username, u.Email, string(u.Role)})
	}
	return table([]string{"ID", "USERNAME", "EMAIL", "ROLE"}, rows)
}

func renderShops(ss []model.Shop) string {
	if len(ss) == 0 {
		return dimStyle.Render("no shops")
	}
	rows := make([][]string, 0, len(ss))
	for _, s := range ss {
		rows = append(rows, []string{fmt.Sprint(s.ID), s.Name, s.Description, fmt.Sprint(s.OwnerID)})
	}
	return table([]string{"ID", "NAME", "DESCRIPTION", "OWNER"}, rows)
}

func renderShopRequests(rs []model.ShopRequest) string {
	if len(rs) == 0 {
		return dimStyle.Render("no shop requests")
	}
	rows := make([][]string, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, []string{fmt.Sprint(r.ID), fmt.Sprint(r.UserID), r.Name, string(r.Status)})
	}
	return table([]string{"ID", "USER", "NAME", "STATUS"}, rows)
}

func renderGuestbook(es []model.GuestbookEntry) string {
	if len(es) == 0 {
		return dimStyle.Render("guestbook is empty")
	}
	var b strings.Builder
	for i, e := range es {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s %s\n  %s", dimStyle.Render(fmt.Sprintf("#%d", e.ID)),
			titleStyle.Render(e.Name), dimStyle.Render(e.CreatedAt.Format("2006-01-02")), e.Message)
	}
	return b.String()
}
