package model

type CartItem struct {
	ID       int64   `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

type Cart struct {
	ID    int64      `json:"id"`
	Items []CartItem `json:"items"`
}

// CartResponse is the envelope returned by GET /cart/.
type CartResponse struct {
	Cart *Cart `json:"cart"`
}

// Total is the sum of price times quantity over all items. A nil cart totals 0.
func (c *Cart) Total() float64 {
	if c == nil {
		return 0
	}
	var total float64
	for _, it := range c.Items {
		total += it.Product.Price * float64(it.Quantity)
	}
	return total
}

// ItemCount is the sum of quantities over all items. A nil cart counts 0.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}
