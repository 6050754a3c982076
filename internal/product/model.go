package product

import "time"

type Product struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Price       float64   `json:"price"`
	OfferPrice  *float64  `json:"offer_price,omitempty"`
	Images      []string  `json:"images"`
	InStock     bool      `json:"in_stock"`
	CreatedAt   time.Time `json:"created_at"`
}

// UnitPrice is the authoritative price charged at checkout: the offer
// price when one is set, the list price otherwise.
func (p *Product) UnitPrice() float64 {
	if p.OfferPrice != nil && *p.OfferPrice > 0 {
		return *p.OfferPrice
	}
	return p.Price
}
