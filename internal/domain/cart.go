package domain

import "time"

// Cart holds one user's pending lines. There is exactly one cart per user,
// enforced by a unique index on user_id.
type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Lines     []CartLine `bson:"lines" json:"lines"`
	Total     float64    `bson:"total" json:"total"`
	Version   int64      `bson:"version" json:"-"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// CartLine is one product's entry in a cart. At most one line exists per
// product; repeated adds merge into the existing line.
type CartLine struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	LineTotal float64 `bson:"line_total" json:"line_total"`
}

// Line returns a pointer into Lines for the given product, or nil.
func (c *Cart) Line(productID string) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return &c.Lines[i]
		}
	}
	return nil
}

// RemoveLine deletes the line for the given product and reports whether it
// was present.
func (c *Cart) RemoveLine(productID string) bool {
	for i, line := range c.Lines {
		if line.ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// RecomputeTotal derives the cart total from its line totals. Called after
// every mutation so the total never drifts.
func (c *Cart) RecomputeTotal() {
	var total float64
	for _, line := range c.Lines {
		total += line.LineTotal
	}
	c.Total = total
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return c == nil || len(c.Lines) == 0
}
