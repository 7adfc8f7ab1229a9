package orders

import "time"

// Item is one order line: a stock id and the quantity to consume.
type Item struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

type Order struct {
	ID         int64     `json:"id"`
	Pass       string    `json:"pass"`
	Items      []Item    `json:"items"`
	TotalPrice string    `json:"totalPrice"`
	Finished   bool      `json:"finished"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// NewOrder is the placement payload; id and timestamps are generated.
type NewOrder struct {
	Pass       string `json:"pass"`
	Items      []Item `json:"items"`
	TotalPrice string `json:"totalPrice"`
}
