package stock

type Stock struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// NewStock is the create payload; the id is generated by the store.
type NewStock struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Quantity    *int    `json:"quantity"`
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Quantity == nil
}

// ItemQty is one line of a reservation request.
type ItemQty struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

// Shortage reports one item that could not be reserved.
type Shortage struct {
	ID        int64 `json:"id"`
	Requested int   `json:"requested"`
	Available int   `json:"available"`
}
