package domain

import "time"

type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// FullName is the display form used by search and email salutations.
func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// OrderItem is a checkout line. Prices are integer cents.
type OrderItem struct {
	ItemID         string `json:"item_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	Image          string `json:"image"`
	Size           string `json:"size,omitempty"`
	Color          string `json:"color,omitempty"`
}

// Note is an admin annotation. Notes are append-only.
type Note struct {
	Author    string    `json:"author"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is the record created at checkout and mutated only through the
// state machine and the note-append path. Everything except status, the
// tracking fields, notes and updated_at is write-once at creation.
type Order struct {
	ID                string      `json:"id"`
	Customer          Customer    `json:"customer"`
	Items             []OrderItem `json:"items"`
	ShippingAddress   Address     `json:"shipping_address"`
	PaymentMethod     string      `json:"payment_method"`
	Status            Status      `json:"status"`
	TotalCents        int64       `json:"total_cents"`
	TrackingNumber    string      `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time  `json:"estimated_delivery,omitempty"`
	Notes             []Note      `json:"notes,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// ItemTotalCents computes the order total from its line items. It is applied
// once at creation; the stored total is never recomputed afterward.
func ItemTotalCents(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.UnitPriceCents * int64(item.Quantity)
	}
	return total
}
