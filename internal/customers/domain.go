package customers

import "time"

// Customer is a buying company. Customers are immutable once referenced by an
// invoice; there is no update path.
type Customer struct {
	ID            int64     `json:"id"`
	CompanyName   string    `json:"company_name"`
	ContactPerson *string   `json:"contact_person,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
