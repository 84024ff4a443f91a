package model

import "time"

// Customer represents a customer account that submits repair requests.
type Customer struct {
	ID        string    `json:"id"              db:"id"`
	Name      string    `json:"name"            db:"name"`
	Email     string    `json:"email"           db:"email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at"      db:"created_at"`
}

// Admin represents a back-office operator account. Admins receive
// notifications for lifecycle events that need operator action.
type Admin struct {
	ID        string    `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	Email     string    `json:"email"      db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
