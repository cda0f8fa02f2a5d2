package domain

import "time"

// DashboardStats are the aggregate counters shown on the admin dashboard.
type DashboardStats struct {
	TotalUsers         int `json:"total_users"`
	ActiveUsers        int `json:"active_users"`
	TotalBooks         int `json:"total_books"`
	ActiveBooks        int `json:"active_books"`
	UnreadMessages     int `json:"unread_messages"`
	TotalPurchases     int `json:"total_purchases"`
	NewUsersLast30Days int `json:"new_users_last_30_days"`
	NewBooksLast30Days int `json:"new_books_last_30_days"`
}

// PopularBook is a top-seller row on the admin dashboard.
type PopularBook struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	PurchaseCount int     `json:"purchase_count"`
	Price         float64 `json:"price"`
}

// RecentUser is a recently registered account on the admin dashboard.
type RecentUser struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
