package adminusers

import "time"

type UserView struct {
	ID        int64     `bun:"id"`
	Username  string    `bun:"username"`
	Role      string    `bun:"role"`
	Receipts  int       `bun:"receipts"`
	CreatedAt time.Time `bun:"created_at"`
}

type PageData struct {
	Users []UserView
	Roles []string
	// CurrentUserID marks the signed-in admin's own row.
	CurrentUserID int64
}
