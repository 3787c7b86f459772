package domain

// User identifies the owner of listings. Identity is established by an
// upstream gateway; this service never mutates users.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}
