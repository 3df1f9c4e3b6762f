package domain

import "time"

// Field length limits enforced both here and as CHECK constraints in the
// users table.
const (
	UsernameMaxLen = 80
	EmailMaxLen    = 120
)

// User is the credential record owned by the auth service. PasswordHash is
// never serialized outward; handlers build responses from SafeView.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserView is the outward-facing representation of a user.
type UserView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SafeView returns the user without credential material.
func (u *User) SafeView() UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC(),
	}
}
