package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleWorker = "worker"
)

// ValidRole reports whether r is one of the two roles a user can hold.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleWorker
}

// User models an account. Role is fixed at signup; the presence fields and the
// push token are the only attributes mutated afterwards.
type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	Role              string     `json:"role"`
	IsOnline          bool       `json:"is_online"`
	LastSeen          *time.Time `json:"last_seen,omitempty"`
	NotificationToken string     `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
