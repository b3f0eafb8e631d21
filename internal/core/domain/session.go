package domain

// Session is the authenticated context of a single request. It is built by
// the auth middleware from a verified token and passed down explicitly.
type Session struct {
	ID     string
	UserID string
	Email  string
	Role   string
}

func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// Identity is what identity subscribers observe: either a signed-in user with
// a freshly resolved role, or nobody.
type Identity struct {
	SignedIn bool   `json:"signed_in"`
	User     *User  `json:"user,omitempty"`
	Role     string `json:"role,omitempty"`
}

// SignupResult is the inline feedback returned by signup. It never carries an
// error; failures are described by Message.
type SignupResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
