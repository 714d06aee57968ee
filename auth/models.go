package auth

import "time"

type Role string

const (
	// RoleClubAdmin manages a single club and may query feedback about it.
	RoleClubAdmin Role = "club_admin"
	// RolePlatformAdmin may query feedback across all clubs.
	RolePlatformAdmin Role = "platform_admin"
)

// User is the domain representation of an authenticated staff member.
// It mirrors the users table and should not include JSON annotations so it
// can be reused by different presentation layers.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	ClubID       *string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	UserID string
	ClubID string
	Role   Role
}

// Elevated reports whether the caller may act across all clubs.
func (i Identity) Elevated() bool {
	return i.Role == RolePlatformAdmin
}

// RegisterRequest contains account registration data supplied by callers.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName string  `json:"full_name"`
	ClubID   *string `json:"club_id"`
	Role     Role    `json:"role"`
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
