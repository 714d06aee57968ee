package token

import "time"

// Token is a single-use directed feedback credential. The secret handed to
// the issuing club's administrators is never stored; only its one-way hash
// is, and the submission path looks the row up by that hash.
type Token struct {
	ID           string
	SecretHash   string
	EventID      string
	IssuerClubID string
	TargetClubID string
	ExpiresAt    time.Time
	Used         bool
	CreatedAt    time.Time
}

// Live reports whether the token can still be redeemed at the given instant.
func (t Token) Live(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

// CreateParams contains write parameters for minting a token.
type CreateParams struct {
	ID           string
	SecretHash   string
	EventID      string
	IssuerClubID string
	TargetClubID string
	ExpiresAt    time.Time
}
