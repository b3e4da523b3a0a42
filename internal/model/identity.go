package model

// Identity is the external identity provider's view of an account.
// The ledger only ever references the stable ID.
type Identity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type SessionTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Session is what guest checkout and login-and-checkout hand back to the
// caller alongside the claimed order.
type Session struct {
	Identity Identity      `json:"identity"`
	Tokens   SessionTokens `json:"tokens"`
}
