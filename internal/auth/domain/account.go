package domain

import "time"

// Account is a durable end-user record. The flow machinery only reads it
// (lookup by address or id, password verification) and writes it exactly once
// at the end of a registration flow.
type Account struct {
	ID           UserID
	Address      string // mail address, the login identifier
	Name         string
	PasswordHash string // PHC-format Argon2id
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountView is the caller-facing projection of an Account. It never carries
// the password hash.
type AccountView struct {
	ID      UserID `json:"id"`
	Address string `json:"address"`
	Name    string `json:"name"`
}

// View projects the account for responses.
func (a Account) View() AccountView {
	return AccountView{
		ID:      a.ID,
		Address: a.Address,
		Name:    a.Name,
	}
}

// Registration is the temporary record backing a signup before a durable
// Account exists. Keyed by a temporary UserID in the volatile store.
type Registration struct {
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}
