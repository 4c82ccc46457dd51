package refreshtokens

import "time"

// RefreshToken is the durable record backing a long-lived session
// credential. Lookup is by the opaque token value; a record present in the
// store is valid until Expires, absence means invalid.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
	Expires   time.Time
}
