package domain

// Identity is the display label a client chose for itself. It is not a
// credential and is never checked for uniqueness.
type Identity struct {
	Username string `json:"username"`
}

// Owns reports whether msg was sent under this identity.
func (i Identity) Owns(msg *Message) bool {
	return i.Username != "" && msg.SenderName == i.Username
}
