package card

import "time"

// Card links a physical NFC card to its owner. The card_code is the only
// identifier that ever appears in a public URL.
type Card struct {
	ID        string    `json:"id"`
	CardCode  string    `json:"cardCode"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type AssignCardRequest struct {
	Email    string `json:"email" validate:"required,email"`
	CardCode string `json:"cardCode,omitempty"`
}
