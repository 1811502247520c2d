package profile

import "time"

type Profile struct {
	ID        string    `json:"id"`
	ClerkID   string    `json:"clerkId"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PublicProfile is what a card visitor gets to see. Nothing beyond the
// display name and email ever leaves through the public endpoints.
type PublicProfile struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (p *Profile) Public() *PublicProfile {
	return &PublicProfile{
		FullName: p.FullName,
		Email:    p.Email,
	}
}
