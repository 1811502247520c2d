package profile

type CreateProfileRequest struct {
	ClerkID  string `json:"clerkId" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName"`
}

type UpdateProfileRequest struct {
	FullName string `json:"fullName,omitempty"`
}
