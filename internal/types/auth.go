package types

// RegisterRequest represents the expected JSON body for registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100" example:"John Doe"`
	Email    string `json:"email" validate:"required,email" example:"john@gmail.com"`
	Password string `json:"password" validate:"required,min=6" example:"123456"`
	Role     Role   `json:"role,omitempty" validate:"omitempty,oneof=user publisher" example:"publisher"`
}

// LoginRequest represents the expected JSON body for login.
type LoginRequest struct {
	Email    string `json:"email" example:"john@gmail.com"`
	Password string `json:"password" example:"123456"`
}

type UpdateDetailsRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// TokenResponse is emitted after any operation that issues a credential.
type TokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Data    *User  `json:"data,omitempty"`
}
