package types

import (
	"time"

	"github.com/google/uuid"
)

// Role is the enumerated permission level of a principal.
type Role string

const (
	RoleUser      Role = "user"
	RolePublisher Role = "publisher"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RolePublisher, RoleAdmin:
		return true
	}
	return false
}

// User is the authenticated principal.
type User struct {
	ID                  uuid.UUID  `json:"id" example:"d290f1ee-6c54-4b01-90e6-d701748f0851"`
	Name                string     `json:"name" example:"John Doe"`
	Email               string     `json:"email" example:"john@gmail.com"`
	Role                Role       `json:"role" example:"publisher"`
	PasswordHash        string     `json:"-"`
	ResetPasswordToken  *string    `json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CreateUserParams is what the repository needs to insert a principal.
type CreateUserParams struct {
	Name         string
	Email        string
	Role         Role
	PasswordHash string
}

// UpdateUserParams holds the optional columns of a principal update.
type UpdateUserParams struct {
	Name  *string
	Email *string
	Role  *Role
}

// CreateUserRequest is the admin create payload.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"omitempty,oneof=user publisher admin"`
}

// UpdateUserRequest is the admin update payload.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Role  *Role   `json:"role,omitempty" validate:"omitempty,oneof=user publisher admin"`
}
