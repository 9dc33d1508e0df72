package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleReader Role = "reader"
	RoleAdmin  Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleReader, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"  json:"id"`
	Email         string             `bson:"email"          json:"email"`
	DisplayName   string             `bson:"display_name"   json:"display_name"`
	Role          Role               `bson:"role"           json:"role"`
	Banned        bool               `bson:"banned"         json:"banned"`
	ResetRequired bool               `bson:"reset_required" json:"reset_required"`
	Password      string             `bson:"password"       json:"-"`
	CreatedAt     time.Time          `bson:"created_at"     json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"     json:"updated_at"`
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

type RegisterRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"required,max=64"`
}

func (r RegisterRequest) Validate() error {
	return validateStruct(r)
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=1,max=64"`
}

func (r UpdateProfileRequest) Validate() error {
	return validateStruct(r)
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Validate() error {
	return validateStruct(r)
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

func (r ChangePasswordRequest) Validate() error {
	return validateStruct(r)
}

type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r ResetPasswordRequest) Validate() error {
	return validateStruct(r)
}

type SetInitialPasswordRequest struct {
	TempPassword string `json:"temp_password" validate:"required"`
	NewPassword  string `json:"new_password"  validate:"required,min=6"`
}

func (r SetInitialPasswordRequest) Validate() error {
	return validateStruct(r)
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
