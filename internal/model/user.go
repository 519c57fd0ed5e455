package model

import (
	"slices"
	"strings"
	"time"
)

// User is an account holder. Managers and owners control inventory, core team
// members consume wire and report production.
type User struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Number          string     `json:"number,omitempty"`
	Role            string     `json:"role"`
	PasswordHash    string     `json:"-"`
	SessionID       *string    `json:"-"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	IsActive        bool       `json:"isActive"`
	HasPhoto        bool       `json:"hasPhoto"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Roles.
const (
	RoleManager  = "manager"
	RoleOwner    = "owner"
	RoleCoreTeam = "core team"
)

// Roles lists every valid role.
var Roles = []string{RoleManager, RoleOwner, RoleCoreTeam}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return slices.Contains(Roles, role)
}

// HasRole reports whether role is one of allowed. Unknown roles fail closed.
func HasRole(role string, allowed ...string) bool {
	if !ValidRole(role) {
		return false
	}
	return slices.Contains(allowed, role)
}

// CanManageStock reports whether role may create, edit or delete transfers.
func CanManageStock(role string) bool {
	return HasRole(role, RoleManager, RoleOwner)
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterInput is the payload of a new account.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Number   string `json:"number"`
	Role     string `json:"role"`
}

// Normalize trims fields and applies the default role.
func (in *RegisterInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	in.Number = strings.TrimSpace(in.Number)
	if in.Role == "" {
		in.Role = RoleManager
	}
}

// Validate checks the registration payload.
func (in RegisterInput) Validate() error {
	var v validator
	v.add("name", ValidateName(in.Name))
	v.add("email", ValidateEmail(in.Email))
	v.check(in.Password != "", "password", "password is required")
	v.add("password", ValidatePassword(in.Password))
	v.add("number", ValidateNumber(in.Number))
	v.check(ValidRole(in.Role), "role", "role must be one of: manager, owner, core team")
	return v.err()
}

// ProfilePatch carries optional profile changes.
type ProfilePatch struct {
	Name   *string `json:"name"`
	Number *string `json:"number"`
}

// Validate checks the supplied fields.
func (p ProfilePatch) Validate() error {
	var v validator
	v.check(p.Name != nil || p.Number != nil, "profile", "at least one of name or number is required")
	if p.Name != nil {
		v.add("name", ValidateName(*p.Name))
	}
	if p.Number != nil {
		v.add("number", ValidateNumber(*p.Number))
	}
	return v.err()
}

// LoginInput is the payload of a login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate normalizes the email and checks both fields are present.
func (in *LoginInput) Validate() error {
	in.Email = NormalizeEmail(in.Email)
	var v validator
	v.add("email", ValidateEmail(in.Email))
	v.check(in.Password != "", "password", "password is required")
	return v.err()
}

// PasswordReset sets a new password from a reset link.
type PasswordReset struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate checks the new password and its confirmation.
func (in PasswordReset) Validate() error {
	var v validator
	v.check(in.Password != "", "password", "password is required")
	v.add("password", ValidatePassword(in.Password))
	v.check(in.Password == in.ConfirmPassword, "confirmPassword", "passwords do not match")
	return v.err()
}

// PasswordChange replaces the password of a logged-in user.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Validate checks both passwords are present and the new one is strong enough.
func (in PasswordChange) Validate() error {
	var v validator
	v.check(in.CurrentPassword != "", "currentPassword", "current password is required")
	v.check(in.NewPassword != "", "newPassword", "new password is required")
	v.add("newPassword", ValidatePassword(in.NewPassword))
	return v.err()
}
