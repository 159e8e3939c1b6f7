package domain

import (
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role names carried in the auth token. Callers open tickets; operators and
// admins resolve them.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleUser     = "user"
)

type User struct {
	ID             int64
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Role           string
	CompanyID      int64
	GroupID        int64
	HashedPassword string
	CreatedAt      time.Time
}

// FullName joins the name parts for display and chat authorship.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsResolver reports whether the user's role may see private messages and
// work tickets.
func (u *User) IsResolver() bool {
	return u.Role == RoleAdmin || u.Role == RoleOperator
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
	return err == nil
}

// IsValidEmail validates email format
func IsValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// Group is a resolver team with a shared mailbox address.
type Group struct {
	ID          int64
	Name        string
	Description string
	Email       string
}

// Company is the organization a caller belongs to.
type Company struct {
	ID    int64
	Name  string
	Email string
}
