package domain

// RoleUser is the only role this application assigns.
const RoleUser = "user"

// User is the domain model for account holders. Users are created at signup
// and never updated or deleted afterwards.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
