package models

import "github.com/uptrace/bun"

// User roles. Admins manage events and verify marshals, marshals record
// finishes and check runners in, runners register and view rankings.
const (
	RoleAdmin   = "admin"
	RoleMarshal = "marshal"
	RoleRunner  = "runner"
)

// User is an API user with bcrypt-hashed password.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       int    `bun:"id,pk,autoincrement" json:"id"`
	Username string `bun:"username,notnull,unique" json:"username"`
	Password string `bun:"password,notnull" json:"-"`
	Role     string `bun:"role,notnull,default:'runner'" json:"role"`
}

// IsStaff reports whether the user may record results and check runners in.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleMarshal
}
