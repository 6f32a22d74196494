package model

// Roles a user can hold
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAgent   = "agent"
	RoleOwner   = "owner"
	RoleTenant  = "tenant"
)

// User represents an account that can sign in to the back office
type User struct {
	Base
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"` // Never expose the hash in JSON responses
	FirstName    string     `gorm:"not null" json:"first_name"`
	LastName     *string    `json:"last_name"`
	Phone        *string    `json:"phone"`
	AvatarURL    *string    `json:"avatar_url"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	Roles        []UserRole `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "app_users"
}

// RoleNames flattens the loaded role rows
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.RoleName)
	}
	return names
}

// UserRole grants a named role to a user
type UserRole struct {
	Base
	UserID   string `gorm:"type:uuid;not null;uniqueIndex:idx_user_role" json:"user_id"`
	RoleName string `gorm:"not null;uniqueIndex:idx_user_role" json:"role_name"`
}
