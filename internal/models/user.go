package models

import (
	"time"

	"github.com/openguild/guildpress/internal/permissions"
	"gorm.io/gorm"
)

// Grade is a user's membership grade. Upgrades happen only through an
// approved membership application.
type Grade string

const (
	GradeMember Grade = "member"
	GradeSenior Grade = "senior"
	GradeFellow Grade = "fellow"
)

// Valid reports whether g is a known grade.
func (g Grade) Valid() bool {
	switch g {
	case GradeMember, GradeSenior, GradeFellow:
		return true
	}
	return false
}

// ValidTarget reports whether g may be applied for. The base grade is held
// by every member and cannot be a target.
func (g Grade) ValidTarget() bool {
	return g == GradeSenior || g == GradeFellow
}

// User represents a guild member account
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password    string         `gorm:"size:255" json:"-"` // Hashed password, empty for LDAP users
	Email       string         `gorm:"size:255" json:"email"`
	DisplayName string         `gorm:"size:100" json:"display_name"`
	Bio         string         `gorm:"type:text" json:"bio"`
	Avatar      string         `gorm:"size:500" json:"avatar"`
	Roles       string         `gorm:"size:200;default:member" json:"roles"`  // comma-separated: member,reviewer,editor,admin
	Grade       Grade          `gorm:"size:50;default:member" json:"grade"`   // member, senior, fellow
	AuthType    string         `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	LastLogin   *time.Time     `json:"last_login"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// RoleSet parses the stored role list into typed roles.
func (u *User) RoleSet() []permissions.Role {
	return permissions.ParseRoles(u.Roles)
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role permissions.Role) bool {
	for _, r := range u.RoleSet() {
		if r == role {
			return true
		}
	}
	return false
}
