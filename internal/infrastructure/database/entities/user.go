package entities

import (
	"time"

	"github.com/OctavianTocan/ai-nexus/internal/domain/user"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(User{})
}

type User struct {
	ID             string `gorm:"type:varchar(36);primaryKey"`
	Email          string `gorm:"type:varchar(320);uniqueIndex;not null"`
	HashedPassword string `gorm:"type:varchar(1024);not null"`
	IsActive       bool   `gorm:"not null"`
	IsSuperuser    bool   `gorm:"not null;default:false"`
	IsVerified     bool   `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (User) TableName() string {
	return "users"
}

func NewSchemaUser(u *user.User) *User {
	return &User{
		ID:             u.ID,
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		IsActive:       u.IsActive,
		IsSuperuser:    u.IsSuperuser,
		IsVerified:     u.IsVerified,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (u *User) EtoD() *user.User {
	return &user.User{
		ID:             u.ID,
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		IsActive:       u.IsActive,
		IsSuperuser:    u.IsSuperuser,
		IsVerified:     u.IsVerified,
		CreatedAt:      u.CreatedAt.UTC(),
		UpdatedAt:      u.UpdatedAt.UTC(),
	}
}
