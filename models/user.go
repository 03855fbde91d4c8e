package models

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/adepafin/adepa_backend/config"
	"github.com/adepafin/adepa_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	UserRoleAdmin    = "Admin"
	UserRoleStandard = "Standard"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:128;not null" json:"username"`
	Email     string    `gorm:"size:255" json:"email"`
	Password  string    `gorm:"size:255" json:"-"`
	Role      string    `gorm:"size:20;default:'Standard'" json:"role"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// SetPassword stores a bcrypt hash; the plaintext never reaches the row.
func (u *User) SetPassword(plain string) error {
	hashed, err := utils.HashPassword(plain)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return utils.ComparePassword(u.Password, plain) == nil
}

type LoginInfo struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login verifies credentials and mints a session token backed by the
// same redis key the session middleware reads.
func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}

	var user User
	if err := db.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
		return nil, errors.New("invalid username or password")
	}
	if !user.CheckPassword(password) {
		return nil, errors.New("invalid username or password")
	}
	if !user.IsActive {
		return nil, errors.New("user is disabled")
	}

	tokenLifespan := 24
	if v := os.Getenv("TOKEN_HOUR_LIFESPAN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			tokenLifespan = n
		}
	}

	token := uuid.NewString()
	if err := config.SetRedisValue("Token:"+token, user.Username, time.Duration(tokenLifespan)*time.Hour); err != nil {
		return nil, err
	}

	return &LoginInfo{Token: token, Username: user.Username, Role: user.Role}, nil
}

func Logout(ctx context.Context, token string) error {
	return config.RemoveRedisKey("Token:" + token)
}

func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	// Session lookups hit this on every request; go through Redis first.
	var user User
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err == nil && exists {
		return &user, nil
	}

	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := db.WithContext(ctx).
		Where("username = ?", username).
		Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	_ = config.SetRedisObject("User:"+username, &user, 0)
	return &user, nil
}
