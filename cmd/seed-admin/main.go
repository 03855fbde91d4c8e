// seed-admin creates or updates the admin user so the API has a login
// before any signup flow exists.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	ADMIN_USERNAME=admin ADMIN_PASSWORD=... go run ./cmd/seed-admin
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/adepafin/adepa_backend/config"
	"github.com/adepafin/adepa_backend/models"
	"gorm.io/gorm"
)

func main() {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_PASSWORD is required")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var user models.User
	err := db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
		os.Exit(1)
	}

	user.Username = username
	user.Role = models.UserRoleAdmin
	user.IsActive = true
	if err := user.SetPassword(password); err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	if err := db.WithContext(ctx).Save(&user).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to save admin user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("admin user %q ready (id %d)\n", username, user.ID)
}
