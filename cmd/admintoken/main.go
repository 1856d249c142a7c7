// Command admintoken mints a staff JWT for the admin catalog endpoints.
//
//	go run ./cmd/admintoken -user <uuid> -role catalog_manager
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/angelmondragon/shirtforge-backend/pkg/auth"
	"github.com/angelmondragon/shirtforge-backend/pkg/config"
	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
	"github.com/angelmondragon/shirtforge-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "admintoken"})
	_ = godotenv.Load()

	userFlag := flag.String("user", "", "staff user id (uuid); generated when empty")
	roleFlag := flag.String("role", string(enums.StaffRoleAdmin), "staff role: admin|catalog_manager|viewer")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	token, err := mint(cfg.JWT, *userFlag, *roleFlag, time.Now())
	if err != nil {
		logg.Error(context.Background(), "failed to mint token", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func mint(cfg config.JWTConfig, rawUser, rawRole string, now time.Time) (string, error) {
	role, err := enums.ParseStaffRole(rawRole)
	if err != nil {
		return "", err
	}
	userID := uuid.New()
	if rawUser != "" {
		userID, err = uuid.Parse(rawUser)
		if err != nil {
			return "", fmt.Errorf("invalid user id: %w", err)
		}
	}
	return auth.MintAccessToken(cfg, now, auth.AccessTokenPayload{UserID: userID, Role: role})
}
