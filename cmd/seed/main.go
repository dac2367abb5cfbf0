package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/brrowapp/brrow-backend/internal/config"
	"github.com/brrowapp/brrow-backend/internal/db"
	"github.com/brrowapp/brrow-backend/internal/logging"
	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/repository"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

type seedUser struct {
	UID         string
	DisplayName string
	Timezone    string
	Token       string
	Platform    model.Platform
	QuietHours  bool
}

// Demo accounts for local development. Tokens are fake, so run the API with
// PUSH_DRY_RUN=true against this data.
var users = []seedUser{
	{UID: "demo-lender", DisplayName: "Maya (lender)", Timezone: "America/Los_Angeles", Token: "demo-fcm-lender", Platform: model.PlatformIOS},
	{UID: "demo-borrower", DisplayName: "Sam (borrower)", Timezone: "Europe/London", Token: "demo-fcm-borrower", Platform: model.PlatformAndroid, QuietHours: true},
	{UID: "demo-support", DisplayName: "Brrow Support", Timezone: "UTC"},
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gdb, err := db.Connect(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	canSeed, err := shouldSeed(gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("demo users already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}
	return seed(ctx, gdb)
}

func seed(ctx context.Context, gdb *gorm.DB) error {
	userRepo := repository.NewUserRepository(gdb)
	deviceRepo := repository.NewDeviceRepository(gdb)
	prefRepo := repository.NewPreferenceRepository(gdb)
	convRepo := repository.NewConversationRepository(gdb)

	for _, u := range users {
		if err := userRepo.Upsert(ctx, &model.User{UID: u.UID, DisplayName: u.DisplayName, Timezone: u.Timezone}); err != nil {
			return fmt.Errorf("upsert user %s: %w", u.UID, err)
		}
		if u.Token != "" {
			if _, err := deviceRepo.Register(ctx, &model.Device{UserUID: u.UID, Token: u.Token, Platform: u.Platform}); err != nil {
				return fmt.Errorf("register device for %s: %w", u.UID, err)
			}
		}
		p := model.DefaultPreferences(u.UID)
		p.QuietHoursEnabled = u.QuietHours
		if err := prefRepo.Save(ctx, &p); err != nil {
			return fmt.Errorf("save preferences for %s: %w", u.UID, err)
		}
	}

	cv, err := convRepo.Create(ctx, "Cordless drill", []string{"demo-lender", "demo-borrower"})
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	script := []struct {
		sender string
		typ    model.MessageType
		body   string
	}{
		{"demo-borrower", model.MessageTypeText, "Hi! Is the drill free this Saturday?"},
		{"demo-lender", model.MessageTypeText, "Yes, pick it up any time after 10."},
		{"demo-lender", model.MessageTypeSystem, "Rental request accepted"},
	}
	for _, m := range script {
		if _, err := convRepo.AppendMessage(ctx, cv.ID, m.sender, m.typ, m.body); err != nil {
			return fmt.Errorf("append message: %w", err)
		}
	}

	log.Printf("seeded %d users and conversation %d", len(users), cv.ID)
	return nil
}

func shouldSeed(gdb *gorm.DB) (bool, error) {
	var cnt int64
	if err := gdb.Model(&model.User{}).Where("uid LIKE ?", "demo-%").Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}
