package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/soulspace/soulspace_server/config"
	"github.com/soulspace/soulspace_server/internal/model"
)

var (
	dryRun         = flag.Bool("dry-run", true, "Dry run mode, don't actually delete rows")
	retentionDays  = flag.Int("retention-days", 0, "Days of chat history to keep (0 = use config)")
	unverifiedDays = flag.Int("unverified-days", 7, "Days to keep unverified accounts")
	cleanChats     = flag.Bool("clean-chats", true, "Purge aged chat messages")
	cleanAccounts  = flag.Bool("clean-accounts", true, "Purge stale unverified accounts")
)

func main() {
	flag.Parse()

	log.Println("Starting cleanup task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := connectDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	keepDays := *retentionDays
	if keepDays <= 0 {
		keepDays = cfg.Chat.RetentionDays
	}
	if keepDays <= 0 {
		keepDays = 90
	}

	if *cleanChats {
		purgeChatMessages(db, keepDays, *dryRun)
	}

	if *cleanAccounts {
		purgeUnverifiedAccounts(db, *unverifiedDays, *dryRun)
	}

	if *dryRun {
		log.Println("DRY RUN MODE - no rows were deleted. Run with -dry-run=false to apply.")
	} else {
		log.Println("Cleanup completed")
	}
}

// purgeChatMessages removes conversation rows older than the retention
// window.
func purgeChatMessages(db *gorm.DB, keepDays int, dryRun bool) {
	cutoff := time.Now().AddDate(0, 0, -keepDays)
	log.Printf("Purging chat messages older than %s (%d days)...", cutoff.Format("2006-01-02"), keepDays)

	if dryRun {
		var count int64
		if err := db.Model(&model.ChatMessage{}).Where("created_at < ?", cutoff).Count(&count).Error; err != nil {
			log.Printf("Failed to count chat messages: %v", err)
			return
		}
		log.Printf("Would delete %d chat messages", count)
		return
	}

	result := db.Where("created_at < ?", cutoff).Delete(&model.ChatMessage{})
	if result.Error != nil {
		log.Printf("Failed to delete chat messages: %v", result.Error)
		return
	}
	log.Printf("Deleted %d chat messages", result.RowsAffected)
}

// purgeUnverifiedAccounts removes accounts that never completed email
// verification. OAuth accounts are born verified and untouched.
func purgeUnverifiedAccounts(db *gorm.DB, keepDays int, dryRun bool) {
	cutoff := time.Now().AddDate(0, 0, -keepDays)
	log.Printf("Purging unverified accounts created before %s...", cutoff.Format("2006-01-02"))

	query := db.Where("email_verified = ? AND created_at < ?", false, cutoff)

	if dryRun {
		var count int64
		if err := query.Model(&model.User{}).Count(&count).Error; err != nil {
			log.Printf("Failed to count unverified accounts: %v", err)
			return
		}
		log.Printf("Would delete %d unverified accounts", count)
		return
	}

	result := query.Delete(&model.User{})
	if result.Error != nil {
		log.Printf("Failed to delete unverified accounts: %v", result.Error)
		return
	}
	log.Printf("Deleted %d unverified accounts", result.RowsAffected)
}

func connectDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}
