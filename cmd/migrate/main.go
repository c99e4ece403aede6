package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"voicebox/internal/config"
	"voicebox/internal/domain/submission"
	"voicebox/internal/repository"
	"voicebox/pkg/database"
)

const usage = `
Voicebox - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Run GORM migrations
  status      Show database connection status
  reset       Drop all tables and re-run migrations (DANGEROUS)

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
`

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	switch command := flag.Arg(0); command {
	case "up":
		runMigrationsUp(db)
	case "status":
		showStatus(db)
	case "reset":
		runReset(db)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(db *gorm.DB) {
	log.Println("🚀 Running migrations UP...")

	if err := repository.InitSchema(db); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ Migrations completed successfully!")
}

func showStatus(db *gorm.DB) {
	log.Println("🔍 Checking database status...")

	if err := database.HealthCheck(db); err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	log.Println("✅ Database connection: OK")

	table := submission.Submission{}.TableName()
	if db.Migrator().HasTable(&submission.Submission{}) {
		var count int64
		db.Model(&submission.Submission{}).Count(&count)
		log.Printf("✅ Table %-14s exists (%d rows)", table, count)
	} else {
		log.Printf("❌ Table %-14s does not exist", table)
	}
}

func runReset(db *gorm.DB) {
	log.Println("⚠️  WARNING: This will DROP all tables and re-run migrations!")

	log.Println("🗑️  Dropping all tables...")
	if err := db.Migrator().DropTable(&submission.Submission{}); err != nil {
		log.Fatalf("❌ Failed to drop tables: %v", err)
	}

	log.Println("🚀 Running migrations...")
	if err := repository.InitSchema(db); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ Database reset completed!")
}
