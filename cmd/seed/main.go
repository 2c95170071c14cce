// Command seed inserts fake posts into an existing posts table for local development.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"postboard/internal/config"
	"postboard/internal/database"
	"postboard/internal/seed"
)

func main() {
	count := flag.Int("posts", 200, "Number of posts to create")
	batch := flag.Int("batch", 100, "Rows per INSERT")
	seedValue := flag.Int64("seed", 0, "Random seed (0 picks one)")
	maxDays := flag.Int("days", 90, "Spread created_at over this many days")
	flag.Parse()

	log.Printf("Target: %d posts, batch=%d, seed=%d", *count, *batch, *seedValue)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	n, err := seed.Posts(ctx, db, seed.Options{
		Count:     *count,
		BatchSize: *batch,
		Seed:      *seedValue,
		MaxDays:   *maxDays,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Inserted %d posts", n)
}
