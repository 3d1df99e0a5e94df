// Command main runs the database seeder for Folio.
package main

import (
	"context"
	"flag"
	"log"

	"folio/internal/config"
	"folio/internal/database"
	"folio/internal/middleware"
	"folio/internal/seed"
)

func main() {
	numPosts := flag.Int("posts", 10, "Number of demo posts to create")
	author := flag.String("author", seed.DemoAuthorID, "Identity subject recorded as the author of demo posts")
	demo := flag.Bool("demo", true, "Fill portfolio and projects with generated items")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d posts, demo=%v, clean=%v\n", *numPosts, *demo, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.ConfigureLogger(cfg.Env, cfg.LogLevel)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(context.Background(), db, seed.Options{
		NumPosts:    *numPosts,
		AuthorID:    *author,
		Demo:        *demo,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with demo content.")
}
