package main

import (
	"context"
	"log"
	"pathbuilder-service/internal/adapters/repositories"
	"pathbuilder-service/internal/config"
	"pathbuilder-service/internal/platform/db"
	"strings"

	"github.com/joho/godotenv"
)

// dbtool prepares a Postgres database: schema plus demo routes.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Println("Initializing database schema...")
	if err := repositories.InitPostgresSchema(conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	seedPath := config.Get("SEED_PATH", "data/seeds/routes.json")
	log.Println("Seeding database...")
	n, err := repositories.SeedFromJSON(context.Background(), repositories.NewSQLRouteStore(conn), seedPath)
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf("Seeding complete (%d routes).", n)
}
