package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Flags an existing profile as administrator. There is no in-band way to
// create the first admin, so this runs against the database directly:
//
//	go run scripts/promote_admin.go <username>
func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <username>", os.Args[0])
	}
	username := os.Args[1]

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Build connection string
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	// Connect to database
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	result, err := db.Exec(`UPDATE profiles SET is_admin = true WHERE username = $1`, username)
	if err != nil {
		log.Fatalf("Failed to promote user: %v", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		log.Fatalf("No profile found with username %q", username)
	}

	log.Printf("✅ %s is now an administrator", username)
}
