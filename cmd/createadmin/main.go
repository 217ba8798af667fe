package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"comuna-portal/internal/config"
	"comuna-portal/internal/data"
	"comuna-portal/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// createadmin provisions an administrator account from the command line.
// Administrators cannot be created through the web registration flow.
func main() {
	name := flag.String("name", "", "display name of the administrator")
	email := flag.String("email", "", "login email of the administrator")
	password := flag.String("password", "", "initial password")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log, os.Stderr)

	if *name == "" || *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}
	if len(*password) < 8 {
		fmt.Println("Password must be at least 8 characters long.")
		os.Exit(2)
	}

	db, err := data.NewDB(cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	users := data.NewUserRepository(db)
	ctx := context.Background()

	normalized := strings.ToLower(strings.TrimSpace(*email))
	if existing, err := users.GetByEmail(ctx, normalized); err != nil {
		log.Fatal(err, "Failed to look up user")
	} else if existing != nil {
		log.Fatal(fmt.Errorf("user %s already exists", normalized), "Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err, "Failed to hash password")
	}

	id, err := users.Create(ctx, &data.User{
		Name:         strings.TrimSpace(*name),
		Email:        normalized,
		PasswordHash: string(hash),
		Role:         data.RoleAdmin,
	})
	if err != nil {
		log.Fatal(err, "Failed to create administrator")
	}

	fmt.Printf("Administrator %s created with id %d.\n", normalized, id)
}
