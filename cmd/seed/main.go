// Command seed loads or clears development fixture users.
//
// Usage:
//
//	seed        create the fixture users (idempotent)
//	seed clear  delete all users
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"roadready/cmd/identity"
	"roadready/cmd/internal/app"
	"roadready/cmd/security/password"

	"github.com/joho/godotenv"
)

// devPassword is shared by every fixture account. Development only.
const devPassword = "Password123!"

type fixture struct {
	email     string
	firstName string
	lastName  string
	state     string
	testType  string
}

var fixtures = []fixture{
	{"john.doe@example.com", "John", "Doe", "CA", "car"},
	{"jane.smith@example.com", "Jane", "Smith", "NY", "motorcycle"},
	{"bob.wilson@example.com", "Bob", "Wilson", "TX", "car"},
	{"alice.brown@example.com", "Alice", "Brown", "FL", "cdl"},
	{"charlie.davis@example.com", "Charlie", "Davis", "CA", "motorcycle"},
}

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("ROADREADY_DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := app.NewDBPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := identity.NewPostgresStore(pool)
	if err != nil {
		return err
	}

	if len(os.Args) > 1 && os.Args[1] == "clear" {
		return clear(ctx, store)
	}
	return seed(ctx, store)
}

func seed(ctx context.Context, store *identity.PostgresStore) error {
	pwCfg, err := password.FromEnv()
	if err != nil {
		return err
	}
	hash, err := pwCfg.Hash(devPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, f := range fixtures {
		u, err := store.CreateUser(ctx, identity.CreateUserInput{
			Email:        f.email,
			PasswordHash: hash,
			Now:          now,
		})
		if err != nil {
			if identity.IsConflict(err) {
				fmt.Printf("user already exists: %s\n", f.email)
				continue
			}
			return err
		}

		first, last := f.firstName, f.lastName
		state, testType := f.state, f.testType
		if _, err := store.UpdateProfile(ctx, u.ID, identity.ProfileUpdate{
			FirstName: &first,
			LastName:  &last,
			State:     &state,
			TestType:  &testType,
		}, now); err != nil {
			return err
		}
		fmt.Printf("created user: %s\n", f.email)
	}

	fmt.Printf("seeding completed, default password: %s\n", devPassword)
	return nil
}

func clear(ctx context.Context, store *identity.PostgresStore) error {
	if err := store.DeleteAllUsers(ctx); err != nil {
		return err
	}
	fmt.Println("all users cleared")
	return nil
}
