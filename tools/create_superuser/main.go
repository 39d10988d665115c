// Create a staff account, a no-op when the username is taken.
//
//	CONFIG_PATH=config.yml go run ./tools/create_superuser -username root -email root@example.com
//
// The password is read from SUPERUSER_PASSWORD.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/plugfox/addonhub/internal/auth"
	"github.com/plugfox/addonhub/internal/config"
	"github.com/plugfox/addonhub/internal/log"
	"github.com/plugfox/addonhub/internal/model"
	"github.com/plugfox/addonhub/internal/storage"
)

func main() {
	username := flag.String("username", "", "username of the new staff account")
	address := flag.String("email", "", "email of the new staff account")
	flag.Parse()

	if err := run(*username, *address, os.Getenv("SUPERUSER_PASSWORD")); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(username, address, password string) error {
	if username == "" || password == "" {
		return errors.New("-username and SUPERUSER_PASSWORD are required")
	}

	cfg, err := config.MustLoadConfig()
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}

	db, err := storage.New(cfg, log.New(log.WithLevel("warn")))
	if err != nil {
		return fmt.Errorf("database connection error: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if _, err := db.UserByUsername(ctx, username); err == nil {
		fmt.Println("already exists")
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	if err := db.CreateUser(ctx, &model.User{
		Username:     username,
		Email:        address,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
	}); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Println("created")
	return nil
}
