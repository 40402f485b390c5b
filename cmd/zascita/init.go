package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zascita/internal/config"
	"github.com/erazemk/zascita/internal/db"
	"github.com/erazemk/zascita/internal/model"
	"github.com/erazemk/zascita/internal/store"
)

// errInitialized is returned by init when users already exist.
var errInitialized = errors.New("database already initialized")

// openDatabase opens and migrates the configured database.
func openDatabase(cfg *config.Config, log *zap.Logger) (*sql.DB, error) {
	database, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database, cfg.Database.Driver); err != nil {
		database.Close()
		return nil, err
	}

	version, err := db.SchemaVersion(database)
	if err != nil {
		database.Close()
		return nil, err
	}
	log.Info("database ready", zap.String("driver", cfg.Database.Driver), zap.Int64("schema_version", version))
	return database, nil
}

func runMigrate(cfg *config.Config, log *zap.Logger) error {
	database, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	return database.Close()
}

func runInit(cfg *config.Config, adminUser string, log *zap.Logger) error {
	database, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close()

	st := store.New(database, cfg.Database.Driver)
	password, err := createAdmin(context.Background(), st, adminUser)
	if err != nil {
		return err
	}
	printInitResult(cfg.Database.DSN, adminUser, password)
	return nil
}

// createAdmin creates the first admin account with a generated password.
// It refuses to run once any user exists.
func createAdmin(ctx context.Context, st *store.Store, username string) (string, error) {
	n, err := st.CountUsers(ctx)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return "", errInitialized
	}

	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	if _, err := st.CreateUser(ctx, username, string(hash), model.RoleAdmin); err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}
	return password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dsn, username, password string) {
	fmt.Printf("Database ready: %s\n", dsn)
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
