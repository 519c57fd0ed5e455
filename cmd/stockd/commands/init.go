package commands

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lavishdadwani/Stock-Management/internal/auth"
	"github.com/lavishdadwani/Stock-Management/internal/db"
	"github.com/lavishdadwani/Stock-Management/internal/model"
	"github.com/lavishdadwani/Stock-Management/internal/store"
)

var (
	ownerName  string
	ownerEmail string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and the first owner account",
	Long: `Create a new SQLite database, apply the schema and add an owner account
with a generated password. The password is printed once and cannot be
recovered; the owner can change it after logging in.

Fails if the database file already exists.`,
	RunE: runInit,
}

func init() {
	addOwnerFlags(initCmd)
	rootCmd.AddCommand(initCmd)
}

func addOwnerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ownerName, "owner-name", "Owner", "name of the first owner account")
	cmd.Flags().StringVar(&ownerEmail, "owner-email", "owner@stock.local", "email of the first owner account")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.Database.Path); err == nil {
		return fmt.Errorf("database file %s already exists", cfg.Database.Path)
	}

	database, password, err := initDatabase(cmd.Context(), cfg.Database.Path, ownerName, ownerEmail)
	if err != nil {
		return err
	}
	database.Close()

	printInitResult(cfg.Database.Path, ownerEmail, password)
	return nil
}

// initDatabase creates a new database, applies the schema and creates the
// owner account. The file is removed again if any step fails.
func initDatabase(ctx context.Context, path, name, email string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.Migrate(database); err != nil {
		return fail(fmt.Errorf("running migrations: %w", err))
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fail(err)
	}

	in := model.RegisterInput{Name: name, Email: email, Password: password, Role: model.RoleOwner}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return fail(fmt.Errorf("owner account: %w", err))
	}

	owner, err := store.CreateUser(ctx, database, in, hash)
	if err != nil {
		return fail(fmt.Errorf("creating owner: %w", err))
	}
	if err := store.MarkEmailVerified(ctx, database, owner.ID); err != nil {
		return fail(fmt.Errorf("verifying owner: %w", err))
	}

	return database, password, nil
}

func printInitResult(dbPath, email, password string) {
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	green.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Owner account created:")
	fmt.Printf("  Email:    %s\n", cyan.Sprint(email))
	fmt.Printf("  Password: %s\n", cyan.Sprint(password))
	fmt.Println()
	yellow.Println("Save this password, it cannot be recovered.")
	fmt.Println("The owner can change it after logging in.")
}

// generatePassword creates a random password of the given length that
// satisfies the account password policy.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for {
		for i := range result {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
			if err != nil {
				return "", err
			}
			result[i] = charset[n.Int64()]
		}
		if model.ValidatePassword(string(result)) == nil {
			return string(result), nil
		}
	}
}
