package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "gocrm",
	Short: "GoCRM CLI - CRM installation management tool",
	Long: `GoCRM Command Line Interface

Utilities for managing a GoCRM installation: password resets,
secret generation and basic database maintenance.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("GoCRM CLI %s\n", rootCmd.Version)
	},
}

var (
	usernameFlag string
	passwordFlag string
	activateFlag bool
)

var resetAgentCmd = &cobra.Command{
	Use:   "reset-agent",
	Short: "Reset an agent's password and optionally reactivate the account",
	Long: `Reset an agent's password in the database using bcrypt hashing.

Optionally reactivates the account by setting status = 'active'.
Connects directly to the database using environment variables
(DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME).`,
	RunE: runResetAgent,
}

var secretCmd = &cobra.Command{
	Use:   "generate-secret",
	Short: "Generate a cryptographically secure JWT secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("failed to generate secret: %w", err)
		}
		fmt.Println(hex.EncodeToString(buf))
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash of a password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		fmt.Println(string(hash))
		return nil
	},
}

func init() {
	resetAgentCmd.Flags().StringVar(&usernameFlag, "username", "", "Agent login name (required)")
	resetAgentCmd.Flags().StringVar(&passwordFlag, "password", "", "New password (required)")
	resetAgentCmd.Flags().BoolVar(&activateFlag, "activate", false, "Also set the agent status to active")
	resetAgentCmd.MarkFlagRequired("username")
	resetAgentCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(resetAgentCmd)
	rootCmd.AddCommand(secretCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

func runResetAgent(cmd *cobra.Command, args []string) error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getenv("DB_HOST", "localhost"),
		getenv("DB_PORT", "5432"),
		getenv("DB_USER", "gocrm"),
		getenv("DB_PASSWORD", "gocrm_password"),
		getenv("DB_NAME", "gocrm"),
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(passwordFlag), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	query := `UPDATE agents SET password_hash = $1, change_time = NOW() WHERE username = $2`
	if activateFlag {
		query = `UPDATE agents SET password_hash = $1, status = 'active', change_time = NOW() WHERE username = $2`
	}

	res, err := db.Exec(query, string(hash), usernameFlag)
	if err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("no agent found with username %q", usernameFlag)
	}

	fmt.Printf("Password reset for agent %s\n", usernameFlag)
	if activateFlag {
		fmt.Println("Agent status set to active")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
