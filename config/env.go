package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFile loads ./.env into the process environment when it exists.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}
