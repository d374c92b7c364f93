package config

import (
	stderrors "errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads the first readable .env file. Variables that are already
// set in the environment win.
func loadEnvFile() error {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return err
		}
		slog.Debug("Loaded environment variables", logfields.Path(name))
		return nil
	}
	return stderrors.New("no .env file found")
}
