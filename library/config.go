package library

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Business defaults, overridable through the environment.
const (
	DefaultLoanPeriodDays = 30
	DefaultMinSalary      = 30000
)

// Config carries the runtime knobs read from the environment.
type Config struct {
	DBPath         string
	HTTPAddr       string
	LoanPeriodDays int
	MinSalary      int
}

// LoadConfig reads .env when present and then the LIBRARY_* variables.
// A missing .env is not an error; real environment variables still
// apply.
func LoadConfig() Config {
	_ = godotenv.Load()
	return Config{
		DBPath:         getEnvString("LIBRARY_DB_PATH", "library.db"),
		HTTPAddr:       getEnvString("LIBRARY_HTTP_ADDR", ":8080"),
		LoanPeriodDays: getEnvInt("LIBRARY_LOAN_PERIOD_DAYS", DefaultLoanPeriodDays),
		MinSalary:      getEnvInt("LIBRARY_MIN_SALARY", DefaultMinSalary),
	}
}

// Engine options derived from the config.
func (c Config) Options() Options {
	return Options{LoanPeriodDays: c.LoanPeriodDays, MinSalary: c.MinSalary}
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
