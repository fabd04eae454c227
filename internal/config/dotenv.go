package config

import "github.com/joho/godotenv"

// LoadDotenv best-effort loads a .env file into the process environment
// before LoadFromEnv runs. Missing files are not an error — schemactl
// and its tests both run fine with nothing but real environment
// variables set.
func LoadDotenv(path string) {
	_ = godotenv.Load(path)
}
