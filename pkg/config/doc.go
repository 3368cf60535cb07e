// Package config loads env-tagged structs with caarlos0/env, after reading
// optional dotenv files with godotenv.
package config
