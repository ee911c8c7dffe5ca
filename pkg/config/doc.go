// Package config loads typed configuration structs from environment variables.
//
// Parsing is done by github.com/caarlos0/env/v11 from `env` and `envDefault`
// struct tags; optional .env files are read with github.com/joho/godotenv and
// only fill variables the process environment leaves unset.
//
//	type Config struct {
//	    Issuer string `env:"MFA_ISSUER" envDefault:"SaaSKit"`
//	    Key    string `env:"MFA_ENCRYPTION_KEY,required"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// Failures wrap ErrParsingConfig or ErrLoadingEnvFile; check them with errors.Is.
package config
