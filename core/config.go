package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	defaultAPIBaseURL = "http://localhost:5128/api"
	defaultSecretKey  = "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy"
)

var errDefaultSecretKey = errors.New("PROD_SECRET_KEY must be set: the default key is public")

type (
	APIConfig struct {
		BaseURL           string
		RequestsPerSecond float64 // 0 = unlimited
		Burst             int
	}

	Config struct {
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string
		TokenFile    string
		API          APIConfig
	}
)

// NewConfig reads the configuration from the environment (prefixed with the ENV name)
// and from config/.env.<env> when that file exists.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("test_mode", false)
	conf.SetDefault("app_name", "Edunet")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secret_key", defaultSecretKey)
	conf.SetDefault("rollbar_token", "")
	conf.SetDefault("token_file", defaultTokenFile())
	conf.SetDefault("api_base_url", defaultAPIBaseURL)
	conf.SetDefault("api_requests_per_second", 0.0)
	conf.SetDefault("api_burst", 1)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("test_mode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        conf.GetString("build"),
		AppName:      conf.GetString("app_name"),
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("test_mode"),
		SecretKey:    conf.GetString("secret_key"),
		RollbarToken: conf.GetString("rollbar_token"),
		TokenFile:    conf.GetString("token_file"),
		API: APIConfig{
			BaseURL:           NormalizeBaseURL(conf.GetString("api_base_url")),
			RequestsPerSecond: conf.GetFloat64("api_requests_per_second"),
			Burst:             conf.GetInt("api_burst"),
		},
	}
}

// CheckSecretKey refuses the built-in token file key in production.
func (c *Config) CheckSecretKey() error {
	if c.Env == "PROD" && (c.SecretKey == defaultSecretKey || strings.TrimSpace(c.SecretKey) == "") {
		return errDefaultSecretKey
	}
	return nil
}

// NormalizeBaseURL strips trailing slashes and makes sure the URL ends with "/api".
func NormalizeBaseURL(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultAPIBaseURL
	}
	trimmed := strings.TrimRight(value, "/")
	if strings.HasSuffix(trimmed, "/api") {
		return trimmed
	}
	return trimmed + "/api"
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "edunet", "token")
}
