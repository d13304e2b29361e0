package config

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
)

// Config is the repository-local configuration stored at .grit/config.
type Config struct {
	RepositoryID string `json:"repository_id"`

	User struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`

	LogLevel string `json:"log_level"` // debug, info, warn, error
}

// Default returns the configuration written by init: a fresh repository
// ID and placeholder identity, the same shape the config file carries.
func Default() *Config {
	cfg := &Config{
		RepositoryID: uuid.New().String(),
		LogLevel:     "error",
	}
	cfg.User.Name = "Grit User"
	cfg.User.Email = "user@grit.local"
	return cfg
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}

	if config.LogLevel == "" {
		config.LogLevel = "error"
	}

	return &config, nil
}

func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Author formats the user identity the way commit objects record it.
func (c *Config) Author() string {
	return c.User.Name + " <" + c.User.Email + ">"
}
