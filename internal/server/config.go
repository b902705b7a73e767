package server

import (
	"time"

	"project-tasks/internal/notify"
)

type Config struct {
	MongoURI         string
	MongoDB          string
	UsersCollection  string
	TasksCollection  string
	OutboxCollection string

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	// Origins allowed to make credentialed cross-origin requests.
	AllowedOrigins []string

	SMTP notify.SMTPConfig
}

func (c *Config) setDefaults() {
	if c.UsersCollection == "" {
		c.UsersCollection = "users"
	}
	if c.TasksCollection == "" {
		c.TasksCollection = "tasks"
	}
	if c.OutboxCollection == "" {
		c.OutboxCollection = "outbox"
	}
	if c.JWTIssuer == "" {
		c.JWTIssuer = "tasks-backend"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 1 * time.Hour
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
}
