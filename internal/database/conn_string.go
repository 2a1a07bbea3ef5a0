package database

import (
	"fmt"
	"net/url"

	"github.com/rickgao/pricedash/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
// appName is reported to the server as application_name when non-empty.
func BuildConnString(cfg config.DBConfig, appName string) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
	if appName != "" {
		connStr += "&application_name=" + url.QueryEscape(appName)
	}
	return connStr
}
