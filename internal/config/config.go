// Package config provides configuration structures and loading for the
// gofactory CLI.
package config

// Config represents the complete application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Inspect  InspectConfig  `yaml:"inspect" mapstructure:"inspect"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// DatabaseConfig represents a MySQL database connection configuration.
type DatabaseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// InspectConfig controls live-schema dependency discovery.
type InspectConfig struct {
	// Schema is the database schema to inspect. Defaults to the connected
	// database name.
	Schema string `yaml:"schema" mapstructure:"schema"`

	// ExcludeTables lists tables to leave out of the insertion plan,
	// e.g. migration bookkeeping tables.
	ExcludeTables []string `yaml:"exclude_tables" mapstructure:"exclude_tables"`

	// FollowNullable also records ordering edges for nullable foreign
	// keys. Off by default: nullable keys cannot block an insert.
	FollowNullable bool `yaml:"follow_nullable" mapstructure:"follow_nullable"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     10,
			MaxIdleConnections: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// InspectSchema returns the schema to inspect, falling back to the
// connected database name.
func (c *Config) InspectSchema() string {
	if c.Inspect.Schema != "" {
		return c.Inspect.Schema
	}
	return c.Database.Database
}

// Excluded reports whether a table is excluded from inspection.
func (c *Config) Excluded(table string) bool {
	for _, t := range c.Inspect.ExcludeTables {
		if t == table {
			return true
		}
	}
	return false
}
