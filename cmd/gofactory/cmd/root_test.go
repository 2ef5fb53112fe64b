package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommandStructure(t *testing.T) {
	assert.Equal(t, "gofactory", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.Equal(t, Version, rootCmd.Version)
}

func TestGetConfigFile(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	cfgFile = "/path/to/custom.yaml"
	assert.Equal(t, "/path/to/custom.yaml", GetConfigFile())
}

func TestDefaultFlagValues(t *testing.T) {
	assert.Equal(t, "gofactory.yaml", cfgFile)
	assert.Equal(t, "", logLevel)
	assert.Equal(t, "", logFormat)
	assert.Equal(t, "", schema)
}

func TestGetCLIOverrides(t *testing.T) {
	originalLogLevel := logLevel
	originalLogFormat := logFormat
	originalSchema := schema
	defer func() {
		logLevel = originalLogLevel
		logFormat = originalLogFormat
		schema = originalSchema
	}()

	logLevel = "debug"
	logFormat = "text"
	schema = "fixtures"

	overrides := GetCLIOverrides()
	assert.Equal(t, "debug", overrides.LogLevel)
	assert.Equal(t, "text", overrides.LogFormat)
	assert.Equal(t, "fixtures", overrides.Schema)
}

func TestPersistentFlagsRegistered(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	for _, name := range []string{"config", "log-level", "log-format", "schema"} {
		assert.NotNil(t, flags.Lookup(name), "flag %s should be registered", name)
	}

	configFlag := flags.Lookup("config")
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "gofactory.yaml", configFlag.DefValue)
}
