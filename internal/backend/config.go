package backend

import (
	"fmt"

	"pennywise/internal/config"
)

// FromAppConfig converts application config to backend config
func FromAppConfig(appConfig *config.Config) Config {
	return Config{
		Type:         BackendType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		QuotaType:    QuotaType(appConfig.QuotaBackend),
		BoltDBPath:   appConfig.BoltDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite backend requires SQLiteDBPath")
	}

	if !c.QuotaType.IsValid() {
		return fmt.Errorf("invalid quota backend: %s", c.QuotaType)
	}

	if c.QuotaType == BoltQuota && c.BoltDBPath == "" {
		return fmt.Errorf("bolt quota backend requires BoltDBPath")
	}

	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP requires both exchange and queue names")
	}

	return nil
}

// GetBackendTypes returns all available backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all available backend types as strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	result := make([]string, len(types))
	for i, t := range types {
		result[i] = t.String()
	}
	return result
}
