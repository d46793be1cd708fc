package backend

import (
	"errors"
	"fmt"

	"bilancio/internal/config"
	"bilancio/internal/services"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Storage:      StoreType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		KV:           StoreType(appConfig.KVBackend),
		KVPath:       appConfig.KVPath,

		CategoryColumn: appConfig.CategoryColumn,
		BudgetScope:    services.BudgetScope(appConfig.BudgetScope),

		CacheSize: appConfig.CacheSize,
		CacheTTL:  appConfig.CacheTTL,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}
	return cfg, cfg.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	var errs []error
	if !c.Storage.IsValid() {
		errs = append(errs, fmt.Errorf("invalid storage type: %s", c.Storage))
	}
	if !c.KV.IsValid() {
		errs = append(errs, fmt.Errorf("invalid kv type: %s", c.KV))
	}
	if c.Storage == SQLiteStore && c.SQLiteDBPath == "" {
		errs = append(errs, errors.New("SQLite database path is required for sqlite storage"))
	}
	if c.KV == SQLiteStore && c.KVPath == "" {
		errs = append(errs, errors.New("kv path is required for sqlite kv"))
	}
	if _, err := services.GetVisibilityRule(c.scope()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Config) scope() services.BudgetScope {
	if c.BudgetScope == "" {
		return services.ScopeAll
	}
	return c.BudgetScope
}
