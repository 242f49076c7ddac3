package app

import (
	"database/sql"

	"go-leave/internal/config"
	"go-leave/internal/shared/connection"
	"go-leave/internal/shared/migration"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type infrastructure struct {
	gormDB *gorm.DB
	sqlDB  *sql.DB
	redis  *redis.Client
}

func (i *infrastructure) Close() {
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.sqlDB != nil {
		_ = i.sqlDB.Close()
	}
}

func postgresConfig(cfg *config.Config) connection.PostgresConfig {
	return connection.PostgresConfig{
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
		SSLMode:  cfg.DBSSLMode,
	}
}

func connectDatabase(cfg *config.Config) (*gorm.DB, *sql.DB, error) {
	gormDB, err := connection.ConnectGORMWithRetry(postgresConfig(cfg), 5)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	return gormDB, sqlDB, nil
}

// BuildApp connects the stores, applies migrations and registers every route on router.
// The returned func releases the connections.
func BuildApp(router *gin.Engine, cfg *config.Config) (func(), error) {
	log := zap.L().Named("app")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	infra := &infrastructure{}

	gormDB, sqlDB, err := connectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	infra.gormDB, infra.sqlDB = gormDB, sqlDB
	log.Info("database connection established")

	if err := migration.Up(sqlDB); err != nil {
		infra.Close()
		return nil, err
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		infra.Close()
		return nil, err
	}
	infra.redis = rdb
	log.Info("redis connection established")

	if err := registerModules(router, cfg, infra); err != nil {
		infra.Close()
		return nil, err
	}

	return infra.Close, nil
}
