package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MySQLDSN формирует DSN для go-sql-driver. Пустой dbName даёт подключение
// к серверу без выбора базы.
func MySQLDSN(cfg DatabaseConfig, dbName string) string {
	dsn := mysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dsn.DBName = dbName
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	dsn.MultiStatements = false
	return dsn.FormatDSN()
}

// EnsureWarehouseDatabase создает базу хранилища, если она не существует
func EnsureWarehouseDatabase(ctx context.Context, cfg DatabaseConfig) error {
	db, err := sql.Open("mysql", MySQLDSN(cfg, ""))
	if err != nil {
		return fmt.Errorf("ошибка подключения к серверу MySQL: %w", err)
	}
	defer db.Close()

	query := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4", cfg.DBName)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка при создании базы данных %s: %w", cfg.DBName, err)
	}
	return nil
}

// ConnectWarehouse устанавливает подключение к MySQL базе хранилища
func ConnectWarehouse(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", MySQLDSN(cfg, cfg.DBName))
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных хранилища: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось установить соединение с базой данных хранилища: %w", err)
	}
	return db, nil
}

// ConnectPostgres создает пул подключений к PostgreSQL хранилищу
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора DSN PostgreSQL: %w", err)
	}

	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула PostgreSQL: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("не удалось установить соединение с PostgreSQL: %w", err)
	}
	return pool, nil
}
