package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPageSize размер страницы при постраничной выборке продаж
const DefaultPageSize = 1000

// DBConfig конфигурация подключения к БД
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// PageSize размер страницы FetchAllSales
	PageSize int
}

// SalesDB хранилище продаж, эталонных адресов и справочников
type SalesDB struct {
	conn     *sql.DB
	pageSize int
}

func nullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullablePtr возвращает nil для NULL
func nullablePtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	value := ns.String
	return &value
}

// toNull превращает пустую строку в NULL
func toNull(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

// NewSalesDB открывает базу с настройками по умолчанию
func NewSalesDB(dbPath string) (*SalesDB, error) {
	config := DBConfig{}

	// Каждое новое соединение с in-memory SQLite получает пустую БД
	if isInMemoryDB(dbPath) {
		config.MaxOpenConns = 1
		config.MaxIdleConns = 1
	}

	return NewSalesDBWithConfig(dbPath, config)
}

// isInMemoryDB определяет, что путь относится к in-memory SQLite
func isInMemoryDB(dbPath string) bool {
	if dbPath == ":memory:" {
		return true
	}
	return strings.HasPrefix(dbPath, "file:") && strings.Contains(dbPath, "mode=memory")
}

// NewSalesDBWithConfig открывает базу и применяет миграции схемы
func NewSalesDBWithConfig(dbPath string, config DBConfig) (*SalesDB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sales database: %w", err)
	}

	if config.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(config.MaxOpenConns)
	} else {
		// SQLite плохо переносит много одновременных писателей
		conn.SetMaxOpenConns(10)
	}
	if config.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(config.MaxIdleConns)
	} else {
		conn.SetMaxIdleConns(3)
	}
	if config.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	} else {
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping sales database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// WAL позволяет читать во время загрузки отчетов
	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Printf("[SalesDB] Warning: Failed to enable WAL mode: %v", err)
	}

	if err := InitSchema(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize sales schema: %w", err)
	}

	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &SalesDB{conn: conn, pageSize: pageSize}, nil
}

// Close закрывает подключение
func (db *SalesDB) Close() error {
	return db.conn.Close()
}

// Ping проверяет подключение к базе данных
func (db *SalesDB) Ping() error {
	return db.conn.Ping()
}

// PageSize размер страницы постраничной выборки
func (db *SalesDB) PageSize() int {
	return db.pageSize
}
