package preference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"grocery-engine/internal/core/grocery"
)

// SQLiteStore 以 sqlite 保存偏好，每列一個 (user, key) 組合
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite 開啟資料庫並確保資料表存在
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create preference db directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// 同一使用者的寫入由單一連線序列化
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Get 讀取單一偏好
func (s *SQLiteStore) Get(ctx context.Context, userID, key string) (grocery.Category, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT category FROM category_preferences WHERE user_id = ? AND normalized_key = ?`,
		userID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get preference: %w", err)
	}
	tag := grocery.Category(value)
	if !tag.Valid() {
		return "", false, nil
	}
	return tag, true, nil
}

// Set 寫入或覆蓋偏好
func (s *SQLiteStore) Set(ctx context.Context, userID, key string, tag grocery.Category) error {
	if err := validate(userID, key, tag); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO category_preferences (user_id, normalized_key, category, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(user_id, normalized_key) DO UPDATE SET
  category = excluded.category,
  updated_at = CURRENT_TIMESTAMP`,
		userID, key, string(tag),
	)
	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// All 讀取使用者全部偏好
func (s *SQLiteStore) All(ctx context.Context, userID string) (map[string]grocery.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT normalized_key, category FROM category_preferences WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	defer rows.Close()

	out := make(map[string]grocery.Category)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		if tag := grocery.Category(value); tag.Valid() {
			out[key] = tag
		}
	}
	return out, rows.Err()
}

// Close 關閉資料庫
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping 檢查資料庫連線
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
