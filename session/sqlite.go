package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS session_state (
	name       TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// SQLite 把状态块保存在单个 SQLite 文件中，每个名称一行。
type SQLite struct {
	db   *sql.DB
	path string
}

var _ Storage = (*SQLite)(nil)

// OpenSQLite 打开（必要时创建）数据库文件。
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("session: 数据库路径为空")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("session: 创建目录失败: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("session: 打开数据库失败: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: 初始化表结构失败: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Path 返回数据库文件路径。
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Load(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM session_state WHERE name = ?", name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("session: 读取 %s 失败: %w", name, err)
	}
	return data, nil
}

func (s *SQLite) Save(ctx context.Context, name string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_state (name, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, name, data)
	if err != nil {
		return fmt.Errorf("session: 保存 %s 失败: %w", name, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session_state WHERE name = ?", name); err != nil {
		return fmt.Errorf("session: 删除 %s 失败: %w", name, err)
	}
	return nil
}

func (s *SQLite) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM session_state ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("session: 列出状态失败: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("session: 列出状态失败: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Close 关闭数据库连接。
func (s *SQLite) Close() error { return s.db.Close() }
