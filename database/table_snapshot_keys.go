package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/t2bot/snapshot-repo/common/rcontext"
)

type DbSnapshotKey struct {
	Key           string
	Hash          string
	CanonicalDate string
	// ExpiresTs is in milliseconds. Zero never expires.
	ExpiresTs int64
}

func (r *DbSnapshotKey) IsExpired() bool {
	if r.ExpiresTs == 0 {
		return false
	}
	return time.UnixMilli(r.ExpiresTs).Before(time.Now())
}

const upsertSnapshotKey = "INSERT INTO snapshot_keys (key, hash, canonical_date, expires_ts) VALUES ($1, $2, $3, $4) ON CONFLICT (key) DO UPDATE SET hash = EXCLUDED.hash, canonical_date = EXCLUDED.canonical_date, expires_ts = EXCLUDED.expires_ts;"
const selectSnapshotKey = "SELECT key, hash, canonical_date, expires_ts FROM snapshot_keys WHERE key = $1 AND (expires_ts = 0 OR expires_ts >= $2);"
const selectSnapshotKeysByPrefix = "SELECT key, hash, canonical_date, expires_ts FROM snapshot_keys WHERE key LIKE $1 AND (expires_ts = 0 OR expires_ts >= $2) ORDER BY key;"
const deleteExpiredSnapshotKeys = "DELETE FROM snapshot_keys WHERE expires_ts > 0 AND expires_ts < $1;"

type keysTableStatements struct {
	upsertSnapshotKey          *sql.Stmt
	selectSnapshotKey          *sql.Stmt
	selectSnapshotKeysByPrefix *sql.Stmt
	deleteExpiredSnapshotKeys  *sql.Stmt
}

type keysTableWithContext struct {
	statements *keysTableStatements
	ctx        rcontext.RequestContext
}

func prepareKeysTables(db *sql.DB) (*keysTableStatements, error) {
	var err error
	stmts := &keysTableStatements{}

	if stmts.upsertSnapshotKey, err = db.Prepare(upsertSnapshotKey); err != nil {
		return nil, fmt.Errorf("error preparing upsertSnapshotKey: %w", err)
	}
	if stmts.selectSnapshotKey, err = db.Prepare(selectSnapshotKey); err != nil {
		return nil, fmt.Errorf("error preparing selectSnapshotKey: %w", err)
	}
	if stmts.selectSnapshotKeysByPrefix, err = db.Prepare(selectSnapshotKeysByPrefix); err != nil {
		return nil, fmt.Errorf("error preparing selectSnapshotKeysByPrefix: %w", err)
	}
	if stmts.deleteExpiredSnapshotKeys, err = db.Prepare(deleteExpiredSnapshotKeys); err != nil {
		return nil, fmt.Errorf("error preparing deleteExpiredSnapshotKeys: %w", err)
	}

	return stmts, nil
}

func (s *keysTableStatements) Prepare(ctx rcontext.RequestContext) *keysTableWithContext {
	return &keysTableWithContext{
		statements: s,
		ctx:        ctx,
	}
}

func (s *keysTableWithContext) Upsert(record *DbSnapshotKey) error {
	_, err := s.statements.upsertSnapshotKey.ExecContext(s.ctx, record.Key, record.Hash, record.CanonicalDate, record.ExpiresTs)
	return err
}

func (s *keysTableWithContext) Get(key string) (*DbSnapshotKey, error) {
	row := s.statements.selectSnapshotKey.QueryRowContext(s.ctx, key, time.Now().UnixMilli())
	val := &DbSnapshotKey{}
	err := row.Scan(&val.Key, &val.Hash, &val.CanonicalDate, &val.ExpiresTs)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		val = nil
	}
	return val, err
}

// ByPrefix returns live keys starting with prefix. An empty prefix matches everything.
func (s *keysTableWithContext) ByPrefix(prefix string) ([]*DbSnapshotKey, error) {
	results := make([]*DbSnapshotKey, 0)
	rows, err := s.statements.selectSnapshotKeysByPrefix.QueryContext(s.ctx, escapeLike(prefix)+"%", time.Now().UnixMilli())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return results, nil
		}
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		val := &DbSnapshotKey{}
		if err = rows.Scan(&val.Key, &val.Hash, &val.CanonicalDate, &val.ExpiresTs); err != nil {
			return nil, err
		}
		results = append(results, val)
	}
	return results, rows.Err()
}

func (s *keysTableWithContext) DeleteExpired() (int64, error) {
	res, err := s.statements.deleteExpiredSnapshotKeys.ExecContext(s.ctx, time.Now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
