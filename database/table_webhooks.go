package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/t2bot/snapshot-repo/common/rcontext"
)

type DbWebhook struct {
	Id            string
	Type          string
	Url           string
	AuthSecretRef string
}

const upsertWebhook = "INSERT INTO webhooks (id, type, url, auth_secret_ref) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO UPDATE SET type = EXCLUDED.type, url = EXCLUDED.url, auth_secret_ref = EXCLUDED.auth_secret_ref;"
const selectAllWebhooks = "SELECT id, type, url, auth_secret_ref FROM webhooks ORDER BY id;"

type webhooksTableStatements struct {
	upsertWebhook     *sql.Stmt
	selectAllWebhooks *sql.Stmt
}

type webhooksTableWithContext struct {
	statements *webhooksTableStatements
	ctx        rcontext.RequestContext
}

func prepareWebhooksTables(db *sql.DB) (*webhooksTableStatements, error) {
	var err error
	stmts := &webhooksTableStatements{}

	if stmts.upsertWebhook, err = db.Prepare(upsertWebhook); err != nil {
		return nil, fmt.Errorf("error preparing upsertWebhook: %w", err)
	}
	if stmts.selectAllWebhooks, err = db.Prepare(selectAllWebhooks); err != nil {
		return nil, fmt.Errorf("error preparing selectAllWebhooks: %w", err)
	}

	return stmts, nil
}

func (s *webhooksTableStatements) Prepare(ctx rcontext.RequestContext) *webhooksTableWithContext {
	return &webhooksTableWithContext{
		statements: s,
		ctx:        ctx,
	}
}

func (s *webhooksTableWithContext) Upsert(record *DbWebhook) error {
	_, err := s.statements.upsertWebhook.ExecContext(s.ctx, record.Id, record.Type, record.Url, record.AuthSecretRef)
	return err
}

func (s *webhooksTableWithContext) GetAll() ([]*DbWebhook, error) {
	results := make([]*DbWebhook, 0)
	rows, err := s.statements.selectAllWebhooks.QueryContext(s.ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return results, nil
		}
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		val := &DbWebhook{}
		if err = rows.Scan(&val.Id, &val.Type, &val.Url, &val.AuthSecretRef); err != nil {
			return nil, err
		}
		results = append(results, val)
	}
	return results, rows.Err()
}
