package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/avbottsubscription-dev/canteencouponang/internal/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection text NOT NULL,
	key        text NOT NULL,
	doc        jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, key)
);

CREATE OR REPLACE FUNCTION notify_document_change() RETURNS trigger AS $$
BEGIN
	IF TG_OP = 'DELETE' THEN
		PERFORM pg_notify('document_changes', OLD.collection);
		RETURN OLD;
	END IF;
	PERFORM pg_notify('document_changes', NEW.collection);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS documents_notify ON documents;
CREATE TRIGGER documents_notify
AFTER INSERT OR UPDATE OR DELETE ON documents
FOR EACH ROW EXECUTE FUNCTION notify_document_change();
`

// Postgres implements Remote on a single JSONB documents table. A trigger
// emits a NOTIFY for every write, so changes made by other clients and the
// kiosk device bridge reach subscribers without polling.
type Postgres struct {
	DB     *db.Postgres
	Logger *slog.Logger

	mu   sync.Mutex
	subs map[string][]SnapshotFunc

	listenOnce sync.Once
}

func NewPostgres(ctx context.Context, database *db.Postgres, logger *slog.Logger) (*Postgres, error) {
	if _, err := database.Pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	return &Postgres{DB: database, Logger: logger, subs: make(map[string][]SnapshotFunc)}, nil
}

func (p *Postgres) GetAll(ctx context.Context, collection string) (Snapshot, error) {
	rows, err := p.DB.Pool.Query(ctx, `
		SELECT key, doc FROM documents WHERE collection = $1
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("get all %s: %w", collection, err)
	}
	defer rows.Close()

	snap := Snapshot{}
	for rows.Next() {
		var key string
		var doc []byte
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, err
		}
		snap[key] = doc
	}
	return snap, rows.Err()
}

func (p *Postgres) Upsert(ctx context.Context, collection, key string, doc Document) error {
	_, err := p.DB.Pool.Exec(ctx, `
		INSERT INTO documents (collection, key, doc, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, collection, key, doc)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, key string) error {
	_, err := p.DB.Pool.Exec(ctx, `
		DELETE FROM documents WHERE collection = $1 AND key = $2
	`, collection, key)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (p *Postgres) QueryEqual(ctx context.Context, collection, field, value string) ([]Document, error) {
	rows, err := p.DB.Pool.Query(ctx, `
		SELECT doc FROM documents WHERE collection = $1 AND doc->>$2 = $3
	`, collection, field, value)
	if err != nil {
		return nil, fmt.Errorf("query %s.%s: %w", collection, field, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (p *Postgres) Latest(ctx context.Context, collection, orderField string, limit int) ([]Document, error) {
	rows, err := p.DB.Pool.Query(ctx, `
		SELECT doc FROM documents
		WHERE collection = $1
		ORDER BY doc->>$2 DESC
		LIMIT $3
	`, collection, orderField, limit)
	if err != nil {
		return nil, fmt.Errorf("latest %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (p *Postgres) Subscribe(ctx context.Context, collection string, fn SnapshotFunc) (func(), error) {
	snap, err := p.GetAll(ctx, collection)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.subs[collection] = append(p.subs[collection], fn)
	idx := len(p.subs[collection]) - 1
	p.mu.Unlock()

	var listenErr error
	p.listenOnce.Do(func() { listenErr = p.startListener(ctx) })
	if listenErr != nil {
		return nil, listenErr
	}

	fn(snap)

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		subs := p.subs[collection]
		if idx < len(subs) {
			subs[idx] = nil
		}
	}
	return cancel, nil
}

// startListener holds a dedicated connection on LISTEN and fans each
// notification out as a fresh full-collection snapshot. Snapshots for a
// collection are fetched and delivered from this single goroutine, which
// preserves delivery order per collection.
func (p *Postgres) startListener(ctx context.Context) error {
	conn, err := p.DB.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, `LISTEN document_changes`); err != nil {
		conn.Release()
		return fmt.Errorf("listen document_changes: %w", err)
	}

	go func() {
		defer conn.Release()
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.Logger.Error("document change listener stopped", "err", err)
				return
			}
			p.dispatch(ctx, n.Payload)
		}
	}()
	return nil
}

func (p *Postgres) dispatch(ctx context.Context, collection string) {
	p.mu.Lock()
	subs := append([]SnapshotFunc(nil), p.subs[collection]...)
	p.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	snap, err := p.GetAll(ctx, collection)
	if err != nil {
		p.Logger.Error("snapshot fetch failed", "collection", collection, "err", err)
		return
	}
	for _, fn := range subs {
		if fn != nil {
			fn(snap)
		}
	}
}
