package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.mongodb.org/mongo-driver/bson"

	"storefront-backend/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is a single-file Store for local development and tests. Documents
// are bson-encoded so the same struct tags serve both backends. Storage order
// is insertion order.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Products() Products { return sqliteProducts{s} }
func (s *SQLite) Carts() Carts       { return sqliteCarts{s} }
func (s *SQLite) Orders() Orders     { return sqliteOrders{s} }
func (s *SQLite) Users() Users       { return sqliteUsers{s} }

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close(context.Context) error {
	return s.db.Close()
}

func (s *SQLite) upsert(ctx context.Context, collection, id, owner string, doc any) error {
	body, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, owner, body)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET owner = excluded.owner, body = excluded.body
	`, collection, id, owner, body)
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *SQLite) insert(ctx context.Context, collection, id, owner string, doc any) error {
	body, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, owner, body) VALUES (?, ?, ?, ?)`,
		collection, id, owner, body)
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *SQLite) get(ctx context.Context, out any, query string, args ...any) error {
	var body []byte
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	if err := bson.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

func list[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var doc T
		if err := bson.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type sqliteProducts struct{ s *SQLite }

func (p sqliteProducts) List(ctx context.Context, limit, offset int) ([]models.Product, error) {
	return list[models.Product](ctx, p.s.db,
		`SELECT body FROM documents WHERE collection = ? ORDER BY rowid LIMIT ? OFFSET ?`,
		CollectionProducts, limit, offset)
}

func (p sqliteProducts) Get(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := p.s.get(ctx, &product,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, CollectionProducts, id)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (p sqliteProducts) Put(ctx context.Context, product *models.Product) error {
	return p.s.upsert(ctx, CollectionProducts, product.ID, "", product)
}

type sqliteCarts struct{ s *SQLite }

func (c sqliteCarts) Get(ctx context.Context, uid string) (*models.Cart, error) {
	var cart models.Cart
	err := c.s.get(ctx, &cart,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, CollectionCarts, uid)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c sqliteCarts) Put(ctx context.Context, cart *models.Cart) error {
	return c.s.upsert(ctx, CollectionCarts, cart.UID, cart.UID, cart)
}

type sqliteOrders struct{ s *SQLite }

func (o sqliteOrders) Create(ctx context.Context, order *models.Order) error {
	return o.s.insert(ctx, CollectionOrders, order.ID, order.UID, order)
}

func (o sqliteOrders) ListByUser(ctx context.Context, uid string) ([]models.Order, error) {
	return list[models.Order](ctx, o.s.db,
		`SELECT body FROM documents WHERE collection = ? AND owner = ? ORDER BY rowid`,
		CollectionOrders, uid)
}

func (o sqliteOrders) Get(ctx context.Context, uid, id string) (*models.Order, error) {
	var order models.Order
	err := o.s.get(ctx, &order,
		`SELECT body FROM documents WHERE collection = ? AND id = ? AND owner = ?`,
		CollectionOrders, id, uid)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type sqliteUsers struct{ s *SQLite }

func (u sqliteUsers) Get(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	err := u.s.get(ctx, &user,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, CollectionUsers, uid)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u sqliteUsers) Put(ctx context.Context, user *models.User) error {
	return u.s.upsert(ctx, CollectionUsers, user.UID, user.UID, user)
}
