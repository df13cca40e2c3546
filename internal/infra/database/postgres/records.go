package postgres

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/EgorLis/book-module/internal/domain"
)

var recordColumns = []string{
	"id", "book", "page", "data",
	"blob_mime", "blob_name", "blob_size", "blob_sha256", "blob_storage_key", "blob_data",
}

func keyEq(c domain.Collection, k domain.Key) sq.Eq {
	return sq.Eq{"collection": string(c), "id": k.ID, "book": string(k.Book), "page": k.Page}
}

func scanRecord(row pgx.Row) (domain.Entry, error) {
	var (
		e          domain.Entry
		book       string
		mime, name *string
		size       *int64
		sha        []byte
		storageKey *string
		blobData   []byte
	)
	if err := row.Scan(
		&e.Key.ID, &book, &e.Key.Page, &e.Value.Data,
		&mime, &name, &size, &sha, &storageKey, &blobData,
	); err != nil {
		return domain.Entry{}, err
	}
	e.Key.Book = domain.BookCategory(book)
	if mime != nil {
		b := &domain.Blob{MIME: *mime, SHA256: sha, Data: blobData}
		if name != nil {
			b.Name = *name
		}
		if size != nil {
			b.Size = *size
		}
		if storageKey != nil {
			b.StorageKey = *storageKey
		}
		e.Value.Blob = b
	}
	return e, nil
}

func (r *PGRepo) Get(ctx context.Context, c domain.Collection, k domain.Key) (domain.Value, bool, error) {
	q := r.qb().Select(recordColumns...).From(r.table()).Where(keyEq(c, k))
	sqlStr, args, _ := q.ToSql()
	r.logSQL("Get", sqlStr, args)

	start := time.Now()
	e, err := scanRecord(r.pool.QueryRow(ctx, sqlStr, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Value{}, false, nil
	}
	if err != nil {
		r.log.Error().Err(err).Dur("took", time.Since(start)).Str("key", k.String()).Msg("Get scan error")
		return domain.Value{}, false, err
	}
	return e.Value, true, nil
}

func (r *PGRepo) GetAll(ctx context.Context, c domain.Collection) ([]domain.Entry, error) {
	q := r.qb().Select(recordColumns...).From(r.table()).
		Where(sq.Eq{"collection": string(c)}).
		OrderBy("id", "book", "page")
	sqlStr, args, _ := q.ToSql()
	r.logSQL("GetAll", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.log.Error().Err(err).Dur("took", time.Since(start)).Msg("GetAll query error")
		return nil, err
	}
	defer rows.Close()

	var out []domain.Entry
	for rows.Next() {
		e, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.log.Debug().Str("collection", string(c)).Int("rows", len(out)).Dur("took", time.Since(start)).Msg("GetAll ok")
	return out, nil
}

// Put: upsert всей записи целиком (last-write-wins)
func (r *PGRepo) Put(ctx context.Context, c domain.Collection, k domain.Key, v domain.Value) error {
	var (
		mime, name, storageKey *string
		size                   *int64
		sha, blobData          []byte
	)
	if b := v.Blob; b != nil {
		mime, name, size = &b.MIME, &b.Name, &b.Size
		sha, blobData = b.SHA256, b.Data
		if b.StorageKey != "" {
			storageKey = &b.StorageKey
		}
	}
	data := v.Data
	if data == nil {
		data = []byte{}
	}

	q := r.qb().Insert(r.table()).
		Columns("collection", "id", "book", "page", "data",
			"blob_mime", "blob_name", "blob_size", "blob_sha256", "blob_storage_key", "blob_data").
		Values(string(c), k.ID, string(k.Book), k.Page, data,
			mime, name, size, sha, storageKey, blobData).
		Suffix(`ON CONFLICT (collection, id, book, page) DO UPDATE SET
			data = EXCLUDED.data,
			blob_mime = EXCLUDED.blob_mime,
			blob_name = EXCLUDED.blob_name,
			blob_size = EXCLUDED.blob_size,
			blob_sha256 = EXCLUDED.blob_sha256,
			blob_storage_key = EXCLUDED.blob_storage_key,
			blob_data = EXCLUDED.blob_data,
			updated_at = now()`)
	sqlStr, args, _ := q.ToSql()
	r.logSQL("Put", sqlStr, args)

	start := time.Now()
	if _, err := r.pool.Exec(ctx, sqlStr, args...); err != nil {
		r.log.Error().Err(err).Dur("took", time.Since(start)).Str("key", k.String()).Msg("Put exec error")
		return err
	}
	r.log.Debug().Str("collection", string(c)).Str("key", k.String()).Dur("took", time.Since(start)).Msg("Put ok")
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, c domain.Collection, k domain.Key) error {
	q := r.qb().Delete(r.table()).Where(keyEq(c, k))
	sqlStr, args, _ := q.ToSql()
	r.logSQL("Delete", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.log.Error().Err(err).Dur("took", time.Since(start)).Str("key", k.String()).Msg("Delete exec error")
		return err
	}
	r.log.Debug().Str("key", k.String()).Int64("rows", tag.RowsAffected()).Msg("Delete ok")
	return nil
}
