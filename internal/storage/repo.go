// Package storage, типизированный репозиторий поверх domain.Store.
// Записи кодируются CBOR; каждая ошибка помечается ErrStorageReadFailed или
// ErrStorageWriteFailed, чтобы граница UI-действие/Store могла её классифицировать.
package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/EgorLis/book-module/internal/domain"
)

type Repo struct {
	store domain.Store
	enc   cbor.EncMode
	dec   cbor.DecMode
}

func NewRepo(store domain.Store) *Repo {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	return &Repo{store: store, enc: enc, dec: dec}
}

func (r *Repo) Store() domain.Store { return r.store }

func readErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorageReadFailed, op, err)
}

func writeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorageWriteFailed, op, err)
}

// ---- resources ----

func (r *Repo) PutCustomResource(ctx context.Context, rec domain.CustomResourceRecord) error {
	if rec.URLStr == "" && rec.Blob == nil {
		rec.URLStr = rec.Resource.URL
	}
	data, err := r.enc.Marshal(rec)
	if err != nil {
		return writeErr("encode resource", err)
	}
	v := domain.Value{Data: data, Blob: rec.Blob}
	if err := r.store.Put(ctx, domain.CollectionResources, domain.IDKey(rec.Resource.ID), v); err != nil {
		return writeErr("put resource "+rec.Resource.ID, err)
	}
	return nil
}

func (r *Repo) DeleteCustomResource(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, domain.CollectionResources, domain.IDKey(id)); err != nil {
		return writeErr("delete resource "+id, err)
	}
	return nil
}

// CustomResources возвращает все пользовательские ресурсы; битые записи пропускаются
func (r *Repo) CustomResources(ctx context.Context) ([]domain.CustomResourceRecord, []error, error) {
	entries, err := r.store.GetAll(ctx, domain.CollectionResources)
	if err != nil {
		return nil, nil, readErr("get all resources", err)
	}
	out := make([]domain.CustomResourceRecord, 0, len(entries))
	var skipped []error
	for _, e := range entries {
		var rec domain.CustomResourceRecord
		if err := r.dec.Unmarshal(e.Value.Data, &rec); err != nil {
			skipped = append(skipped, readErr("decode resource "+e.Key.String(), err))
			continue
		}
		rec.Blob = e.Value.Blob
		out = append(out, rec)
	}
	return out, skipped, nil
}

// ---- annotations ----

func (r *Repo) Annotation(ctx context.Context, key domain.ResourceKey) (domain.AnnotationRecord, bool, error) {
	v, ok, err := r.store.Get(ctx, domain.CollectionAnnotations, domain.PageKey(key))
	if err != nil {
		return domain.AnnotationRecord{}, false, readErr("get annotation "+key.String(), err)
	}
	if !ok {
		return domain.AnnotationRecord{}, false, nil
	}
	var rec domain.AnnotationRecord
	if err := r.dec.Unmarshal(v.Data, &rec); err != nil {
		return domain.AnnotationRecord{}, false, readErr("decode annotation "+key.String(), err)
	}
	return rec, true, nil
}

func (r *Repo) PutAnnotation(ctx context.Context, rec domain.AnnotationRecord) error {
	if rec.Notes == nil {
		rec.Notes = []domain.TextNote{}
	}
	data, err := r.enc.Marshal(rec)
	if err != nil {
		return writeErr("encode annotation", err)
	}
	if err := r.store.Put(ctx, domain.CollectionAnnotations, domain.PageKey(rec.Key()), domain.Value{Data: data}); err != nil {
		return writeErr("put annotation "+rec.Key().String(), err)
	}
	return nil
}

// ---- settings ----

func (r *Repo) getSetting(ctx context.Context, key string, out any) (bool, error) {
	v, ok, err := r.store.Get(ctx, domain.CollectionSettings, domain.IDKey(key))
	if err != nil {
		return false, readErr("get setting "+key, err)
	}
	if !ok {
		return false, nil
	}
	if err := r.dec.Unmarshal(v.Data, out); err != nil {
		return false, readErr("decode setting "+key, err)
	}
	return true, nil
}

func (r *Repo) putSetting(ctx context.Context, key string, in any) error {
	data, err := r.enc.Marshal(in)
	if err != nil {
		return writeErr("encode setting "+key, err)
	}
	if err := r.store.Put(ctx, domain.CollectionSettings, domain.IDKey(key), domain.Value{Data: data}); err != nil {
		return writeErr("put setting "+key, err)
	}
	return nil
}

func (r *Repo) DeletedStaticIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if _, err := r.getSetting(ctx, domain.SettingDeletedStaticIDs, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repo) PutDeletedStaticIDs(ctx context.Context, ids []string) error {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return r.putSetting(ctx, domain.SettingDeletedStaticIDs, sorted)
}

func (r *Repo) ModifiedStaticResources(ctx context.Context) (map[string]domain.Resource, error) {
	m := map[string]domain.Resource{}
	if _, err := r.getSetting(ctx, domain.SettingModifiedStaticResources, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repo) PutModifiedStaticResources(ctx context.Context, m map[string]domain.Resource) error {
	return r.putSetting(ctx, domain.SettingModifiedStaticResources, m)
}

// ResourceOrder хранится как map["Studio-1"][]id
func (r *Repo) ResourceOrder(ctx context.Context) (map[domain.ResourceKey][]string, error) {
	raw := map[string][]string{}
	if _, err := r.getSetting(ctx, domain.SettingResourceOrder, &raw); err != nil {
		return nil, err
	}
	out := make(map[domain.ResourceKey][]string, len(raw))
	for k, ids := range raw {
		key, err := domain.ParseResourceKey(k)
		if err != nil {
			continue
		}
		out[key] = ids
	}
	return out, nil
}

func (r *Repo) PutResourceOrder(ctx context.Context, order map[domain.ResourceKey][]string) error {
	raw := make(map[string][]string, len(order))
	for k, ids := range order {
		raw[k.String()] = ids
	}
	return r.putSetting(ctx, domain.SettingResourceOrder, raw)
}
