package domain

import (
	"cmp"
	"context"
	"strconv"
)

// Логические коллекции хранилища
type Collection string

const (
	CollectionResources   Collection = "resources"
	CollectionAnnotations Collection = "annotations"
	CollectionSettings    Collection = "settings"
)

func AllCollections() []Collection {
	return []Collection{CollectionResources, CollectionAnnotations, CollectionSettings}
}

// Key адресует запись. У аннотаций ключ составной (Book, Page), у ресурсов и настроек, строка ID.
type Key struct {
	ID   string
	Book BookCategory
	Page int
}

func IDKey(id string) Key { return Key{ID: id} }

func PageKey(k ResourceKey) Key { return Key{Book: k.Book, Page: k.Page} }

func (k Key) IsComposite() bool { return k.ID == "" && k.Book != "" }

func (k Key) String() string {
	if k.IsComposite() {
		return string(k.Book) + "/" + strconv.Itoa(k.Page)
	}
	return k.ID
}

// CompareKeys задаёт порядок ключей для GetAll
func CompareKeys(a, b Key) int {
	return cmp.Or(
		cmp.Compare(a.ID, b.ID),
		cmp.Compare(a.Book, b.Book),
		cmp.Compare(a.Page, b.Page),
	)
}

// Blob: бинарное содержимое рядом со структурной записью.
// Data заполнен для inline-хранения, StorageKey, если тело вынесено в объектное хранилище.
type Blob struct {
	MIME       string `cbor:"mime"`
	Name       string `cbor:"name,omitempty"`
	Size       int64  `cbor:"size"`
	SHA256     []byte `cbor:"sha256"`
	StorageKey string `cbor:"storage_key,omitempty"`
	Data       []byte `cbor:"data,omitempty"`
}

func (b *Blob) Inline() bool { return b != nil && b.StorageKey == "" }

// Value: непрозрачная запись; схему не проверяем, это забота вызывающего.
type Value struct {
	Data []byte `cbor:"data"`
	Blob *Blob  `cbor:"blob,omitempty"`
}

type Entry struct {
	Key   Key
	Value Value
}

// Store: асинхронное keyed-хранилище (memory / postgres / redis)
type Store interface {
	Get(ctx context.Context, c Collection, k Key) (Value, bool, error)
	GetAll(ctx context.Context, c Collection) ([]Entry, error)
	Put(ctx context.Context, c Collection, k Key, v Value) error
	Delete(ctx context.Context, c Collection, k Key) error
	Ping(ctx context.Context) error
	Close()
}

// Ключи коллекции settings
const (
	SettingDeletedStaticIDs        = "deletedStaticIds"
	SettingModifiedStaticResources = "modifiedStaticResources"
	SettingResourceOrder           = "resourceOrder"
)
