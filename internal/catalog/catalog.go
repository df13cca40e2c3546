// Package catalog, источник страниц книг и статических ресурсов (только чтение).
// По умолчанию используется встроенный catalog.yaml; CATALOG_PATH подменяет его.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/EgorLis/book-module/internal/domain"
)

//go:embed catalog.yaml
var embedded []byte

type file struct {
	Books map[domain.BookCategory][]domain.PageData `yaml:"books"`
}

type location struct {
	key   domain.ResourceKey
	index int
}

type Catalog struct {
	books     map[domain.BookCategory][]domain.PageData
	resources map[string]location
}

// Load читает каталог из path; пустой path, встроенный каталог
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(embedded)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Default() *Catalog {
	c, err := Parse(embedded)
	if err != nil {
		panic(err)
	}
	return c
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c := &Catalog{
		books:     make(map[domain.BookCategory][]domain.PageData, len(f.Books)),
		resources: make(map[string]location),
	}
	for book, pages := range f.Books {
		if _, err := domain.ParseBook(string(book)); err != nil {
			return nil, err
		}
		slices.SortFunc(pages, func(a, b domain.PageData) int { return a.PageNumber - b.PageNumber })
		for i := range pages {
			p := &pages[i]
			if i > 0 && pages[i-1].PageNumber == p.PageNumber {
				return nil, fmt.Errorf("catalog: %s page %d is duplicated", book, p.PageNumber)
			}
			if p.Layout == "" {
				p.Layout = domain.LayoutPortrait
			}
			if p.Layout != domain.LayoutPortrait && p.Layout != domain.LayoutLandscape {
				return nil, fmt.Errorf("catalog: %s page %d: unknown layout %q", book, p.PageNumber, p.Layout)
			}
			key := domain.ResourceKey{Book: book, Page: p.PageNumber}
			for j, r := range p.Resources {
				if r.ID == "" || domain.IsCustomID(r.ID) {
					return nil, fmt.Errorf("catalog: %s: bad static resource id %q", key, r.ID)
				}
				if !r.Type.Valid() {
					return nil, fmt.Errorf("catalog: %s: resource %s: unknown type %q", key, r.ID, r.Type)
				}
				if _, dup := c.resources[r.ID]; dup {
					return nil, fmt.Errorf("catalog: resource id %q is duplicated", r.ID)
				}
				c.resources[r.ID] = location{key: key, index: j}
			}
		}
		c.books[book] = pages
	}
	return c, nil
}

// Pages: страницы книги по возрастанию номера (без копирования ресурсов)
func (c *Catalog) Pages(book domain.BookCategory) ([]domain.PageData, error) {
	pages, ok := c.books[book]
	if !ok {
		return nil, fmt.Errorf("%w: book %s", domain.ErrNotFound, book)
	}
	return slices.Clone(pages), nil
}

func (c *Catalog) Page(key domain.ResourceKey) (domain.PageData, bool) {
	pages := c.books[key.Book]
	i, ok := slices.BinarySearchFunc(pages, key.Page, func(p domain.PageData, n int) int { return p.PageNumber - n })
	if !ok {
		return domain.PageData{}, false
	}
	return pages[i], true
}

// PageOrFirst: неизвестный номер страницы откатывается на первую страницу книги
func (c *Catalog) PageOrFirst(key domain.ResourceKey) (domain.PageData, error) {
	if p, ok := c.Page(key); ok {
		return p, nil
	}
	pages := c.books[key.Book]
	if len(pages) == 0 {
		return domain.PageData{}, fmt.Errorf("%w: book %s", domain.ErrNotFound, key.Book)
	}
	return pages[0], nil
}

// StaticResources: копия статических ресурсов страницы
func (c *Catalog) StaticResources(key domain.ResourceKey) []domain.Resource {
	p, ok := c.Page(key)
	if !ok {
		return nil
	}
	return slices.Clone(p.Resources)
}

// Resource ищет статический ресурс по id во всех книгах
func (c *Catalog) Resource(id string) (domain.Resource, domain.ResourceKey, bool) {
	loc, ok := c.resources[id]
	if !ok {
		return domain.Resource{}, domain.ResourceKey{}, false
	}
	p, _ := c.Page(loc.key)
	return p.Resources[loc.index], loc.key, true
}

func (c *Catalog) Has(id string) bool {
	_, ok := c.resources[id]
	return ok
}
