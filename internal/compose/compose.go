// Package compose собирает итоговый список ресурсов страницы из каталога,
// пользовательских ресурсов и админских оверлеев.
package compose

import (
	"slices"

	"github.com/EgorLis/book-module/internal/domain"
)

// Overlay: снимок админских оверлеев, которые видит конвейер
type Overlay struct {
	DeletedStaticIDs        map[string]struct{}
	ModifiedStaticResources map[string]domain.Resource
	ResourceOrder           map[domain.ResourceKey][]string
}

type Input struct {
	Key     domain.ResourceKey
	Static  []domain.Resource
	Custom  []domain.Resource
	Overlay Overlay
	Role    domain.Role
}

// Compose без побочных эффектов: одинаковый вход даёт одинаковый список.
// Шаги: оверлей правок -> фильтр удалённых -> + пользовательские ->
// скрытые от студента -> стабильная сортировка по resourceOrder.
func Compose(in Input) []domain.Resource {
	out := make([]domain.Resource, 0, len(in.Static)+len(in.Custom))

	for _, r := range in.Static {
		if m, ok := in.Overlay.ModifiedStaticResources[r.ID]; ok {
			m.ID = r.ID
			r = m
		}
		if _, deleted := in.Overlay.DeletedStaticIDs[r.ID]; deleted {
			continue
		}
		out = append(out, r)
	}
	out = append(out, in.Custom...)

	if in.Role == domain.RoleStudent {
		out = slices.DeleteFunc(out, func(r domain.Resource) bool { return r.IsHiddenFromStudents })
	}

	order, ok := in.Overlay.ResourceOrder[in.Key]
	if !ok || len(order) == 0 {
		return out
	}
	rank := make(map[string]int, len(order))
	for i, id := range order {
		if _, seen := rank[id]; !seen {
			rank[id] = i
		}
	}
	indexOf := func(id string) int {
		if i, ok := rank[id]; ok {
			return i
		}
		return len(order)
	}
	slices.SortStableFunc(out, func(a, b domain.Resource) int {
		return indexOf(a.ID) - indexOf(b.ID)
	})
	return out
}

// IDs: идентификаторы в порядке списка
func IDs(rs []domain.Resource) []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}
