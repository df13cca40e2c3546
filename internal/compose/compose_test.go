package compose

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/EgorLis/book-module/internal/domain"
)

var studio1 = domain.ResourceKey{Book: domain.BookStudio, Page: 1}

func res(id string) domain.Resource {
	return domain.Resource{ID: id, Title: id, Type: domain.ResourceLink, URL: "https://" + id}
}

func TestComposeStaticThenCustom(t *testing.T) {
	got := Compose(Input{
		Key:    studio1,
		Static: []domain.Resource{res("a"), res("b")},
		Custom: []domain.Resource{res("custom-1")},
		Role:   domain.RoleTeacher,
	})
	if diff := cmp.Diff([]string{"a", "b", "custom-1"}, IDs(got)); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
}

func TestComposeExplicitOrder(t *testing.T) {
	got := Compose(Input{
		Key:    studio1,
		Static: []domain.Resource{res("idA"), res("idB")},
		Overlay: Overlay{ResourceOrder: map[domain.ResourceKey][]string{
			studio1: {"idB", "idA"},
		}},
		Role: domain.RoleAdmin,
	})
	assert.Equal(t, []string{"idB", "idA"}, IDs(got))
}

func TestComposeOverlays(t *testing.T) {
	renamed := res("b")
	renamed.Title = "Renamed"
	renamed.ID = "ignored"

	in := Input{
		Key:    studio1,
		Static: []domain.Resource{res("a"), res("b"), res("c")},
		Overlay: Overlay{
			DeletedStaticIDs:        map[string]struct{}{"a": {}, "zzz": {}},
			ModifiedStaticResources: map[string]domain.Resource{"b": renamed, "ghost": res("ghost")},
		},
		Role: domain.RoleAdmin,
	}
	got := Compose(in)
	assert.Equal(t, []string{"b", "c"}, IDs(got))
	assert.Equal(t, "Renamed", got[0].Title)

	// удалённый и одновременно изменённый ресурс всё равно не показывается
	in.Overlay.ModifiedStaticResources["a"] = res("a")
	assert.Equal(t, []string{"b", "c"}, IDs(Compose(in)))
}

func TestComposeHiddenFromStudents(t *testing.T) {
	hidden := res("h")
	hidden.IsHiddenFromStudents = true
	hiddenCustom := res("custom-h")
	hiddenCustom.IsHiddenFromStudents = true

	in := Input{
		Key:    studio1,
		Static: []domain.Resource{res("a"), hidden},
		Custom: []domain.Resource{hiddenCustom, res("custom-v")},
	}
	in.Role = domain.RoleStudent
	assert.Equal(t, []string{"a", "custom-v"}, IDs(Compose(in)))
	in.Role = domain.RoleTeacher
	assert.Equal(t, []string{"a", "h", "custom-h", "custom-v"}, IDs(Compose(in)))
}

func TestComposeOrderIsScopedToKey(t *testing.T) {
	in := Input{
		Key:    domain.ResourceKey{Book: domain.BookStudio, Page: 2},
		Static: []domain.Resource{res("a"), res("b")},
		Overlay: Overlay{ResourceOrder: map[domain.ResourceKey][]string{
			studio1: {"b", "a"},
		}},
	}
	assert.Equal(t, []string{"a", "b"}, IDs(Compose(in)))
}

func TestComposeDoesNotMutateInput(t *testing.T) {
	static := []domain.Resource{res("a"), res("b")}
	custom := []domain.Resource{res("custom-1")}
	Compose(Input{
		Key: studio1, Static: static, Custom: custom,
		Overlay: Overlay{ResourceOrder: map[domain.ResourceKey][]string{studio1: {"custom-1", "b"}}},
		Role:    domain.RoleStudent,
	})
	assert.Equal(t, []string{"a", "b"}, IDs(static))
	assert.Equal(t, []string{"custom-1"}, IDs(custom))
}

// Для случайных наборов: ids из списка порядка идут ровно в его порядке,
// остальные, следом, в исходном относительном порядке; скрытые студенту не видны.
func TestComposeOrderProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for iter := range 200 {
		var static, custom []domain.Resource
		for i := range rng.IntN(6) {
			r := res(fmt.Sprintf("s%d", i))
			r.IsHiddenFromStudents = rng.IntN(4) == 0
			static = append(static, r)
		}
		for i := range rng.IntN(6) {
			r := res(fmt.Sprintf("custom-%d", i))
			r.IsHiddenFromStudents = rng.IntN(4) == 0
			custom = append(custom, r)
		}
		all := IDs(append(slices.Clone(static), custom...))

		var order []string
		for _, id := range all {
			if rng.IntN(2) == 0 {
				order = append(order, id)
			}
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		order = append(order, "dangling")

		role := []domain.Role{domain.RoleStudent, domain.RoleTeacher, domain.RoleAdmin}[rng.IntN(3)]
		got := Compose(Input{
			Key: studio1, Static: static, Custom: custom, Role: role,
			Overlay: Overlay{ResourceOrder: map[domain.ResourceKey][]string{studio1: order}},
		})

		visible := map[string]bool{}
		for _, r := range append(slices.Clone(static), custom...) {
			visible[r.ID] = role != domain.RoleStudent || !r.IsHiddenFromStudents
		}
		var want []string
		for _, id := range order {
			if visible[id] {
				want = append(want, id)
			}
		}
		for _, id := range all {
			if visible[id] && !slices.Contains(order, id) {
				want = append(want, id)
			}
		}
		if diff := cmp.Diff(want, IDs(got), cmp.Comparer(func(a, b []string) bool {
			return slices.Equal(a, b)
		})); diff != "" {
			t.Fatalf("iter %d role %s (-want +got):\n%s", iter, role, diff)
		}
		for _, r := range got {
			if role == domain.RoleStudent {
				assert.False(t, r.IsHiddenFromStudents)
			}
		}
	}
}
