package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/EgorLis/book-module/internal/domain"
)

var (
	static = domain.Resource{ID: "evs-1"}
	custom = domain.Resource{ID: "custom-1"}
)

func TestMatrix(t *testing.T) {
	cases := []struct {
		role                       domain.Role
		add, reorder, hidden       bool
		editStatic, editCustom     bool
		deleteStatic, deleteCustom DeleteMode
	}{
		{domain.RoleStudent, false, false, false, false, false, DeleteDenied, DeleteDenied},
		{domain.RoleTeacher, true, false, true, false, true, DeleteDenied, DeleteHard},
		{domain.RoleAdmin, true, true, true, true, true, DeleteSoft, DeleteHard},
	}
	for _, c := range cases {
		t.Run(string(c.role), func(t *testing.T) {
			assert.Equal(t, c.add, CanAdd(c.role))
			assert.Equal(t, c.reorder, CanReorder(c.role))
			assert.Equal(t, c.hidden, CanSeeHidden(c.role))
			assert.Equal(t, c.editStatic, CanEdit(c.role, static))
			assert.Equal(t, c.editCustom, CanEdit(c.role, custom))
			assert.Equal(t, c.deleteStatic, DeleteModeFor(c.role, static))
			assert.Equal(t, c.deleteCustom, DeleteModeFor(c.role, custom))
			assert.Equal(t, c.deleteCustom != DeleteDenied, CanDelete(c.role, custom))
		})
	}
}

func TestAvailableBookCategories(t *testing.T) {
	assert.Equal(t,
		[]domain.BookCategory{domain.BookStudio, domain.BookCompanion},
		AvailableBookCategories(domain.RoleStudent))
	assert.Equal(t, domain.AllBooks(), AvailableBookCategories(domain.RoleTeacher))
	assert.Equal(t, domain.AllBooks(), AvailableBookCategories(domain.RoleAdmin))

	assert.False(t, CanOpenBook(domain.RoleStudent, domain.BookFHB))
	assert.True(t, CanOpenBook(domain.RoleTeacher, domain.BookFHB))
}
