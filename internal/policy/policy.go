// Package policy, кто может добавлять, править, удалять, скрывать и упорядочивать ресурсы.
// Только решения, без побочных эффектов; вызывающий обязан проверить их до мутации.
package policy

import "github.com/EgorLis/book-module/internal/domain"

// DeleteMode: что именно произойдёт при удалении
type DeleteMode int

const (
	DeleteDenied DeleteMode = iota
	// пользовательский ресурс удаляется физически
	DeleteHard
	// статический ресурс попадает в deletedStaticIds
	DeleteSoft
)

func CanAdd(role domain.Role) bool {
	return role == domain.RoleTeacher || role == domain.RoleAdmin
}

func CanEdit(role domain.Role, r domain.Resource) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleTeacher:
		return r.IsCustom()
	}
	return false
}

func CanDelete(role domain.Role, r domain.Resource) bool {
	return DeleteModeFor(role, r) != DeleteDenied
}

func DeleteModeFor(role domain.Role, r domain.Resource) DeleteMode {
	if !CanEdit(role, r) {
		return DeleteDenied
	}
	if r.IsCustom() {
		return DeleteHard
	}
	return DeleteSoft
}

func CanReorder(role domain.Role) bool { return role == domain.RoleAdmin }

func CanSeeHidden(role domain.Role) bool {
	return role == domain.RoleTeacher || role == domain.RoleAdmin
}

// AvailableBookCategories: все книги, кроме книги учителя для студентов
func AvailableBookCategories(role domain.Role) []domain.BookCategory {
	out := make([]domain.BookCategory, 0, len(domain.AllBooks()))
	for _, b := range domain.AllBooks() {
		if b == domain.BookFHB && role == domain.RoleStudent {
			continue
		}
		out = append(out, b)
	}
	return out
}

func CanOpenBook(role domain.Role, b domain.BookCategory) bool {
	for _, ok := range AvailableBookCategories(role) {
		if ok == b {
			return true
		}
	}
	return false
}
