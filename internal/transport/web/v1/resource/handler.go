package resource

import (
	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/library"
	"github.com/EgorLis/book-module/internal/policy"
)

type Handler struct {
	Log     zerolog.Logger
	Library *library.Service
}

// resourceView — ресурс + чем его открывать и что с ним можно делать текущей роли
type resourceView struct {
	domain.Resource
	Renderer  domain.Renderer `json:"renderer"`
	CanEdit   bool            `json:"canEdit"`
	CanDelete bool            `json:"canDelete"`
}

func view(role domain.Role, r domain.Resource) resourceView {
	rnd, _ := r.Type.Renderer()
	return resourceView{
		Resource:  r,
		Renderer:  rnd,
		CanEdit:   policy.CanEdit(role, r),
		CanDelete: policy.CanDelete(role, r),
	}
}
