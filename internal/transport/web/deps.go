package web

import (
	"github.com/EgorLis/book-module/internal/annotation"
	"github.com/EgorLis/book-module/internal/blobs"
	"github.com/EgorLis/book-module/internal/catalog"
	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/library"
	"github.com/EgorLis/book-module/internal/transport/web/v1/health"
	"github.com/EgorLis/book-module/internal/transport/web/v1/session"
)

type Services struct {
	Catalog *catalog.Catalog
	Library *library.Service
	Blobs   *blobs.Manager
	Engines *annotation.Registry
}

type AuthDeps struct {
	Gate      session.Gate
	Tokens    domain.TokenManager
	Blacklist domain.TokenBlacklist
}

// Probes: что пингует readiness; nil пропускается
type Probes struct {
	Store   health.Pinger
	Cache   health.Pinger
	Storage health.Pinger
}
