package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Префикс идентификаторов пользовательских ресурсов
const CustomIDPrefix = "custom-"

type ResourceType string

const (
	ResourceVideo    ResourceType = "video"
	ResourceAudio    ResourceType = "audio"
	ResourceLink     ResourceType = "link"
	ResourceDocument ResourceType = "document"
	ResourceEmbed    ResourceType = "embed"
)

// AllResourceTypes: закрытый список вариантов; каждому обязан соответствовать Renderer.
func AllResourceTypes() []ResourceType {
	return []ResourceType{ResourceVideo, ResourceAudio, ResourceLink, ResourceDocument, ResourceEmbed}
}

func (t ResourceType) Valid() bool {
	_, err := t.Renderer()
	return err == nil
}

// Renderer: каким проигрывателем клиент открывает ресурс
type Renderer string

const (
	RendererVideoPlayer  Renderer = "video_player"
	RendererAudioPlayer  Renderer = "audio_player"
	RendererExternalLink Renderer = "external_link"
	RendererDocument     Renderer = "document_frame"
	RendererEmbed        Renderer = "embed_frame"
)

func (t ResourceType) Renderer() (Renderer, error) {
	switch t {
	case ResourceVideo:
		return RendererVideoPlayer, nil
	case ResourceAudio:
		return RendererAudioPlayer, nil
	case ResourceLink:
		return RendererExternalLink, nil
	case ResourceDocument:
		return RendererDocument, nil
	case ResourceEmbed:
		return RendererEmbed, nil
	}
	return "", fmt.Errorf("%w: unknown resource type %q", ErrInvalidInput, string(t))
}

// Ресурс страницы: статический (из каталога) или пользовательский (custom-*)
type Resource struct {
	ID                   string       `json:"id" cbor:"id" yaml:"id"`
	Title                string       `json:"title" cbor:"title" yaml:"title"`
	Description          string       `json:"description,omitempty" cbor:"description,omitempty" yaml:"description"`
	Type                 ResourceType `json:"type" cbor:"type" yaml:"type"`
	URL                  string       `json:"url" cbor:"url,omitempty" yaml:"url"`
	Duration             string       `json:"duration,omitempty" cbor:"duration,omitempty" yaml:"duration"`
	Thumbnail            string       `json:"thumbnail,omitempty" cbor:"thumbnail,omitempty" yaml:"thumbnail"`
	IsHiddenFromStudents bool         `json:"isHiddenFromStudents" cbor:"hidden" yaml:"hidden"`
}

func IsCustomID(id string) bool { return strings.HasPrefix(id, CustomIDPrefix) }

func (r Resource) IsCustom() bool { return IsCustomID(r.ID) }

type BookCategory string

const (
	BookStudio    BookCategory = "Studio"
	BookCompanion BookCategory = "Companion"
	BookFHB       BookCategory = "FHB" // книга учителя, студентам не показывается
)

func AllBooks() []BookCategory { return []BookCategory{BookStudio, BookCompanion, BookFHB} }

func ParseBook(s string) (BookCategory, error) {
	for _, b := range AllBooks() {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: unknown book %q", ErrBadParams, s)
}

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrBadParams, s)
}

// ResourceKey: составной ключ (книга, страница) для пользовательских ресурсов и аннотаций
type ResourceKey struct {
	Book BookCategory
	Page int
}

// String даёт ключ вида "Studio-1"
func (k ResourceKey) String() string { return string(k.Book) + "-" + strconv.Itoa(k.Page) }

func ParseResourceKey(s string) (ResourceKey, error) {
	i := strings.LastIndexByte(s, '-')
	if i <= 0 {
		return ResourceKey{}, fmt.Errorf("%w: bad resource key %q", ErrBadParams, s)
	}
	page, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return ResourceKey{}, fmt.Errorf("%w: bad resource key %q", ErrBadParams, s)
	}
	return ResourceKey{Book: BookCategory(s[:i]), Page: page}, nil
}

type Layout string

const (
	LayoutPortrait  Layout = "portrait"
	LayoutLandscape Layout = "landscape"
)

// Страница каталога (контент рендерится внешним коллаборатором)
type PageData struct {
	PageNumber   int        `json:"pageNumber" yaml:"page"`
	Title        string     `json:"title" yaml:"title"`
	Layout       Layout     `json:"layout,omitempty" yaml:"layout"`
	ContentImage string     `json:"contentImage,omitempty" yaml:"image"`
	HTMLContent  string     `json:"htmlContent,omitempty" yaml:"html"`
	TextContent  string     `json:"textContent,omitempty" yaml:"text"`
	Resources    []Resource `json:"-" yaml:"resources"`
}

// Текстовая заметка: координаты в процентах от контентной области страницы
type TextNote struct {
	ID    string  `json:"id" cbor:"id"`
	X     float64 `json:"x" cbor:"x"`
	Y     float64 `json:"y" cbor:"y"`
	Text  string  `json:"text" cbor:"text"`
	Color string  `json:"color" cbor:"color"`
}

// Аннотация страницы: снимок слоя штрихов (PNG, nil, пусто) и заметки
type AnnotationRecord struct {
	Book     BookCategory `cbor:"book"`
	Page     int          `cbor:"page"`
	Snapshot []byte       `cbor:"snapshot"`
	Notes    []TextNote   `cbor:"notes"`
}

func (a AnnotationRecord) Key() ResourceKey { return ResourceKey{Book: a.Book, Page: a.Page} }

// Пользовательский ресурс в хранилище: либо строка url, либо собственный blob
type CustomResourceRecord struct {
	Resource Resource     `cbor:"resource"`
	Book     BookCategory `cbor:"book"`
	Page     int          `cbor:"page"`
	URLStr   string       `cbor:"url_str,omitempty"`
	Blob     *Blob        `cbor:"-"`
}

func (r CustomResourceRecord) Key() ResourceKey { return ResourceKey{Book: r.Book, Page: r.Page} }
