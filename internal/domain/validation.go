package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("resource_type", func(fl validator.FieldLevel) bool {
		return ResourceType(fl.Field().String()).Valid()
	})
	return v
}

// ValidateStruct проверяет теги validate и заворачивает ошибку в ErrInvalidInput
func ValidateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// ResourceInput: форма добавления/редактирования ресурса
type ResourceInput struct {
	Title                string       `json:"title" validate:"required,max=200"`
	Description          string       `json:"description" validate:"max=2000"`
	Type                 ResourceType `json:"type" validate:"omitempty,resource_type"`
	URL                  string       `json:"url" validate:"max=2048"`
	Duration             string       `json:"duration" validate:"max=16"`
	Thumbnail            string       `json:"thumbnail" validate:"max=2048"`
	IsHiddenFromStudents bool         `json:"isHiddenFromStudents"`
}

// Validate: без заголовка или без url/файла отправка блокируется, в хранилище ничего не пишем
func (in ResourceInput) Validate(hasFile bool) error {
	if err := ValidateStruct(in); err != nil {
		return err
	}
	if in.URL == "" && !hasFile {
		return fmt.Errorf("%w: url or file required", ErrInvalidInput)
	}
	return nil
}

func (in ResourceInput) Resource(id string) Resource {
	t := in.Type
	if t == "" {
		t = ResourceLink
	}
	return Resource{
		ID:                   id,
		Title:                in.Title,
		Description:          in.Description,
		Type:                 t,
		URL:                  in.URL,
		Duration:             in.Duration,
		Thumbnail:            in.Thumbnail,
		IsHiddenFromStudents: in.IsHiddenFromStudents,
	}
}
