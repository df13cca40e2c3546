package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/library"
	v1 "github.com/EgorLis/book-module/internal/transport/web/v1"
)

// в памяти держим до 32MB формы, остальное multipart сбрасывает во временные файлы
const multipartMemory = 32 << 20

// readInput: JSON-тело или multipart с полями meta (JSON) и file (опционально)
func readInput(r *http.Request) (domain.ResourceInput, *library.Upload, error) {
	var in domain.ResourceInput
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err := v1.DecodeJSON(r, &in)
		return in, nil, err
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return in, nil, fmt.Errorf("%w: parse form: %v", domain.ErrBadParams, err)
	}
	if s := r.FormValue("meta"); s != "" {
		if err := json.Unmarshal([]byte(s), &in); err != nil {
			return in, nil, fmt.Errorf("%w: meta json: %v", domain.ErrBadParams, err)
		}
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, nil
	}
	if err != nil {
		return in, nil, fmt.Errorf("%w: form file: %v", domain.ErrBadParams, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return in, nil, fmt.Errorf("%w: read file: %v", domain.ErrBadParams, err)
	}
	if len(data) == 0 {
		return in, nil, fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}
	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	return in, &library.Upload{Name: header.Filename, MIME: mime, Data: data}, nil
}
