package viewer

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/EgorLis/book-module/internal/annotation"
	"github.com/EgorLis/book-module/internal/domain"
)

// больше логического холста рендерить незачем
const maxViewSide = 4 * annotation.LogicalHeightPortrait

func parseView(r *http.Request) (annotation.View, annotation.Format, error) {
	q := r.URL.Query()
	var (
		v   annotation.View
		err error
	)
	if v.Width, err = strconv.ParseFloat(q.Get("width"), 64); err != nil {
		return v, "", fmt.Errorf("%w: width", domain.ErrBadParams)
	}
	if v.Height, err = strconv.ParseFloat(q.Get("height"), 64); err != nil {
		return v, "", fmt.Errorf("%w: height", domain.ErrBadParams)
	}
	if v.Width > maxViewSide || v.Height > maxViewSide {
		return v, "", fmt.Errorf("%w: view too large", domain.ErrBadParams)
	}
	if s := q.Get("rotation"); s != "" {
		if v.Rotation, err = strconv.Atoi(s); err != nil {
			return v, "", fmt.Errorf("%w: rotation", domain.ErrBadParams)
		}
	}
	f, err := annotation.ParseFormat(q.Get("format"))
	if err != nil {
		return v, "", err
	}
	return v, f, nil
}
