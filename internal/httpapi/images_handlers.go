package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"carhunt-engine/internal/store"
)

type ImagesHandler struct {
	DB *sql.DB
}

func (h ImagesHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/image/"))
	if key == "" {
		http.Error(w, "missing key", 400)
		return
	}

	ct, b, err := store.GetImage(r.Context(), h.DB, key)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	if ct == "" {
		ct = "image/*"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=604800")
	_, _ = w.Write(b)
}
