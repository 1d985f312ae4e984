package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsboard/pkg/models"
)

func TestClientCategoriesRoundTrip(t *testing.T) {
	var lastAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/board/categories":
			var cat models.Category
			require.NoError(t, json.NewDecoder(r.Body).Decode(&cat))
			cat.ID = 42
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(cat)

		case r.Method == http.MethodGet && r.URL.Path == "/board/categories":
			assert.Equal(t, "metas", r.URL.Query().Get("section"))
			json.NewEncoder(w).Encode(map[string]any{
				"total": 1,
				"items": []models.Category{{ID: 42, Name: "Turnos", Section: "metas"}},
			})

		case r.Method == http.MethodPatch && r.URL.Path == "/board/categories/42":
			var fields map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
			assert.Equal(t, "Guardias", fields["name"])
			json.NewEncoder(w).Encode(map[string]any{"id": 42})

		case r.Method == http.MethodDelete && r.URL.Path == "/board/categories/42":
			json.NewEncoder(w).Encode(map[string]any{"message": "deleted"})

		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	remote := NewClient(srv.URL, "tok123").Categories()

	stored, err := remote.Insert(ctx, models.Category{Name: "Turnos", Section: "metas"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), stored.ID)
	assert.Equal(t, "Bearer tok123", lastAuth)

	items, err := remote.Select(ctx, map[string]string{"section": "metas"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Turnos", items[0].Name)

	require.NoError(t, remote.Update(ctx, 42, map[string]any{"name": "Guardias"}))
	require.NoError(t, remote.Delete(ctx, 42))
}

func TestClientLinksPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/board/links", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("category_id"))
		json.NewEncoder(w).Encode(map[string]any{
			"total": 1,
			"items": []models.Link{{ID: 3, Title: "Panel", URL: "https://example.com", CategoryID: 7}},
		})
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL, "").Links().Select(context.Background(), map[string]string{"category_id": "7"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(7), items[0].CategoryID)
}

func TestClientErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "tok").Categories().Delete(context.Background(), 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
