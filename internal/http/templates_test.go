package http

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The shipped page templates must render against the data the controllers
// hand them.
func TestTemplates_Render(t *testing.T) {
	f := setupRouterWithTemplates(t, filepath.Join("..", "..", "templates"))
	bookPath := "/books/" + itoa(f.book.ID)

	w := f.do(http.MethodPost, "/api/loans", f.memberToken, map[string]any{"book_id": f.book.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name  string
		path  string
		token string
		want  []string
	}{
		{"catalog", "/books", "", []string{"Matilda", "Roald Dahl", "0 of 1 available"}},
		{"catalog filtered", "/books?category=Adult", "", []string{"No books in this category yet."}},
		{"book for anonymous", bookPath, "", []string{"Matilda", "to borrow this book"}},
		{"book with no copies left", bookPath, f.otherToken, []string{"All copies are on loan right now."}},
		{"book for admin", bookPath, f.adminToken, []string{"cannot borrow"}},
		{"loans", "/loans", f.memberToken, []string{"My loans", "Matilda", "Renew", "No returned loans yet."}},
		{"new book form", "/books/new", f.adminToken, []string{"Add a book", "Picture Books", `name="authors[4].name"`}},
		{"overdue report", "/admin/loans", f.adminToken, []string{"Overdue loans", "Nothing is overdue."}},
		{"profile", "/profile", f.memberToken, []string{"poh@lib.sg", "Member", "Replace token"}},
		{"login", "/login", "", []string{"Log in", `name="password"`}},
		{"register", "/register", "", []string{"Create an account"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(http.MethodGet, tc.path, tc.token, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
			for _, want := range tc.want {
				assert.Contains(t, w.Body.String(), want)
			}
		})
	}
}
