package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/elibrary/internal/audit"
	"github.com/mrlokans/elibrary/internal/auth"
	"github.com/mrlokans/elibrary/internal/catalog"
	"github.com/mrlokans/elibrary/internal/database"
	loanstore "github.com/mrlokans/elibrary/internal/database/loans"
	"github.com/mrlokans/elibrary/internal/entities"
	"github.com/mrlokans/elibrary/internal/loans"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	member = &entities.User{ID: 1, Name: "Peter Oh", Email: "poh@lib.sg"}
	other  = &entities.User{ID: 2, Name: "Other Member", Email: "other@lib.sg"}
	admin  = &entities.User{ID: 3, Name: "Admin", Email: "admin@lib.sg", IsAdmin: true}
)

// testPages renders each page as its name plus the fields tests look at.
const testPages = `
{{define "books"}}books {{len .Books}} category={{.Category}} error={{.Error}}{{end}}
{{define "book"}}book {{.Book.Title}} can_borrow={{.Book.CanBorrow}}{{end}}
{{define "new-book"}}new-book errors={{range .Errors}}[{{.}}]{{end}}{{end}}
{{define "loans"}}loans active={{len .Active}} returned={{len .Returned}} message={{.Message}}{{end}}
{{define "admin-loans"}}admin-loans count={{.Count}}{{end}}
{{define "profile"}}profile {{.Account.Email}} has_token={{.HasToken}} token={{.Token}}{{end}}
`

// newTestEngine returns a router that runs as user (nil for anonymous) and
// can render the page names used by the controllers.
func newTestEngine(user *entities.User) *gin.Engine {
	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.New("").Funcs(templateFuncs).Parse(testPages)))
	router.Use(func(c *gin.Context) {
		if user != nil {
			auth.SetIdentity(c, auth.Identity{User: user, Method: auth.MethodSession})
		}
		c.Next()
	})
	return router
}

func perform(router http.Handler, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postForm(router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	return perform(router, http.MethodPost, path, strings.NewReader(form.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
}

func postJSON(router http.Handler, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	return perform(router, http.MethodPost, path, strings.NewReader(string(b)), map[string]string{
		"Content-Type": "application/json",
	})
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
	}
	return out
}

// redirectTarget splits a Location header into path and query.
func redirectTarget(t *testing.T, w *httptest.ResponseRecorder) (string, url.Values) {
	t.Helper()
	loc := w.Header().Get("Location")
	if loc == "" {
		t.Fatalf("expected a redirect, got %d: %s", w.Code, w.Body.String())
	}
	u, err := url.Parse(loc)
	if err != nil {
		t.Fatalf("bad Location %q: %v", loc, err)
	}
	return u.Path, u.Query()
}

// --- Fakes ---

type fakeCatalog struct {
	books  map[uint]*entities.Book
	nextID uint
	added  []catalog.NewBookInput
	err    error
}

func newFakeCatalog(books ...entities.Book) *fakeCatalog {
	f := &fakeCatalog{books: make(map[uint]*entities.Book), nextID: 100}
	for i := range books {
		b := books[i]
		f.books[b.ID] = &b
	}
	return f
}

func (f *fakeCatalog) ListBooks(ctx context.Context, category string) ([]entities.Book, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []entities.Book
	for _, b := range f.books {
		if category == "" || category == "all" || b.Category == category {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	if b, ok := f.books[id]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("book %d: %w", id, database.ErrNotFound)
}

func (f *fakeCatalog) Categories(ctx context.Context) ([]string, error) {
	return []string{"Adult", "Children"}, f.err
}

func (f *fakeCatalog) AddBook(ctx context.Context, in catalog.NewBookInput) (*entities.Book, error) {
	f.added = append(f.added, in)
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	b := &entities.Book{ID: f.nextID, Title: in.Title, Copies: in.Copies, Available: in.Copies}
	f.books[b.ID] = b
	return b, nil
}

type fakeLoans struct {
	loans     map[uint]*entities.Loan
	createErr error
	opErr     error
	overdue   []loanstore.OverdueRow
	calls     []string
	manager   *loans.Manager
}

func newFakeLoans(list ...entities.Loan) *fakeLoans {
	f := &fakeLoans{
		loans:   make(map[uint]*entities.Loan),
		manager: loans.NewManager(nil, nil, loans.DefaultPolicy()),
	}
	f.manager.SetClock(func() time.Time { return time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC) })
	for i := range list {
		l := list[i]
		f.loans[l.ID] = &l
	}
	return f
}

func (f *fakeLoans) CreateLoan(ctx context.Context, user *entities.User, bookID uint) (*entities.Loan, error) {
	f.calls = append(f.calls, fmt.Sprintf("create %d %d", user.ID, bookID))
	if f.createErr != nil {
		return nil, f.createErr
	}
	l := &entities.Loan{ID: 50, MemberID: user.ID, BookID: bookID, BorrowDate: f.manager.Now(), Book: entities.Book{ID: bookID, Title: "Matilda"}}
	f.loans[l.ID] = l
	return l, nil
}

func (f *fakeLoans) op(name string, id uint) (*entities.Loan, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s %d", name, id))
	if f.opErr != nil {
		return nil, f.opErr
	}
	return f.loans[id], nil
}

func (f *fakeLoans) RenewLoan(ctx context.Context, id uint) (*entities.Loan, error) {
	return f.op("renew", id)
}

func (f *fakeLoans) ReturnLoan(ctx context.Context, id uint) (*entities.Loan, error) {
	return f.op("return", id)
}

func (f *fakeLoans) DeleteLoan(ctx context.Context, id uint) error {
	_, err := f.op("delete", id)
	return err
}

func (f *fakeLoans) GetLoan(ctx context.Context, id uint) (*entities.Loan, error) {
	if l, ok := f.loans[id]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("loan %d: %w", id, database.ErrNotFound)
}

func (f *fakeLoans) MemberLoans(ctx context.Context, memberID uint) (*loans.History, error) {
	h := &loans.History{}
	for _, l := range f.loans {
		if l.MemberID != memberID {
			continue
		}
		if l.IsActive() {
			h.Active = append(h.Active, *l)
		} else {
			h.Returned = append(h.Returned, *l)
		}
	}
	return h, nil
}

func (f *fakeLoans) OverdueReport(ctx context.Context) ([]loanstore.OverdueRow, error) {
	return f.overdue, f.opErr
}

func (f *fakeLoans) View(loan entities.Loan) loans.View {
	return f.manager.View(loan)
}

func (f *fakeLoans) Views(list []entities.Loan) []loans.View {
	return f.manager.Views(list)
}

type auditCall struct {
	action string
	userID uint
	id     uint
	err    error
}

type fakeAudit struct {
	mu    sync.Mutex
	calls []auditCall
}

func (f *fakeAudit) LogLoan(origin audit.Origin, action string, loanID, bookID uint, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, auditCall{action: action, userID: origin.UserID, id: loanID, err: err})
}

func (f *fakeAudit) LogCatalog(origin audit.Origin, action string, bookID uint, title string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, auditCall{action: action, userID: origin.UserID, id: bookID, err: err})
}

type fakeQueue struct {
	enqueued []backlite.Task
	status   backlite.TaskStatus
	err      error
}

func (f *fakeQueue) Enqueue(ctx context.Context, task backlite.Task) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.enqueued = append(f.enqueued, task)
	return fmt.Sprintf("task-%d", len(f.enqueued)), nil
}

func (f *fakeQueue) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return f.status, f.err
}
