package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/internal/circulation"
	"libraryhub/internal/config"
	"libraryhub/internal/feed"
	"libraryhub/pkg/database"
)

type testAPI struct {
	t      *testing.T
	db     *sql.DB
	router *gin.Engine
	ledger *circulation.Ledger
	hub    *feed.Hub
	media  string
	clock  time.Time
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	db, err := database.Open(filepath.Join(dir, "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := config.Config{
		JWTSecret:   []byte("test-secret"),
		AccessTTL:   5 * time.Minute,
		RefreshTTL:  time.Hour,
		LoanDays:    14,
		MediaDir:    filepath.Join(dir, "media"),
		SigninRate:  1000,
		SigninBurst: 1000,
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := feed.NewHub(nil)
	go hub.Run(ctx)

	a := &testAPI{t: t, db: db, hub: hub, media: cfg.MediaDir, clock: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	a.ledger = circulation.NewLedger(db, circulation.WithLoanDays(cfg.LoanDays), circulation.WithPublisher(hub))
	a.ledger.Now = func() time.Time { return a.clock }
	a.router = New(db, cfg, a.ledger, hub, nil).Router()
	return a
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// account signs up and signs in a user, returning the access token.
func (a *testAPI) account(kind, username string) string {
	a.t.Helper()
	prefix := "/member"
	if kind == "worker" {
		prefix = "/admin"
	}
	w := a.do(http.MethodPost, prefix+"/signup/", "", map[string]string{
		"username": username, "email": username + "@example.com", "password": "Corr3ct-Horse",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, prefix+"/signin/", "", map[string]string{"username": username, "password": "Corr3ct-Horse"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return decode[map[string]any](a.t, w)["access"].(string)
}

// createBook makes an author and a book with the given copies and returns the book id.
func (a *testAPI) createBook(worker, isbn string, copies int) int64 {
	a.t.Helper()
	w := a.do(http.MethodPost, "/authors/create/", worker, map[string]any{"first_name": "Octavia", "last_name": "Butler"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	authorID := decode[map[string]any](a.t, w)["id"]

	w = a.do(http.MethodPost, "/book/create/", worker, map[string]any{
		"title": "Kindred " + isbn, "isbn": isbn, "publication_date": "1979-06-01",
		"author": authorID, "total_copies": copies, "available_copies": copies,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode[map[string]any](a.t, w)["id"].(float64))
}

func (a *testAPI) availableCopies(token string, bookID int64) int {
	a.t.Helper()
	w := a.do(http.MethodGet, fmt.Sprintf("/books/%d/", bookID), token, nil)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return int(decode[map[string]any](a.t, w)["available_copies"].(float64))
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestSignupAndSignin(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodPost, "/member/signup/", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "Corr3ct-Horse", "role": "worker",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"Member created successfully"}`, w.Body.String())

	w = a.do(http.MethodPost, "/member/signup/", "", map[string]string{"username": "alice", "password": "Corr3ct-Horse"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"username":["A user with that username already exists."]}`, w.Body.String())

	w = a.do(http.MethodPost, "/member/signup/", "", map[string]string{"username": "bob", "password": "12345"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string][]string](t, w)["password"], "This password is entirely numeric.")

	w = a.do(http.MethodPost, "/member/signup/", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode[map[string][]string](t, w)
	assert.Equal(t, []string{"This field is required."}, errs["username"])
	assert.Equal(t, []string{"Enter a valid email address."}, errs["email"])

	// the role comes from the path, not the body
	w = a.do(http.MethodPost, "/admin/signin/", "", map[string]string{"username": "alice", "password": "Corr3ct-Horse"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials or not a worker"}`, w.Body.String())

	w = a.do(http.MethodPost, "/member/signin/", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials or not a member"}`, w.Body.String())

	w = a.do(http.MethodPost, "/member/signin/", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs = decode[map[string][]string](t, w)
	assert.Contains(t, errs, "username")
	assert.Contains(t, errs, "password")

	w = a.do(http.MethodPost, "/member/signin/", "", map[string]string{"username": "alice", "password": "Corr3ct-Horse"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Access  string            `json:"access"`
		Refresh string            `json:"refresh"`
		User    map[string]string `json:"user"`
	}](t, w)
	assert.NotEmpty(t, body.Access)
	assert.NotEmpty(t, body.Refresh)
	assert.Equal(t, map[string]string{"username": "alice", "email": "alice@example.com", "role": "member"}, body.User)
}

func TestTokenRefresh(t *testing.T) {
	a := newTestAPI(t)
	a.account("member", "alice")

	w := a.do(http.MethodPost, "/member/signin/", "", map[string]string{"username": "alice", "password": "Corr3ct-Horse"})
	require.Equal(t, http.StatusOK, w.Code)
	tokens := decode[map[string]any](t, w)
	access, refresh := tokens["access"].(string), tokens["refresh"].(string)

	w = a.do(http.MethodGet, "/profile/", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "refresh token is not an access token")

	w = a.do(http.MethodPost, "/token/refresh/", "", map[string]string{"refresh": access})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "access token cannot refresh")

	w = a.do(http.MethodPost, "/token/refresh/", "", map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, w.Code)
	fresh := decode[map[string]string](t, w)["access"]

	w = a.do(http.MethodGet, "/profile/", fresh, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticationRequired(t *testing.T) {
	a := newTestAPI(t)
	for _, path := range []string{"/books/", "/authors/", "/categories", "/profile/", "/my-borrows/"} {
		w := a.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := a.do(http.MethodGet, "/books/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSigninRateLimited(t *testing.T) {
	a := newTestAPI(t)
	a.router = New(a.db, config.Config{
		JWTSecret: []byte("test-secret"), AccessTTL: time.Minute, RefreshTTL: time.Hour,
		SigninRate: 0.001, SigninBurst: 2,
	}, a.ledger, nil, nil).Router()

	creds := map[string]string{"username": "nobody", "password": "whatever"}
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/member/signin/", "", creds).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/member/signin/", "", creds).Code)
	assert.Equal(t, http.StatusTooManyRequests, a.do(http.MethodPost, "/member/signin/", "", creds).Code)
}

func TestRoleGatingLeavesStateUnchanged(t *testing.T) {
	a := newTestAPI(t)
	worker := a.account("worker", "ward")
	member := a.account("member", "alice")
	bookID := a.createBook(worker, "1111", 2)

	cases := []struct {
		method, path, msg string
		body              any
	}{
		{http.MethodPost, "/authors/create/", "Only workers can create authors.", map[string]string{"first_name": "A", "last_name": "B"}},
		{http.MethodPost, "/category/create/", "Only workers can create categories.", map[string]string{"name": "Poetry"}},
		{http.MethodPost, "/subcategory/create/", "Only workers can create subcategories.", map[string]any{"name": "Haiku", "category": 1}},
		{http.MethodPut, fmt.Sprintf("/book/%d/update/", bookID), "Only workers can update books.", map[string]any{"total_copies": 9}},
		{http.MethodDelete, fmt.Sprintf("/book/%d/delete/", bookID), "Only workers can delete books.", nil},
		{http.MethodGet, "/all-borrows/", "Only workers can view borrow records.", nil},
	}
	for _, tc := range cases {
		w := a.do(tc.method, tc.path, member, tc.body)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.path)
		assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tc.msg), w.Body.String())
	}

	w := a.do(http.MethodPost, "/borrow/", worker, map[string]any{"book": bookID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Only members can borrow books."}`, w.Body.String())
	w = a.do(http.MethodPost, "/return/1/", worker, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Only members can return books."}`, w.Body.String())
	w = a.do(http.MethodGet, "/my-borrows/", worker, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodGet, "/authors/", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)
	w = a.do(http.MethodGet, "/categories", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = a.do(http.MethodGet, fmt.Sprintf("/books/%d/", bookID), member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	book := decode[map[string]any](t, w)
	assert.EqualValues(t, 2, book["total_copies"])
	assert.EqualValues(t, 2, book["available_copies"])

	w = a.do(http.MethodGet, "/all-borrows/", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCatalogEndpoints(t *testing.T) {
	a := newTestAPI(t)
	worker := a.account("worker", "ward")
	member := a.account("member", "alice")

	w := a.do(http.MethodPost, "/category/create/", worker, map[string]string{"name": "Fiction"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	categoryID := decode[map[string]any](t, w)["id"]

	w = a.do(http.MethodPost, "/subcategory/create/", worker, map[string]any{"name": "Science Fiction", "category": categoryID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sub := decode[map[string]any](t, w)
	assert.Equal(t, categoryID, sub["category"])

	w = a.do(http.MethodPost, "/authors/create/", worker, map[string]any{"first_name": "Ursula", "last_name": "Le Guin"})
	require.Equal(t, http.StatusCreated, w.Code)
	authorID := decode[map[string]any](t, w)["id"]

	w = a.do(http.MethodPost, "/book/create/", worker, map[string]any{
		"title": "The Dispossessed", "isbn": "9780061054884", "publication_date": "1974-05-01",
		"author": authorID, "category": categoryID, "subcategory": sub["id"],
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	assert.Equal(t, authorID, created["author"])
	assert.EqualValues(t, 1, created["total_copies"])
	bookID := int64(created["id"].(float64))

	w = a.do(http.MethodPost, "/book/create/", worker, map[string]any{
		"title": "Copy", "isbn": "9780061054884", "publication_date": "1974-05-01", "author": authorID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"isbn":["book with this isbn already exists."]}`, w.Body.String())

	w = a.do(http.MethodPost, "/book/create/", worker, map[string]any{
		"title": "Orphan", "isbn": "1", "publication_date": "2000-01-01", "author": 9,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"author":["Invalid pk \"9\" - object does not exist."]}`, w.Body.String())

	w = a.do(http.MethodPost, "/book/create/", worker, `{"title": 5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string][]string](t, w), "title")

	w = a.do(http.MethodGet, fmt.Sprintf("/books/%d/", bookID), member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{
		"id": %d, "title": "The Dispossessed", "description": null, "isbn": "9780061054884",
		"publication_date": "1974-05-01", "author": "Ursula Le Guin", "category": "Fiction",
		"subcategory": "Science Fiction (Fiction)", "total_copies": 1, "available_copies": 1
	}`, bookID), w.Body.String())

	w = a.do(http.MethodGet, "/books/?category=fict&author=guin&available=true", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)
	w = a.do(http.MethodGet, "/books/?author=tolkien", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	// partial update: only the category is cleared
	w = a.do(http.MethodPut, fmt.Sprintf("/book/%d/update/", bookID), worker, `{"category": null}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[map[string]any](t, w)
	assert.Nil(t, updated["category"])
	assert.Equal(t, "The Dispossessed", updated["title"])
	assert.Equal(t, sub["id"], updated["subcategory"])

	w = a.do(http.MethodPut, fmt.Sprintf("/book/%d/update/", bookID), worker, map[string]any{"available_copies": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string][]string](t, w), "available_copies")

	w = a.do(http.MethodPut, "/authors/999/update/", worker, map[string]any{"first_name": "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Author not found"}`, w.Body.String())
	w = a.do(http.MethodGet, "/books/999/", member, nil)
	assert.JSONEq(t, `{"error":"Book not found."}`, w.Body.String())
	w = a.do(http.MethodDelete, "/category/abc/delete/", worker, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodDelete, fmt.Sprintf("/book/%d/delete/", bookID), worker, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = a.do(http.MethodDelete, fmt.Sprintf("/book/%d/delete/", bookID), worker, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Book not found"}`, w.Body.String())

	w = a.do(http.MethodGet, "/subcategories", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)
}

func TestBorrowReturnScenario(t *testing.T) {
	a := newTestAPI(t)
	worker := a.account("worker", "ward")
	alice := a.account("member", "alice")
	bob := a.account("member", "bob")
	bookID := a.createBook(worker, "2222", 1)

	w := a.do(http.MethodPost, "/borrow/", alice, map[string]any{"book": bookID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	borrow := decode[map[string]any](t, w)
	assert.Equal(t, "alice", borrow["member"])
	assert.Equal(t, "Kindred 2222", borrow["book"])
	assert.Equal(t, "2026-05-01", borrow["borrow_date"])
	assert.Equal(t, "2026-05-15", borrow["due_date"])
	assert.Nil(t, borrow["return_date"])
	assert.Equal(t, false, borrow["returned"])
	assert.Equal(t, false, borrow["is_overdue"])
	assert.Equal(t, 0, a.availableCopies(alice, bookID))
	borrowID := int64(borrow["id"].(float64))

	w = a.do(http.MethodPost, "/borrow/", bob, map[string]any{"book": bookID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"No copies available."}`, w.Body.String())

	w = a.do(http.MethodPost, "/borrow/", bob, map[string]any{"book": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Book not found."}`, w.Body.String())

	for _, body := range []map[string]any{{}, {"book": 0}} {
		w = a.do(http.MethodPost, "/borrow/", bob, body)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Book not found."}`, w.Body.String())
	}

	w = a.do(http.MethodGet, "/my-borrows/", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = a.do(http.MethodPost, fmt.Sprintf("/return/%d/", borrowID), bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "bob does not own the borrow")
	assert.JSONEq(t, `{"error":"Borrow record not found or already returned."}`, w.Body.String())

	// a day past due, the borrow shows up as overdue
	a.clock = time.Date(2026, 5, 16, 9, 0, 0, 0, time.UTC)
	w = a.do(http.MethodGet, "/all-borrows/?overdue=true", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	overdue := decode[[]map[string]any](t, w)
	require.Len(t, overdue, 1)
	assert.Equal(t, true, overdue[0]["is_overdue"])

	w = a.do(http.MethodPost, fmt.Sprintf("/return/%d/", borrowID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Book returned successfully."}`, w.Body.String())
	assert.Equal(t, 1, a.availableCopies(alice, bookID))

	w = a.do(http.MethodPost, fmt.Sprintf("/return/%d/", borrowID), alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, a.availableCopies(alice, bookID))

	w = a.do(http.MethodGet, "/all-borrows/?overdue=true", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = a.do(http.MethodGet, "/my-borrows/?returned=true", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[[]map[string]any](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, true, mine[0]["returned"])
	assert.Equal(t, "2026-05-16", mine[0]["return_date"])

	w = a.do(http.MethodGet, "/all-borrows/?active=true", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	w = a.do(http.MethodPost, "/borrow/", bob, map[string]any{"book": bookID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = a.do(http.MethodGet, "/all-borrows/?active=true", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)
	w = a.do(http.MethodGet, "/all-borrows/?returned=true&active=true", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	w = a.do(http.MethodGet, "/all-borrows/?returned=false&active=true", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = a.do(http.MethodGet, "/all-borrows/?member=alice", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)
	w = a.do(http.MethodGet, "/all-borrows/?member=ali", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestDeletingBookRemovesBorrows(t *testing.T) {
	a := newTestAPI(t)
	worker := a.account("worker", "ward")
	alice := a.account("member", "alice")
	bookID := a.createBook(worker, "3333", 1)

	w := a.do(http.MethodPost, "/borrow/", alice, map[string]any{"book": bookID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(http.MethodDelete, fmt.Sprintf("/book/%d/delete/", bookID), worker, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(http.MethodGet, "/all-borrows/", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestProfile(t *testing.T) {
	a := newTestAPI(t)
	alice := a.account("member", "alice")

	w := a.do(http.MethodGet, "/profile/", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"username":"alice","email":"alice@example.com","first_name":"","last_name":"",
		"role":"member","profile_picture":null}`, w.Body.String())

	w = a.do(http.MethodPut, "/profile/update/", alice, map[string]string{"first_name": "Alice", "password": "N3w-Passphrase"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"Profile updated successfully."}`, w.Body.String())

	w = a.do(http.MethodPost, "/member/signin/", "", map[string]string{"username": "alice", "password": "N3w-Passphrase"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodPut, "/profile/update/", alice, map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"email":["Enter a valid email address."]}`, w.Body.String())

	// multipart with a picture
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("last_name", "Liddell"))
	fw, err := mw.CreateFormFile("profile_picture", "me.PNG")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/profile/update/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+alice)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	w = a.do(http.MethodGet, "/profile/", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[map[string]any](t, w)
	assert.Equal(t, "Alice", profile["first_name"])
	assert.Equal(t, "Liddell", profile["last_name"])
	ref, ok := profile["profile_picture"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(ref, "profile_pictures/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))
	_, err = os.Stat(filepath.Join(a.media, filepath.FromSlash(ref)))
	assert.NoError(t, err)
}

func TestOverlongPasswordIsFieldError(t *testing.T) {
	a := newTestAPI(t)
	long := strings.Repeat("Tr0ub4dor&3-", 7)
	require.Greater(t, len(long), 72)

	w := a.do(http.MethodPost, "/member/signup/", "", map[string]string{
		"username": "carol", "email": "carol@example.com", "password": long,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.JSONEq(t, `{"password":["This password is too long. It must contain at most 72 bytes."]}`, w.Body.String())

	alice := a.account("member", "alice")
	w = a.do(http.MethodPut, "/profile/update/", alice, map[string]string{"first_name": "Alice", "password": long})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.JSONEq(t, `{"password":["This password is too long. It must contain at most 72 bytes."]}`, w.Body.String())

	w = a.do(http.MethodGet, "/profile/", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode[map[string]any](t, w)["first_name"], "a rejected update changes nothing")

	w = a.do(http.MethodPost, "/member/signin/", "", map[string]string{"username": "alice", "password": "Corr3ct-Horse"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfileRejectsNonImage(t *testing.T) {
	a := newTestAPI(t)
	alice := a.account("member", "alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("profile_picture", "notes.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("just some text"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/profile/update/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+alice)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string][]string](t, rec), "profile_picture")
}
