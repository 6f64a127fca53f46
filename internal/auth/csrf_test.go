package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

var testCSRFSecret = []byte("test-secret-key-32-bytes-long!!")

func TestCSRFMiddleware_AllowsGET(t *testing.T) {
	router := gin.New()
	router.Use(CSRFMiddleware(testCSRFSecret, false, nil))
	router.GET("/books", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/books", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 for GET request, got %d", rr.Code)
	}
}

func TestCSRFMiddleware_BlocksPOSTWithoutToken(t *testing.T) {
	reached := false
	router := gin.New()
	router.Use(CSRFMiddleware(testCSRFSecret, false, nil))
	router.POST("/loans", func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/loans", nil))

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for POST without CSRF token, got %d", rr.Code)
	}
	if reached {
		t.Error("handler must not run after a CSRF failure")
	}
}

func TestCSRFMiddleware_AcceptsFormToken(t *testing.T) {
	var token string
	router := gin.New()
	router.Use(CSRFMiddleware(testCSRFSecret, false, nil))
	router.GET("/login", func(c *gin.Context) {
		token = GetCSRFToken(c)
		c.Status(http.StatusOK)
	})
	router.POST("/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
	if token == "" {
		t.Fatal("Expected CSRF token to be set in context")
	}

	form := url.Values{CSRFFieldName: {token}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range rr.Result().Cookies() {
		req.AddCookie(cookie)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 with a valid token, got %d", rr.Code)
	}
}

func TestCSRFMiddleware_Bearer(t *testing.T) {
	service, _ := setupTestService(t)
	user := mustRegister(t, service, "Alice", "alice@example.com", "password123")
	token, err := service.GenerateToken(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	router := gin.New()
	router.Use(CSRFMiddleware(testCSRFSecret, false, service))
	router.POST("/api/loans", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	testCases := []struct {
		name     string
		token    string
		wantCode int
	}{
		{"valid token skips check", token, http.StatusCreated},
		{"unknown token is checked", "not-a-token", http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/loans", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Errorf("Expected %d, got %d", tc.wantCode, rr.Code)
			}
		})
	}
}

func TestGetCSRFToken(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if token := GetCSRFToken(c); token != "" {
		t.Errorf("Expected empty token, got %s", token)
	}

	c.Set("csrf_token", "test-token-123")
	if token := GetCSRFToken(c); token != "test-token-123" {
		t.Errorf("Expected 'test-token-123', got '%s'", token)
	}
}

func TestCSRFTokenField(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if field := CSRFTokenField(c); field != "" {
		t.Errorf("Expected empty field, got '%s'", field)
	}

	c.Set("csrf_token", "abc123")
	expected := `<input type="hidden" name="gorilla.csrf.Token" value="abc123">`
	if field := CSRFTokenField(c); string(field) != expected {
		t.Errorf("Expected '%s', got '%s'", expected, field)
	}
}

func TestIsAPIWithValidBearer_HeaderOnly(t *testing.T) {
	testCases := []struct {
		header string
		want   bool
	}{
		{"Bearer token123", true},
		{"BeArEr token123", true},
		{"Basic dXNlcjpwYXNz", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.header, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				c.Request.Header.Set("Authorization", tc.header)
			}

			if got := isAPIWithValidBearer(c, nil); got != tc.want {
				t.Errorf("isAPIWithValidBearer(%q) = %v, want %v", tc.header, got, tc.want)
			}
		})
	}
}

func TestCSRFErrorHandler(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/loans", nil)
		csrfErrorHandler(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", ct)
		}
	})

	t.Run("form with referer", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/loans", nil)
		req.Header.Set("Referer", "http://localhost/books/3")
		csrfErrorHandler(rr, req)

		if rr.Code != http.StatusSeeOther {
			t.Errorf("Expected 303, got %d", rr.Code)
		}
		if loc := rr.Header().Get("Location"); !strings.HasPrefix(loc, "http://localhost/books/3?error=") {
			t.Errorf("unexpected redirect %s", loc)
		}
	})

	t.Run("html without referer", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/loans", nil)
		req.Header.Set("Accept", "text/html")
		csrfErrorHandler(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", rr.Code)
		}
	})
}
