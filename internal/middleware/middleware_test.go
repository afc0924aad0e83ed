package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"carrental/internal/domain"
	"carrental/internal/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newIssuer() *jwt.Issuer {
	return jwt.NewIssuer("test-secret", "carrental", time.Hour)
}

func mustToken(t *testing.T, issuer *jwt.Issuer, userID string, role domain.Role) string {
	t.Helper()
	token, _, err := issuer.Generate(userID, userID+"@example.com", string(role))
	require.NoError(t, err)
	return token
}

func TestJWTAuth(t *testing.T) {
	issuer := newIssuer()
	other := jwt.NewIssuer("other-secret", "carrental", time.Hour)

	router := gin.New()
	router.Use(JWTAuth(issuer))
	router.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c), "role": string(Role(c)), "staff": IsStaff(c)})
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"NoHeader", "", http.StatusUnauthorized},
		{"NotBearer", "Basic abc", http.StatusUnauthorized},
		{"EmptyToken", "Bearer   ", http.StatusUnauthorized},
		{"Garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"WrongSecret", "Bearer " + mustToken(t, other, "cust-1", domain.RoleCustomer), http.StatusUnauthorized},
		{"Valid", "Bearer " + mustToken(t, issuer, "cust-1", domain.RoleCustomer), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"user_id":"cust-1","role":"CUSTOMER","staff":false}`, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	issuer := newIssuer()

	router := gin.New()
	staff := router.Group("/admin", JWTAuth(issuer), RequireRole(domain.RoleStaff, domain.RoleAdmin))
	staff.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	// RequireRole without JWTAuth in front sees no role.
	router.GET("/bare", RequireRole(domain.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name string
		path string
		role domain.Role
		want int
	}{
		{"Customer", "/admin/ping", domain.RoleCustomer, http.StatusForbidden},
		{"Staff", "/admin/ping", domain.RoleStaff, http.StatusOK},
		{"Admin", "/admin/ping", domain.RoleAdmin, http.StatusOK},
		{"NoAuth", "/bare", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.role != "" {
				req.Header.Set("Authorization", "Bearer "+mustToken(t, issuer, "u-1", tt.role))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestIdempotencyMiddleware(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	calls := 0
	router := gin.New()
	router.Use(IdempotencyMiddleware(client))
	router.POST("/orders", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"call": calls})
	})
	router.POST("/fail", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})

	post := func(path, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("ReplaysSameKey", func(t *testing.T) {
		calls = 0
		first := post("/orders", "key-1")
		second := post("/orders", "key-1")

		assert.Equal(t, http.StatusCreated, first.Code)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
		assert.Equal(t, 1, calls)
	})

	t.Run("NoKeyPassesThrough", func(t *testing.T) {
		calls = 0
		post("/orders", "")
		post("/orders", "")
		assert.Equal(t, 2, calls)
	})

	t.Run("ServerErrorsNotCached", func(t *testing.T) {
		calls = 0
		post("/fail", "key-2")
		w := post("/fail", "key-2")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, 2, calls)
	})

	t.Run("InFlightConflict", func(t *testing.T) {
		mr.Set("idempotency::POST:/orders:key-3:lock", "1")
		w := post("/orders", "key-3")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("KeyTooLong", func(t *testing.T) {
		w := post("/orders", strings.Repeat("k", maxIdempotencyKey+1))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCORSMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware([]string{"https://app.example.com"}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.OPTIONS("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve := func(method, origin string, preflight bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/ping", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		if preflight {
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("AllowedOrigin", func(t *testing.T) {
		w := serve(http.MethodGet, "https://app.example.com", false)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("UnknownOrigin", func(t *testing.T) {
		w := serve(http.MethodGet, "https://evil.example.com", false)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("Preflight", func(t *testing.T) {
		w := serve(http.MethodOptions, "https://app.example.com", true)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
	})

	t.Run("PlainOptionsReachesHandler", func(t *testing.T) {
		w := serve(http.MethodOptions, "", false)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestCORSMiddleware_WildcardDropsCredentials(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware([]string{"*"}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://anyone.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSMiddleware_NoOriginsConfigured(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware(nil))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLoggerAndRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	router := gin.New()
	router.Use(RequestLogger(logger), Recovery(logger))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	served := logs.FilterMessage("request served").All()
	require.Len(t, served, 1)
	assert.Equal(t, "req-123", served[0].ContextMap()["request_id"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
