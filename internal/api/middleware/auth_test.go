package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-harmony/internal/config"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret, subject string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "composer",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func authRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/whoami", Auth(cfg), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": c.GetString("user_role")})
	})
	return router
}

func TestAuthModes(t *testing.T) {
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name    string
		mode    string
		headers map[string]string
		status  int
		user    string
	}{
		{name: "none", mode: "none", status: http.StatusOK, user: anonymousUser},
		{name: "gateway without header", mode: "gateway", status: http.StatusUnauthorized},
		{
			name:    "gateway with header",
			mode:    "gateway",
			headers: map[string]string{"X-User-ID": "42", "X-User-Role": "beta"},
			status:  http.StatusOK,
			user:    "42",
		},
		{name: "jwt without token", mode: "jwt", status: http.StatusUnauthorized},
		{
			name:    "jwt valid",
			mode:    "jwt",
			headers: map[string]string{"Authorization": "Bearer " + signedToken(t, testSecret, "u-7", future)},
			status:  http.StatusOK,
			user:    "u-7",
		},
		{
			name:    "jwt wrong secret",
			mode:    "jwt",
			headers: map[string]string{"Authorization": "Bearer " + signedToken(t, "other", "u-7", future)},
			status:  http.StatusUnauthorized,
		},
		{
			name:    "jwt expired",
			mode:    "jwt",
			headers: map[string]string{"Authorization": "Bearer " + signedToken(t, testSecret, "u-7", time.Now().Add(-time.Hour))},
			status:  http.StatusUnauthorized,
		},
		{
			name:    "jwt without subject",
			mode:    "jwt",
			headers: map[string]string{"Authorization": "Bearer " + signedToken(t, testSecret, "", future)},
			status:  http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := authRouter(&config.Config{AuthMode: tt.mode, JWTSecret: testSecret})
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.user != "" {
				assert.Contains(t, w.Body.String(), `"user_id":"`+tt.user+`"`)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS())
	router.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
