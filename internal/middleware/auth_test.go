package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tradenet/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type stubUserLookup struct {
	users map[uuid.UUID]*model.User
}

func (s *stubUserLookup) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": "tester",
		"exp":      time.Now().Add(time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func protectedRouter(users *stubUserLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWTAuth(testSecret), RequireActive(users), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTAuthMissingToken(t *testing.T) {
	r := protectedRouter(&stubUserLookup{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthBadToken(t *testing.T) {
	r := protectedRouter(&stubUserLookup{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireActiveAllowsActiveEmployee(t *testing.T) {
	id := uuid.New()
	users := &stubUserLookup{users: map[uuid.UUID]*model.User{
		id: {ID: id, Username: "tester", IsActive: true},
	}}
	r := protectedRouter(users)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, id.String()))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireActiveRejectsDeactivatedEmployee(t *testing.T) {
	id := uuid.New()
	users := &stubUserLookup{users: map[uuid.UUID]*model.User{
		id: {ID: id, Username: "tester", IsActive: false},
	}}
	r := protectedRouter(users)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, id.String()))
	r.ServeHTTP(w, req)

	// Valid token, but the employee was deactivated after issuance.
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireActiveRejectsDeletedEmployee(t *testing.T) {
	id := uuid.New()
	r := protectedRouter(&stubUserLookup{users: map[uuid.UUID]*model.User{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, id.String()))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
