//go:build e2e

package helper

import (
	"net/http"
	"testing"

	reqdto "gearbook/internal/handler/dto/request"
	"gearbook/tests/common/dbtest"
	"gearbook/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testPassword = "password123"

// LoginUser logs in through the API and returns the access token cookie value.
func LoginUser(t *testing.T, router *gin.Engine, login string) string {
	t.Helper()

	w := httptest.PerformRequest(t, router, http.MethodPost, "/api/auth/login",
		reqdto.LoginRequest{Login: login, Password: testPassword}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	accessCookie := httptest.ExtractCookie(w, "access_token")
	require.NotNil(t, accessCookie, "access token cookie not set")
	require.NotEmpty(t, accessCookie.Value)

	return accessCookie.Value
}

// CreateAndLogin seeds a user directly and logs them in.
func CreateAndLogin(t *testing.T, db dbtest.DBLike, router *gin.Engine, login, role string) (uuid.UUID, string) {
	t.Helper()
	id := dbtest.CreateTestUser(t, db, login, role)
	return id, LoginUser(t, router, login)
}

// RegisterAndLogin creates a member through the public registration endpoint.
func RegisterAndLogin(t *testing.T, router *gin.Engine, login string) (uuid.UUID, string) {
	t.Helper()

	w := httptest.PerformRequest(t, router, http.MethodPost, "/api/users/register",
		reqdto.RegisterRequest{Login: login, Password: testPassword, Name: "Test " + login, JoinYear: 2023}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID uuid.UUID `json:"id"`
	}
	httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)

	return created.ID, LoginUser(t, router, login)
}
