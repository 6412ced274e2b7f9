package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-lending/internal/domain"
)

func testUser(role domain.Role) *domain.User {
	return &domain.User{
		ID:       uuid.New(),
		Username: "tester",
		Role:     role,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	user := testUser(domain.RoleLibrarian)

	token, err := issuer.Issue(user)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "tester", claims.Username)
	assert.Equal(t, domain.RoleLibrarian, claims.Role)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a").Issue(testUser(domain.RoleAdmin))
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b").Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := NewTokenIssuer("secret").Verify("not.a.token")
	assert.Error(t, err)
}

func newProtectedServer(t *testing.T, issuer *TokenIssuer, roles ...domain.Role) *mux.Router {
	t.Helper()

	ok := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	router := mux.NewRouter()
	router.Use(Authenticate(issuer))
	router.Handle("/protected", RequireRole(ok, roles...)).Methods("GET")
	return router
}

func doRequest(router *mux.Router, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateMissingHeader(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	router := newProtectedServer(t, issuer, domain.RoleStaff)

	rec := doRequest(router, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	router := newProtectedServer(t, issuer, domain.RoleStaff)

	rec := doRequest(router, "bogus")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	router := newProtectedServer(t, issuer, domain.RoleAdmin, domain.RoleLibrarian)

	token, err := issuer.Issue(testUser(domain.RoleLibrarian))
	require.NoError(t, err)

	rec := doRequest(router, token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthErrorsUseResponseEnvelope(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	router := newProtectedServer(t, issuer, domain.RoleStaff)

	rec := doRequest(router, "bogus")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unauthorized", resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Message)
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	router := newProtectedServer(t, issuer, domain.RoleAdmin, domain.RoleLibrarian)

	token, err := issuer.Issue(testUser(domain.RoleStaff))
	require.NoError(t, err)

	rec := doRequest(router, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
