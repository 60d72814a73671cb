package myauth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/basketworks/basketapi/lib/mycontext"
	"github.com/basketworks/basketapi/lib/mylog"
)

const (
	userEva  = "11111111-1111-1111-1111-111111111111"
	userMarc = "22222222-2222-2222-2222-222222222222"
)

func TestTokenRoundtrip(t *testing.T) {
	crafter := NewTokenCrafter("test-secret")

	tokenValue, err := crafter.Sign(userEva, "eva", time.Now())
	assert.NoError(t, err)

	userUID, err := crafter.Verify(tokenValue)
	assert.NoError(t, err)
	assert.Equal(t, userEva, userUID)
}

func TestTokenWrongSecret(t *testing.T) {
	crafter := NewTokenCrafter("test-secret")

	tokenValue, err := crafter.Sign(userEva, "eva", time.Now())
	assert.NoError(t, err)

	_, err = NewTokenCrafter("other-secret").Verify(tokenValue)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	crafter := NewTokenCrafter("test-secret")

	tokenValue, err := crafter.Sign(userEva, "eva", time.Now().Add(-3*time.Hour))
	assert.NoError(t, err)

	_, err = crafter.Verify(tokenValue)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	_, err := NewTokenCrafter("test-secret").Verify("not.a.token")
	assert.Error(t, err)
}

func setupRouter(t *testing.T) (*mux.Router, *TokenCrafter) {
	t.Helper()

	crafter := NewTokenCrafter("test-secret")
	logger := mylog.New("myauthtest")

	router := mux.NewRouter()
	protected := router.PathPrefix("/api/users/{userUID}").Subrouter()
	protected.Use(Authenticate(crafter, logger))
	protected.Use(RequireResourceOwner(logger))
	protected.HandleFunc("/basket", func(w http.ResponseWriter, r *http.Request) {
		userUID, _ := mycontext.AuthenticatedUserID(r.Context())
		w.Header().Set("X-Principal", userUID)
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	return router, crafter
}

func TestMiddleware(t *testing.T) {
	t.Run("No token", func(t *testing.T) {
		router, _ := setupRouter(t)

		request, _ := http.NewRequest(http.MethodGet, "/api/users/"+userEva+"/basket", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		assert.Equal(t, 401, response.Code)
	})

	t.Run("Garbage token", func(t *testing.T) {
		router, _ := setupRouter(t)

		request, _ := http.NewRequest(http.MethodGet, "/api/users/"+userEva+"/basket", nil)
		request.Header.Set("Authorization", "Bearer garbage")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		assert.Equal(t, 401, response.Code)
	})

	t.Run("Valid token for own resource", func(t *testing.T) {
		router, crafter := setupRouter(t)
		tokenValue, _ := crafter.Sign(userEva, "eva", time.Now())

		request, _ := http.NewRequest(http.MethodGet, "/api/users/"+userEva+"/basket", nil)
		request.Header.Set("Authorization", "Bearer "+tokenValue)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		assert.Equal(t, 200, response.Code)
		assert.Equal(t, userEva, response.Header().Get("X-Principal"))
	})

	t.Run("Valid token for someone else's resource", func(t *testing.T) {
		router, crafter := setupRouter(t)
		tokenValue, _ := crafter.Sign(userMarc, "marc", time.Now())

		request, _ := http.NewRequest(http.MethodGet, "/api/users/"+userEva+"/basket", nil)
		request.Header.Set("Authorization", "Bearer "+tokenValue)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		assert.Equal(t, 403, response.Code)
	})
}
