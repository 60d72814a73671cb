package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	formcodec "github.com/go-playground/form/v4"
	"github.com/gorilla/mux"

	"github.com/basketworks/basketapi/lib/myauth"
	"github.com/basketworks/basketapi/lib/mycontext"
	"github.com/basketworks/basketapi/lib/myerrors"
	"github.com/basketworks/basketapi/lib/myhttp"
	"github.com/basketworks/basketapi/lib/mylog"
	"github.com/basketworks/basketapi/lib/mytime"
)

type webService struct {
	authenticator Authenticator
	signer        myauth.TokenSigner
	nower         mytime.Nower
	logger        mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewService(authenticator Authenticator, signer myauth.TokenSigner, nower mytime.Nower, logger mylog.Logger) *webService {
	return &webService{
		authenticator: authenticator,
		signer:        signer,
		nower:         nower,
		logger:        logger,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/api/token", s.createToken()).Methods("POST")
}

func (s *webService) createToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		credentials, err := parseCredentials(r)
		if err != nil {
			responseWriter.WriteError(c, w, 1, err)
			return
		}

		userUID, authenticated := s.authenticator.Authenticate(c, credentials.Username, credentials.Password)
		if !authenticated {
			responseWriter.WriteError(c, w, 1, myerrors.NewUnauthenticatedError(
				fmt.Errorf("invalid credentials for user %q", credentials.Username)))
			return
		}

		tokenValue, err := s.signer.Sign(userUID, credentials.Username, s.nower.Now())
		if err != nil {
			responseWriter.WriteError(c, w, 1, myerrors.NewInternalError(err))
			return
		}

		s.logger.Log(c, userUID, mylog.SeverityInfo, "Issued token for user %s", credentials.Username)

		responseWriter.Write(c, w, http.StatusOK, TokenResponse{
			Token: tokenValue,
		})
	}
}

func parseCredentials(r *http.Request) (Credentials, error) {
	credentials := Credentials{}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		err := r.ParseForm()
		if err != nil {
			return credentials, myerrors.NewInvalidInputErrorf("error parsing form: %s", err)
		}

		err = formcodec.NewDecoder().Decode(&credentials, r.Form)
		if err != nil {
			return credentials, myerrors.NewInvalidInputErrorf("error decoding form: %s", err)
		}
	} else {
		err := json.NewDecoder(r.Body).Decode(&credentials)
		if err != nil {
			return credentials, myerrors.NewInvalidInputErrorf("error parsing request body: %s", err)
		}
	}

	if credentials.Username == "" || credentials.Password == "" {
		return credentials, myerrors.NewInvalidInputErrorf("username and password are required")
	}

	return credentials, nil
}
