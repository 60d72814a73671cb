package mycontext

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// CtxTraceContext is a context key for the trace context (used by mylog)
type CtxTraceContext struct{}

// CtxAuthenticatedUserID is a context key for the user id of the
// authenticated principal (set by the myauth middleware)
type CtxAuthenticatedUserID struct{}

func ContextFromHTTPRequest(r *http.Request) context.Context {
	var trace string

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	traceContext := r.Header.Get("X-Cloud-Trace-Context")
	traceParts := strings.Split(traceContext, "/")

	if len(traceParts) > 0 && len(traceParts[0]) > 0 {
		trace = fmt.Sprintf("projects/%s/traces/%s", projectID, traceParts[0])
	}

	// Keep the request context as parent so the authenticated principal
	// travels along with the trace
	ctx := context.WithValue(r.Context(), CtxTraceContext{}, trace)

	return ctx
}

func WithAuthenticatedUserID(c context.Context, userUID string) context.Context {
	return context.WithValue(c, CtxAuthenticatedUserID{}, userUID)
}

// AuthenticatedUserID returns the user id of the authenticated principal.
// Returns false when the request carried no usable identity.
func AuthenticatedUserID(c context.Context) (string, bool) {
	userUID, ok := c.Value(CtxAuthenticatedUserID{}).(string)
	if !ok || userUID == "" {
		return "", false
	}
	return userUID, true
}
