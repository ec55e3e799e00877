// internal/handlers/connection_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/connections"
	"github.com/campuslink/campuslink/internal/models"
	"github.com/campuslink/campuslink/internal/notify"
)

// staticIdentity serves a fixed profile for every id; handler tests do not
// care about enrichment details.
type staticIdentity struct{}

func (staticIdentity) GetUser(_ context.Context, id uuid.UUID) (models.UserProfile, error) {
	return models.UserProfile{ID: id, Name: "Test User", Role: "student"}, nil
}

func newTestService(t *testing.T) *connections.Service {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return connections.NewService(
		connections.NewMemStore(),
		staticIdentity{},
		&notify.LogNotifier{Logger: logger},
		logger,
	)
}

func doJSON(t *testing.T, h http.HandlerFunc, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Cookie", "auth_token="+token)
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

// TestConnectionFlow walks the full request lifecycle over HTTP: send,
// accept, and both users seeing the edge.
func TestConnectionFlow(t *testing.T) {
	auth.Init()
	svc := newTestService(t)

	alice := uuid.New()
	bob := uuid.New()
	aliceToken, _ := auth.CreateJWT(alice.String())
	bobToken, _ := auth.CreateJWT(bob.String())

	// alice sends a connection request to bob
	w := doJSON(t, SendConnectionHandler(svc), "POST", "/connections/request",
		aliceToken, `{"user_id":"`+bob.String()+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, "body=%s", w.Body.String())

	var sent struct {
		RequestID uuid.UUID `json:"request_id"`
		Status    string    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sent))
	assert.Equal(t, "pending", sent.Status)

	// bob sees it incoming
	w = doJSON(t, ListRequestsHandler(svc), "GET", "/connections/requests", bobToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	var pending connections.PendingRequests
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	require.Len(t, pending.Incoming, 1)
	assert.Equal(t, "Test User", pending.Incoming[0].Peer.Name)

	// bob accepts
	w = doJSON(t, AcceptConnectionHandler(svc), "POST", "/connections/accept",
		bobToken, `{"request_id":"`+sent.RequestID.String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code, "body=%s", w.Body.String())

	// both sides now list the edge
	for _, tok := range []string{aliceToken, bobToken} {
		w = doJSON(t, ListConnectionsHandler(svc), "GET", "/connections/list", tok, "")
		require.Equal(t, http.StatusOK, w.Code)
		var conns []struct {
			PeerID uuid.UUID `json:"peer_id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conns))
		assert.Len(t, conns, 1)
	}
}

func TestSendRequiresAuth(t *testing.T) {
	auth.Init()
	svc := newTestService(t)

	w := doJSON(t, SendConnectionHandler(svc), "POST", "/connections/request",
		"", `{"user_id":"`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, SendConnectionHandler(svc), "POST", "/connections/request",
		"not-a-jwt", `{"user_id":"`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSendErrorStatuses(t *testing.T) {
	auth.Init()
	svc := newTestService(t)

	alice := uuid.New()
	bob := uuid.New()
	aliceToken, _ := auth.CreateJWT(alice.String())

	// self-request -> 400
	w := doJSON(t, SendConnectionHandler(svc), "POST", "/connections/request",
		aliceToken, `{"user_id":"`+alice.String()+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// first request succeeds, duplicate -> 409
	w = doJSON(t, SendConnectionHandler(svc), "POST", "/connections/request",
		aliceToken, `{"user_id":"`+bob.String()+`"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, SendConnectionHandler(svc), "POST", "/connections/request",
		aliceToken, `{"user_id":"`+bob.String()+`"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAcceptErrorStatuses(t *testing.T) {
	auth.Init()
	svc := newTestService(t)

	alice := uuid.New()
	bob := uuid.New()
	aliceToken, _ := auth.CreateJWT(alice.String())
	bobToken, _ := auth.CreateJWT(bob.String())

	w := doJSON(t, SendConnectionHandler(svc), "POST", "/connections/request",
		aliceToken, `{"user_id":"`+bob.String()+`"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var sent struct {
		RequestID uuid.UUID `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sent))

	// unknown request -> 404
	w = doJSON(t, AcceptConnectionHandler(svc), "POST", "/connections/accept",
		bobToken, `{"request_id":"`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// sender accepting their own request -> 403
	w = doJSON(t, AcceptConnectionHandler(svc), "POST", "/connections/accept",
		aliceToken, `{"request_id":"`+sent.RequestID.String()+`"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// recipient rejecting works, then accepting the resolved request -> 409
	w = doJSON(t, RejectConnectionHandler(svc), "POST", "/connections/reject",
		bobToken, `{"request_id":"`+sent.RequestID.String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, AcceptConnectionHandler(svc), "POST", "/connections/accept",
		bobToken, `{"request_id":"`+sent.RequestID.String()+`"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRemoveConnectionHandler(t *testing.T) {
	auth.Init()
	svc := newTestService(t)

	alice := uuid.New()
	bob := uuid.New()
	aliceToken, _ := auth.CreateJWT(alice.String())
	bobToken, _ := auth.CreateJWT(bob.String())

	w := doJSON(t, SendConnectionHandler(svc), "POST", "/connections/request",
		aliceToken, `{"user_id":"`+bob.String()+`"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var sent struct {
		RequestID uuid.UUID `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sent))
	w = doJSON(t, AcceptConnectionHandler(svc), "POST", "/connections/accept",
		bobToken, `{"request_id":"`+sent.RequestID.String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, RemoveConnectionHandler(svc), "POST", "/connections/remove",
		aliceToken, `{"user_id":"`+bob.String()+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	// removing a connection that no longer exists -> 404
	w = doJSON(t, RemoveConnectionHandler(svc), "POST", "/connections/remove",
		aliceToken, `{"user_id":"`+bob.String()+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
