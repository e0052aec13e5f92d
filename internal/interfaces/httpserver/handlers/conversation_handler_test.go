package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OctavianTocan/ai-nexus/internal/domain/agent"
	"github.com/OctavianTocan/ai-nexus/internal/domain/conversation"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/responses"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

func ownedBy(owner string, convs ...*conversation.Conversation) func(context.Context, string, string) (*conversation.Conversation, error) {
	return func(_ context.Context, ownerID, id string) (*conversation.Conversation, error) {
		for _, c := range convs {
			if c.ID == id && c.UserID == ownerID && ownerID == owner {
				return c, nil
			}
		}
		return nil, nil
	}
}

func TestCreateConversation(t *testing.T) {
	env := newTestEnv()
	var gotTitle *string
	env.conversations.CreateFunc = func(_ context.Context, ownerID string, input conversation.CreateConversationInput) (*conversation.Conversation, error) {
		gotTitle = input.Title
		title := conversation.DefaultTitle
		if input.Title != nil {
			title = *input.Title
		}
		return &conversation.Conversation{ID: "conv-1", UserID: ownerID, Title: title}, nil
	}
	router := env.router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/conversations", "", alice))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, gotTitle)

	var body responses.ConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, conversation.DefaultTitle, body.Title)
	assert.Equal(t, alice.ID, body.UserID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/conversations", `{"title":"Trip"}`, alice))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, gotTitle)
	assert.Equal(t, "Trip", *gotTitle)
}

func TestListConversationsReturnsArray(t *testing.T) {
	env := newTestEnv()
	router := env.router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/conversations", "", alice))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	env.conversations.ListFunc = func(_ context.Context, ownerID string) ([]*conversation.Conversation, error) {
		return []*conversation.Conversation{{ID: "a", UserID: ownerID}, {ID: "b", UserID: ownerID}}, nil
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/conversations", "", alice))
	var body []responses.ConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "a", body[0].ID)
}

func TestGetConversationHidesForeign(t *testing.T) {
	env := newTestEnv()
	env.conversations.GetFunc = ownedBy(alice.ID, &conversation.Conversation{ID: "conv-1", UserID: alice.ID, Title: "Mine"})
	router := env.router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/conversations/conv-1", "", alice))
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, tc := range []struct {
		path string
		as   string
	}{
		{"/api/v1/conversations/conv-1", "bob"},
		{"/api/v1/conversations/missing", "alice"},
		{"/api/v1/conversations/conv-1/messages", "bob"},
	} {
		as := alice
		if tc.as == "bob" {
			as = bob
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, newRequest(http.MethodGet, tc.path, "", as))
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
	}
	assert.Empty(t, env.sessions)
}

func TestConversationMessages(t *testing.T) {
	env := newTestEnv()
	env.conversations.GetFunc = ownedBy(alice.ID, &conversation.Conversation{ID: "conv-1", UserID: alice.ID})
	env.agent.HistoryFunc = func(context.Context) ([]agent.Message, error) {
		return []agent.Message{
			{Role: agent.RoleUser, Content: "hi"},
			{Role: agent.RoleAssistant, Content: "hello"},
		}, nil
	}

	rec := httptest.NewRecorder()
	env.router().ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/conversations/conv-1/messages", "", alice))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`, rec.Body.String())
	require.Len(t, env.sessions, 1)
	assert.Equal(t, agent.SessionIDFor("conv-1"), env.sessions[0].SessionID)
}

func TestConversationMessagesEmptyOnLookupFailure(t *testing.T) {
	for name, historyErr := range map[string]error{
		"no runs yet": platformerrors.NewError(context.Background(), platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "session not found", nil, ""),
		"store down":  errors.New("connection refused"),
	} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv()
			env.conversations.GetFunc = ownedBy(alice.ID, &conversation.Conversation{ID: "conv-1", UserID: alice.ID})
			env.agent.HistoryFunc = func(context.Context) ([]agent.Message, error) {
				return nil, historyErr
			}

			rec := httptest.NewRecorder()
			env.router().ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/conversations/conv-1/messages", "", alice))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `[]`, rec.Body.String())
		})
	}
}
