package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OctavianTocan/ai-nexus/internal/domain/agent"
	"github.com/OctavianTocan/ai-nexus/internal/domain/conversation"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/handlers"
)

func TestChatStreamsFragmentsThenDone(t *testing.T) {
	env := newTestEnv()
	stream := &fakeStream{fragments: []string{"Hel", "", "lo"}}
	var question string
	env.agent.RunStreamFunc = func(_ context.Context, q string) (agent.Stream, error) {
		question = q
		return stream, nil
	}
	var renamed string
	env.conversations.RenameFromMessageFunc = func(_ context.Context, conv *conversation.Conversation, message string) (*conversation.Conversation, error) {
		renamed = message
		return conv, nil
	}

	rec := httptest.NewRecorder()
	env.router().ServeHTTP(rec, newRequest(http.MethodPost, "/api/chat", `{"question":"  Hi there  "}`, alice))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "conv-new", rec.Header().Get(handlers.ConversationIDHeader))
	assert.Equal(t,
		"data: {\"type\":\"delta\",\"content\":\"Hel\"}\n\n"+
			"data: {\"type\":\"delta\",\"content\":\"lo\"}\n\n"+
			"data: [DONE]\n\n",
		rec.Body.String())

	assert.Equal(t, "Hi there", question)
	assert.True(t, stream.closed)
	assert.Equal(t, "Hi there", renamed)
	require.Len(t, env.sessions, 1)
	assert.Equal(t, agent.SessionIDFor("conv-new"), env.sessions[0].SessionID)
	assert.Equal(t, alice.ID, env.sessions[0].UserID)
}

func TestChatErrorFrameReplacesDone(t *testing.T) {
	env := newTestEnv()
	env.agent.RunStreamFunc = func(context.Context, string) (agent.Stream, error) {
		return &fakeStream{fragments: []string{"partial"}, err: errors.New("upstream exploded")}, nil
	}
	renameCalled := false
	env.conversations.RenameFromMessageFunc = func(_ context.Context, conv *conversation.Conversation, _ string) (*conversation.Conversation, error) {
		renameCalled = true
		return conv, nil
	}

	rec := httptest.NewRecorder()
	env.router().ServeHTTP(rec, newRequest(http.MethodPost, "/api/chat", `{"question":"hi"}`, alice))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "data: {\"type\":\"delta\",\"content\":\"partial\"}\n\n")
	assert.Contains(t, body, "data: {\"type\":\"error\",\"error\":\""+handlers.StreamErrorMessage+"\"}\n\n")
	assert.NotContains(t, body, "[DONE]")
	assert.NotContains(t, body, "upstream exploded")
	assert.False(t, renameCalled)
}

func TestChatCreatesDistinctConversations(t *testing.T) {
	env := newTestEnv()
	created := 0
	env.conversations.CreateFunc = func(_ context.Context, ownerID string, _ conversation.CreateConversationInput) (*conversation.Conversation, error) {
		created++
		ids := []string{"conv-a", "conv-b"}
		return &conversation.Conversation{ID: ids[created-1], UserID: ownerID, Title: conversation.DefaultTitle}, nil
	}
	router := env.router()

	var ids []string
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, newRequest(http.MethodPost, "/api/chat", `{"question":"hi"}`, alice))
		require.Equal(t, http.StatusOK, rec.Code)
		ids = append(ids, rec.Header().Get(handlers.ConversationIDHeader))
	}

	assert.Equal(t, []string{"conv-a", "conv-b"}, ids)
	require.Len(t, env.sessions, 2)
	assert.NotEqual(t, env.sessions[0].SessionID, env.sessions[1].SessionID)
}

func TestChatContinuesExistingConversation(t *testing.T) {
	env := newTestEnv()
	existing := &conversation.Conversation{ID: "conv-1", UserID: alice.ID, Title: "Named already"}
	env.conversations.CreateFunc = func(context.Context, string, conversation.CreateConversationInput) (*conversation.Conversation, error) {
		t.Fatal("must not create a conversation when an id is given")
		return nil, nil
	}
	env.conversations.GetFunc = func(_ context.Context, ownerID, id string) (*conversation.Conversation, error) {
		if ownerID == alice.ID && id == existing.ID {
			return existing, nil
		}
		return nil, nil
	}
	env.conversations.RenameFromMessageFunc = func(context.Context, *conversation.Conversation, string) (*conversation.Conversation, error) {
		t.Fatal("titled conversations are not renamed")
		return nil, nil
	}

	rec := httptest.NewRecorder()
	env.router().ServeHTTP(rec, newRequest(http.MethodPost, "/api/chat", `{"question":"again","conversation_id":"conv-1"}`, alice))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "conv-1", rec.Header().Get(handlers.ConversationIDHeader))
	require.Len(t, env.sessions, 1)
	assert.Equal(t, agent.SessionIDFor("conv-1"), env.sessions[0].SessionID)
}

func TestChatRejectsUnknownOrForeignConversation(t *testing.T) {
	env := newTestEnv()
	env.conversations.GetFunc = func(_ context.Context, ownerID, id string) (*conversation.Conversation, error) {
		if ownerID == bob.ID && id == "conv-bob" {
			return &conversation.Conversation{ID: id, UserID: bob.ID}, nil
		}
		return nil, nil
	}
	router := env.router()

	for _, id := range []string{"conv-bob", "does-not-exist"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, newRequest(http.MethodPost, "/api/chat", `{"question":"hi","conversation_id":"`+id+`"}`, alice))
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json", id)
	}
	assert.Empty(t, env.sessions)
}

func TestChatValidation(t *testing.T) {
	env := newTestEnv()
	router := env.router()

	for _, body := range []string{`{"question":"   "}`, `{}`, `not json`} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, newRequest(http.MethodPost, "/api/chat", body, alice))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(http.MethodPost, "/api/chat", `{"question":"hi"}`, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, env.sessions)
}

func TestChatStartFailureIsJSON(t *testing.T) {
	env := newTestEnv()
	env.agent.RunStreamFunc = func(context.Context, string) (agent.Stream, error) {
		return nil, errors.New("history unavailable")
	}

	rec := httptest.NewRecorder()
	env.router().ServeHTTP(rec, newRequest(http.MethodPost, "/api/chat", `{"question":"hi"}`, alice))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.NotContains(t, rec.Body.String(), "[DONE]")
}

func TestChatStopsWritingAfterDisconnect(t *testing.T) {
	env := newTestEnv()
	ctx, cancel := context.WithCancel(context.Background())
	env.agent.RunStreamFunc = func(context.Context, string) (agent.Stream, error) {
		cancel()
		return &fakeStream{err: context.Canceled}, nil
	}

	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPost, "/api/chat", `{"question":"hi"}`, alice).WithContext(ctx)
	env.router().ServeHTTP(rec, req)

	assert.NotContains(t, rec.Body.String(), "[DONE]")
	assert.NotContains(t, rec.Body.String(), `"type":"error"`)
}
