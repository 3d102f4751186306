package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/story-sim/pkg/chat"
	"github.com/jwebster45206/story-sim/pkg/narrative"
)

func dialogueRequest() narrative.Request {
	return narrative.Request{
		Kind:      narrative.KindDialogue,
		Story:     "A student in a garret.",
		Speaker:   "Sonya",
		Listener:  "Rodion",
		Location:  "Haymarket",
		Utterance: "Good evening.",
	}
}

func TestNarrativeProvider_Generate(t *testing.T) {
	mock := NewMockLLMAPI()
	mock.SetChatResponse("  Sonya lowers her eyes.  ")

	p := NewNarrativeProvider(mock, nil)
	text := p.Generate(context.Background(), dialogueRequest())
	assert.Equal(t, "Sonya lowers her eyes.", text)

	_, calls := mock.GetCalls()
	require.Len(t, calls, 1)
	msgs := calls[0].Messages
	require.NotEmpty(t, msgs)
	assert.Equal(t, chat.ChatRoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "A student in a garret.")
}

func TestNarrativeProvider_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *MockLLMAPI)
	}{
		{name: "chat error", setup: func(m *MockLLMAPI) { m.SetChatError(errors.New("connection refused")) }},
		{name: "empty reply", setup: func(m *MockLLMAPI) { m.SetChatResponse("   ") }},
		{name: "no response marker", setup: func(m *MockLLMAPI) { m.SetChatResponse(msgNoResponse) }},
		{name: "bare sentinel echoed", setup: func(m *MockLLMAPI) { m.SetChatResponse(narrative.SentinelPrefix) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockLLMAPI()
			tt.setup(mock)
			text := NewNarrativeProvider(mock, nil).Generate(context.Background(), dialogueRequest())
			assert.True(t, narrative.IsSentinel(text), "got %q", text)
		})
	}
}

func TestNarrativeProvider_StripsEchoedMarker(t *testing.T) {
	mock := NewMockLLMAPI()
	mock.SetChatResponse(narrative.SentinelPrefix + " The bells ring.")
	text := NewNarrativeProvider(mock, nil).Generate(context.Background(), dialogueRequest())
	assert.Equal(t, "The bells ring.", text)
}

func TestNarrativeProvider_NilBackend(t *testing.T) {
	p := NewNarrativeProvider(nil, nil)
	assert.True(t, narrative.IsSentinel(p.Generate(context.Background(), dialogueRequest())))
}

func TestNarrativeProvider_InvalidRequest(t *testing.T) {
	mock := NewMockLLMAPI()
	text := NewNarrativeProvider(mock, nil).Generate(context.Background(), narrative.Request{Kind: "sermon"})
	assert.True(t, narrative.IsSentinel(text))

	_, calls := mock.GetCalls()
	assert.Empty(t, calls, "backend is not called for a bad request")
}

func TestNarrativeProvider_LogsFirstFailureOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	mock := NewMockLLMAPI()
	mock.SetChatError(errors.New("connection refused"))
	p := NewNarrativeProvider(mock, logger)

	for i := 0; i < 3; i++ {
		p.Generate(context.Background(), dialogueRequest())
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "level=ERROR"))
	assert.Contains(t, buf.String(), "connection refused")
}

func TestNarrativeProvider_ContentRating(t *testing.T) {
	mock := NewMockLLMAPI()
	mock.SetChatResponse("Damn this heat.")

	filtered := NewNarrativeProvider(mock, nil, WithContentRating("pg13"))
	assert.Equal(t, "Confound this heat.", filtered.Generate(context.Background(), dialogueRequest()))

	mature := NewNarrativeProvider(mock, nil, WithContentRating("mature"))
	assert.Equal(t, "Damn this heat.", mature.Generate(context.Background(), dialogueRequest()))
}

func TestNarrativeProvider_HistoryLimit(t *testing.T) {
	mock := NewMockLLMAPI()
	req := dialogueRequest()
	for i := 0; i < 6; i++ {
		req.History = append(req.History, "Rodion: line", "Sonya: reply")
	}

	NewNarrativeProvider(mock, nil, WithHistoryLimit(2)).Generate(context.Background(), req)
	NewNarrativeProvider(mock, nil, WithHistoryLimit(8)).Generate(context.Background(), req)

	_, calls := mock.GetCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, 6, len(calls[1].Messages)-len(calls[0].Messages))
}

func TestMockLLMAPI(t *testing.T) {
	mock := NewMockLLMAPI()
	ctx := context.Background()

	require.NoError(t, mock.InitModel(ctx, "mistral"))
	text, err := mock.Chat(ctx, []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "Mock response", text)

	mock.SetInitModelError(errors.New("pull failed"))
	assert.EqualError(t, mock.InitModel(ctx, "mistral"), "pull failed")

	inits, chats := mock.GetCalls()
	assert.Equal(t, []string{"mistral", "mistral"}, inits)
	assert.Len(t, chats, 1)

	mock.Reset()
	inits, chats = mock.GetCalls()
	assert.Empty(t, inits)
	assert.Empty(t, chats)
}
