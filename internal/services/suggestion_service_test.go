package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ajramos/maildraft/internal/compose"
	"github.com/ajramos/maildraft/internal/llm"
)

// MockProvider implements llm.Provider for testing
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockCacheService implements CacheService for testing
type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetSuggestion(ctx context.Context, accountEmail, messageID, textHash string) (string, bool, error) {
	args := m.Called(ctx, accountEmail, messageID, textHash)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockCacheService) SaveSuggestion(ctx context.Context, accountEmail, messageID, textHash, suggestion string) error {
	args := m.Called(ctx, accountEmail, messageID, textHash, suggestion)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateMessage(ctx context.Context, accountEmail, messageID string) error {
	args := m.Called(ctx, accountEmail, messageID)
	return args.Error(0)
}

func draftRequest(text string) compose.CompletionRequest {
	return compose.CompletionRequest{
		Text: text,
		Context: compose.MessageContext{
			MessageID: "msg-100",
			Subject:   "Quarterly numbers",
			From:      "Dana Smith <dana@example.com>",
			Body:      "Could you confirm the Q3 figures by Friday?",
		},
	}
}

func TestNewSuggestionService(t *testing.T) {
	provider := &MockProvider{}
	cache := &MockCacheService{}

	service := NewSuggestionService(provider, cache, "me@example.com")

	assert.NotNil(t, service)
	assert.Equal(t, "me@example.com", service.accountEmail)
}

func TestSuggestionService_Complete_NilProvider(t *testing.T) {
	service := NewSuggestionService(nil, nil, "me@example.com")

	_, err := service.Complete(context.Background(), draftRequest("Thanks, I will "))

	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "completion provider not available")
}

func TestSuggestionService_Complete_EmptyText(t *testing.T) {
	service := NewSuggestionService(&MockProvider{}, nil, "me@example.com")

	_, err := service.Complete(context.Background(), draftRequest("   "))

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "draft text cannot be empty")
}

func TestSuggestionService_Complete_CacheHit(t *testing.T) {
	provider := &MockProvider{}
	cache := &MockCacheService{}
	hash := hashDraftText("Thanks, I will ")
	cache.On("GetSuggestion", mock.Anything, "me@example.com", "msg-100", hash).Return("circle back tomorrow.", true, nil)

	service := NewSuggestionService(provider, cache, "me@example.com")

	got, err := service.Complete(context.Background(), draftRequest("Thanks, I will "))

	require.NoError(t, err)
	assert.Equal(t, "circle back tomorrow.", got)
	provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestSuggestionService_Complete_CacheMissFetchesAndSaves(t *testing.T) {
	provider := &MockProvider{}
	provider.On("Complete", mock.Anything, mock.Anything).Return("  be in touch shortly. ", nil)
	cache := &MockCacheService{}
	hash := hashDraftText("Thanks, I will ")
	cache.On("GetSuggestion", mock.Anything, "me@example.com", "msg-100", hash).Return("", false, nil)
	cache.On("SaveSuggestion", mock.Anything, "me@example.com", "msg-100", hash, "be in touch shortly.").Return(nil)

	service := NewSuggestionService(provider, cache, "me@example.com")

	got, err := service.Complete(context.Background(), draftRequest("Thanks, I will "))

	require.NoError(t, err)
	assert.Equal(t, "be in touch shortly.", got)
	provider.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestSuggestionService_Complete_PassesContextToProvider(t *testing.T) {
	provider := &MockProvider{}
	provider.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.CurrentText == "Thanks, I will " &&
			req.Context.Subject == "Quarterly numbers" &&
			req.Context.From == "Dana Smith <dana@example.com>" &&
			req.Context.Body == "Could you confirm the Q3 figures by Friday?"
	})).Return("confirm.", nil)

	service := NewSuggestionService(provider, nil, "me@example.com")

	got, err := service.Complete(context.Background(), draftRequest("Thanks, I will "))

	require.NoError(t, err)
	assert.Equal(t, "confirm.", got)
	provider.AssertExpectations(t)
}

func TestSuggestionService_Complete_NoMessageID_SkipsCache(t *testing.T) {
	provider := &MockProvider{}
	provider.On("Complete", mock.Anything, mock.Anything).Return("soon.", nil)
	cache := &MockCacheService{}

	service := NewSuggestionService(provider, cache, "me@example.com")

	req := draftRequest("Thanks, I will ")
	req.Context.MessageID = ""

	got, err := service.Complete(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "soon.", got)
	cache.AssertNotCalled(t, "GetSuggestion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "SaveSuggestion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSuggestionService_Complete_ProviderError(t *testing.T) {
	provider := &MockProvider{}
	provider.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))

	service := NewSuggestionService(provider, nil, "me@example.com")

	_, err := service.Complete(context.Background(), draftRequest("Thanks, I will "))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch completion")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSuggestionService_Complete_EmptySuggestionNotCached(t *testing.T) {
	provider := &MockProvider{}
	provider.On("Complete", mock.Anything, mock.Anything).Return("   ", nil)
	cache := &MockCacheService{}
	cache.On("GetSuggestion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", false, nil)

	service := NewSuggestionService(provider, cache, "me@example.com")

	got, err := service.Complete(context.Background(), draftRequest("Thanks, I will "))

	require.NoError(t, err)
	assert.Empty(t, got)
	cache.AssertNotCalled(t, "SaveSuggestion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSuggestionService_Complete_SaveFailureDoesNotFail(t *testing.T) {
	provider := &MockProvider{}
	provider.On("Complete", mock.Anything, mock.Anything).Return("done.", nil)
	cache := &MockCacheService{}
	cache.On("GetSuggestion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", false, nil)
	cache.On("SaveSuggestion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	service := NewSuggestionService(provider, cache, "me@example.com")

	got, err := service.Complete(context.Background(), draftRequest("Thanks, I will "))

	require.NoError(t, err)
	assert.Equal(t, "done.", got)
}

func TestSuggestionService_Complete_TruncatesLongBody(t *testing.T) {
	provider := &MockProvider{}
	provider.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return len([]rune(req.Context.Body)) == maxContextRunes
	})).Return("ok.", nil)

	service := NewSuggestionService(provider, nil, "me@example.com")

	req := draftRequest("Thanks, I will ")
	req.Context.Body = strings.Repeat("é", maxContextRunes+1000)

	_, err := service.Complete(context.Background(), req)

	require.NoError(t, err)
	provider.AssertExpectations(t)
}

func TestSuggestionService_InvalidateMessage(t *testing.T) {
	cache := &MockCacheService{}
	cache.On("InvalidateMessage", mock.Anything, "me@example.com", "msg-100").Return(nil)

	service := NewSuggestionService(&MockProvider{}, cache, "me@example.com")

	require.NoError(t, service.InvalidateMessage(context.Background(), "msg-100"))
	cache.AssertExpectations(t)
}

func TestSuggestionService_InvalidateMessage_NilCache(t *testing.T) {
	service := NewSuggestionService(&MockProvider{}, nil, "me@example.com")

	assert.NoError(t, service.InvalidateMessage(context.Background(), "msg-100"))
}

func TestSuggestionService_InvalidateMessage_EmptyID(t *testing.T) {
	service := NewSuggestionService(&MockProvider{}, &MockCacheService{}, "me@example.com")

	err := service.InvalidateMessage(context.Background(), "  ")

	assert.ErrorIs(t, err, ErrInvalidMessageID)
	assert.Contains(t, err.Error(), "message ID cannot be empty")
}

func TestHashDraftText(t *testing.T) {
	first := hashDraftText("Thanks, I will ")
	second := hashDraftText("Thanks, I will ")
	other := hashDraftText("Thanks, I might ")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab", truncateRunes("abcde", 2))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
	assert.Equal(t, "", truncateRunes("", 3))
}
