package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestErrorClassifiers(t *testing.T) {
	retryable := []error{ErrNetworkUnavailable, ErrTimeout, ErrServiceUnavailable, ErrRateLimited}
	for _, err := range retryable {
		assert.True(t, IsRetryableError(err), err.Error())
		assert.False(t, IsPermanentError(err), err.Error())
	}

	permanent := []error{
		ErrUnauthorized, ErrNotFound, ErrInvalidInput, ErrInvalidFormat,
		ErrMessageNotFound, ErrInvalidMessageID, ErrCompletionDisabled,
	}
	for _, err := range permanent {
		assert.True(t, IsPermanentError(err), err.Error())
		assert.False(t, IsRetryableError(err), err.Error())
	}

	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsPermanentError(nil))
	assert.False(t, IsRetryableError(errors.New("unclassified")))
	assert.False(t, IsPermanentError(errors.New("unclassified")))
}

func TestErrorClassifiers_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("failed to fetch completion: %w", ErrTimeout)
	assert.True(t, IsRetryableError(wrapped))
	assert.False(t, IsPermanentError(wrapped))
}

func TestMessageFetchError(t *testing.T) {
	t.Run("gmail_404_is_message_not_found", func(t *testing.T) {
		apiErr := &googleapi.Error{Code: http.StatusNotFound, Message: "not found"}
		err := messageFetchError(fmt.Errorf("gmail: %w", apiErr))

		assert.ErrorIs(t, err, ErrMessageNotFound)
		assert.True(t, IsPermanentError(err))
	})

	t.Run("other_failures_stay_unclassified", func(t *testing.T) {
		err := messageFetchError(errors.New("connection reset"))

		assert.False(t, errors.Is(err, ErrMessageNotFound))
		assert.ErrorContains(t, err, "connection reset")
	})

	t.Run("gmail_500_is_not_message_not_found", func(t *testing.T) {
		apiErr := &googleapi.Error{Code: http.StatusInternalServerError}
		err := messageFetchError(apiErr)

		assert.False(t, errors.Is(err, ErrMessageNotFound))
	})
}
