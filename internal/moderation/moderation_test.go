package moderation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usta_backend/pkg/apperrors"
)

func TestFirstCategory(t *testing.T) {
	t.Run("нет вердикта", func(t *testing.T) {
		assert.Empty(t, FirstCategory(nil, TextCategories))
		assert.Empty(t, FirstCategory(&Result{Flagged: false}, TextCategories))
	})

	t.Run("один флаг", func(t *testing.T) {
		result := &Result{Flagged: true, Categories: map[string]bool{"hate": true}}
		assert.Equal(t, "hate", FirstCategory(result, TextCategories))
	})

	t.Run("несколько флагов - побеждает первый по списку", func(t *testing.T) {
		result := &Result{Flagged: true, Categories: map[string]bool{
			"violence": true,
			"sexual":   true,
		}}
		assert.Equal(t, "sexual", FirstCategory(result, TextCategories))
	})

	t.Run("флаг без известной категории", func(t *testing.T) {
		result := &Result{Flagged: true, Categories: map[string]bool{"unknown": true}}
		assert.Empty(t, FirstCategory(result, TextCategories))
	})
}

func TestHTTPProvider_ModerateText(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/v1/moderations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"flagged":true,"categories":{"harassment":true,"hate":false}}]}`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "test-key", time.Second)

	result, err := provider.ModerateText(context.Background(), "грубый текст")
	require.NoError(t, err)
	assert.True(t, result.Flagged)
	assert.True(t, result.Categories["harassment"])
	assert.False(t, result.Categories["hate"])
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestHTTPProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "test-key", time.Second)

	_, err := provider.ModerateText(context.Background(), "текст")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeExternalServiceError, appErr.Code)
}

func TestHTTPProvider_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // адрес валиден, но соединение откажет

	provider := NewHTTPProvider(server.URL, "test-key", time.Second)

	_, err := provider.ModerateImage(context.Background(), "https://example.com/a.jpg")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeExternalServiceError, appErr.Code)
}

func TestHTTPProvider_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "test-key", time.Second)

	_, err := provider.ModerateText(context.Background(), "текст")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeExternalServiceError, appErr.Code)
}
