package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunrag-go/internal/model"
	"chunrag-go/internal/repository"
	"chunrag-go/pkg/credpool"
	"chunrag-go/pkg/kvstore"
)

func newCredTestService(t *testing.T) (CredentialService, repository.CredentialRepository) {
	t.Helper()
	store, err := kvstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	repo := repository.NewCredentialRepository(store)
	return NewCredentialService(credpool.NewPool(time.Minute), repo), repo
}

func TestCredentialService_SetMergesAndPersists(t *testing.T) {
	svc, repo := newCredTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetCredentials(ctx, map[string][]string{"gemini": {"g1"}}))
	require.NoError(t, svc.SetCredentials(ctx, map[string][]string{"gemini": {"g1", "g2"}, "mistral": {"m1"}}))

	counts := svc.Counts()
	assert.Equal(t, 2, counts["gemini"])
	assert.Equal(t, 1, counts["mistral"])

	persisted, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"g1", "g2"}, persisted["gemini"])
}

func TestCredentialService_ReplaceAndClear(t *testing.T) {
	svc, repo := newCredTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetCredentials(ctx, map[string][]string{"gemini": {"g1", "g2"}, "cohere": {"c1"}}))

	require.NoError(t, svc.ReplaceCredentials(ctx, "gemini", []string{"g9"}))
	assert.Equal(t, 1, svc.Counts()["gemini"])

	require.NoError(t, svc.ClearProvider(ctx, "cohere"))
	_, ok := svc.Counts()["cohere"]
	assert.False(t, ok)

	require.NoError(t, svc.ClearAll(ctx))
	assert.Empty(t, svc.Counts())

	persisted, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestCredentialService_SetValidation(t *testing.T) {
	svc, _ := newCredTestService(t)

	var ve *model.ValidationError
	err := svc.SetCredentials(context.Background(), nil)
	assert.ErrorAs(t, err, &ve)

	err = svc.SetCredentials(context.Background(), map[string][]string{"": {"k"}})
	assert.ErrorAs(t, err, &ve)
}

func TestCredentialService_TestCredential(t *testing.T) {
	svc, _ := newCredTestService(t)

	cases := []struct {
		provider string
		key      string
		valid    bool
	}{
		{"gemini", "AIzaSyA1234567890abcdefghij", true},
		{"gemini", "wrong-prefix-key-123456789", false},
		{"openrouter", "sk-or-v1-abcdef1234567890", true},
		{"openrouter", "sk-wrong", false},
		{"huggingface", "hf_abcdef123456", true},
		{"nvidia", "nvapi-abcdef1234567890xyz", true},
		{"mistral", "short", false},
		{"mistral", "long-enough-key", true},
	}
	for _, tc := range cases {
		valid, message, err := svc.TestCredential(tc.provider, tc.key)
		require.NoError(t, err, "%s/%s", tc.provider, tc.key)
		assert.Equal(t, tc.valid, valid, "%s/%s", tc.provider, tc.key)
		assert.NotEmpty(t, message)
	}

	var ve *model.ValidationError
	_, _, err := svc.TestCredential("acme", "whatever-key-123")
	assert.ErrorAs(t, err, &ve)

	_, _, err = svc.TestCredential("gemini", "  ")
	assert.ErrorAs(t, err, &ve)
}

func TestSettingsService_UpdateWritesThrough(t *testing.T) {
	store, err := kvstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	repo := repository.NewSettingsRepository(store)
	svc := NewSettingsService(repo)
	ctx := context.Background()

	params, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultModelParameters(), params)

	temp := 0.3
	tokens := 1024
	updated, err := svc.Update(ctx, &model.SamplingParams{Temperature: &temp, MaxTokens: &tokens})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, updated.Temperature, 1e-9)
	assert.Equal(t, 1024, updated.MaxTokens)

	// 写穿：直接从仓库读也能看到
	persisted, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1024, persisted.MaxTokens)
}

func TestSettingsService_UpdateValidation(t *testing.T) {
	store, err := kvstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc := NewSettingsService(repository.NewSettingsRepository(store))

	bad := 3.5
	_, err = svc.Update(context.Background(), &model.SamplingParams{Temperature: &bad})
	var ve *model.ValidationError
	assert.ErrorAs(t, err, &ve)

	zero := 0
	_, err = svc.Update(context.Background(), &model.SamplingParams{MaxTokens: &zero})
	assert.ErrorAs(t, err, &ve)
}
