package aiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"MemoGallery/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePrompt(t *testing.T) {
	p, err := ValidatePrompt("  a red fox  ")
	require.NoError(t, err)
	assert.Equal(t, "a red fox", p)

	_, err = ValidatePrompt("   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = ValidatePrompt(strings.Repeat("я", MaxPromptLength))
	assert.NoError(t, err)
	_, err = ValidatePrompt(strings.Repeat("a", MaxPromptLength+1))
	assert.ErrorIs(t, err, ErrPromptTooLong)
}

func TestClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/functions/v1/generate-ai-image", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sunset", body["prompt"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"imageUrl":"data:image/png;base64,AAEC","credits":40,"prompt":"sunset"}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/functions/v1/")
	res, err := c.Generate(context.Background(), "tok", " sunset ")
	require.NoError(t, err)
	assert.Equal(t, 40, res.Credits)
	assert.Equal(t, "data:image/png;base64,AAEC", res.ImageURL)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"Insufficient credits","credits":5,"message":"Credits reset daily"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Generate(context.Background(), "tok", "cat")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Insufficient credits", apiErr.Message)
	require.NotNil(t, apiErr.Credits)
	assert.Equal(t, 5, *apiErr.Credits)
}

func TestClient_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Enhance(context.Background(), "", "data:image/png;base64,AA==", "dev-1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestClient_EditSendsImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "data:image/png;base64,AA==", body["imageData"])
		assert.Equal(t, "make it blue", body["prompt"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"editedImage":"data:image/png;base64,AQ==","credits":30}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).Edit(context.Background(), "tok", "data:image/png;base64,AA==", "make it blue")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AQ==", res.EditedImage)
}

func TestClient_NotConfigured(t *testing.T) {
	_, err := New("").Generate(context.Background(), "", "cat")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = New("http://unused").Generate(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestClient_FetchImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{1, 2, 3})
	}))
	defer srv.Close()
	c := New("")
	ctx := context.Background()

	b, err := c.FetchImage(ctx, srv.URL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)

	_, err = c.FetchImage(ctx, srv.URL+"/missing")
	assert.ErrorIs(t, err, ErrImageFetch)

	b, err = c.FetchImage(ctx, DataURL("image/png", []byte{9, 8}))
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8}, b)

	_, err = c.FetchImage(ctx, "ftp://host/x.png")
	assert.ErrorIs(t, err, model.ErrInvalidRecord)

	_, err = c.FetchImage(ctx, "data:image/png;base64,@@@")
	assert.ErrorIs(t, err, model.ErrInvalidRecord)
}

func TestClient_FetchImageLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()
	ctx := context.Background()

	b, err := New("").WithMaxImageBytes(64).FetchImage(ctx, srv.URL)
	require.NoError(t, err)
	assert.Len(t, b, 64)

	c := New("").WithMaxImageBytes(16)
	_, err = c.FetchImage(ctx, srv.URL)
	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.ErrorIs(t, err, model.ErrQuotaExceeded)

	_, err = c.FetchImage(ctx, DataURL("image/png", make([]byte, 17)))
	assert.ErrorIs(t, err, model.ErrQuotaExceeded)
}

func TestDecodeDataURL(t *testing.T) {
	b, err := DecodeDataURL("data:text/plain,hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b)

	_, err = DecodeDataURL("data:image/png;base64,@@@")
	assert.Error(t, err)
	_, err = DecodeDataURL("data:nocomma")
	assert.Error(t, err)
}
