package classifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/config"
)

func TestKeywordClassifier(t *testing.T) {
	k := NewKeywordClassifier()
	cases := map[string]string{
		"Huge pothole on Main Street":        "road",
		"Garbage piling up near the market":  "garbage",
		"Water leak flooding the lane":       "water",
		"Transformer sparking at night":      "electricity",
		"Open manhole with sewage overflow":  "drainage",
		"Streetlight dead for two weeks":     "street_light",
		"Thick smog near the factory":        "pollution",
		"Broken signal causing a jam":        "traffic",
		"Something vague happened somewhere": "other",
	}
	for text, expected := range cases {
		label, err := k.Classify(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, expected, label, "text %q", text)
	}
}

func TestHTTPClassifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predicted_category":"road"}`))
	}))
	defer server.Close()

	c := NewHTTPClassifier(config.ClassifierConfig{URL: server.URL, TimeoutSeconds: 2})
	label, err := c.Classify(context.Background(), "pothole near the main road")
	require.NoError(t, err)
	assert.Equal(t, "road", label)
}

func TestHTTPClassifierErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model unavailable"}`))
	}))
	defer server.Close()

	c := NewHTTPClassifier(config.ClassifierConfig{URL: server.URL, TimeoutSeconds: 2})
	_, err := c.Classify(context.Background(), "anything")
	assert.Error(t, err)
}
