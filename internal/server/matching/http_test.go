package matching

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", time.Second, nil)
}

func TestMatch_SendsSectionAndImage(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/match", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var raw map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, "sec-1", raw["section_id"])
		assert.Equal(t, "aW1n", raw["image"])

		_, _ = w.Write([]byte(`{"student_id":"st-1","name":"Asha","confidence":0.93}`))
	})

	res, err := c.Match(context.Background(), "sec-1", []byte("img"))
	require.NoError(t, err)
	require.NotNil(t, res.Match)
	assert.Equal(t, models.Candidate{StudentID: "st-1", Name: "Asha", Confidence: 0.93}, *res.Match)
	assert.Empty(t, res.Candidates)
}

func TestMatch_Candidates(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"student_id":"st-2","name":"Ram","confidence":0.81},{"student_id":"st-3","name":"Shyam","confidence":0.8}]}`))
	})

	res, err := c.Match(context.Background(), "sec-1", []byte("img"))
	require.NoError(t, err)
	assert.Nil(t, res.Match)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "st-3", res.Candidates[1].StudentID)
}

func TestMatch_Empty(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	res, err := c.Match(context.Background(), "sec-1", []byte("img"))
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestMatch_TransientFailures(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model loading", http.StatusServiceUnavailable)
		})
		_, err := c.Match(context.Background(), "sec-1", []byte("img"))
		assert.ErrorIs(t, err, common.ErrTransient)
	})

	t.Run("garbage body", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})
		_, err := c.Match(context.Background(), "sec-1", []byte("img"))
		assert.ErrorIs(t, err, common.ErrTransient)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, 20*time.Millisecond, nil)
		_, err := c.Match(context.Background(), "sec-1", []byte("img"))
		assert.ErrorIs(t, err, common.ErrTransient)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c := NewHTTPClient(url, time.Second, nil)
		_, err := c.Match(context.Background(), "sec-1", []byte("img"))
		assert.ErrorIs(t, err, common.ErrTransient)
	})
}
