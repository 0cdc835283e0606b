package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ralt/upgrade-advisor/internal/fetch"
	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaCPAN_FetchTags(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"string version", `{"name": "Moose-2.2206", "version": "2.2206"}`, []string{"2.2206"}},
		{"numeric version keeps trailing zero", `{"version": 1.10}`, []string{"1.10"}},
		{"missing version", `{"name": "Foo"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/release/Moose", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			opts := testOptions(nil)
			opts.MetaCPANURL = server.URL
			tags, err := NewMetaCPAN(opts).FetchTags(context.Background(), &models.ProjectInfo{SrcRepo: "Moose"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, tags)
		})
	}
}

func TestPyPI_FetchTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pypi/requests/json", r.URL.Path)
		_, _ = w.Write([]byte(`{"info": {"name": "requests", "version": "2.31.0"}, "releases": {}}`))
	}))
	defer server.Close()

	opts := testOptions(nil)
	opts.PyPIURL = server.URL + "/"
	info := &models.ProjectInfo{SrcRepo: "requests", VersionControl: models.BackendPyPI}

	tags, err := NewPyPI(opts).FetchTags(context.Background(), info)
	require.NoError(t, err)
	assert.Equal(t, []string{"2.31.0"}, tags)
	require.NotNil(t, info.LastQuery)
}

func TestPyPI_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	opts := testOptions(nil)
	opts.PyPIURL = server.URL
	info := &models.ProjectInfo{SrcRepo: "nope"}

	_, err := NewPyPI(opts).FetchTags(context.Background(), info)
	assert.ErrorIs(t, err, fetch.ErrNotFound)
	assert.Nil(t, info.LastQuery)
}

func TestPyPI_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	opts := testOptions(nil)
	opts.PyPIURL = server.URL
	info := &models.ProjectInfo{SrcRepo: "requests"}

	_, err := NewPyPI(opts).FetchTags(context.Background(), info)
	assert.Error(t, err)
	assert.Nil(t, info.LastQuery)
}
