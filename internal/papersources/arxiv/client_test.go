package arxiv

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citeright/citeright/internal/domain"
	"github.com/citeright/citeright/internal/papersources"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <opensearch:totalResults>2150</opensearch:totalResults>
  <opensearch:startIndex>0</opensearch:startIndex>
  <opensearch:itemsPerPage>2</opensearch:itemsPerPage>
  <entry>
    <id>http://arxiv.org/abs/2301.12345v1</id>
    <title>Graph Neural Networks for
      Molecule Generation</title>
    <summary>  We propose a graph neural network
      architecture for molecule generation.
    </summary>
    <published>2023-01-15T18:30:00Z</published>
    <updated>2023-01-20T09:00:00Z</updated>
    <author><name>Alice Chen</name></author>
    <author><name>Bob Kumar</name></author>
    <arxiv:doi>10.1000/example.2301</arxiv:doi>
    <arxiv:comment>22 pages, 8 figures</arxiv:comment>
    <arxiv:journal_ref>J. Chem. Inf. 63 (2023)</arxiv:journal_ref>
    <link href="http://arxiv.org/abs/2301.12345v1" rel="alternate" type="text/html"/>
    <link href="http://arxiv.org/pdf/2301.12345v1" rel="related" type="application/pdf" title="pdf"/>
    <category term="cs.LG"/>
    <category term="q-bio.BM"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2212.00001v2</id>
    <title>A Survey of Generative Models</title>
    <summary>Survey text.</summary>
    <published>2022-12-01T00:00:00Z</published>
    <author><name>Carol Diaz</name></author>
    <link href="http://arxiv.org/pdf/2212.00001v2" rel="related" type="application/pdf" title="pdf"/>
    <category term="cs.LG"/>
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <opensearch:totalResults>0</opensearch:totalResults>
  <opensearch:startIndex>0</opensearch:startIndex>
  <opensearch:itemsPerPage>0</opensearch:itemsPerPage>
</feed>`

func newTestClient(serverURL string) *Client {
	cfg := Config{BaseURL: serverURL}
	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		RateLimit:  100,
		BurstSize:  10,
		MaxRetries: 1,
	})
	return NewWithHTTPClient(cfg, httpClient)
}

func TestClient_Search(t *testing.T) {
	t.Run("maps entries and query parameters", func(t *testing.T) {
		var receivedQuery string
		var receivedSortBy string
		var receivedMax string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			receivedQuery = r.URL.Query().Get("search_query")
			receivedSortBy = r.URL.Query().Get("sortBy")
			receivedMax = r.URL.Query().Get("max_results")
			w.Header().Set("Content-Type", "application/atom+xml")
			w.Write([]byte(sampleFeed))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		result, err := client.Search(context.Background(), papersources.SearchParams{
			Query:      `all:"graph neural networks" OR all:"molecule generation"`,
			MaxResults: 40,
		})
		require.NoError(t, err)

		assert.Equal(t, `all:"graph neural networks" OR all:"molecule generation"`, receivedQuery)
		assert.Equal(t, "relevance", receivedSortBy)
		assert.Equal(t, "40", receivedMax)

		assert.Equal(t, 2150, result.TotalResults)
		require.Len(t, result.Papers, 2)

		first := result.Papers[0]
		assert.Equal(t, "http://arxiv.org/abs/2301.12345v1", first.ID)
		assert.Equal(t, "Graph Neural Networks for Molecule Generation", first.Title)
		assert.Equal(t, "We propose a graph neural network architecture for molecule generation.", first.Abstract)
		assert.Equal(t, []string{"Alice Chen", "Bob Kumar"}, first.Authors)
		assert.Equal(t, "http://arxiv.org/pdf/2301.12345v1", first.PDFURL)
		assert.Equal(t, "2023-01-15", first.Published)
		assert.Equal(t, []string{"cs.LG", "q-bio.BM"}, first.Categories)
		assert.Equal(t, "22 pages, 8 figures", first.Comment)
		assert.Equal(t, "J. Chem. Inf. 63 (2023)", first.JournalRef)
		assert.Equal(t, "10.1000/example.2301", first.DOI)
	})

	t.Run("empty feed returns no papers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(emptyFeed))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		result, err := client.Search(context.Background(), papersources.SearchParams{Query: "all:nothing"})
		require.NoError(t, err)
		assert.Empty(t, result.Papers)
		assert.Equal(t, 0, result.TotalResults)
	})

	t.Run("uses configured default max results", func(t *testing.T) {
		var receivedMax string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			receivedMax = r.URL.Query().Get("max_results")
			w.Write([]byte(emptyFeed))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Search(context.Background(), papersources.SearchParams{Query: "all:test"})
		require.NoError(t, err)
		assert.Equal(t, "40", receivedMax)
	})

	t.Run("non-200 response returns external API error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("malformed query"))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Search(context.Background(), papersources.SearchParams{Query: "all:("})
		require.Error(t, err)

		var apiErr *domain.ExternalAPIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "arXiv", apiErr.Source)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})

	t.Run("malformed XML returns decode error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not xml at all <"))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Search(context.Background(), papersources.SearchParams{Query: "all:test"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding response")
	})
}

func TestClient_GetByID(t *testing.T) {
	t.Run("fetches paper by id_list", func(t *testing.T) {
		var receivedIDList string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			receivedIDList = r.URL.Query().Get("id_list")
			w.Write([]byte(sampleFeed))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		paper, err := client.GetByID(context.Background(), "2301.12345")
		require.NoError(t, err)

		assert.Equal(t, "2301.12345", receivedIDList)
		assert.Equal(t, "Graph Neural Networks for Molecule Generation", paper.Title)
		assert.Equal(t, "Alice Chen", paper.FirstAuthor())
	})

	t.Run("empty feed returns not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(emptyFeed))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.GetByID(context.Background(), "9999.00000")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultRateLimit, cfg.RateLimit)
	assert.Equal(t, DefaultBurstSize, cfg.BurstSize)
	assert.Equal(t, DefaultMaxResults, cfg.MaxResults)
}

func TestClient_Name(t *testing.T) {
	client := New(Config{})
	assert.Equal(t, "arXiv", client.Name())
}
