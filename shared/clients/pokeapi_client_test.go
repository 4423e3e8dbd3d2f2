package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"count":2,"next":"http://%s/page2","results":[
			{"name":"bulbasaur","url":"https://pokeapi.co/api/v2/pokemon/1/"},
			{"name":"ivysaur","url":"https://pokeapi.co/api/v2/pokemon/2/"}]}`, r.Host)
	}))
	defer srv.Close()

	client := NewPokeAPIClient(srv.URL)
	page, err := client.FetchPage(context.Background(), client.FirstPage())
	require.NoError(t, err)

	assert.Equal(t, 2, page.Count)
	assert.Equal(t, srv.URL+"/page2", page.Next)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "bulbasaur", page.Results[0].Name)
	assert.Equal(t, "1", page.Results[0].SourceID())
	assert.Equal(t, "2", page.Results[1].SourceID())
}

func TestFetchPageNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewPokeAPIClient(srv.URL).FetchPage(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "429")
}
