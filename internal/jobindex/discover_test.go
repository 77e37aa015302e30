package jobindex

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveSite(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const healthcareGroup = `<html><body>
<a href="/ooh/healthcare/home.htm">Healthcare</a>
<a href="/ooh/healthcare/registered-nurses.htm">Registered Nurses</a>
<a href="/ooh/healthcare/dentists.htm">Dentists</a>
<a href="/ooh/healthcare/print.htm">Print this page</a>
<a href="/ooh/healthcare/img.htm">Image</a>
<a href="/ooh/healthcare/x.htm">RN</a>
<a href="/ooh/management/ceo.htm">Top Executives</a>
</body></html>`

func TestCrawler_DirectGroups(t *testing.T) {
	srv := serveSite(t, map[string]string{
		"/ooh/home.htm": `<html><body>
<a href="/ooh/home.htm">OOH Home</a>
<a href="/ooh/healthcare/home.htm">Healthcare</a>
<a href="/ooh/management/home.htm">Management</a>
<a href="/ooh/about/deeper/home.htm">Too deep</a>
</body></html>`,
		"/ooh/healthcare/home.htm": healthcareGroup,
		"/ooh/management/home.htm": `<html><body>
<a href="/ooh/management/top-executives.htm">Top Executives</a>
<a href="/ooh/healthcare/registered-nurses.htm">Registered Nurses</a>
</body></html>`,
	})

	c, err := NewCrawler(srv.URL + "/ooh")
	require.NoError(t, err)

	groups, err := c.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, Group{Name: "healthcare", Title: "Healthcare", URL: srv.URL + "/ooh/healthcare/home.htm"}, groups[0])
	assert.Equal(t, "management", groups[1].Name)

	entries, err := c.Discover(context.Background())
	require.NoError(t, err)
	var titles []string
	for _, e := range entries {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"Registered Nurses", "Dentists", "Top Executives"}, titles)
	assert.Equal(t, srv.URL+"/ooh/healthcare/registered-nurses.htm", entries[0].URL)
	assert.Equal(t, "healthcare", entries[0].GroupID)
	assert.Equal(t, "Healthcare", entries[0].GroupTitle)
}

func TestCrawler_ContainerGroups(t *testing.T) {
	srv := serveSite(t, map[string]string{
		"/ooh/home.htm": `<html><body>
<ul class="occupation-groups">
  <li><a href="https://elsewhere.test/ooh/healthcare/home.htm">Healthcare Occupations</a></li>
  <li><a href="https://elsewhere.test/ooh/x/home.htm">Short</a></li>
</ul>
<div class="footer"><a href="https://elsewhere.test/ooh/legal/home.htm">Legal Occupations</a></div>
</body></html>`,
	})

	c, err := NewCrawler(srv.URL + "/ooh")
	require.NoError(t, err)
	groups, err := c.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "healthcare", groups[0].Name)
	assert.Equal(t, "Healthcare Occupations", groups[0].Title)
	assert.Equal(t, "https://elsewhere.test/ooh/healthcare/home.htm", groups[0].URL)
}

func TestCrawler_FallbackGroups(t *testing.T) {
	srv := serveSite(t, map[string]string{
		"/ooh/home.htm":                 `<html><body><p>Redesigned page</p></body></html>`,
		"/ooh/arts-and-design/home.htm": `<html></html>`,
	})
	tables := &Tables{FallbackGroups: []string{"arts-and-design", "healthcare"}}

	c, err := NewCrawler(srv.URL+"/ooh", WithTables(tables))
	require.NoError(t, err)
	groups, err := c.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, Group{Name: "arts-and-design", Title: "Arts And Design", URL: srv.URL + "/ooh/arts-and-design/home.htm"}, groups[0])
}

func TestCrawler_HomeUnavailable(t *testing.T) {
	srv := serveSite(t, map[string]string{})
	c, err := NewCrawler(srv.URL + "/ooh")
	require.NoError(t, err)
	_, err = c.Discover(context.Background())
	assert.Error(t, err)
}

func TestNewCrawler_InvalidURL(t *testing.T) {
	_, err := NewCrawler("not a url")
	assert.Error(t, err)
}

func TestGroupTitle(t *testing.T) {
	assert.Equal(t, "Building And Grounds Cleaning", groupTitle("building-and-grounds-cleaning"))
}
