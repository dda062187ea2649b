package content

import (
	"os"
	"path/filepath"
	"testing"

	"recipebox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Default(t *testing.T) {
	site, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Recipe Box", site.Title)
	assert.NotEmpty(t, site.NavItems)
	assert.Equal(t, "About", site.TitleFor("/about"))
	assert.Equal(t, "Recipe Box", site.TitleFor("/nowhere"))

	page, err := site.Page("/about")
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "<h2>About Recipe Box</h2>")
}

func TestPage_UnknownPath(t *testing.T) {
	site, err := Load("")
	require.NoError(t, err)

	_, err = site.Page("/missing")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
	assert.Equal(t, "Page not found", appErr.Message)
}

func TestPage_SanitizesHTML(t *testing.T) {
	site, err := Parse([]byte(`
title: Test
pagesContent:
  /x:
    content: '<p onclick="steal()">hi</p><script>alert(1)</script><a href="javascript:alert(1)">bad</a>'
`))
	require.NoError(t, err)

	page, err := site.Page("/x")
	require.NoError(t, err)
	assert.NotContains(t, page.HTML, "script")
	assert.NotContains(t, page.HTML, "onclick")
	assert.NotContains(t, page.HTML, "javascript:")
	assert.Contains(t, page.HTML, "hi")
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yml")
	require.NoError(t, os.WriteFile(path, []byte("title: Custom\npagesContent:\n  /faq:\n    content: <p>Q</p>\n"), 0o600))

	site, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Custom", site.Title)
	assert.Equal(t, []string{"/faq"}, site.Paths())

	_, err = Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)

	_, err = Parse([]byte("description: no title\n"))
	assert.Error(t, err)
}
