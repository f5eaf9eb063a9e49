package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Inkwell-Labs/scribe-back/internal/db"
)

func TestTagResolveReusesExisting(t *testing.T) {
	conn, _, tags, _, _, _ := newServices(t)

	existing := db.Tag{Name: "go"}
	require.NoError(t, conn.Create(&existing).Error)

	got, err := tags.Resolve([]string{"go", "rust"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, existing.ID, got[0].ID)
	assert.Equal(t, "go", got[0].Name)
	assert.Zero(t, got[1].ID, "new tag stays unsaved until the article is")
	assert.Equal(t, "rust", got[1].Name)
}

func TestTagResolveDeduplicatesInput(t *testing.T) {
	_, _, tags, _, _, _ := newServices(t)

	got, err := tags.Resolve([]string{"go", "go", "rust"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "go", got[0].Name)
	assert.Equal(t, "rust", got[1].Name)
}

func TestTagResolveNeverDuplicatesRecords(t *testing.T) {
	conn, _, _, articles, _, _ := newServices(t)

	author := seedUser(t, conn, "alice")
	_, err := articles.Create(author.ID, "One", "", "", []string{"go", "go", "rust"})
	require.NoError(t, err)
	_, err = articles.Create(author.ID, "Two", "", "", []string{"go"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&db.Tag{}).Where("name = ?", "go").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestTagList(t *testing.T) {
	conn, _, tags, articles, _, _ := newServices(t)

	author := seedUser(t, conn, "alice")
	_, err := articles.Create(author.ID, "One", "", "", []string{"rust", "go"})
	require.NoError(t, err)

	got, err := tags.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, got)
}
