package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentCreate(t *testing.T) {
	conn, _, _, articles, comments, _ := newServices(t)

	alice := seedUser(t, conn, "alice")
	bob := seedUser(t, conn, "bob")
	_, err := articles.Create(alice.ID, "A Post", "", "", nil)
	require.NoError(t, err)

	got, err := comments.Create(bob.ID, "a-post", "great write-up")
	require.NoError(t, err)
	assert.Equal(t, "great write-up", got.Body)
	assert.Equal(t, "bob", got.Author.Username)
	assert.NotZero(t, got.ID)

	_, err = comments.Create(bob.ID, "missing", "hello?")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = comments.Create(99999, "a-post", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentListFollowingAnnotation(t *testing.T) {
	conn, _, _, articles, comments, _ := newServices(t)

	alice := seedUser(t, conn, "alice")
	bob := seedUser(t, conn, "bob")
	carol := seedUser(t, conn, "carol")
	_, err := articles.Create(alice.ID, "A Post", "", "", nil)
	require.NoError(t, err)

	_, err = comments.Create(bob.ID, "a-post", "from bob")
	require.NoError(t, err)
	_, err = comments.Create(carol.ID, "a-post", "from carol")
	require.NoError(t, err)

	seedFollow(t, conn, alice, bob)

	t.Run("anonymous viewer follows no one", func(t *testing.T) {
		got, err := comments.List(nil, "a-post")
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, c := range got {
			assert.False(t, c.Author.Following)
		}
	})

	t.Run("viewer sees followed authors flagged", func(t *testing.T) {
		got, err := comments.List(&alice.ID, "a-post")
		require.NoError(t, err)
		require.Len(t, got, 2)

		byAuthor := map[string]bool{}
		for _, c := range got {
			byAuthor[c.Author.Username] = c.Author.Following
		}
		assert.True(t, byAuthor["bob"])
		assert.False(t, byAuthor["carol"])
	})

	t.Run("unknown slug is not found", func(t *testing.T) {
		_, err := comments.List(nil, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCommentDelete(t *testing.T) {
	conn, _, _, articles, comments, _ := newServices(t)

	alice := seedUser(t, conn, "alice")
	bob := seedUser(t, conn, "bob")
	_, err := articles.Create(alice.ID, "A Post", "", "", nil)
	require.NoError(t, err)

	created, err := comments.Create(bob.ID, "a-post", "delete me")
	require.NoError(t, err)

	t.Run("non-author is forbidden", func(t *testing.T) {
		err := comments.Delete(alice.ID, created.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("author deletes and listing no longer shows it", func(t *testing.T) {
		require.NoError(t, comments.Delete(bob.ID, created.ID))

		got, err := comments.List(nil, "a-post")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		err := comments.Delete(bob.ID, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
