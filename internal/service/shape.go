package service

import (
	"time"

	"github.com/Inkwell-Labs/scribe-back/internal/db"
)

type (
	// ProfileData is the public view of a user. Internal id, email and
	// password hash never leave the service layer through it.
	ProfileData struct {
		Username  string  `json:"username"`
		Bio       *string `json:"bio"`
		Image     *string `json:"image"`
		Following bool    `json:"following"`
	}

	ArticleData struct {
		Slug           string      `json:"slug"`
		Title          string      `json:"title"`
		Description    string      `json:"description"`
		Body           string      `json:"body"`
		TagList        []string    `json:"tagList"`
		CreatedAt      time.Time   `json:"createdAt"`
		UpdatedAt      time.Time   `json:"updatedAt"`
		Favorited      bool        `json:"favorited"`
		FavoritesCount int         `json:"favoritesCount"`
		Author         ProfileData `json:"author"`
	}

	CommentData struct {
		ID        uint64      `json:"id"`
		Body      string      `json:"body"`
		CreatedAt time.Time   `json:"createdAt"`
		UpdatedAt time.Time   `json:"updatedAt"`
		Author    ProfileData `json:"author"`
	}
)

func shapeProfile(u *db.User, following bool) ProfileData {
	return ProfileData{
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		Following: following,
	}
}

// shapeArticle expects Author, Tags and FavoritedBy to be loaded.
func shapeArticle(viewerID *uint64, a *db.Article) *ArticleData {
	tagList := make([]string, len(a.Tags))
	for i := range a.Tags {
		tagList[i] = a.Tags[i].Name
	}

	favorited := false
	if viewerID != nil {
		for i := range a.FavoritedBy {
			if a.FavoritedBy[i].ID == *viewerID {
				favorited = true
				break
			}
		}
	}

	return &ArticleData{
		Slug:           a.Slug,
		Title:          a.Title,
		Description:    a.Description,
		Body:           a.Body,
		TagList:        tagList,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		Favorited:      favorited,
		FavoritesCount: len(a.FavoritedBy),
		Author:         shapeProfile(&a.Author, false),
	}
}

func shapeComment(c *db.Comment, following bool) *CommentData {
	return &CommentData{
		ID:        c.ID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Author:    shapeProfile(&c.Author, following),
	}
}
