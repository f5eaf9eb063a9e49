package service

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Inkwell-Labs/scribe-back/internal/db"
)

type Comments struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewComments(db *gorm.DB, l *zap.SugaredLogger) *Comments {
	return &Comments{
		db:     db,
		logger: l,
	}
}

func (s *Comments) Create(authorID uint64, slugStr, body string) (*CommentData, error) {
	author := db.User{}
	res := s.db.First(&author, authorID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(res.Error, "load author")
	}

	article, err := loadArticleBySlug(s.db, slugStr)
	if err != nil {
		return nil, err
	}

	model := db.Comment{
		Body:      body,
		AuthorID:  author.ID,
		ArticleID: article.ID,
	}
	res = s.db.Create(&model)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "create comment")
	}

	model.Author = author
	return shapeComment(&model, false), nil
}

// List returns every comment of the article, each annotated with whether
// the viewer follows the comment's author. Anonymous viewers follow no one.
func (s *Comments) List(viewerID *uint64, slugStr string) ([]*CommentData, error) {
	article, err := loadArticleBySlug(s.db, slugStr)
	if err != nil {
		return nil, err
	}

	followed := map[string]struct{}{}
	if viewerID != nil {
		viewer := db.User{}
		res := s.db.Preload("Followings").First(&viewer, *viewerID)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, errors.Wrap(res.Error, "load viewer")
		}
		for i := range viewer.Followings {
			followed[viewer.Followings[i].Username] = struct{}{}
		}
	}

	comments := make([]db.Comment, 0)
	res := s.db.Preload("Author").
		Where("article_id = ?", article.ID).
		Order("created_at").
		Find(&comments)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "load comments")
	}

	shaped := make([]*CommentData, len(comments))
	for i := range comments {
		_, following := followed[comments[i].Author.Username]
		shaped[i] = shapeComment(&comments[i], following)
	}
	return shaped, nil
}

func (s *Comments) Delete(actorID, commentID uint64) error {
	comment := db.Comment{}
	res := s.db.First(&comment, commentID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(res.Error, "load comment")
	}
	if comment.AuthorID != actorID {
		return ErrForbidden
	}

	res = s.db.Delete(&comment)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete comment")
	}
	return nil
}
