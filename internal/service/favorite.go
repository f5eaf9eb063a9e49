package service

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Inkwell-Labs/scribe-back/internal/db"
)

type Favorites struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewFavorites(db *gorm.DB, l *zap.SugaredLogger) *Favorites {
	return &Favorites{
		db:     db,
		logger: l,
	}
}

// Favorite adds the article to the user's favorite set. Membership is
// checked first so repeated calls never inflate favoritesCount.
func (s *Favorites) Favorite(userID uint64, slugStr string) (*ArticleData, error) {
	user, article, err := s.load(userID, slugStr)
	if err != nil {
		return nil, err
	}

	var count int64
	res := s.db.Table("user_favorites").
		Where("user_id = ? AND article_id = ?", user.ID, article.ID).
		Count(&count)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "check membership")
	}
	if count == 0 {
		if err := s.db.Model(user).Association("Favorites").Append(article); err != nil {
			return nil, errors.Wrap(err, "append favorite")
		}
	}

	return s.shaped(userID, slugStr)
}

// Unfavorite removes the article from the user's favorite set; removing
// a non-member article is a no-op.
func (s *Favorites) Unfavorite(userID uint64, slugStr string) (*ArticleData, error) {
	user, article, err := s.load(userID, slugStr)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(user).Association("Favorites").Delete(article); err != nil {
		return nil, errors.Wrap(err, "delete favorite")
	}

	return s.shaped(userID, slugStr)
}

func (s *Favorites) load(userID uint64, slugStr string) (*db.User, *db.Article, error) {
	user := db.User{}
	res := s.db.First(&user, userID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, errors.Wrap(res.Error, "load user")
	}

	article, err := loadArticleBySlug(s.db, slugStr)
	if err != nil {
		return nil, nil, err
	}
	return &user, article, nil
}

func (s *Favorites) shaped(userID uint64, slugStr string) (*ArticleData, error) {
	article, err := loadArticleBySlug(s.db, slugStr, "Author", "Tags", "FavoritedBy")
	if err != nil {
		return nil, err
	}
	return shapeArticle(&userID, article), nil
}
