package service

import (
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Inkwell-Labs/scribe-back/internal/db"
	"github.com/Inkwell-Labs/scribe-back/internal/slug"
)

const (
	DefaultLimit  = 20
	DefaultOffset = 0
)

type (
	Articles struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
		tags   *Tags
	}

	// ArticleFilter restricts a listing; empty fields match everything.
	ArticleFilter struct {
		Tag         string
		Author      string
		FavoritedBy string
	}

	// ArticlePatch carries the fields of a partial update; nil means
	// "leave unchanged". A non-nil TagList replaces the full tag set.
	ArticlePatch struct {
		Title       *string
		Description *string
		Body        *string
		TagList     *[]string
	}
)

func NewArticles(db *gorm.DB, l *zap.SugaredLogger, tags *Tags) *Articles {
	return &Articles{
		db:     db,
		logger: l,
		tags:   tags,
	}
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = DefaultOffset
	}
	return limit, offset
}

func (s *Articles) Feed(viewerID uint64, limit, offset int) ([]*ArticleData, error) {
	limit, offset = normalizePage(limit, offset)

	viewer := db.User{}
	res := s.db.Preload("Followings").First(&viewer, viewerID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(res.Error, "load viewer")
	}

	if len(viewer.Followings) == 0 {
		return []*ArticleData{}, nil
	}
	usernames := make([]string, len(viewer.Followings))
	for i := range viewer.Followings {
		usernames[i] = viewer.Followings[i].Username
	}

	sql, args, err := squirrel.
		Select("a.id").From("articles a").
		Join("users u ON u.id = a.author_id").
		Where(squirrel.Eq{"u.username": usernames}).
		OrderBy("a.created_at DESC").
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	ids := make([]uint64, 0)
	res = s.db.Raw(sql, args...).Scan(&ids)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}

	return s.materialize(&viewerID, ids)
}

func (s *Articles) List(viewerID *uint64, filter ArticleFilter, limit, offset int) ([]*ArticleData, error) {
	limit, offset = normalizePage(limit, offset)

	q := squirrel.Select("a.id").From("articles a")
	if filter.Tag != "" {
		q = q.Join("article_tags at ON at.article_id = a.id").
			Join("tags t ON t.id = at.tag_id").
			Where(squirrel.Eq{"t.name": filter.Tag})
	}
	if filter.Author != "" {
		q = q.Join("users u ON u.id = a.author_id").
			Where(squirrel.Eq{"u.username": filter.Author})
	}
	if filter.FavoritedBy != "" {
		q = q.Join("user_favorites uf ON uf.article_id = a.id").
			Join("users fu ON fu.id = uf.user_id").
			Where(squirrel.Eq{"fu.username": filter.FavoritedBy})
	}
	sql, args, err := q.
		OrderBy("a.created_at DESC").
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	ids := make([]uint64, 0)
	res := s.db.Raw(sql, args...).Scan(&ids)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}

	return s.materialize(viewerID, ids)
}

func (s *Articles) GetBySlug(viewerID *uint64, slugStr string) (*ArticleData, error) {
	article, err := loadArticleBySlug(s.db, slugStr, "Author", "Tags", "FavoritedBy")
	if err != nil {
		return nil, err
	}
	return shapeArticle(viewerID, article), nil
}

func (s *Articles) Create(authorID uint64, title, description, body string, tagNames []string) (*ArticleData, error) {
	author := db.User{}
	res := s.db.First(&author, authorID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(res.Error, "load author")
	}

	tags, err := s.tags.Resolve(tagNames)
	if err != nil {
		return nil, err
	}

	newSlug, err := s.uniqueSlug(slug.Make(title), 0)
	if err != nil {
		return nil, err
	}

	model := db.Article{
		Slug:        newSlug,
		Title:       title,
		Description: description,
		Body:        body,
		AuthorID:    author.ID,
		Tags:        tags,
	}
	res = s.db.Create(&model)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "create article")
	}

	return s.GetBySlug(&authorID, model.Slug)
}

func (s *Articles) Update(actorID uint64, slugStr string, patch ArticlePatch) (*ArticleData, error) {
	article, err := loadArticleBySlug(s.db, slugStr, "Tags")
	if err != nil {
		return nil, err
	}
	if article.AuthorID != actorID {
		return nil, ErrForbidden
	}

	if patch.Title != nil {
		newSlug, err := s.uniqueSlug(slug.Make(*patch.Title), article.ID)
		if err != nil {
			return nil, err
		}
		article.Title = *patch.Title
		article.Slug = newSlug
	}
	if patch.Description != nil {
		article.Description = *patch.Description
	}
	if patch.Body != nil {
		article.Body = *patch.Body
	}

	res := s.db.Omit(clause.Associations).Save(article)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "save article")
	}

	if patch.TagList != nil {
		tags, err := s.tags.Resolve(*patch.TagList)
		if err != nil {
			return nil, err
		}
		if err := s.db.Model(article).Association("Tags").Replace(&tags); err != nil {
			return nil, errors.Wrap(err, "replace tags")
		}
	}

	return s.GetBySlug(&actorID, article.Slug)
}

func (s *Articles) Delete(actorID uint64, slugStr string) error {
	article, err := loadArticleBySlug(s.db, slugStr)
	if err != nil {
		return err
	}
	if article.AuthorID != actorID {
		return ErrForbidden
	}

	res := s.db.Where("article_id = ?", article.ID).Delete(&db.Comment{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete comments")
	}
	if err := s.db.Model(article).Association("Tags").Clear(); err != nil {
		return errors.Wrap(err, "clear tags")
	}
	if err := s.db.Model(article).Association("FavoritedBy").Clear(); err != nil {
		return errors.Wrap(err, "clear favorites")
	}
	res = s.db.Delete(article)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete article")
	}
	return nil
}

func (s *Articles) materialize(viewerID *uint64, ids []uint64) ([]*ArticleData, error) {
	if len(ids) == 0 {
		return []*ArticleData{}, nil
	}

	articles := make([]db.Article, 0, len(ids))
	res := s.db.
		Preload("Author").Preload("Tags").Preload("FavoritedBy").
		Where("id IN ?", ids).
		Order("created_at DESC").
		Find(&articles)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "load articles")
	}

	shaped := make([]*ArticleData, len(articles))
	for i := range articles {
		shaped[i] = shapeArticle(viewerID, &articles[i])
	}
	return shaped, nil
}

// uniqueSlug appends -2, -3, ... until the candidate collides with no
// article other than excludeID. Titles with no sluggable characters get
// a fallback base so the article stays addressable by slug.
func (s *Articles) uniqueSlug(base string, excludeID uint64) (string, error) {
	if base == "" {
		base = "untitled"
	}
	candidate := base
	for i := 2; ; i++ {
		existing := db.Article{}
		res := s.db.Where("slug = ? AND id <> ?", candidate, excludeID).First(&existing)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return candidate, nil
			}
			return "", errors.Wrap(res.Error, "check slug")
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func loadArticleBySlug(conn *gorm.DB, slugStr string, preloads ...string) (*db.Article, error) {
	q := conn
	for _, p := range preloads {
		q = q.Preload(p)
	}
	article := db.Article{}
	res := q.Where("slug = ?", slugStr).First(&article)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(res.Error, "load article")
	}
	return &article, nil
}
