package transport

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Inkwell-Labs/scribe-back/internal/config"
	"github.com/Inkwell-Labs/scribe-back/internal/db"
	"github.com/Inkwell-Labs/scribe-back/internal/service"
)

type (
	UserRegisterReq struct {
		User struct {
			Username string `json:"username" validate:"required"`
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required,min=8"`
		} `json:"user" validate:"required"`
	}

	UserLoginReq struct {
		User struct {
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required"`
		} `json:"user" validate:"required"`
	}

	UserUpdateReq struct {
		User struct {
			Username *string `json:"username"`
			Email    *string `json:"email" validate:"omitempty,email"`
			Password *string `json:"password" validate:"omitempty,min=8"`
			Bio      *string `json:"bio"`
			Image    *string `json:"image"`
		} `json:"user" validate:"required"`
	}

	ArticleCreateReq struct {
		Article struct {
			Title       string   `json:"title" validate:"required"`
			Description string   `json:"description"`
			Body        string   `json:"body"`
			TagList     []string `json:"tagList"`
		} `json:"article" validate:"required"`
	}

	ArticleUpdateReq struct {
		Article struct {
			Title       *string   `json:"title"`
			Description *string   `json:"description"`
			Body        *string   `json:"body"`
			TagList     *[]string `json:"tagList"`
		} `json:"article" validate:"required"`
	}

	CommentCreateReq struct {
		Comment struct {
			Body string `json:"body" validate:"required"`
		} `json:"comment" validate:"required"`
	}

	UserResp struct {
		User *service.UserData `json:"user"`
	}

	ProfileResp struct {
		Profile *service.ProfileData `json:"profile"`
	}

	ArticleResp struct {
		Article *service.ArticleData `json:"article"`
	}

	ArticlesResp struct {
		Articles      []*service.ArticleData `json:"articles"`
		ArticlesCount int                    `json:"articlesCount"`
	}

	CommentResp struct {
		Comment *service.CommentData `json:"comment"`
	}

	CommentsResp struct {
		Comments []*service.CommentData `json:"comments"`
	}

	TagsResp struct {
		Tags []string `json:"tags"`
	}

	CustomValidator struct {
		validator *validator.Validate
	}

	HTTPServer struct {
		db        *gorm.DB
		logger    *zap.SugaredLogger
		users     *service.Users
		articles  *service.Articles
		comments  *service.Comments
		favorites *service.Favorites
		tags      *service.Tags
	}
)

func NewHTTPServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	conn *gorm.DB,
	logger *zap.SugaredLogger,
	users *service.Users,
	articles *service.Articles,
	comments *service.Comments,
	favorites *service.Favorites,
	tags *service.Tags,
) *HTTPServer {
	e := echo.New()

	instance := HTTPServer{
		db:        conn,
		logger:    logger,
		users:     users,
		articles:  articles,
		comments:  comments,
		favorites: favorites,
		tags:      tags,
	}

	e.POST("/users", instance.Register)
	e.POST("/users/login", instance.Login)
	e.GET("/user", instance.CurrentUser)
	e.PUT("/user", instance.UpdateUser)

	profileG := e.Group("/profiles")
	profileG.GET("/:username", instance.Profile)
	profileG.POST("/:username/follow", instance.Follow)
	profileG.DELETE("/:username/follow", instance.Unfollow)

	articleG := e.Group("/articles")
	articleG.GET("", instance.ArticleList)
	articleG.GET("/feed", instance.ArticleFeed)
	articleG.GET("/:slug", instance.ArticleGet)
	articleG.POST("", instance.ArticleCreate)
	articleG.PUT("/:slug", instance.ArticleUpdate)
	articleG.DELETE("/:slug", instance.ArticleDelete)

	articleG.GET("/:slug/comments", instance.CommentList)
	articleG.POST("/:slug/comments", instance.CommentCreate)
	articleG.DELETE("/:slug/comments/:id", instance.CommentDelete)

	articleG.POST("/:slug/favorite", instance.Favorite)
	articleG.DELETE("/:slug/favorite", instance.Unfavorite)

	e.GET("/tags", instance.TagList)
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if cfg.LogRequestBodies {
		e.Use(middleware.BodyDump(func(c echo.Context, reqBody, _ []byte) {
			if len(reqBody) == 0 {
				return
			}
			logger.Debugw("request body", "path", c.Path(), "body", string(censorBody(reqBody)))
		}))
	}

	e.Use(instance.AuthMiddleware)

	e.Validator = &CustomValidator{validator: validator.New()}

	echo.NotFoundHandler = func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := cfg.Host + ":" + cfg.Port
				if err := e.Start(listen); err != nil && err != http.ErrServerClosed {
					e.Logger.Fatal("shutting down the server")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			return e.Shutdown(ctx)
		},
	})

	return &instance
}

func (s *HTTPServer) Register(c echo.Context) error {
	req := UserRegisterReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := s.users.Register(req.User.Username, req.User.Email, req.User.Password)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, UserResp{User: user})
}

func (s *HTTPServer) Login(c echo.Context) error {
	req := UserLoginReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := s.users.Login(req.User.Email, req.User.Password)
	if err != nil {
		if errors.Is(err, service.ErrLoginUserNotFound) || errors.Is(err, service.ErrLoginPasswordDoesNotMatch) {
			return c.NoContent(http.StatusUnauthorized)
		}
		return err
	}
	return c.JSON(http.StatusOK, UserResp{User: user})
}

func (s *HTTPServer) CurrentUser(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	data, err := s.users.Get(user.ID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, UserResp{User: data})
}

func (s *HTTPServer) UpdateUser(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := UserUpdateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	data, err := s.users.Update(user.ID, service.UserPatch{
		Username: req.User.Username,
		Email:    req.User.Email,
		Password: req.User.Password,
		Bio:      req.User.Bio,
		Image:    req.User.Image,
	})
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, UserResp{User: data})
}

func (s *HTTPServer) Profile(c echo.Context) error {
	username, err := GetParam(c, "username")
	if err != nil {
		return err
	}

	profile, err := s.users.Profile(ViewerID(c), username)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, ProfileResp{Profile: profile})
}

func (s *HTTPServer) Follow(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}
	username, err := GetParam(c, "username")
	if err != nil {
		return err
	}

	profile, err := s.users.Follow(user.ID, username)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, ProfileResp{Profile: profile})
}

func (s *HTTPServer) Unfollow(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}
	username, err := GetParam(c, "username")
	if err != nil {
		return err
	}

	profile, err := s.users.Unfollow(user.ID, username)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, ProfileResp{Profile: profile})
}

func (s *HTTPServer) ArticleList(c echo.Context) error {
	limit, offset := ParseLimitOffset(c)
	filter := service.ArticleFilter{
		Tag:         c.QueryParam("tag"),
		Author:      c.QueryParam("author"),
		FavoritedBy: c.QueryParam("favorited"),
	}

	articles, err := s.articles.List(ViewerID(c), filter, limit, offset)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, ArticlesResp{Articles: articles, ArticlesCount: len(articles)})
}

func (s *HTTPServer) ArticleFeed(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}
	limit, offset := ParseLimitOffset(c)

	articles, err := s.articles.Feed(user.ID, limit, offset)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, ArticlesResp{Articles: articles, ArticlesCount: len(articles)})
}

func (s *HTTPServer) ArticleGet(c echo.Context) error {
	slug, err := GetParam(c, "slug")
	if err != nil {
		return err
	}

	article, err := s.articles.GetBySlug(ViewerID(c), slug)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, ArticleResp{Article: article})
}

func (s *HTTPServer) ArticleCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := ArticleCreateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	article, err := s.articles.Create(user.ID, req.Article.Title, req.Article.Description, req.Article.Body, req.Article.TagList)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, ArticleResp{Article: article})
}

func (s *HTTPServer) ArticleUpdate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}
	slug, err := GetParam(c, "slug")
	if err != nil {
		return err
	}

	req := ArticleUpdateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	article, err := s.articles.Update(user.ID, slug, service.ArticlePatch{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
		TagList:     req.Article.TagList,
	})
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, ArticleResp{Article: article})
}

func (s *HTTPServer) ArticleDelete(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}
	slug, err := GetParam(c, "slug")
	if err != nil {
		return err
	}

	if err := s.articles.Delete(user.ID, slug); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) CommentList(c echo.Context) error {
	slug, err := GetParam(c, "slug")
	if err != nil {
		return err
	}

	comments, err := s.comments.List(ViewerID(c), slug)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, CommentsResp{Comments: comments})
}

func (s *HTTPServer) CommentCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}
	slug, err := GetParam(c, "slug")
	if err != nil {
		return err
	}

	req := CommentCreateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := s.comments.Create(user.ID, slug, req.Comment.Body)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, CommentResp{Comment: comment})
}

func (s *HTTPServer) CommentDelete(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.comments.Delete(user.ID, id); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) Favorite(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}
	slug, err := GetParam(c, "slug")
	if err != nil {
		return err
	}

	article, err := s.favorites.Favorite(user.ID, slug)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, ArticleResp{Article: article})
}

func (s *HTTPServer) Unfavorite(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}
	slug, err := GetParam(c, "slug")
	if err != nil {
		return err
	}

	article, err := s.favorites.Unfavorite(user.ID, slug)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, ArticleResp{Article: article})
}

func (s *HTTPServer) TagList(c echo.Context) error {
	tags, err := s.tags.List()
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, TagsResp{Tags: tags})
}

// AuthMiddleware attaches the user matching the x-token header to the
// request context. A missing token leaves the request anonymous; handlers
// that need an identity reject it themselves. A token that matches no
// user is rejected outright.
func (s *HTTPServer) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := ""
		for key, values := range c.Request().Header {
			if strings.ToLower(key) == "x-token" {
				token = values[0]
				break
			}
		}
		if token == "" {
			return next(c)
		}

		user := db.User{}
		res := s.db.Where("token = ?", token).First(&user)
		if res.Error != nil {
			s.logger.Infow("token matched no user", "err", res.Error)
			return c.NoContent(http.StatusUnauthorized)
		}

		c.Set("user", &user)
		return next(c)
	}
}

////////

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func BindAndValidate(c echo.Context, v interface{}) error {
	var err error
	if err = c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func GetUserFromContext(c echo.Context) (*db.User, error) {
	user, ok := c.Get("user").(*db.User)
	if !ok || user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return user, nil
}

// ViewerID returns the authenticated user's id, or nil for anonymous
// requests.
func ViewerID(c echo.Context) *uint64 {
	user, ok := c.Get("user").(*db.User)
	if !ok || user == nil {
		return nil
	}
	return &user.ID
}

func GetParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if value == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return value, nil
}

func GetAndParseParam(c echo.Context, name string) (uint64, error) {
	v, e := GetParam(c, name)
	if e != nil {
		return 0, e
	}
	vv, e := strconv.ParseUint(v, 10, 64)
	if e != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return vv, nil
}

// ParseLimitOffset reads the limit/offset query params; anything missing,
// non-numeric or negative falls back to the defaults.
func ParseLimitOffset(c echo.Context) (int, int) {
	limit := service.DefaultLimit
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}
	offset := service.DefaultOffset
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return err
}

var passwordField = regexp.MustCompile(`"password"\s*:\s*"(?:[^"\\]|\\.)*"`)

// censorBody blanks password values before request bodies reach the log.
func censorBody(b []byte) []byte {
	return passwordField.ReplaceAllFunc(b, func([]byte) []byte {
		return []byte(`"password": "$censored"`)
	})
}
