package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Inkwell-Labs/scribe-back/internal/config"
)

type (
	GormForkedModel struct {
		ID        uint64 `gorm:"primarykey"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	User struct {
		GormForkedModel
		Username   string `gorm:"unique;not null"`
		Email      string `gorm:"unique;not null"`
		Password   string `gorm:"not null"`
		Token      string `gorm:"not null"`
		Bio        *string
		Image      *string
		Followings []User    `gorm:"many2many:user_follows;joinForeignKey:FollowerID;joinReferences:FollowedID"`
		Favorites  []Article `gorm:"many2many:user_favorites;"`
		Articles   []Article `gorm:"foreignKey:AuthorID"`
	}

	Article struct {
		GormForkedModel
		Slug        string `gorm:"unique;not null"`
		Title       string `gorm:"not null"`
		Description string
		Body        string
		AuthorID    uint64 `gorm:"not null"`
		Author      User
		Tags        []Tag     `gorm:"many2many:article_tags;"`
		FavoritedBy []User    `gorm:"many2many:user_favorites;"`
		Comments    []Comment `gorm:"foreignKey:ArticleID"`
	}

	Tag struct {
		GormForkedModel
		Name     string    `gorm:"unique;not null"`
		Articles []Article `gorm:"many2many:article_tags;"`
	}

	Comment struct {
		GormForkedModel
		Body      string `gorm:"not null"`
		AuthorID  uint64 `gorm:"not null"`
		Author    User
		ArticleID uint64 `gorm:"not null"`
		Article   Article
	}
)

func NewGormClient(cfg *config.Config) (*gorm.DB, error) {
	newLogger := logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Info,
		Colorful:                  true,
		IgnoreRecordNotFoundError: false,
	})

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}); err != nil {
		return errors.Wrap(err, "migrate user")
	}
	if err := db.AutoMigrate(&Tag{}); err != nil {
		return errors.Wrap(err, "migrate tag")
	}
	if err := db.AutoMigrate(&Article{}); err != nil {
		return errors.Wrap(err, "migrate article")
	}
	if err := db.AutoMigrate(&Comment{}); err != nil {
		return errors.Wrap(err, "migrate comment")
	}
	return nil
}
