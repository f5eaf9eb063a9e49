package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Inkwell-Labs/scribe-back/internal/db"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// every sqlite :memory: connection is its own database; keep the
	// pool at a single connection so all queries see the same one
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(conn))
	return conn
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func newServices(t *testing.T) (*gorm.DB, *Users, *Tags, *Articles, *Comments, *Favorites) {
	t.Helper()

	conn := testDB(t)
	l := testLogger()
	tags := NewTags(conn, l)
	return conn,
		NewUsers(conn, l),
		tags,
		NewArticles(conn, l, tags),
		NewComments(conn, l),
		NewFavorites(conn, l)
}

// seedUser inserts a user directly, skipping the bcrypt round that the
// registration path pays.
func seedUser(t *testing.T, conn *gorm.DB, username string) *db.User {
	t.Helper()

	u := db.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "irrelevant-hash",
		Token:    username + "-token",
	}
	require.NoError(t, conn.Create(&u).Error)
	return &u
}

func seedFollow(t *testing.T, conn *gorm.DB, follower, followed *db.User) {
	t.Helper()
	require.NoError(t, conn.Model(follower).Association("Followings").Append(followed))
}

// backdate rewrites an article's creation time so ordering assertions do
// not depend on insert timing.
func backdate(t *testing.T, conn *gorm.DB, slug string, at time.Time) {
	t.Helper()

	res := conn.Model(&db.Article{}).Where("slug = ?", slug).Update("created_at", at)
	require.NoError(t, res.Error)
	require.EqualValues(t, 1, res.RowsAffected)
}
