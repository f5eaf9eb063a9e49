package service

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Inkwell-Labs/scribe-back/internal/db"
)

type (
	Users struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}

	// UserData is the authenticated user's own view; it carries the
	// session token but never the password hash.
	UserData struct {
		Username string  `json:"username"`
		Email    string  `json:"email"`
		Token    string  `json:"token"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image"`
	}

	UserPatch struct {
		Username *string
		Email    *string
		Password *string
		Bio      *string
		Image    *string
	}
)

func NewUsers(db *gorm.DB, l *zap.SugaredLogger) *Users {
	return &Users{
		db:     db,
		logger: l,
	}
}

func (s *Users) Register(username, email, pass string) (*UserData, error) {
	hash, err := s.bcryptGen(pass)
	if err != nil {
		return nil, errors.Wrap(err, "bcryptGen")
	}
	token := uuid.New().String()
	model := db.User{
		Username: username,
		Email:    email,
		Password: hash,
		Token:    token,
	}
	res := s.db.Create(&model)
	if res.Error != nil {
		return nil, res.Error
	}
	return userData(&model), nil
}

func (s *Users) Login(email, pass string) (*UserData, error) {
	user := db.User{}
	res := s.db.Where("email = ?", email).First(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrLoginUserNotFound
		}
		return nil, res.Error
	}

	if err := s.bcryptCheck(user.Password, pass); err != nil {
		return nil, ErrLoginPasswordDoesNotMatch
	}

	token := uuid.New().String()
	res = s.db.Model(&user).Update("token", token)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "update token")
	}

	user.Token = token
	return userData(&user), nil
}

func (s *Users) Get(userID uint64) (*UserData, error) {
	user := db.User{}
	res := s.db.First(&user, userID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(res.Error, "load user")
	}
	return userData(&user), nil
}

func (s *Users) Update(userID uint64, patch UserPatch) (*UserData, error) {
	user := db.User{}
	res := s.db.First(&user, userID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(res.Error, "load user")
	}

	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Password != nil {
		hash, err := s.bcryptGen(*patch.Password)
		if err != nil {
			return nil, errors.Wrap(err, "bcryptGen")
		}
		user.Password = hash
	}
	if patch.Bio != nil {
		user.Bio = patch.Bio
	}
	if patch.Image != nil {
		user.Image = patch.Image
	}

	res = s.db.Save(&user)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "save user")
	}
	return userData(&user), nil
}

func (s *Users) Profile(viewerID *uint64, username string) (*ProfileData, error) {
	target := db.User{}
	res := s.db.Where("username = ?", username).First(&target)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(res.Error, "load profile")
	}

	following := false
	if viewerID != nil {
		f, err := s.follows(*viewerID, target.ID)
		if err != nil {
			return nil, err
		}
		following = f
	}

	data := shapeProfile(&target, following)
	return &data, nil
}

func (s *Users) Follow(userID uint64, username string) (*ProfileData, error) {
	follower, target, err := s.loadPair(userID, username)
	if err != nil {
		return nil, err
	}

	already, err := s.follows(follower.ID, target.ID)
	if err != nil {
		return nil, err
	}
	if !already {
		if err := s.db.Model(follower).Association("Followings").Append(target); err != nil {
			return nil, errors.Wrap(err, "append following")
		}
	}

	data := shapeProfile(target, true)
	return &data, nil
}

func (s *Users) Unfollow(userID uint64, username string) (*ProfileData, error) {
	follower, target, err := s.loadPair(userID, username)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(follower).Association("Followings").Delete(target); err != nil {
		return nil, errors.Wrap(err, "delete following")
	}

	data := shapeProfile(target, false)
	return &data, nil
}

func (s *Users) loadPair(userID uint64, username string) (*db.User, *db.User, error) {
	follower := db.User{}
	res := s.db.First(&follower, userID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, errors.Wrap(res.Error, "load follower")
	}

	target := db.User{}
	res = s.db.Where("username = ?", username).First(&target)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, errors.Wrap(res.Error, "load target")
	}
	return &follower, &target, nil
}

func (s *Users) follows(followerID, followedID uint64) (bool, error) {
	var count int64
	res := s.db.Table("user_follows").
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "check following")
	}
	return count > 0, nil
}

func (s *Users) bcryptGen(pass string) (string, error) {
	passwordHashB, err := bcrypt.GenerateFromPassword([]byte(pass), 14)
	if err != nil {
		return "", errors.Wrap(err, "generate password hash")
	}
	return string(passwordHashB), nil
}

func (s *Users) bcryptCheck(hash, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
}

func userData(u *db.User) *UserData {
	return &UserData{
		Username: u.Username,
		Email:    u.Email,
		Token:    u.Token,
		Bio:      u.Bio,
		Image:    u.Image,
	}
}
