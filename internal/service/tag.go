package service

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Inkwell-Labs/scribe-back/internal/db"
)

type Tags struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewTags(db *gorm.DB, l *zap.SugaredLogger) *Tags {
	return &Tags{
		db:     db,
		logger: l,
	}
}

// Resolve maps tag names to records, reusing existing tags by name and
// constructing unsaved records for the rest. Repeated names within one
// call collapse to a single record. New tags are persisted only when the
// owning article is saved.
func (s *Tags) Resolve(names []string) ([]db.Tag, error) {
	tags := make([]db.Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		tag := db.Tag{}
		res := s.db.Where("name = ?", name).First(&tag)
		if res.Error != nil {
			if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return nil, errors.Wrap(res.Error, "find tag")
			}
			tag = db.Tag{Name: name}
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (s *Tags) List() ([]string, error) {
	names := make([]string, 0)
	res := s.db.Model(&db.Tag{}).Order("name").Pluck("name", &names)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "list tags")
	}
	return names, nil
}
