package location

import (
	"strings"

	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/domain/model"
)

const maxNameLength = 255

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ErrEmptyName
	}
	if len([]rune(name)) > maxNameLength {
		return "", apperror.ErrNameTooLong.Withf("name must be at most %d characters", maxNameLength)
	}
	return name, nil
}

// ValidatePlacement checks where a node may hang in the tree. parent is the
// resolved parent node, nil when none was requested or found; parentID is
// what the caller asked for.
func ValidatePlacement(level int, parentID *string, parent *model.Location) error {
	if !model.ValidLevel(level) {
		return apperror.ErrInvalidLevel
	}

	requested := parentID != nil && *parentID != ""
	if level > model.MinLevel && !requested {
		return apperror.ErrMissingParent
	}
	if !requested {
		return nil
	}

	if parent == nil {
		return apperror.ErrParentNotFound
	}
	if parent.Level >= level {
		return apperror.ErrParentLevelViolation.Withf(
			"parent %q is a level %d %s and cannot hold a level %d %s",
			parent.Name, parent.Level, model.LevelName(parent.Level), level, model.LevelName(level),
		)
	}
	return nil
}
