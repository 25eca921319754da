package location

import (
	"testing"

	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestValidatePlacement(t *testing.T) {
	district := &model.Location{ID: "d1", Name: "CauGiay", Level: model.LevelDistrict}

	tests := []struct {
		name     string
		level    int
		parentID *string
		parent   *model.Location
		want     error
	}{
		{"city without parent", model.LevelCity, nil, nil, nil},
		{"empty parent id counts as absent", model.LevelCity, lo.ToPtr(""), nil, nil},
		{"invalid level wins over everything", 7, lo.ToPtr("d1"), district, apperror.ErrInvalidLevel},
		{"missing parent", model.LevelWard, nil, nil, apperror.ErrMissingParent},
		{"parent not resolved", model.LevelWard, lo.ToPtr("d1"), nil, apperror.ErrParentNotFound},
		{"same level", model.LevelDistrict, lo.ToPtr("d1"), district, apperror.ErrParentLevelViolation},
		{"parent deeper", model.LevelCity, lo.ToPtr("d1"), district, apperror.ErrParentLevelViolation},
		{"ward under district", model.LevelWard, lo.ToPtr("d1"), district, nil},
		{"building under district", model.LevelBuilding, lo.ToPtr("d1"), district, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePlacement(tt.level, tt.parentID, tt.parent)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNormalizeName(t *testing.T) {
	req := require.New(t)

	name, err := normalizeName("  Cau Giay\t")
	req.NoError(err)
	req.Equal("Cau Giay", name)

	_, err = normalizeName(" \n ")
	req.ErrorIs(err, apperror.ErrEmptyName)

	long := make([]rune, maxNameLength+1)
	for i := range long {
		long[i] = 'ă'
	}
	_, err = normalizeName(string(long))
	req.ErrorIs(err, apperror.ErrNameTooLong)
}
