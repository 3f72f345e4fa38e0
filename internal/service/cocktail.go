package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lemixologue/backend/internal/model"
	"github.com/lemixologue/backend/internal/security"
)

// CocktailService owns the persisted cocktail records
type CocktailService struct {
	db        *gorm.DB
	imagesDir string
	logger    zerolog.Logger
	seclog    zerolog.Logger
}

// NewCocktailService creates the record store. imagesDir is needed so
// deleting a cocktail can remove its generated image file.
func NewCocktailService(db *gorm.DB, imagesDir string, logger, seclog zerolog.Logger) *CocktailService {
	return &CocktailService{db: db, imagesDir: imagesDir, logger: logger, seclog: seclog}
}

// Pagination describes one page of a listing
type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

// CocktailPage is a paginated listing result
type CocktailPage struct {
	Cocktails  []model.Cocktail `json:"cocktails"`
	Pagination Pagination       `json:"pagination"`
}

// Stats summarizes the stored history
type Stats struct {
	Total        int64      `json:"total"`
	FirstCreated *time.Time `json:"first_created"`
	LastCreated  *time.Time `json:"last_created"`
}

// Create persists a generated cocktail sheet together with the original
// user request
func (s *CocktailService) Create(ctx context.Context, sheet *CocktailSheet, userPrompt string) (*model.Cocktail, error) {
	cocktail := &model.Cocktail{
		Name:          sheet.Name,
		Ingredients:   model.JSONStringArray(sheet.Ingredients),
		Description:   sheet.Description,
		MusicAmbiance: sheet.MusicAmbiance,
		ImagePrompt:   sheet.ImagePrompt,
		UserPrompt:    userPrompt,
	}

	if err := s.db.WithContext(ctx).Create(cocktail).Error; err != nil {
		return nil, fmt.Errorf("failed to save cocktail: %w", err)
	}

	s.logger.Info().Int64("id", cocktail.ID).Str("name", cocktail.Name).Msg("cocktail saved")
	return cocktail, nil
}

// List returns one page of cocktails, newest first. A non-empty search
// term filters on name and ingredients.
func (s *CocktailService) List(ctx context.Context, page, perPage int, search string) (*CocktailPage, error) {
	query := s.db.WithContext(ctx).Model(&model.Cocktail{})

	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(ingredients) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count cocktails: %w", err)
	}

	var cocktails []model.Cocktail
	offset := (page - 1) * perPage
	if err := query.Order("created_at DESC").Limit(perPage).Offset(offset).Find(&cocktails).Error; err != nil {
		return nil, fmt.Errorf("failed to list cocktails: %w", err)
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return &CocktailPage{
		Cocktails: cocktails,
		Pagination: Pagination{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   pages,
			HasNext: page < pages,
			HasPrev: page > 1 && total > 0,
		},
	}, nil
}

// Get fetches one cocktail by id
func (s *CocktailService) Get(ctx context.Context, id int64) (*model.Cocktail, error) {
	var cocktail model.Cocktail
	err := s.db.WithContext(ctx).First(&cocktail, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cocktail %d: %w", id, err)
	}
	return &cocktail, nil
}

// Delete removes a cocktail and, best-effort, its generated image file.
// The stored image path passes the same traversal guard as static
// serving before it is joined onto the images directory.
func (s *CocktailService) Delete(ctx context.Context, id int64) error {
	cocktail, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if cocktail.ImagePath != "" {
		name := strings.TrimPrefix(cocktail.ImagePath, "/")
		if security.IsAllowedImageName(name) {
			if err := os.Remove(filepath.Join(s.imagesDir, name)); err != nil && !os.IsNotExist(err) {
				s.logger.Warn().Err(err).Str("image", name).Msg("failed to remove cocktail image")
			}
		} else {
			s.seclog.Warn().
				Str("event", "path_traversal_attempt").
				Str("image_path", cocktail.ImagePath).
				Int64("cocktail_id", id).
				Msg("stored image path failed the safety check, not deleting")
		}
	}

	if err := s.db.WithContext(ctx).Delete(&model.Cocktail{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete cocktail %d: %w", id, err)
	}

	s.logger.Info().Int64("id", id).Str("name", cocktail.Name).Msg("cocktail deleted")
	return nil
}

// SetImagePath records the stored image path for a cocktail
func (s *CocktailService) SetImagePath(ctx context.Context, id int64, path string) error {
	result := s.db.WithContext(ctx).Model(&model.Cocktail{}).Where("id = ?", id).Update("image_path", path)
	if result.Error != nil {
		return fmt.Errorf("failed to update image path: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats reports history totals and the first/last creation times
func (s *CocktailService) Stats(ctx context.Context) (*Stats, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Cocktail{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count cocktails: %w", err)
	}
	if total == 0 {
		return &Stats{}, nil
	}

	var first, last model.Cocktail
	if err := s.db.WithContext(ctx).Order("created_at ASC").First(&first).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Order("created_at DESC").First(&last).Error; err != nil {
		return nil, err
	}

	return &Stats{
		Total:        total,
		FirstCreated: &first.CreatedAt,
		LastCreated:  &last.CreatedAt,
	}, nil
}
