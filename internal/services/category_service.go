package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pennywise/internal/cache"
	"pennywise/internal/core"
	"pennywise/internal/ports"
)

const categoryListKey = "all"

// DefaultCategories seeds an empty catalogue when no seed file is configured.
var DefaultCategories = []string{
	"Food", "Transportation", "Housing", "Entertainment", "Shopping",
	"Healthcare", "Education", "Bills", "Income", "Other",
}

// CategorySeed is the layout of the category seed file:
//
//	categories:
//	  - Food
//	  - Housing
type CategorySeed struct {
	Categories []string `yaml:"categories"`
}

// CategoryService manages the shared category catalogue. The full list is
// cached and dropped on every write.
type CategoryService struct {
	store ports.CategoryStore
	list  cache.Cache[[]core.Category]
}

// NewCategoryService accepts a nil cache, in which case every List hits the store.
func NewCategoryService(store ports.CategoryStore, list cache.Cache[[]core.Category]) *CategoryService {
	return &CategoryService{store: store, list: list}
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	if s.list != nil {
		if cached, ok := s.list.Get(categoryListKey); ok {
			return cached, nil
		}
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []core.Category{}
	}
	if s.list != nil {
		s.list.Set(categoryListKey, categories)
	}
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, id int64) (core.Category, error) {
	c, err := s.store.FindCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

func (s *CategoryService) GetByName(ctx context.Context, name string) (core.Category, error) {
	c, err := s.store.FindCategoryByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %q: %w", name, err)
	}
	return c, nil
}

func (s *CategoryService) Create(ctx context.Context, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyCategory
	}
	if _, err := s.store.FindCategoryByName(ctx, name); err == nil {
		return core.Category{}, fmt.Errorf("%w: %q", core.ErrDuplicateCategory, name)
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.Category{}, fmt.Errorf("check category %q: %w", name, err)
	}

	c, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		return core.Category{}, fmt.Errorf("save category %q: %w", name, err)
	}
	s.invalidate()
	return c, nil
}

func (s *CategoryService) Rename(ctx context.Context, id int64, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyCategory
	}
	if existing, err := s.store.FindCategoryByName(ctx, name); err == nil && existing.ID != id {
		return core.Category{}, fmt.Errorf("%w: %q", core.ErrDuplicateCategory, name)
	} else if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.Category{}, fmt.Errorf("check category %q: %w", name, err)
	}

	c, err := s.store.UpdateCategory(ctx, core.Category{ID: id, Name: name})
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", id, err)
	}
	s.invalidate()
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	s.invalidate()
	return nil
}

// Seed creates every listed category that does not exist yet and returns
// how many were added.
func (s *CategoryService) Seed(ctx context.Context, names []string) (int, error) {
	added := 0
	for _, name := range names {
		_, err := s.Create(ctx, name)
		switch {
		case err == nil:
			added++
		case errors.Is(err, core.ErrDuplicateCategory), errors.Is(err, core.ErrEmptyCategory):
		default:
			return added, err
		}
	}
	if added > 0 {
		slog.InfoContext(ctx, "Categories seeded", "added", added)
	}
	return added, nil
}

// LoadCategorySeed reads a YAML seed from r.
func LoadCategorySeed(r io.Reader) ([]string, error) {
	var seed CategorySeed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode category seed: %w", err)
	}
	return seed.Categories, nil
}

// SeedFromFile seeds from path, or from DefaultCategories when path is empty.
func (s *CategoryService) SeedFromFile(ctx context.Context, path string) (int, error) {
	if path == "" {
		return s.Seed(ctx, DefaultCategories)
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open category seed: %w", err)
	}
	defer f.Close()

	names, err := LoadCategorySeed(f)
	if err != nil {
		return 0, err
	}
	return s.Seed(ctx, names)
}

func (s *CategoryService) invalidate() {
	if s.list != nil {
		s.list.Purge()
	}
}
