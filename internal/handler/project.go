package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"

	"github.com/edwanmarques/portfolio/internal/model"
	"github.com/edwanmarques/portfolio/internal/repository"
)

// CacheInvalidator drops cached public project responses after a write.
type CacheInvalidator interface {
	Purge(ctx context.Context) error
}

type ProjectHandler struct {
	Projects repository.ProjectStore
	Cache    CacheInvalidator
}

func NewProjectHandler(projects repository.ProjectStore, cache CacheInvalidator) *ProjectHandler {
	return &ProjectHandler{Projects: projects, Cache: cache}
}

// projectInput is the writable part of a project. id and createdAt are
// deliberately absent so no payload can touch them.
type projectInput struct {
	Title           string         `json:"title" validate:"required"`
	Slug            string         `json:"slug" validate:"required"`
	Description     string         `json:"description" validate:"required"`
	LongDescription *string        `json:"longDescription"`
	Image           string         `json:"image" validate:"required"`
	DemoURL         *string        `json:"demoUrl"`
	RepoURL         *string        `json:"repoUrl"`
	Category        string         `json:"category" validate:"required"`
	Technologies    []string       `json:"technologies" validate:"required,min=1,dive,required"`
	Features        []string       `json:"features"`
	Screenshots     []string       `json:"screenshots"`
	FeaturedOrder   *string        `json:"featuredOrder"`
	Meta            map[string]any `json:"meta"`
}

func (in *projectInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Description = strings.TrimSpace(in.Description)
	in.Image = strings.TrimSpace(in.Image)
	in.Category = strings.TrimSpace(in.Category)
	for i, t := range in.Technologies {
		in.Technologies[i] = strings.TrimSpace(t)
	}
}

func inputFrom(p *model.Project) projectInput {
	c := p.Clone()
	return projectInput{
		Title:           c.Title,
		Slug:            c.Slug,
		Description:     c.Description,
		LongDescription: c.LongDescription,
		Image:           c.Image,
		DemoURL:         c.DemoURL,
		RepoURL:         c.RepoURL,
		Category:        c.Category,
		Technologies:    c.Technologies,
		Features:        c.Features,
		Screenshots:     c.Screenshots,
		FeaturedOrder:   c.FeaturedOrder,
		Meta:            c.Meta,
	}
}

// apply copies the input onto p, leaving ID and CreatedAt alone.
func (in projectInput) apply(p *model.Project) {
	p.Title = in.Title
	p.Slug = in.Slug
	p.Description = in.Description
	p.LongDescription = in.LongDescription
	p.Image = in.Image
	p.DemoURL = in.DemoURL
	p.RepoURL = in.RepoURL
	p.Category = in.Category
	p.Technologies = datatypes.JSONSlice[string](in.Technologies)
	p.Features = optionalSlice(in.Features)
	p.Screenshots = optionalSlice(in.Screenshots)
	p.FeaturedOrder = in.FeaturedOrder
	p.Meta = nil
	if in.Meta != nil {
		p.Meta = datatypes.JSONMap(in.Meta)
	}
}

func optionalSlice(s []string) datatypes.JSONSlice[string] {
	if s == nil {
		return nil
	}
	return datatypes.JSONSlice[string](s)
}

// List returns every project ordered by id.
func (h *ProjectHandler) List(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	items, err := h.Projects.List(ctx)
	if err != nil {
		return internalError("Failed to fetch projects", err)
	}
	return c.JSON(http.StatusOK, items)
}

// GetBySlug returns a single project by its public slug.
func (h *ProjectHandler) GetBySlug(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	p, err := h.Projects.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errProjectNotFound
		}
		return internalError("Failed to fetch project", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProjectHandler) Create(c echo.Context) error {
	var in projectInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	var p model.Project
	in.apply(&p)
	if err := h.Projects.Create(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return errSlugTaken
		}
		return internalError("Failed to create project", err)
	}
	h.invalidate(c)

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Project created successfully",
		"project": p,
	})
}

// Update merges the supplied fields over the stored project. Fields absent
// from the body keep their values.
func (h *ProjectHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return errInvalidBody
	}
	var fields map[string]json.RawMessage
	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			return errInvalidBody
		}
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	existing, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errProjectNotFound
		}
		return internalError("Failed to update project", err)
	}

	in := inputFrom(existing)
	if _, ok := fields["meta"]; ok {
		// meta is replaced as a whole, never merged key by key
		in.Meta = nil
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &in); err != nil {
			return errInvalidBody
		}
	}
	in.normalize()
	if err := c.Validate(&in); err != nil {
		return err
	}

	updated := existing.Clone()
	in.apply(&updated)
	if err := h.Projects.Update(ctx, &updated); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return errSlugTaken
		case errors.Is(err, repository.ErrNotFound):
			return errProjectNotFound
		}
		return internalError("Failed to update project", err)
	}
	h.invalidate(c)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Project updated successfully",
		"project": updated,
	})
}

func (h *ProjectHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := h.Projects.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errProjectNotFound
		}
		return internalError("Failed to delete project", err)
	}
	h.invalidate(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "Project deleted successfully"})
}

func (h *ProjectHandler) invalidate(c echo.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Purge(c.Request().Context()); err != nil {
		c.Logger().Warnf("project cache purge: %v", err)
	}
}
