package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/invitio/invitio/backend-go/internal/db"
	"github.com/invitio/invitio/backend-go/internal/document"
	"github.com/invitio/invitio/backend-go/internal/typeid"
)

var (
	ErrNotFound  = errors.New("project not found")
	ErrForbidden = errors.New("forbidden")
)

type Service struct {
	queries *db.Queries
}

func NewService(queries *db.Queries) *Service {
	return &Service{queries: queries}
}

// Project is the API shape of a stored invitation.
type Project struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	OwnerID   string          `json:"ownerId"`
	Document  json.RawMessage `json:"document,omitempty"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

// Create stores a new invitation. An empty document seeds a one-slide
// project so the editor always has something to open.
func (s *Service) Create(ctx context.Context, ownerID, title string, doc json.RawMessage) (*Project, error) {
	normalized, err := normalizeDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}

	dbProj, err := s.queries.CreateProject(ctx, db.CreateProjectParams{
		ID:       typeid.NewProjectID(),
		OwnerID:  ownerID,
		Title:    title,
		Document: normalized,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return dbProjectToProject(dbProj, true), nil
}

func (s *Service) Get(ctx context.Context, projectID, userID string) (*Project, error) {
	dbProj, err := s.getOwned(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	return dbProjectToProject(*dbProj, true), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Project, error) {
	dbProjects, err := s.queries.ListProjectsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]Project, len(dbProjects))
	for i, p := range dbProjects {
		// Listings skip the document payload; it can be multi-KB per row.
		projects[i] = *dbProjectToProject(p, false)
	}
	return projects, nil
}

// Update overwrites the stored document. A missing id is reported as
// ErrNotFound so the client falls back to creating a new project.
func (s *Service) Update(ctx context.Context, projectID, userID, title string, doc json.RawMessage) (*Project, error) {
	if _, err := s.getOwned(ctx, projectID, userID); err != nil {
		return nil, err
	}

	normalized, err := normalizeDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}

	dbProj, err := s.queries.UpdateProjectDocument(ctx, db.UpdateProjectDocumentParams{
		ID:       projectID,
		Title:    title,
		Document: normalized,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update project: %w", err)
	}
	return dbProjectToProject(dbProj, true), nil
}

func (s *Service) Delete(ctx context.Context, projectID, userID string) error {
	if _, err := s.getOwned(ctx, projectID, userID); err != nil {
		return err
	}
	return s.queries.DeleteProject(ctx, projectID)
}

func (s *Service) getOwned(ctx context.Context, projectID, userID string) (*db.Project, error) {
	dbProj, err := s.queries.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	if dbProj.OwnerID != userID {
		return nil, ErrForbidden
	}
	return &dbProj, nil
}

// normalizeDocument runs the stored payload through the document model so
// broken or legacy data is repaired before it lands in the database.
func normalizeDocument(doc json.RawMessage) (json.RawMessage, error) {
	var p document.Project
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, err
		}
	}
	p.Normalize(document.Size{Width: 1000, Height: 1000})
	return json.Marshal(&p)
}

func dbProjectToProject(p db.Project, includeDocument bool) *Project {
	out := &Project{
		ID:        p.ID,
		Title:     p.Title,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: p.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if includeDocument {
		out.Document = p.Document
	}
	return out
}
