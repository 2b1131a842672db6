// Package invite implements guest access: an invite token lets a recipient
// open the invitation through /editor/{token} without an account, leave an
// RSVP, and (for co-editing hosts) save changes.
package invite

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
	ErrNotFound      = errors.New("invite not found")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidChoice = errors.New("invalid rsvp choice")
)

type Service struct {
	queries *db.Queries
}

func NewService(queries *db.Queries) *Service {
	return &Service{queries: queries}
}

type Invite struct {
	Token     string `json:"token"`
	ProjectID string `json:"projectId"`
}

// Create issues a guest token for a project the caller owns.
func (s *Service) Create(ctx context.Context, projectID, ownerID string) (*Invite, error) {
	proj, err := s.queries.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	if proj.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	inv, err := s.queries.CreateInvite(ctx, db.CreateInviteParams{
		ID:        typeid.NewInviteID(),
		ProjectID: projectID,
		Token:     typeid.NewInviteID(),
	})
	if err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}
	return &Invite{Token: inv.Token, ProjectID: inv.ProjectID}, nil
}

// Document returns the invitation document behind a token.
func (s *Service) Document(ctx context.Context, token string) (json.RawMessage, error) {
	proj, err := s.projectForToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return proj.Document, nil
}

// Save overwrites the document behind a token. Guests with the link can edit
// their copy of the invitation before sending an RSVP.
func (s *Service) Save(ctx context.Context, token string, doc json.RawMessage) error {
	proj, err := s.projectForToken(ctx, token)
	if err != nil {
		return err
	}

	var p document.Project
	if err := json.Unmarshal(doc, &p); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	p.Normalize(document.Size{Width: 1000, Height: 1000})
	normalized, err := json.Marshal(&p)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = s.queries.UpdateProjectDocument(ctx, db.UpdateProjectDocumentParams{
		ID:       proj.ID,
		Title:    proj.Title,
		Document: normalized,
	})
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

type RSVP struct {
	ID        string `json:"id"`
	GuestName string `json:"guestName"`
	Choice    string `json:"choice"`
	CreatedAt string `json:"createdAt"`
}

// SubmitRSVP records a guest's answer against the invited project.
func (s *Service) SubmitRSVP(ctx context.Context, token, guestName, choice string) (*RSVP, error) {
	switch document.RSVPChoice(choice) {
	case document.RSVPYes, document.RSVPNo, document.RSVPMaybe:
	default:
		return nil, ErrInvalidChoice
	}

	proj, err := s.projectForToken(ctx, token)
	if err != nil {
		return nil, err
	}

	r, err := s.queries.CreateRSVP(ctx, db.CreateRSVPParams{
		ID:        typeid.NewRSVPID(),
		ProjectID: proj.ID,
		GuestName: guestName,
		Choice:    choice,
	})
	if err != nil {
		return nil, fmt.Errorf("create rsvp: %w", err)
	}
	return rsvpToAPI(r), nil
}

// ListRSVPs returns the answers for a project the caller owns.
func (s *Service) ListRSVPs(ctx context.Context, projectID, ownerID string) ([]RSVP, error) {
	proj, err := s.queries.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	if proj.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	rows, err := s.queries.ListRSVPs(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list rsvps: %w", err)
	}
	out := make([]RSVP, len(rows))
	for i, r := range rows {
		out[i] = *rsvpToAPI(r)
	}
	return out, nil
}

func (s *Service) projectForToken(ctx context.Context, token string) (*db.Project, error) {
	inv, err := s.queries.GetInviteByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	proj, err := s.queries.GetProject(ctx, inv.ProjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &proj, nil
}

func rsvpToAPI(r db.RSVP) *RSVP {
	return &RSVP{
		ID:        r.ID,
		GuestName: r.GuestName,
		Choice:    r.Choice,
		CreatedAt: r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
