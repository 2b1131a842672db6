package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Queries struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   time.Time
}

type CreateUserParams struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password, display_name, created_at`,
		arg.ID, arg.Email, arg.Password, arg.DisplayName)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT id, email, password, display_name, created_at
		FROM users WHERE email = $1`, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT id, email, password, display_name, created_at
		FROM users WHERE id = $1`, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

type Project struct {
	ID        string
	OwnerID   string
	Title     string
	Document  json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateProjectParams struct {
	ID       string
	OwnerID  string
	Title    string
	Document json.RawMessage
}

func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	row := q.pool.QueryRow(ctx, `
		INSERT INTO projects (id, owner_id, title, document)
		VALUES ($1, $2, $3, $4)
		RETURNING id, owner_id, title, document, created_at, updated_at`,
		arg.ID, arg.OwnerID, arg.Title, arg.Document)
	var p Project
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Document, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *Queries) GetProject(ctx context.Context, id string) (Project, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT id, owner_id, title, document, created_at, updated_at
		FROM projects WHERE id = $1`, id)
	var p Project
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Document, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *Queries) ListProjectsForUser(ctx context.Context, ownerID string) ([]Project, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, owner_id, title, document, created_at, updated_at
		FROM projects WHERE owner_id = $1
		ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Document, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

type UpdateProjectDocumentParams struct {
	ID       string
	Title    string
	Document json.RawMessage
}

func (q *Queries) UpdateProjectDocument(ctx context.Context, arg UpdateProjectDocumentParams) (Project, error) {
	row := q.pool.QueryRow(ctx, `
		UPDATE projects
		SET title = $2, document = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, owner_id, title, document, created_at, updated_at`,
		arg.ID, arg.Title, arg.Document)
	var p Project
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Document, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *Queries) DeleteProject(ctx context.Context, id string) error {
	_, err := q.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

type Invite struct {
	ID        string
	ProjectID string
	Token     string
	CreatedAt time.Time
}

type CreateInviteParams struct {
	ID        string
	ProjectID string
	Token     string
}

func (q *Queries) CreateInvite(ctx context.Context, arg CreateInviteParams) (Invite, error) {
	row := q.pool.QueryRow(ctx, `
		INSERT INTO invites (id, project_id, token)
		VALUES ($1, $2, $3)
		RETURNING id, project_id, token, created_at`,
		arg.ID, arg.ProjectID, arg.Token)
	var inv Invite
	err := row.Scan(&inv.ID, &inv.ProjectID, &inv.Token, &inv.CreatedAt)
	return inv, err
}

func (q *Queries) GetInviteByToken(ctx context.Context, token string) (Invite, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT id, project_id, token, created_at
		FROM invites WHERE token = $1`, token)
	var inv Invite
	err := row.Scan(&inv.ID, &inv.ProjectID, &inv.Token, &inv.CreatedAt)
	return inv, err
}

type RSVP struct {
	ID        string
	ProjectID string
	GuestName string
	Choice    string
	CreatedAt time.Time
}

type CreateRSVPParams struct {
	ID        string
	ProjectID string
	GuestName string
	Choice    string
}

func (q *Queries) CreateRSVP(ctx context.Context, arg CreateRSVPParams) (RSVP, error) {
	row := q.pool.QueryRow(ctx, `
		INSERT INTO rsvps (id, project_id, guest_name, choice)
		VALUES ($1, $2, $3, $4)
		RETURNING id, project_id, guest_name, choice, created_at`,
		arg.ID, arg.ProjectID, arg.GuestName, arg.Choice)
	var r RSVP
	err := row.Scan(&r.ID, &r.ProjectID, &r.GuestName, &r.Choice, &r.CreatedAt)
	return r, err
}

func (q *Queries) ListRSVPs(ctx context.Context, projectID string) ([]RSVP, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, project_id, guest_name, choice, created_at
		FROM rsvps WHERE project_id = $1
		ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rsvps []RSVP
	for rows.Next() {
		var r RSVP
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.GuestName, &r.Choice, &r.CreatedAt); err != nil {
			return nil, err
		}
		rsvps = append(rsvps, r)
	}
	return rsvps, rows.Err()
}
