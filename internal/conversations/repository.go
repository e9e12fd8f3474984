package conversations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/pkg/database"
)

// Repository handles AI conversation threads and their messages.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a conversations repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const columns = `id, organization_id, user_id, person_id, title, context, created_at, updated_at`

func scan(row pgx.Row) (*models.Conversation, error) {
	var c models.Conversation
	if err := row.Scan(&c.ID, &c.OrganizationID, &c.UserID, &c.PersonID, &c.Title, &c.Context, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns the organization's conversations, most recently active first.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID) ([]*models.Conversation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM ai_conversations WHERE organization_id = $1 ORDER BY updated_at DESC`, orgID)
	if err != nil {
		return nil, database.MapError(err, "list conversations")
	}
	defer rows.Close()
	list := []*models.Conversation{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Get returns a conversation with its messages in order.
func (r *Repository) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Conversation, error) {
	c, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM ai_conversations WHERE organization_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, database.MapError(err, "conversation")
	}
	rows, err := r.db.Query(ctx, `SELECT id, conversation_id, role, content, created_at
		FROM ai_messages WHERE conversation_id = $1 ORDER BY created_at ASC`, id)
	if err != nil {
		return nil, database.MapError(err, "conversation messages")
	}
	defer rows.Close()
	c.Messages = []models.ConversationMessage{}
	for rows.Next() {
		var m models.ConversationMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		c.Messages = append(c.Messages, m)
	}
	return c, rows.Err()
}

// Create starts a conversation. A referenced person must belong to the organization.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, c *models.Conversation) error {
	if c.Context == nil {
		c.Context = models.Metadata{}
	}
	const q = `INSERT INTO ai_conversations (organization_id, user_id, person_id, title, context)
		SELECT $1, $2::uuid, $3::uuid, $4::text, $5::jsonb
		WHERE $3::uuid IS NULL OR EXISTS (SELECT 1 FROM people WHERE organization_id = $1 AND id = $3::uuid)
		RETURNING ` + columns
	got, err := scan(r.db.QueryRow(ctx, q, orgID, c.UserID, c.PersonID, c.Title, c.Context))
	if err != nil {
		return database.MapError(err, "person")
	}
	*c = *got
	return nil
}

// AppendMessage adds a message to a conversation of the organization and bumps its updated_at.
func (r *Repository) AppendMessage(ctx context.Context, orgID uuid.UUID, m *models.ConversationMessage) error {
	if !models.ValidRole(m.Role) {
		return models.Invalid("role", "unknown role %q", m.Role)
	}
	if m.Content == "" {
		return models.Invalid("content", "is required")
	}
	const q = `WITH conv AS (
			UPDATE ai_conversations SET updated_at = NOW()
			WHERE organization_id = $1 AND id = $2
			RETURNING id
		)
		INSERT INTO ai_messages (conversation_id, role, content)
		SELECT id, $3::text, $4::text FROM conv
		RETURNING id, created_at`
	if err := r.db.QueryRow(ctx, q, orgID, m.ConversationID, m.Role, m.Content).Scan(&m.ID, &m.CreatedAt); err != nil {
		return database.MapError(err, "conversation")
	}
	return nil
}

// Delete removes a conversation; its messages cascade.
func (r *Repository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ai_conversations WHERE organization_id = $1 AND id = $2`, orgID, id)
	return database.MustAffect(tag, err, "conversation")
}
