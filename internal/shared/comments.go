package shared

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Comment is one entry in a request's append-only comment log. Ordering is
// by insertion time; entries are never edited or removed.
type Comment struct {
	ID        int64
	RequestID uuid.UUID
	AuthorID  int64
	Role      string
	Body      string
	At        time.Time
}

// CommentLog persists the comment thread attached to a request. It is an
// external collaborator to the engine: the engine appends on queries and
// rejections and never reads comments back for its own decisions.
type CommentLog struct {
	pool *pgxpool.Pool
}

// NewCommentLog constructs a CommentLog.
func NewCommentLog(pool *pgxpool.Pool) *CommentLog {
	return &CommentLog{pool: pool}
}

// Append writes a comment. Empty bodies are rejected.
func (c *CommentLog) Append(ctx context.Context, comment Comment) error {
	if c == nil {
		return errors.New("comment log not initialised")
	}
	if comment.RequestID == uuid.Nil {
		return errors.New("comment request id required")
	}
	if comment.Body == "" {
		return errors.New("comment body required")
	}
	_, err := c.pool.Exec(ctx, `INSERT INTO request_comments (request_id, author_id, author_role, body, at)
VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))`, comment.RequestID, comment.AuthorID, comment.Role, comment.Body, comment.At)
	return err
}

// List returns comments for a request in insertion order.
func (c *CommentLog) List(ctx context.Context, requestID uuid.UUID) ([]Comment, error) {
	if c == nil {
		return nil, errors.New("comment log not initialised")
	}
	rows, err := c.pool.Query(ctx, `SELECT id, request_id, author_id, author_role, body, at
FROM request_comments WHERE request_id=$1 ORDER BY at ASC, id ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var comments []Comment
	for rows.Next() {
		var cm Comment
		if err := rows.Scan(&cm.ID, &cm.RequestID, &cm.AuthorID, &cm.Role, &cm.Body, &cm.At); err != nil {
			return nil, err
		}
		comments = append(comments, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}
