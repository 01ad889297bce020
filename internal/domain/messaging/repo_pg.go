package messaging

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const messageCols = `id, sender_id, recipient_id, content, sent_at, read_at`

func scanMessage(row pgx.Row) (*ChatMessage, error) {
	var m ChatMessage
	err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.SentAt, &m.ReadAt)
	return &m, err
}

func (r *repoPG) Create(ctx context.Context, m *ChatMessage) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO chat_message (sender_id, recipient_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, sent_at`,
		m.SenderID, m.RecipientID, m.Content,
	).Scan(&m.ID, &m.SentAt)
}

// MarkRead marks the given messages as read, but only those addressed to
// readerID and not already read. Rows that were actually updated come back
// as ReadMarkers so the original senders can be notified.
func (r *repoPG) MarkRead(ctx context.Context, readerID int64, messageIDs []int64) ([]ReadMarker, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		UPDATE chat_message
		SET read_at = NOW()
		WHERE recipient_id = $1 AND id = ANY($2) AND read_at IS NULL
		RETURNING id, sender_id, read_at`,
		readerID, messageIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markers []ReadMarker
	for rows.Next() {
		var mk ReadMarker
		if err := rows.Scan(&mk.MessageID, &mk.SenderID, &mk.ReadAt); err != nil {
			return nil, err
		}
		markers = append(markers, mk)
	}
	return markers, rows.Err()
}

func (r *repoPG) History(ctx context.Context, userID, counterpartID int64, limit, offset int) ([]*ChatMessage, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM chat_message
		WHERE (sender_id = $1 AND recipient_id = $2)
		   OR (sender_id = $2 AND recipient_id = $1)`,
		userID, counterpartID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+messageCols+` FROM chat_message
		WHERE (sender_id = $1 AND recipient_id = $2)
		   OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY sent_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		userID, counterpartID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var messages []*ChatMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, m)
	}
	return messages, total, rows.Err()
}

func (r *repoPG) Conversations(ctx context.Context, userID int64) ([]*ConversationSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (counterpart_id)
			counterpart_id,
			u.full_name AS counterpart_name,
			u.role AS counterpart_role,
			m.content AS last_content,
			m.sent_at AS last_sent_at,
			(SELECT COUNT(*) FROM chat_message
			 WHERE recipient_id = $1 AND sender_id = counterpart_id AND read_at IS NULL) AS unread_count
		FROM (
			SELECT *,
				CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END AS counterpart_id
			FROM chat_message
			WHERE sender_id = $1 OR recipient_id = $1
		) m
		JOIN app_user u ON u.id = m.counterpart_id
		ORDER BY counterpart_id, m.sent_at DESC, m.id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*ConversationSummary
	for rows.Next() {
		var s ConversationSummary
		if err := rows.Scan(&s.CounterpartID, &s.CounterpartName, &s.CounterpartRole,
			&s.LastContent, &s.LastSentAt, &s.UnreadCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Most recent conversation first
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastSentAt.After(summaries[j].LastSentAt)
	})
	return summaries, nil
}
