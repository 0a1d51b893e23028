package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farconnect/attestation-service/internal/domain"
)

// VerificationRepository is the durable ledger of one verification record per
// (user, event) pair.
type VerificationRepository interface {
	// InsertIfAbsent writes the record unless one already exists for the
	// (UserID, EventID) pair. Returns true when a new row was inserted.
	InsertIfAbsent(ctx context.Context, record *domain.VerificationRecord) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]domain.VerificationRecord, error)
}

type verificationRepository struct {
	pool *pgxpool.Pool
}

// NewVerificationRepository returns a Postgres-backed implementation.
func NewVerificationRepository(pool *pgxpool.Pool) VerificationRepository {
	return &verificationRepository{pool: pool}
}

// InsertIfAbsent relies on the unique (user_id, event_id) constraint instead
// of a read-then-write, so concurrent duplicate attempts cannot race into two
// rows; the losing insert is a silent no-op.
func (r *verificationRepository) InsertIfAbsent(ctx context.Context, record *domain.VerificationRecord) (bool, error) {
	const query = `
        INSERT INTO zupass_verifications
            (user_id, event_id, event_name, ticket_id, ticket_category, attendee_name, attendee_email, product_id, proof_watermark)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT ON CONSTRAINT zupass_verifications_user_event_key DO NOTHING`

	cmd, err := r.pool.Exec(ctx, query,
		record.UserID,
		record.EventID,
		record.EventName,
		record.TicketID,
		record.TicketCategory,
		record.AttendeeName,
		record.AttendeeEmail,
		record.ProductID,
		record.ProofWatermark,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *verificationRepository) ListByUser(ctx context.Context, userID string) ([]domain.VerificationRecord, error) {
	const query = `
        SELECT id, user_id, event_id, event_name, ticket_id, ticket_category,
               attendee_name, attendee_email, product_id, proof_watermark, verified_at
        FROM zupass_verifications WHERE user_id=$1 ORDER BY verified_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.VerificationRecord{}
	for rows.Next() {
		var rec domain.VerificationRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.EventID,
			&rec.EventName,
			&rec.TicketID,
			&rec.TicketCategory,
			&rec.AttendeeName,
			&rec.AttendeeEmail,
			&rec.ProductID,
			&rec.ProofWatermark,
			&rec.VerifiedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
