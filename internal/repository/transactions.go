package repository

import (
	"context"
	"database/sql"

	"hotelbook/internal/database"
	"hotelbook/internal/models"
)

type TransactionRepository struct {
	db database.Querier
}

func NewTransactionRepository(db database.Querier) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

// InsertCompletedOnce records a completed transaction unless one of the same
// type already exists for the booking. It reports whether a row was written.
func (r *TransactionRepository) InsertCompletedOnce(ctx context.Context, t *models.Transaction) (bool, error) {
	query := `
		INSERT INTO transactions (booking_id, user_id, transaction_type, amount, status)
		VALUES ($1, $2, $3, $4, 'completed')
		ON CONFLICT (booking_id, transaction_type) WHERE status = 'completed' DO NOTHING
		RETURNING id, transaction_date`

	err := r.db.QueryRowContext(ctx, query, t.BookingID, t.UserID, t.Type, t.Amount).Scan(&t.ID, &t.TransactionDate)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	t.Status = models.TransactionCompleted
	return true, nil
}

func (r *TransactionRepository) ListByBooking(ctx context.Context, bookingID int64) ([]models.Transaction, error) {
	query := `
		SELECT id, booking_id, user_id, transaction_type, amount, status, transaction_date
		FROM transactions
		WHERE booking_id = $1
		ORDER BY transaction_date`

	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.BookingID, &t.UserID, &t.Type, &t.Amount, &t.Status, &t.TransactionDate); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
