package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/balneo/balneo/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const bookingCols = `id, center_id, lane_id, employee_id, service_id, guest_name, guest_email,
	guest_phone, booking_datetime, duration_minutes, status, total_price_cents, payment_status,
	notes, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.CenterID, &b.LaneID, &b.EmployeeID, &b.ServiceID,
		&b.GuestName, &b.GuestEmail, &b.GuestPhone, &b.BookingDatetime, &b.DurationMinutes,
		&b.Status, &b.TotalPriceCents, &b.PaymentStatus, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

// InsertIfAvailable serializes writers per lane with a transaction-scoped
// advisory lock, then recounts occupancy inside the same transaction. The
// lock makes the count-then-insert pair atomic across concurrent bookings;
// the capacity trigger on the table is the backstop for writers that bypass
// this path.
func (r *repoPG) InsertIfAvailable(ctx context.Context, b *Booking, capacity int) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)

		if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, b.LaneID); err != nil {
			return err
		}

		bufferedStart := b.BookingDatetime.Add(-PrepBuffer)
		bufferedEnd := b.End().Add(PrepBuffer)

		var count int
		err := q.QueryRow(ctx, `
			SELECT COUNT(*) FROM bookings
			WHERE lane_id = $1
			  AND status <> 'cancelled'
			  AND booking_datetime < $3
			  AND booking_datetime + make_interval(mins => duration_minutes) > $2`,
			b.LaneID, bufferedStart, bufferedEnd).Scan(&count)
		if err != nil {
			return err
		}
		if count >= capacity {
			return ErrConflict
		}

		b.ID = uuid.New()
		_, err = q.Exec(ctx, `
			INSERT INTO bookings (id, center_id, lane_id, employee_id, service_id, guest_name,
				guest_email, guest_phone, booking_datetime, duration_minutes, status,
				total_price_cents, payment_status, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			b.ID, b.CenterID, b.LaneID, b.EmployeeID, b.ServiceID, b.GuestName,
			b.GuestEmail, b.GuestPhone, b.BookingDatetime, b.DurationMinutes, b.Status,
			b.TotalPriceCents, b.PaymentStatus, b.Notes)
		return err
	})
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := scanBooking(r.conn(ctx).QueryRow(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE bookings SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SetPaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE bookings SET payment_status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListActiveByCenterAndRange(ctx context.Context, centerID uuid.UUID, start, end time.Time) ([]*Booking, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+bookingCols+` FROM bookings
		WHERE center_id = $1
		  AND status <> 'cancelled'
		  AND booking_datetime < $3
		  AND booking_datetime + make_interval(mins => duration_minutes) > $2
		ORDER BY booking_datetime`, centerID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, nil
}

func (r *repoPG) ListByCenter(ctx context.Context, centerID uuid.UUID, start, end time.Time, status *Status, limit, offset int) ([]*Booking, int, error) {
	filter := `center_id = $1 AND booking_datetime >= $2 AND booking_datetime < $3
		  AND ($4::text IS NULL OR status = $4)`
	statusArg := (*string)(status)

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE `+filter,
		centerID, start, end, statusArg).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+bookingCols+` FROM bookings
		WHERE `+filter+`
		ORDER BY booking_datetime LIMIT $5 OFFSET $6`, centerID, start, end, statusArg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, nil
}
