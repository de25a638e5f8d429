package center

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/balneo/balneo/internal/platform/db"
)

func conn(ctx context.Context, pool *pgxpool.Pool) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// =========== Center Repository ===========

type centerRepoPG struct{ pool *pgxpool.Pool }

func NewCenterRepoPG(pool *pgxpool.Pool) CenterRepository { return &centerRepoPG{pool: pool} }

const centerCols = `id, name, timezone, open_time, close_time, active, created_at, updated_at`

func scanCenter(row pgx.Row) (*Center, error) {
	var c Center
	err := row.Scan(&c.ID, &c.Name, &c.Timezone, &c.OpenTime, &c.CloseTime,
		&c.Active, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *centerRepoPG) Create(ctx context.Context, c *Center) error {
	c.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO centers (id, name, timezone, open_time, close_time, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.Name, c.Timezone, c.OpenTime, c.CloseTime, c.Active)
	return err
}

func (r *centerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Center, error) {
	return scanCenter(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+centerCols+` FROM centers WHERE id = $1`, id))
}

func (r *centerRepoPG) Update(ctx context.Context, c *Center) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE centers SET name=$2, timezone=$3, open_time=$4, close_time=$5, active=$6, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.Name, c.Timezone, c.OpenTime, c.CloseTime, c.Active)
	return err
}

func (r *centerRepoPG) List(ctx context.Context, limit, offset int) ([]*Center, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM centers`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+centerCols+` FROM centers ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Center
	for rows.Next() {
		c, err := scanCenter(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}

// =========== Lane Repository ===========

type laneRepoPG struct{ pool *pgxpool.Pool }

func NewLaneRepoPG(pool *pgxpool.Pool) LaneRepository { return &laneRepoPG{pool: pool} }

const laneCols = `id, center_id, name, position, capacity, active, blocked_until, allowed_group_ids, created_at, updated_at`

func scanLane(row pgx.Row) (*Lane, error) {
	var l Lane
	err := row.Scan(&l.ID, &l.CenterID, &l.Name, &l.Position, &l.Capacity,
		&l.Active, &l.BlockedUntil, &l.AllowedGroupIDs, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r *laneRepoPG) Create(ctx context.Context, l *Lane) error {
	l.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO lanes (id, center_id, name, position, capacity, active, blocked_until, allowed_group_ids)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		l.ID, l.CenterID, l.Name, l.Position, l.Capacity, l.Active, l.BlockedUntil, l.AllowedGroupIDs)
	return err
}

func (r *laneRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Lane, error) {
	return scanLane(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+laneCols+` FROM lanes WHERE id = $1`, id))
}

func (r *laneRepoPG) Update(ctx context.Context, l *Lane) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE lanes SET name=$2, position=$3, capacity=$4, active=$5, blocked_until=$6,
			allowed_group_ids=$7, updated_at=NOW()
		WHERE id = $1`,
		l.ID, l.Name, l.Position, l.Capacity, l.Active, l.BlockedUntil, l.AllowedGroupIDs)
	return err
}

func (r *laneRepoPG) SetBlockedUntil(ctx context.Context, id uuid.UUID, until *time.Time) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE lanes SET blocked_until=$2, updated_at=NOW() WHERE id = $1`, id, until)
	return err
}

func (r *laneRepoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE lanes SET active=false, updated_at=NOW() WHERE id = $1`, id)
	return err
}

func (r *laneRepoPG) ListByCenter(ctx context.Context, centerID uuid.UUID, activeOnly bool) ([]*Lane, error) {
	query := `SELECT ` + laneCols + ` FROM lanes WHERE center_id = $1`
	if activeOnly {
		query += ` AND active = true`
	}
	query += ` ORDER BY position, name`
	rows, err := conn(ctx, r.pool).Query(ctx, query, centerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Lane
	for rows.Next() {
		l, err := scanLane(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, nil
}

// =========== LaneBlock Repository ===========

type laneBlockRepoPG struct{ pool *pgxpool.Pool }

func NewLaneBlockRepoPG(pool *pgxpool.Pool) LaneBlockRepository { return &laneBlockRepoPG{pool: pool} }

const laneBlockCols = `id, lane_id, center_id, start_time, end_time, reason, created_at`

func scanLaneBlock(row pgx.Row) (*LaneBlock, error) {
	var b LaneBlock
	err := row.Scan(&b.ID, &b.LaneID, &b.CenterID, &b.StartTime, &b.EndTime, &b.Reason, &b.CreatedAt)
	return &b, err
}

func (r *laneBlockRepoPG) Create(ctx context.Context, b *LaneBlock) error {
	b.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO lane_blocks (id, lane_id, center_id, start_time, end_time, reason)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.LaneID, b.CenterID, b.StartTime, b.EndTime, b.Reason)
	return err
}

func (r *laneBlockRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LaneBlock, error) {
	return scanLaneBlock(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+laneBlockCols+` FROM lane_blocks WHERE id = $1`, id))
}

func (r *laneBlockRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM lane_blocks WHERE id = $1`, id)
	return err
}

func (r *laneBlockRepoPG) ListByCenterAndRange(ctx context.Context, centerID uuid.UUID, start, end time.Time) ([]*LaneBlock, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+laneBlockCols+` FROM lane_blocks
		WHERE center_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time`, centerID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*LaneBlock
	for rows.Next() {
		b, err := scanLaneBlock(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, nil
}

// =========== Employee Repository ===========

type employeeRepoPG struct{ pool *pgxpool.Pool }

func NewEmployeeRepoPG(pool *pgxpool.Pool) EmployeeRepository { return &employeeRepoPG{pool: pool} }

const employeeCols = `id, center_id, name, role, active, created_at, updated_at`

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.CenterID, &e.Name, &e.Role, &e.Active, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *employeeRepoPG) Create(ctx context.Context, e *Employee) error {
	e.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO employees (id, center_id, name, role, active)
		VALUES ($1,$2,$3,$4,$5)`,
		e.ID, e.CenterID, e.Name, e.Role, e.Active)
	return err
}

func (r *employeeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	return scanEmployee(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+employeeCols+` FROM employees WHERE id = $1`, id))
}

func (r *employeeRepoPG) Update(ctx context.Context, e *Employee) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE employees SET name=$2, role=$3, active=$4, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.Name, e.Role, e.Active)
	return err
}

func (r *employeeRepoPG) ListByCenter(ctx context.Context, centerID uuid.UUID, activeOnly bool) ([]*Employee, error) {
	query := `SELECT ` + employeeCols + ` FROM employees WHERE center_id = $1`
	if activeOnly {
		query += ` AND active = true`
	}
	query += ` ORDER BY name`
	rows, err := conn(ctx, r.pool).Query(ctx, query, centerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, nil
}
