package catalog

import (
	"context"

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

// =========== Service Repository ===========

type serviceRepoPG struct{ pool *pgxpool.Pool }

func NewServiceRepoPG(pool *pgxpool.Pool) ServiceRepository { return &serviceRepoPG{pool: pool} }

const serviceCols = `id, center_id, name, duration_minutes, price_cents, group_id, lane_ids, active, created_at, updated_at`

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.CenterID, &s.Name, &s.DurationMinutes, &s.PriceCents,
		&s.GroupID, &s.LaneIDs, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *serviceRepoPG) Create(ctx context.Context, s *Service) error {
	s.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO services (id, center_id, name, duration_minutes, price_cents, group_id, lane_ids, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.CenterID, s.Name, s.DurationMinutes, s.PriceCents, s.GroupID, s.LaneIDs, s.Active)
	return err
}

func (r *serviceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	return scanService(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+serviceCols+` FROM services WHERE id = $1`, id))
}

func (r *serviceRepoPG) Update(ctx context.Context, s *Service) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE services SET name=$2, duration_minutes=$3, price_cents=$4, group_id=$5,
			lane_ids=$6, active=$7, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Name, s.DurationMinutes, s.PriceCents, s.GroupID, s.LaneIDs, s.Active)
	return err
}

func (r *serviceRepoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE services SET active=false, updated_at=NOW() WHERE id = $1`, id)
	return err
}

// ListForCenter returns services offered at a center: rows pinned to it plus
// catalog-wide rows with no center.
func (r *serviceRepoPG) ListForCenter(ctx context.Context, centerID uuid.UUID, limit, offset int) ([]*Service, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM services WHERE active = true AND (center_id = $1 OR center_id IS NULL)`,
		centerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+serviceCols+` FROM services
		WHERE active = true AND (center_id = $1 OR center_id IS NULL)
		ORDER BY name LIMIT $2 OFFSET $3`, centerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, nil
}

// =========== Group Repository ===========

type groupRepoPG struct{ pool *pgxpool.Pool }

func NewGroupRepoPG(pool *pgxpool.Pool) GroupRepository { return &groupRepoPG{pool: pool} }

const groupCols = `id, name, lane_ids, lane_id, created_at, updated_at`

func scanGroup(row pgx.Row) (*TreatmentGroup, error) {
	var g TreatmentGroup
	err := row.Scan(&g.ID, &g.Name, &g.LaneIDs, &g.LaneID, &g.CreatedAt, &g.UpdatedAt)
	return &g, err
}

func (r *groupRepoPG) Create(ctx context.Context, g *TreatmentGroup) error {
	g.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO treatment_groups (id, name, lane_ids, lane_id)
		VALUES ($1,$2,$3,$4)`,
		g.ID, g.Name, g.LaneIDs, g.LaneID)
	return err
}

func (r *groupRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*TreatmentGroup, error) {
	return scanGroup(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+groupCols+` FROM treatment_groups WHERE id = $1`, id))
}

func (r *groupRepoPG) Update(ctx context.Context, g *TreatmentGroup) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE treatment_groups SET name=$2, lane_ids=$3, lane_id=$4, updated_at=NOW()
		WHERE id = $1`,
		g.ID, g.Name, g.LaneIDs, g.LaneID)
	return err
}

func (r *groupRepoPG) List(ctx context.Context) ([]*TreatmentGroup, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+groupCols+` FROM treatment_groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*TreatmentGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, nil
}
