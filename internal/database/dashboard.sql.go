package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const getDashboardStats = `-- name: GetDashboardStats :one
SELECT
    (SELECT COALESCE(SUM(total_amount), 0)::numeric(12,2) FROM bills
      WHERE status = 'settled' AND paid_at >= $1 AND paid_at < $2) AS today_revenue,
    (SELECT count(*) FROM orders WHERE status NOT IN ('completed', 'cancelled')) AS active_orders,
    (SELECT count(*) FROM dining_tables WHERE status = 'occupied') AS occupied_tables,
    (SELECT count(*) FROM dining_tables) AS total_tables,
    (SELECT count(*) FROM orders WHERE created_at >= $1 AND created_at < $2) AS today_orders`

type GetDashboardStatsParams struct {
	DayStart time.Time `json:"day_start"`
	DayEnd   time.Time `json:"day_end"`
}

type GetDashboardStatsRow struct {
	TodayRevenue   pgtype.Numeric `json:"today_revenue"`
	ActiveOrders   int64          `json:"active_orders"`
	OccupiedTables int64          `json:"occupied_tables"`
	TotalTables    int64          `json:"total_tables"`
	TodayOrders    int64          `json:"today_orders"`
}

func (q *Queries) GetDashboardStats(ctx context.Context, arg GetDashboardStatsParams) (GetDashboardStatsRow, error) {
	row := q.db.QueryRow(ctx, getDashboardStats, arg.DayStart, arg.DayEnd)
	var i GetDashboardStatsRow
	err := row.Scan(
		&i.TodayRevenue,
		&i.ActiveOrders,
		&i.OccupiedTables,
		&i.TotalTables,
		&i.TodayOrders,
	)
	return i, err
}
