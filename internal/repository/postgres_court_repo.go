package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/hitoshi/hoopfeed/internal/model"
)

// PostgresCourtRepo はPostgreSQLを使用したコートリポジトリ。
type PostgresCourtRepo struct {
	db *sql.DB
}

// NewPostgresCourtRepo はPostgresCourtRepoを生成する。
func NewPostgresCourtRepo(db *sql.DB) *PostgresCourtRepo {
	return &PostgresCourtRepo{db: db}
}

// FindByID は指定IDのコートを取得する。見つからない場合はnilを返す。
func (r *PostgresCourtRepo) FindByID(ctx context.Context, id string) (*model.Court, error) {
	court := &model.Court{}
	var city, access sql.NullString
	var rims sql.NullInt64
	var indoor sql.NullBool

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, city, lat, lng, indoor, rims, access, created_at
		 FROM courts WHERE id = $1`,
		id,
	).Scan(
		&court.ID, &court.Name, &city, &court.Lat, &court.Lng,
		&indoor, &rims, &access, &court.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("コートの取得に失敗しました: %w", err)
	}

	court.City = nullStringValue(city)
	court.Access = nullStringValue(access)
	if indoor.Valid {
		court.Indoor = indoor.Bool
	}
	if rims.Valid {
		court.Rims = int(rims.Int64)
	}

	return court, nil
}

// SearchByLocation は指定座標から半径radiusMiles以内のコートを距離昇順で返す。
// バウンディングボックスでプレフィルタし、haversineで正確な距離を計算する。
func (r *PostgresCourtRepo) SearchByLocation(ctx context.Context, lat, lng, radiusMiles float64, limit int) ([]model.CourtWithDistance, error) {
	latMin, latMax, lngMin, lngMax := boundingBox(lat, lng, radiusMiles)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, city, lat, lng, indoor, rims, access, created_at
		 FROM courts
		 WHERE lat BETWEEN $1 AND $2
		   AND lng BETWEEN $3 AND $4
		 LIMIT $5`,
		latMin, latMax, lngMin, lngMax, limit*2,
	)
	if err != nil {
		return nil, fmt.Errorf("コートの位置検索に失敗しました: %w", err)
	}
	defer rows.Close()

	var courts []model.CourtWithDistance
	for rows.Next() {
		var c model.CourtWithDistance
		var city, access sql.NullString
		var rims sql.NullInt64
		var indoor sql.NullBool

		if err := rows.Scan(
			&c.ID, &c.Name, &city, &c.Lat, &c.Lng,
			&indoor, &rims, &access, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("コート行の読み取りに失敗しました: %w", err)
		}

		c.City = nullStringValue(city)
		c.Access = nullStringValue(access)
		if indoor.Valid {
			c.Indoor = indoor.Bool
		}
		if rims.Valid {
			c.Rims = int(rims.Int64)
		}

		c.DistanceMiles = haversineMiles(lat, lng, c.Lat, c.Lng)
		if c.DistanceMiles > radiusMiles {
			continue
		}

		courts = append(courts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コート一覧の走査に失敗しました: %w", err)
	}

	sort.Slice(courts, func(i, j int) bool {
		return courts[i].DistanceMiles < courts[j].DistanceMiles
	})
	if len(courts) > limit {
		courts = courts[:limit]
	}

	return courts, nil
}

// compile-time interface check
var _ CourtRepository = (*PostgresCourtRepo)(nil)
