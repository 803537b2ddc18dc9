package repo

import (
	"context"
	"database/sql"

	"fieldline/internal/domain"
)

func scanLocation(row rowScanner) (domain.Location, error) {
	var l domain.Location
	err := row.Scan(&l.ID, &l.Name, &l.Coords, &l.Type)
	if err == sql.ErrNoRows {
		return l, ErrNotFound
	}
	return l, err
}

func (r Repo) GetLocationByName(ctx context.Context, name string) (domain.Location, error) {
	return scanLocation(r.DB.QueryRowContext(ctx, `SELECT id,name,coords,type FROM locations WHERE name=?`, name))
}

func (r Repo) InsertLocation(ctx context.Context, l domain.Location) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO locations(name,coords,type) VALUES (?,?,?)`,
		l.Name, l.Coords, l.Type)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) UpdateLocation(ctx context.Context, name string, l domain.Location) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE locations SET name=?, coords=?, type=? WHERE name=?`,
		l.Name, l.Coords, l.Type, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteLocation(ctx context.Context, name string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM locations WHERE name=?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListLocations(ctx context.Context) ([]domain.Location, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,coords,type FROM locations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Location
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Coords, &l.Type); err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func (r Repo) ListCoordinates(ctx context.Context) ([]domain.CoordinateNode, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT node_id,latitude,longitude FROM coordinates ORDER BY node_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.CoordinateNode
	for rows.Next() {
		var n domain.CoordinateNode
		if err := rows.Scan(&n.NodeID, &n.Latitude, &n.Longitude); err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (r Repo) UpsertCoordinate(ctx context.Context, n domain.CoordinateNode) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO coordinates(node_id,latitude,longitude) VALUES (?,?,?)
ON CONFLICT(node_id) DO UPDATE SET latitude=excluded.latitude, longitude=excluded.longitude`,
		n.NodeID, n.Latitude, n.Longitude)
	return err
}
