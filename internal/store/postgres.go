package store

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/ride-hail/internal/models"
)

// Archive is the optional write-behind persistence of order records. The
// in-memory OrderStore stays authoritative; the archive is best-effort.
type Archive interface {
	SaveOrder(o models.Order) error
	UpdateOrder(o models.Order) error
}

type PostgresArchive struct {
	db *sql.DB
}

func NewPostgresArchive(dsn string) (*PostgresArchive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresArchive{db: db}, nil
}

func (p *PostgresArchive) SaveOrder(o models.Order) error {
	_, err := p.db.Exec(`INSERT INTO orders(id, rider_id, driver_id, pickup_lat, pickup_lon, dest_lat, dest_lon, price, status, created_at, updated_at) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		o.ID, o.RiderID, o.DriverID, o.Pickup.Lat, o.Pickup.Lon, o.Dest.Lat, o.Dest.Lon, o.Price, o.Status, o.CreatedAt, o.UpdatedAt)
	return err
}

func (p *PostgresArchive) UpdateOrder(o models.Order) error {
	_, err := p.db.Exec(`UPDATE orders SET driver_id=$1, status=$2, updated_at=$3 WHERE id=$4`, o.DriverID, o.Status, time.Now(), o.ID)
	return err
}
