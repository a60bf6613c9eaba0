package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"gopkg.in/guregu/null.v4"
	_ "modernc.org/sqlite"

	"parking_finder/internal/config"
	"parking_finder/internal/domain"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const selectSpots = `SELECT id, name, destination, address, type, price, capacity, available, lat, lng,
	distance, security, covered, ev_charging, accessible, operating_hours, payment_methods, image
	FROM parking_spots ORDER BY id`

// NewPostgresDB opens a pgx-backed pool from the DB_* settings and pings it.
func NewPostgresDB(cfg *config.Config) (*sql.DB, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSslMode)

	db, err := sql.Open("pgx", psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a SQLite file read-only.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(4)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// SQLSource reads the parking_spots table. Edits are never written back.
type SQLSource struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLSource(db *sql.DB, dialect Dialect) *SQLSource {
	return &SQLSource{db: db, dialect: dialect}
}

func (s *SQLSource) Name() string { return string(s.dialect) + ":parking_spots" }

func (s *SQLSource) Fetch(ctx context.Context) ([]domain.ParkingSpot, error) {
	rows, err := s.db.QueryContext(ctx, selectSpots)
	if err != nil {
		return nil, fmt.Errorf("SQLSource.Fetch: %w", err)
	}
	defer rows.Close()

	var spots []domain.ParkingSpot
	for rows.Next() {
		spot, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("SQLSource.Fetch (scanning row): %w", err)
		}
		if err := spot.Validate(); err != nil {
			return nil, &DataFormatError{Reason: err.Error(), Index: len(spots), Err: err}
		}
		spots = append(spots, spot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SQLSource.Fetch (rows error): %w", err)
	}
	if spots == nil {
		spots = []domain.ParkingSpot{}
	}
	if err := AssignIDs(spots); err != nil {
		return nil, err
	}
	return spots, nil
}

func (s *SQLSource) scan(rows *sql.Rows) (domain.ParkingSpot, error) {
	var (
		spot                                     domain.ParkingSpot
		destination, address, spotType, distance null.String
		hours, image                             null.String
		available                                null.Int
		lat, lng                                 null.Float
		paymentPG                                []string
		paymentLite                              null.String
	)
	var payment any
	switch s.dialect {
	case DialectPostgres:
		payment = pq.Array(&paymentPG)
	case DialectSQLite:
		payment = &paymentLite
	default:
		return spot, errors.New("unsupported dialect " + string(s.dialect))
	}

	err := rows.Scan(&spot.ID, &spot.Name, &destination, &address, &spotType, &spot.Price, &spot.Capacity,
		&available, &lat, &lng, &distance, &spot.Amenities.Security, &spot.Amenities.Covered,
		&spot.Amenities.EVCharging, &spot.Amenities.Accessible, &hours, payment, &image)
	if err != nil {
		return spot, err
	}

	spot.Destination = destination.String
	spot.Address = address.String
	spot.Type = domain.NormalizeType(spotType.String)
	spot.Distance = distance.String
	spot.OperatingHours = hours.String
	spot.Image = image.String
	spot.Available = spot.Capacity
	if available.Valid {
		spot.Available = int(available.Int64)
	}
	if lat.Valid && lng.Valid {
		spot.Coordinates = &domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	if s.dialect == DialectPostgres {
		spot.PaymentMethods = paymentPG
	} else if paymentLite.Valid && paymentLite.String != "" {
		for _, m := range strings.Split(paymentLite.String, ",") {
			if m = strings.TrimSpace(m); m != "" {
				spot.PaymentMethods = append(spot.PaymentMethods, m)
			}
		}
	}
	return spot, nil
}
