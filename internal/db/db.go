package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// Connect returns a MySQL/MariaDB connection using env vars.
func Connect() (*sql.DB, error) {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASS")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3306"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4,utf8", user, pass, host, port, name)
	return sql.Open("mysql", dsn)
}

// EnsureSchema creates required tables if not exist.
//
// Non-dataset tables carry a data_set_id partition column with an ON DELETE
// CASCADE foreign key, plus composite indexes matching the report join
// patterns (data_set_id + natural key + ordering column). The indexes are
// non-unique: GTFS exports routinely repeat natural keys.
func EnsureSchema(db *sql.DB) error {
	if skip := strings.TrimSpace(os.Getenv("DB_SKIP_SCHEMA")); strings.EqualFold(skip, "true") || skip == "1" {
		log.Printf("EnsureSchema: skipped (DB_SKIP_SCHEMA=%q)", skip)
		return nil
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS data_sets (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date TIMESTAMP NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS routes (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			data_set_id BIGINT NOT NULL,
			route_id VARCHAR(64) NOT NULL,
			agency_id VARCHAR(64) NULL,
			route_short_name VARCHAR(255) NULL,
			route_long_name VARCHAR(255) NULL,
			route_desc TEXT NULL,
			route_type INT NULL,
			route_url VARCHAR(500) NULL,
			route_color VARCHAR(16) NULL,
			route_text_color VARCHAR(16) NULL,
			FOREIGN KEY (data_set_id) REFERENCES data_sets(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS stops (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			data_set_id BIGINT NOT NULL,
			stop_id VARCHAR(64) NOT NULL,
			stop_code VARCHAR(64) NULL,
			stop_name VARCHAR(255) NULL,
			stop_desc TEXT NULL,
			stop_lat DECIMAL(12,8) NULL,
			stop_lon DECIMAL(12,8) NULL,
			zone_id VARCHAR(64) NULL,
			stop_url VARCHAR(500) NULL,
			location_type INT NULL,
			parent_station VARCHAR(64) NULL,
			stop_timezone VARCHAR(64) NULL,
			wheelchair_boarding INT NULL,
			FOREIGN KEY (data_set_id) REFERENCES data_sets(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trips (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			data_set_id BIGINT NOT NULL,
			route_id VARCHAR(64) NOT NULL,
			service_id VARCHAR(64) NOT NULL,
			trip_id VARCHAR(64) NOT NULL,
			trip_headsign VARCHAR(255) NULL,
			trip_short_name VARCHAR(255) NULL,
			direction_id INT NULL,
			block_id VARCHAR(64) NULL,
			shape_id VARCHAR(64) NULL,
			wheelchair_accessible INT NULL,
			bikes_allowed INT NULL,
			FOREIGN KEY (data_set_id) REFERENCES data_sets(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS stop_timings (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			data_set_id BIGINT NOT NULL,
			trip_id VARCHAR(64) NOT NULL,
			arrival_time VARCHAR(16) NULL,
			departure_time VARCHAR(16) NULL,
			stop_id VARCHAR(64) NOT NULL,
			stop_sequence INT NULL,
			stop_headsign VARCHAR(255) NULL,
			pickup_type INT NULL,
			drop_off_type INT NULL,
			shape_dist_traveled DECIMAL(14,6) NULL,
			timepoint INT NULL,
			FOREIGN KEY (data_set_id) REFERENCES data_sets(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS calendar_dates (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			data_set_id BIGINT NOT NULL,
			service_id VARCHAR(64) NOT NULL,
			date DATE NOT NULL,
			exception_type INT NOT NULL,
			FOREIGN KEY (data_set_id) REFERENCES data_sets(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	// Optional date dimension. The report engine works without it; when
	// present it serves day-of-week lookups.
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS d_date (
			date_key INT PRIMARY KEY,
			date DATE NOT NULL,
			day_of_week INT NOT NULL,
			day_name VARCHAR(16) NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	indexes := []struct {
		name string
		stmt string
	}{
		{"idx_data_sets_name", "CREATE INDEX idx_data_sets_name ON data_sets(name)"},
		{"idx_routes_dataset_route", "CREATE INDEX idx_routes_dataset_route ON routes(data_set_id, route_id)"},
		{"idx_stops_dataset_stop", "CREATE INDEX idx_stops_dataset_stop ON stops(data_set_id, stop_id)"},
		{"idx_trips_dataset_route", "CREATE INDEX idx_trips_dataset_route ON trips(data_set_id, route_id, trip_id)"},
		{"idx_stop_timings_dataset_trip", "CREATE INDEX idx_stop_timings_dataset_trip ON stop_timings(data_set_id, trip_id, stop_sequence)"},
		{"idx_calendar_dates_dataset_service", "CREATE INDEX idx_calendar_dates_dataset_service ON calendar_dates(data_set_id, service_id, date)"},
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx.stmt); err != nil {
			errMsg := strings.ToLower(err.Error())
			if strings.Contains(errMsg, "duplicate") {
				// index already exists, nothing to do
			} else if strings.Contains(errMsg, "permission denied") {
				log.Printf("EnsureSchema: unable to create %s (permission denied): %v", idx.name, err)
			} else {
				return err
			}
		}
	}

	return nil
}
