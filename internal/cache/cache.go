// Package cache implements the persisted device cache external
// collaborator (spec.md §6): a sqlite-backed store of previously
// discovered devices, keyed by identity, so repeated scans don't need a
// full rediscovery to answer "what have we seen before".
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lanscope/upnprecon/internal/models"
)

// Cache - персистентный кэш устройств поверх sqlite.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures the devices table/index exist.
func Open(path string) (*Cache, error) {
	if path == "" {
		path = "upnprecon_cache.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	c := &Cache{db: db}
	if err := c.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return c, nil
}

func (c *Cache) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		identity TEXT PRIMARY KEY,
		ip TEXT,
		port INTEGER,
		udn TEXT,
		friendly_name TEXT,
		manufacturer TEXT,
		model_name TEXT,
		model_number TEXT,
		device_type TEXT,
		description_url TEXT,
		server_header TEXT,
		discovery_method TEXT,
		services_json TEXT,
		first_seen DATETIME,
		last_seen DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_devices_ip ON devices(ip);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Upsert stores or replaces device's row, keyed by its Identity().
func (c *Cache) Upsert(device *models.Device) error {
	servicesJSON, err := json.Marshal(device.Services)
	if err != nil {
		return fmt.Errorf("failed to marshal services: %w", err)
	}

	_, err = c.db.Exec(`
		INSERT OR REPLACE INTO devices (
			identity, ip, port, udn, friendly_name, manufacturer, model_name,
			model_number, device_type, description_url, server_header,
			discovery_method, services_json, first_seen, last_seen
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		device.Identity(), device.IP, device.Port, device.UDN, device.FriendlyName,
		device.Manufacturer, device.ModelName, device.ModelNumber, device.DeviceType,
		device.DescriptionURL, device.ServerHeader, device.DiscoveryMethod,
		string(servicesJSON), device.FirstSeen, device.LastSeen,
	)
	return err
}

// Get retrieves a device by identity key (models.Device.Identity()).
func (c *Cache) Get(identity string) (*models.Device, error) {
	row := c.db.QueryRow(`
		SELECT identity, ip, port, udn, friendly_name, manufacturer, model_name,
			model_number, device_type, description_url, server_header,
			discovery_method, services_json, first_seen, last_seen
		FROM devices WHERE identity = ?
	`, identity)
	return scanDevice(row)
}

// List returns every cached device last seen within maxAge of now. A
// zero maxAge returns every row regardless of age.
func (c *Cache) List(maxAge time.Duration) ([]*models.Device, error) {
	rows, err := c.db.Query(`
		SELECT identity, ip, port, udn, friendly_name, manufacturer, model_name,
			model_number, device_type, description_url, server_header,
			discovery_method, services_json, first_seen, last_seen
		FROM devices ORDER BY ip, port
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cutoff time.Time
	if maxAge > 0 {
		cutoff = time.Now().Add(-maxAge)
	}

	var devices []*models.Device
	for rows.Next() {
		device, err := scanDeviceRows(rows)
		if err != nil {
			continue
		}
		if !cutoff.IsZero() && device.LastSeen.Before(cutoff) {
			continue
		}
		devices = append(devices, device)
	}
	return devices, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDevice(row *sql.Row) (*models.Device, error) {
	return scanInto(row)
}

func scanDeviceRows(rows *sql.Rows) (*models.Device, error) {
	return scanInto(rows)
}

func scanInto(s rowScanner) (*models.Device, error) {
	var d models.Device
	var identity, servicesJSON string
	var udn, friendlyName, manufacturer, modelName, modelNumber, deviceType sql.NullString
	var descriptionURL, serverHeader, discoveryMethod sql.NullString

	err := s.Scan(
		&identity, &d.IP, &d.Port, &udn, &friendlyName, &manufacturer, &modelName,
		&modelNumber, &deviceType, &descriptionURL, &serverHeader,
		&discoveryMethod, &servicesJSON, &d.FirstSeen, &d.LastSeen,
	)
	if err != nil {
		return nil, err
	}

	d.UDN = udn.String
	d.FriendlyName = friendlyName.String
	d.Manufacturer = manufacturer.String
	d.ModelName = modelName.String
	d.ModelNumber = modelNumber.String
	d.DeviceType = deviceType.String
	d.DescriptionURL = descriptionURL.String
	d.ServerHeader = serverHeader.String
	d.DiscoveryMethod = discoveryMethod.String

	if servicesJSON != "" {
		if err := json.Unmarshal([]byte(servicesJSON), &d.Services); err != nil {
			return nil, fmt.Errorf("failed to unmarshal services for %s: %w", identity, err)
		}
	}

	return &d, nil
}
