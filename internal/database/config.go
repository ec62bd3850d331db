package database

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/kitpress-go/framework/internal/config"
)

var (
	ErrUnknownConnection = errors.New("database: unknown connection")
	ErrUnsupportedDriver = errors.New("database: unsupported driver")
)

// Config describes one named connection.
type Config struct {
	Name            string
	Driver          string
	DSN             string
	Host            string
	Port            int
	Database        string
	Username        string
	Password        string
	Charset         string
	SSLMode         string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

// ConfigFrom reads the default connection from the "database" document.
// Relative sqlite paths are resolved against root.
func ConfigFrom(store *config.Store, root string) (Config, error) {
	name := store.GetString("database.default")
	prefix := "database.connections." + name
	if name == "" || !store.Has(prefix) {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownConnection, name)
	}

	cfg := Config{
		Name:            name,
		Driver:          store.GetString(prefix + ".driver"),
		DSN:             store.GetString(prefix + ".dsn"),
		Host:            store.GetString(prefix+".host", "127.0.0.1"),
		Port:            store.GetInt(prefix + ".port"),
		Database:        store.GetString(prefix + ".database"),
		Username:        store.GetString(prefix + ".username"),
		Password:        store.GetString(prefix + ".password"),
		Charset:         store.GetString(prefix + ".charset"),
		SSLMode:         store.GetString(prefix + ".sslmode"),
		MaxOpen:         store.GetInt("database.pool.max_open"),
		MaxIdle:         store.GetInt("database.pool.max_idle"),
		ConnMaxLifetime: store.GetDuration("database.pool.conn_max_lifetime"),
	}

	if cfg.Driver == "sqlite3" && cfg.Database != ":memory:" && cfg.Database != "" &&
		!filepath.IsAbs(cfg.Database) && root != "" {
		cfg.Database = filepath.Join(root, cfg.Database)
	}

	return cfg, nil
}

// BuildDSN returns cfg.DSN when set, otherwise a DSN assembled for the
// driver.
func (c Config) BuildDSN() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}

	switch c.Driver {
	case "mysql":
		m := mysql.NewConfig()
		m.User = c.Username
		m.Passwd = c.Password
		m.Net = "tcp"
		m.Addr = net.JoinHostPort(c.Host, strconv.Itoa(cmpPort(c.Port, 3306)))
		m.DBName = c.Database
		m.ParseTime = true
		if c.Charset != "" {
			m.Params = map[string]string{"charset": c.Charset}
		}
		return m.FormatDSN(), nil

	case "postgres":
		parts := []string{
			"host=" + quote(c.Host),
			"port=" + strconv.Itoa(cmpPort(c.Port, 5432)),
		}
		if c.Database != "" {
			parts = append(parts, "dbname="+quote(c.Database))
		}
		if c.Username != "" {
			parts = append(parts, "user="+quote(c.Username))
		}
		if c.Password != "" {
			parts = append(parts, "password="+quote(c.Password))
		}
		if c.SSLMode != "" {
			parts = append(parts, "sslmode="+c.SSLMode)
		}
		return strings.Join(parts, " "), nil

	case "sqlite3":
		if c.Database == "" {
			return ":memory:", nil
		}
		return c.Database, nil

	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Driver)
	}
}

func cmpPort(port, fallback int) int {
	if port > 0 {
		return port
	}
	return fallback
}

// quote escapes a libpq key/value parameter.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
