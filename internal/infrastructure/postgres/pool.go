package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"

	"github.com/jhoicas/stock-api/pkg/config"
)

// NewPool crea el pool de conexiones PostgreSQL.
// Con DATABASE_URL se usa tal cual (forzando IPv4 si se puede); si no, se arma el DSN desde DB_HOST, DB_PORT, etc.
func NewPool(ctx context.Context, cfg config.DBConfig, appName string) (*pgxpool.Pool, error) {
	dsn := cfg.ConnectionString()
	if cfg.DatabaseURL != "" {
		dsn = databaseURLWithIPv4(cfg.DatabaseURL)
	} else if ipv4, err := resolveIPv4(cfg.Host); err == nil {
		withIP := cfg
		withIP.Host = ipv4
		dsn = withIP.DSN()
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	// Docker suele no tener IPv6: el dial prefiere tcp4 cuando el host resuelve a IPv4
	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		dialer := &net.Dialer{}
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		if ipv4, err := resolveIPv4(host); err == nil {
			return dialer.DialContext(ctx, "tcp4", net.JoinHostPort(ipv4, port))
		}
		return dialer.DialContext(ctx, network, addr)
	}
	if appName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = appName
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// Cantidades y costos viajan como NUMERIC: codec shopspring/decimal en todas las conexiones.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// resolveIPv4 devuelve la primera IPv4 del host (o el host si ya es una IPv4).
func resolveIPv4(host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return host, nil
		}
		return "", fmt.Errorf("%s es IPv6", host)
	}
	ips, err := net.DefaultResolver.LookupIP(context.Background(), "ip4", host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", fmt.Errorf("sin IPv4 para %s", host)
	}
	return ips[0].String(), nil
}

// databaseURLWithIPv4 reemplaza el hostname de la URL por su IPv4 si existe.
func databaseURLWithIPv4(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return databaseURL
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	ipv4, err := resolveIPv4(u.Hostname())
	if err != nil {
		return databaseURL
	}
	u.Host = net.JoinHostPort(ipv4, port)
	return u.String()
}
