// devdb.go
//
// An intern management service: role-gated interns, tasks, attendance, reviews and messaging
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of internportal.
// internportal is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// internportal is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with internportal.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

// Package devdb runs a throwaway database server in a container for local
// development and integration tests.
package devdb

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/localnerve/internportal/internal/config"
	"github.com/localnerve/internportal/internal/database"
	"github.com/localnerve/internportal/internal/logger"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Options selects the server and its credentials. Zero values take the
// defaults of the chosen DBType.
type Options struct {
	DBType       string // mariadb, mysql or postgres
	Image        string
	Database     string
	User         string
	Password     string
	RootPassword string
}

// Container is a started database server.
type Container struct {
	opts      Options
	container testcontainers.Container
	host      string
	port      string
}

func (o *Options) defaults() error {
	if o.DBType == "" {
		o.DBType = "mariadb"
	}
	if o.Database == "" {
		o.Database = "internportal"
	}
	if o.User == "" {
		o.User = "portal"
	}
	if o.Password == "" {
		o.Password = "portal"
	}
	if o.RootPassword == "" {
		o.RootPassword = "root"
	}
	if o.Image != "" {
		return nil
	}
	switch o.DBType {
	case "mariadb":
		o.Image = "mariadb:11"
	case "mysql":
		o.Image = "mysql:8.4"
	case "postgres":
		o.Image = "postgres:17"
	default:
		return fmt.Errorf("devdb: unsupported database type %q", o.DBType)
	}
	return nil
}

func (o Options) containerPort() string {
	if o.DBType == "postgres" {
		return "5432"
	}
	return "3306"
}

func (o Options) initEnv() map[string]string {
	if o.DBType == "postgres" {
		return map[string]string{
			"POSTGRES_PASSWORD": o.Password,
			"POSTGRES_USER":     o.User,
			"POSTGRES_DB":       o.Database,
		}
	}
	return map[string]string{
		"MYSQL_ROOT_PASSWORD": o.RootPassword,
		"MYSQL_DATABASE":      o.Database,
		"MYSQL_USER":          o.User,
		"MYSQL_PASSWORD":      o.Password,
	}
}

// Start runs the server and waits until it accepts connections.
func Start(ctx context.Context, opts Options) (*Container, error) {
	if err := opts.defaults(); err != nil {
		return nil, err
	}
	port, err := nat.NewPort("tcp", opts.containerPort())
	if err != nil {
		return nil, fmt.Errorf("devdb: port: %w", err)
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        opts.Image,
			ExposedPorts: []string{string(port)},
			Env:          opts.initEnv(),
			WaitingFor:   wait.ForListeningPort(port).WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("devdb: start %s: %w", opts.Image, err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("devdb: host: %w", err)
	}
	mapped, err := c.MappedPort(ctx, port)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("devdb: mapped port: %w", err)
	}

	dc := &Container{opts: opts, container: c, host: host, port: mapped.Port()}
	if err := dc.waitReady(ctx, 30); err != nil {
		_ = c.Terminate(ctx)
		return nil, err
	}
	logger.Info("devdb started", "image", opts.Image, "host", host, "port", dc.port)
	return dc, nil
}

// waitReady pings until the server finishes its init scripts. A listening
// port alone is not enough: the entrypoint restarts the server once.
func (c *Container) waitReady(ctx context.Context, attempts int) error {
	cfg := c.Config(config.Default())
	var lastErr error
	for range attempts {
		db, err := database.Connect(cfg)
		if err == nil {
			sqlDB, _ := db.DB()
			lastErr = sqlDB.PingContext(ctx)
			database.Close(db)
			if lastErr == nil {
				return nil
			}
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("devdb: %s not ready after %d attempts: %w", c.opts.DBType, attempts, lastErr)
}

// Config returns a copy of base pointing at the container.
func (c *Container) Config(base *config.Config) *config.Config {
	cfg := *base
	cfg.DBType = c.opts.DBType
	cfg.DBHost = c.host
	cfg.DBPort = c.port
	cfg.DBDatabase = c.opts.Database
	cfg.DBUser = c.opts.User
	cfg.DBPassword = c.opts.Password
	return &cfg
}

// Env returns the DB_* settings for the container as environment lines.
func (c *Container) Env() []string {
	return []string{
		"DB_TYPE=" + c.opts.DBType,
		"DB_HOST=" + c.host,
		"DB_PORT=" + c.port,
		"DB_DATABASE=" + c.opts.Database,
		"DB_USER=" + c.opts.User,
		"DB_PASSWORD=" + c.opts.Password,
	}
}

// Terminate stops and removes the container.
func (c *Container) Terminate(ctx context.Context) error {
	return c.container.Terminate(ctx)
}
