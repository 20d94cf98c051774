package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// CronParser parses schedules with an optional leading seconds field and
// descriptors such as "@daily" or "@every 10m".
var CronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31 (got %d)", c.Auth.BcryptCost)
	}

	switch c.Store.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("store.driver must be %q or %q (got %q)", DriverPostgres, DriverMemory, c.Store.Driver)
	}

	if c.Store.MaxBatchOps <= 0 {
		return fmt.Errorf("store.max_batch_ops must be > 0 (got %d)", c.Store.MaxBatchOps)
	}
	if c.Backup.BatchSize <= 0 || c.Backup.BatchSize >= c.Store.MaxBatchOps {
		return fmt.Errorf("backup.batch_size must be in (0, %d) (got %d)", c.Store.MaxBatchOps, c.Backup.BatchSize)
	}

	if c.Job.SessionTTL <= 0 {
		return fmt.Errorf("job.session_ttl must be > 0 (got %v)", c.Job.SessionTTL)
	}
	if err := validateSchedule(c.Job.SweepSchedule); err != nil {
		return fmt.Errorf("job.sweep_schedule: %w", err)
	}
	if err := validateSchedule(c.Backup.Schedule); err != nil {
		return fmt.Errorf("backup.schedule: %w", err)
	}

	if (c.Seed.AdminPassword == "") != (c.Seed.ManagerPassword == "") {
		return fmt.Errorf("seed.admin_password and seed.manager_password must be set together")
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}

func validateSchedule(spec string) error {
	if strings.TrimSpace(spec) == "" {
		return nil
	}
	if _, err := CronParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}
