// Package influx ships sizing history to InfluxDB, or to a gzipped
// line-protocol file when the server cannot be reached.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// 90 days.
const retentionSeconds = 90 * 24 * 60 * 60

var errNoSink = errors.New("influxDB client not initialized and backup writer not available")

// Manager owns the connection for a single bucket. Before Connect, and after
// a failed ping, points go to the backup file at backupPath.
type Manager struct {
	bucket     string
	backupPath string
	log        zerolog.Logger

	mu     sync.Mutex
	client influxdb2.Client
	writer influxdb2_api.WriteAPI
	online bool
	file   *os.File
	gz     *gzip.Writer
}

func NewManager(log zerolog.Logger, bucket, backupPath string) *Manager {
	if bucket == "" {
		bucket = viper.GetString("influx.bucket")
	}
	return &Manager{bucket: bucket, backupPath: backupPath, log: log}
}

// ServerURL is protocol://host:port from the influx.* config keys.
func ServerURL() string {
	return viper.GetString("influx.protocol") + "://" +
		viper.GetString("influx.host") + ":" +
		viper.GetString("influx.port")
}

func (m *Manager) Bucket() string { return m.bucket }

// Online reports whether points are going to the server.
func (m *Manager) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Connect pings the server and prepares the org, bucket and write API.
// An unreachable server is not an error as long as the backup file opens.
func (m *Manager) Connect(ctx context.Context) error {
	opts := influxdb2.DefaultOptions().SetBatchSize(500).SetFlushInterval(1000)
	client := influxdb2.NewClientWithOptions(ServerURL(), viper.GetString("influx.token"), opts)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = client

	if ok, err := client.Ping(ctx); err != nil || !ok {
		m.log.Info().Err(err).Str("backupPath", m.backupPath).
			Msg("InfluxDB unreachable, writing points to backup file")
		return m.openBackup()
	}

	org := viper.GetString("influx.org")
	if err := m.ensureBucket(ctx, org); err != nil {
		return err
	}

	m.writer = client.WriteAPI(org, m.bucket)
	go m.drainErrors(m.writer.Errors())
	m.online = true
	m.log.Info().Str("bucket", m.bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) drainErrors(errs <-chan error) {
	for err := range errs {
		m.log.Error().Err(err).Str("bucket", m.bucket).Msg("Error sending data to InfluxDB")
	}
}

func (m *Manager) openBackup() error {
	if m.gz != nil {
		return nil
	}
	if m.backupPath == "" {
		return errors.New("influxDB unreachable and no backup path set")
	}
	f, err := os.OpenFile(m.backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.file, m.gz = f, gzip.NewWriter(f)
	return nil
}

func (m *Manager) ensureBucket(ctx context.Context, orgName string) error {
	orgs := m.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.log.Info().Str("org", orgName).Msg("Creating InfluxDB organization")
		if org, err = orgs.CreateOrganizationWithName(ctx, orgName); err != nil {
			return fmt.Errorf("creating organization %s: %w", orgName, err)
		}
	}

	buckets := m.client.BucketsAPI()
	if _, err := buckets.FindBucketByName(ctx, m.bucket); err == nil {
		return nil
	}
	m.log.Info().Str("bucket", m.bucket).Msg("Creating InfluxDB bucket")
	expire := domain.RetentionRuleTypeExpire
	rule := domain.RetentionRule{Type: &expire, EverySeconds: retentionSeconds}
	if _, err := buckets.CreateBucketWithName(ctx, org, m.bucket, rule); err != nil {
		return fmt.Errorf("creating bucket %s: %w", m.bucket, err)
	}
	return nil
}

// WritePoint queues p for bucket, which must be the manager's own.
func (m *Manager) WritePoint(bucket string, p *influxdb2_write.Point) error {
	if bucket != m.bucket {
		return fmt.Errorf("influxDB bucket %q not registered", bucket)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.online:
		m.writer.WritePoint(p)
		return nil
	case m.gz == nil:
		return errNoSink
	}
	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	if _, err := m.gz.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

func (m *Manager) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writer != nil {
		m.writer.Flush()
	}
}

// Close flushes pending points and finishes the backup file.
func (m *Manager) Close() error {
	m.Flush()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	m.online = false

	var errs []error
	if m.gz != nil {
		errs = append(errs, m.gz.Close())
		m.gz = nil
	}
	if m.file != nil {
		errs = append(errs, m.file.Close())
		m.file = nil
	}
	return errors.Join(errs...)
}
