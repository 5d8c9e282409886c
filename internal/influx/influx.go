package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tiltlab/arlabyrinth/internal/config"
	"github.com/tiltlab/arlabyrinth/pkg/core"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

// Measurement is the measurement name of round points.
const Measurement = "labyrinth_round"

// Sink exports finished rounds to InfluxDB. When the server cannot be
// reached at startup, points are appended as line protocol to a gzip
// backup file instead.
type Sink struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Logger       zerolog.Logger

	backupFile *os.File
}

// NewSink connects to InfluxDB and prepares the round bucket.
func NewSink(cfg config.InfluxConfig, log zerolog.Logger, backupPath string) (*Sink, error) {
	if !cfg.Enabled {
		return nil, errors.New("influx.enabled is false")
	}

	s := &Sink{Logger: log}
	s.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf("%s://%s:%s", cfg.Protocol, cfg.Host, cfg.Port),
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(100).
			SetFlushInterval(1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	running, err := s.Client.Ping(ctx)
	if err != nil || !running {
		s.Client.Close()
		s.Client = nil
		log.Warn().Err(err).Str("backupPath", backupPath).
			Msg("InfluxDB unreachable, writing rounds to backup file")

		file, err := os.OpenFile(backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("error creating backup file: %w", err)
		}
		s.backupFile = file
		s.BackupWriter = gzip.NewWriter(file)
		return s, nil
	}

	if err := s.ensureBucket(ctx, cfg.Org, cfg.Bucket); err != nil {
		s.Client.Close()
		return nil, err
	}

	s.Writer = s.Client.WriteAPI(cfg.Org, cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			log.Error().Err(writeErr).Str("bucket", cfg.Bucket).Msg("Error sending data to InfluxDB")
		}
	}(s.Writer.Errors())

	s.IsValid = true
	log.Info().Str("bucket", cfg.Bucket).Msg("InfluxDB client initialized")
	return s, nil
}

func (s *Sink) ensureBucket(ctx context.Context, orgName, bucket string) error {
	org, err := s.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		s.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		org, err = s.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			return fmt.Errorf("creating organization %s: %w", orgName, err)
		}
	}

	if _, err := s.Client.BucketsAPI().FindBucketByName(ctx, bucket); err == nil {
		return nil
	}

	s.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")
	rule := domain.RetentionRuleTypeExpire
	_, err = s.Client.BucketsAPI().CreateBucketWithName(ctx, org, bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: 60 * 60 * 24 * 365,
	})
	if err != nil {
		return fmt.Errorf("creating bucket %s: %w", bucket, err)
	}
	return nil
}

// RoundPoint converts a finished round into a point.
func RoundPoint(r core.Round) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(Measurement).
		AddTag("outcome", r.Outcome.String()).
		AddTag("ball", r.Ball).
		AddField("round_id", r.ID).
		AddField("duration_ms", r.Duration().Milliseconds()).
		AddField("wins", r.Score.Wins).
		AddField("losses", r.Score.Losses).
		AddField("final_x", r.FinalPose.Position.X).
		AddField("final_y", r.FinalPose.Position.Y).
		AddField("final_z", r.FinalPose.Position.Z).
		SetTime(r.EndedAt)
	return p
}

// RecordRound writes the round point to InfluxDB or the backup file.
func (s *Sink) RecordRound(r core.Round) error {
	point := RoundPoint(r)

	if s.IsValid {
		s.Writer.WritePoint(point)
		return nil
	}
	if s.BackupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}

	line := strings.TrimRight(influxdb2_write.PointToLineProtocol(point, time.Nanosecond), "\n")
	if _, err := s.BackupWriter.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes pending points and releases the client or backup file.
func (s *Sink) Close() error {
	if s.Writer != nil {
		s.Writer.Flush()
	}
	if s.Client != nil {
		s.Client.Close()
	}

	var errs []error
	if s.BackupWriter != nil {
		errs = append(errs, s.BackupWriter.Close())
	}
	if s.backupFile != nil {
		errs = append(errs, s.backupFile.Close())
	}
	return errors.Join(errs...)
}
