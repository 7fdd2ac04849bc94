// Package reports exports a day of arrivals as a JSON document to an
// S3-compatible bucket and hands back a presigned download link.
package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/logging"
	sc "github.com/dmitrijs2005/latecheck/internal/server/config"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/dmitrijs2005/latecheck/internal/server/services"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ArrivalSource is the read side the exporter needs; *services.ArrivalService
// satisfies it.
type ArrivalSource interface {
	Today() string
	Stats(ctx context.Context, date string) (*models.DailyStats, error)
	List(ctx context.Context, f models.ArrivalFilter) (*services.Page[*models.Arrival], error)
	DayRange(date string) (time.Time, time.Time, error)
}

// Document is the uploaded report body.
type Document struct {
	Date        string             `json:"date"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Stats       *models.DailyStats `json:"stats"`
	Arrivals    []*models.Arrival  `json:"arrivals"`
}

// Export describes an uploaded report.
type Export struct {
	Key   string             `json:"key"`
	URL   string             `json:"url"`
	Stats *models.DailyStats `json:"stats"`
}

type Service struct {
	source ArrivalSource
	config *sc.Config
	clock  clockwork.Clock
	log    logging.Logger
}

func NewService(source ArrivalSource, cfg *sc.Config, clock clockwork.Clock, log logging.Logger) *Service {
	return &Service{source: source, config: cfg, clock: clock, log: log}
}

func storageKey(date string) string {
	return fmt.Sprintf("daily/%s/%s.json", date, uuid.New())
}

func (s *Service) getClient() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey,
			s.config.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// collect pulls every arrival of date, page by page.
func (s *Service) collect(ctx context.Context, date string) ([]*models.Arrival, error) {
	from, to, err := s.source.DayRange(date)
	if err != nil {
		return nil, err
	}

	var out []*models.Arrival
	f := models.ArrivalFilter{From: from, To: to}
	for {
		p, err := s.source.List(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Items...)
		if len(p.Items) == 0 || len(out) >= p.Total {
			return out, nil
		}
		f.Offset += len(p.Items)
	}
}

// ExportDaily uploads the report for date (today when empty).
func (s *Service) ExportDaily(ctx context.Context, date string) (*Export, error) {
	if date == "" {
		date = s.source.Today()
	}

	stats, err := s.source.Stats(ctx, date)
	if err != nil {
		return nil, err
	}
	arrivals, err := s.collect(ctx, date)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(Document{
		Date:        date,
		GeneratedAt: s.clock.Now().UTC(),
		Stats:       stats,
		Arrivals:    arrivals,
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding report: %w", err)
	}

	client, err := s.getClient()
	if err != nil {
		return nil, fmt.Errorf("error creating s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := storageKey(date)

	if err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return nil, fmt.Errorf("error uploading report: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.ReportURLValidity))
	if err != nil {
		return nil, fmt.Errorf("error presigning report: %w", err)
	}

	s.log.Info(ctx, "daily report exported", "date", date, "key", key, "arrivals", len(arrivals))
	return &Export{Key: key, URL: req.URL, Stats: stats}, nil
}
