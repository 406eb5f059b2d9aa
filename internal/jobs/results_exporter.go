package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"swipe/interview/internal/models"
)

// ExportSource is the slice of the candidate repository the exporter needs.
type ExportSource interface {
	ListUnexported(ctx context.Context, limit int) ([]models.Candidate, error)
	MarkExported(ctx context.Context, ids []string, at time.Time) error
}

// ExporterConfig contains configuration for the exporter job
type ExporterConfig struct {
	Schedule      string // cron schedule, e.g. "0 2 * * *"
	ExportDir     string
	ExportEnabled bool
	BatchSize     int // 0 exports everything pending
}

// ResultsExporterJob periodically writes completed interviews to JSONL files.
type ResultsExporterJob struct {
	source ExportSource
	config *ExporterConfig
	cron   *cron.Cron
	logger *zap.Logger
	now    func() time.Time
}

func NewResultsExporterJob(source ExportSource, config *ExporterConfig, logger *zap.Logger) *ResultsExporterJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultsExporterJob{
		source: source,
		config: config,
		cron:   cron.New(),
		logger: logger,
		now:    time.Now,
	}
}

// Start begins the scheduled export job
func (j *ResultsExporterJob) Start() error {
	if !j.config.ExportEnabled {
		j.logger.Info("Results export is disabled, skipping scheduler")
		return nil
	}

	_, err := j.cron.AddFunc(j.config.Schedule, func() {
		if _, err := j.RunExport(context.Background()); err != nil {
			j.logger.Error("Export job failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule export job: %w", err)
	}

	j.cron.Start()
	j.logger.Info("Results exporter started", zap.String("schedule", j.config.Schedule))
	return nil
}

// Stop waits for a running export to finish.
func (j *ResultsExporterJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
		j.logger.Info("Results exporter stopped")
	}
}

// RunExport performs a single export run and returns the written file path,
// empty when nothing was pending.
func (j *ResultsExporterJob) RunExport(ctx context.Context) (string, error) {
	candidates, err := j.source.ListUnexported(ctx, j.config.BatchSize)
	if err != nil {
		return "", fmt.Errorf("failed to get unexported results: %w", err)
	}
	if len(candidates) == 0 {
		j.logger.Debug("No unexported results found")
		return "", nil
	}

	data, err := ExportToJSONL(candidates)
	if err != nil {
		return "", fmt.Errorf("failed to export to JSONL: %w", err)
	}

	if err := os.MkdirAll(j.config.ExportDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	now := j.now()
	path := filepath.Join(j.config.ExportDir, fmt.Sprintf("interviews_%s.jsonl", now.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	if err := j.source.MarkExported(ctx, ids, now); err != nil {
		return path, fmt.Errorf("failed to mark as exported: %w", err)
	}

	j.logger.Info("Exported completed interviews",
		zap.Int("count", len(candidates)),
		zap.String("path", path))
	return path, nil
}

// ExportToJSONL renders one InterviewExport per line.
func ExportToJSONL(candidates []models.Candidate) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range candidates {
		if err := enc.Encode(candidates[i].ToExport()); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
