package worker

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campuslink/attendance-backend/internal/exports"
	"github.com/campuslink/attendance-backend/internal/models"
	"github.com/campuslink/attendance-backend/pkg/queue"
	"github.com/campuslink/attendance-backend/pkg/storage"
)

// AttendanceLister loads a class's attendance records for export.
type AttendanceLister interface {
	ListAttendance(ctx context.Context, classID string) ([]models.AttendanceRecord, error)
}

// ExportProcessor processes attendance export jobs: load records, render
// CSV, archive to S3, mark the export row.
type ExportProcessor struct {
	exportRepo *exports.Repository
	attendance AttendanceLister
	s3         *storage.S3
	queue      *queue.Queue
	logger     *zap.Logger
}

// NewExportProcessor creates an export processor.
func NewExportProcessor(exportRepo *exports.Repository, attendance AttendanceLister, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *ExportProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportProcessor{exportRepo: exportRepo, attendance: attendance, s3: s3, queue: q, logger: logger}
}

// Process executes one export job.
func (p *ExportProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeAttendanceExport {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	exp, err := p.exportRepo.GetByID(ctx, payload.ExportID)
	if err != nil {
		return fmt.Errorf("export not found: %s", payload.ExportID)
	}
	if exp.Status == models.ExportStatusCompleted {
		p.logger.Info("export already completed", zap.String("export_id", exp.ID.String()))
		return nil
	}

	records, err := p.attendance.ListAttendance(ctx, payload.ClassID)
	if err != nil {
		return fmt.Errorf("list attendance: %w", err)
	}

	body, err := RenderCSV(records)
	if err != nil {
		return fmt.Errorf("render csv: %w", err)
	}

	key := storage.ReportKey(payload.ClassID, payload.ExportID.String())
	if _, err := p.s3.Upload(ctx, key, "text/csv", bytes.NewReader(body)); err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	if err := p.exportRepo.MarkCompleted(ctx, payload.ExportID, key, len(records)); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	p.logger.Info("export completed",
		zap.String("export_id", exp.ID.String()),
		zap.String("s3_key", key),
		zap.Int("records", len(records)))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ExportProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("export worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			p.failOrRetry(ctx, job)
			time.Sleep(queue.RetryBackoff)
		}
	}
}

func (p *ExportProcessor) failOrRetry(ctx context.Context, job *queue.Job) {
	if job.Attempt+1 >= queue.MaxRetries {
		var payload queue.ExportPayload
		if err := json.Unmarshal(job.Payload, &payload); err == nil {
			if err := p.exportRepo.MarkFailed(ctx, payload.ExportID); err != nil {
				p.logger.Error("mark failed errored", zap.Error(err), zap.String("export_id", payload.ExportID.String()))
			}
		}
	}
	if err := p.queue.Retry(ctx, job); err != nil {
		p.logger.Error("retry enqueue failed", zap.Error(err))
	}
}

// RenderCSV renders attendance records as CSV with a header row.
func RenderCSV(records []models.AttendanceRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"student_id", "class_id", "date", "timestamp", "status"}); err != nil {
		return nil, err
	}
	for _, r := range records {
		row := []string{r.StudentID, r.ClassID, r.Date, r.Timestamp.UTC().Format(time.RFC3339), r.Status}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
