// Package gcs archives batch run reports to a Cloud Storage bucket.
package gcs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/expense-coach/internal/logger"
	"github.com/dvloznov/expense-coach/internal/notify"
)

// ReportPrefix is the folder every report is written under.
const ReportPrefix = "batch-reports"

// uploadTimeout bounds a single report upload.
const uploadTimeout = 2 * time.Minute

// objectWriter opens a writer for bucket/object with the given content type.
type objectWriter func(ctx context.Context, bucket, object, contentType string) io.WriteCloser

// ReportArchiver writes each finished batch report as a JSON object.
type ReportArchiver struct {
	client *storage.Client
	bucket string
	open   objectWriter
}

// NewReportArchiver creates a storage client using Application Default
// Credentials.
func NewReportArchiver(ctx context.Context, bucket string) (*ReportArchiver, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	a := &ReportArchiver{client: client, bucket: bucket}
	a.open = func(ctx context.Context, bucket, object, contentType string) io.WriteCloser {
		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}
	return a, nil
}

// ObjectName returns batch-reports/<kind>/<window start>/<run id>.json.
func ObjectName(report *notify.Report) string {
	return path.Join(ReportPrefix, string(report.Kind), report.Window.Start.String(), report.RunID+".json")
}

// URI returns the gs:// address of an object in the archive bucket.
func (a *ReportArchiver) URI(object string) string {
	return fmt.Sprintf("gs://%s/%s", a.bucket, object)
}

// Archive uploads the report. It implements notify.ReportSink.
func (a *ReportArchiver) Archive(ctx context.Context, report *notify.Report) error {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("Archive: encode report: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	object := ObjectName(report)
	w := a.open(ctx, a.bucket, object, "application/json")

	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("Archive: write %s: %w", object, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("Archive: finalize %s: %w", object, err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("run_id", report.RunID).
		Str("uri", a.URI(object)).
		Int("bytes", len(body)).
		Msg("Batch report archived")
	return nil
}

// Close releases the storage client.
func (a *ReportArchiver) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

var _ notify.ReportSink = (*ReportArchiver)(nil)
