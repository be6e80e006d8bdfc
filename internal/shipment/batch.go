package shipment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zombor/shipdocs/internal/scanning"
)

// eligibleExts are matched against the end of the file name exactly as written
var eligibleExts = []string{".pdf", ".jpg", ".png"}

// FileProcessor turns one input file into a record, or nil when the file is skipped
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (*FieldRecord, error)
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// BatchConfig controls which files a Batch picks up and how it runs them
type BatchConfig struct {
	InputDir string
	// Workers > 1 processes files concurrently; output order stays the listing order
	Workers int
	// IgnoreExtCase also accepts .PDF, .Jpg and similar
	IgnoreExtCase bool
}

// RunSummary summarizes one batch run
type RunSummary struct {
	Eligible   int
	Records    int
	Skipped    int
	OutputPath string
}

// Batch runs the pipeline over every eligible file of a directory
type Batch struct {
	cfg        BatchConfig
	processor  FileProcessor
	storage    Storage
	timeSource TimeSource
}

// NewBatch creates a new Batch with the default time source
func NewBatch(cfg BatchConfig, processor FileProcessor, storage Storage) *Batch {
	return NewBatchWithDeps(cfg, processor, storage, &defaultTimeSource{})
}

// NewBatchWithDeps creates a new Batch with custom dependencies for testing
func NewBatchWithDeps(cfg BatchConfig, processor FileProcessor, storage Storage, timeSrc TimeSource) *Batch {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Batch{
		cfg:        cfg,
		processor:  processor,
		storage:    storage,
		timeSource: timeSrc,
	}
}

// IsEligible reports whether a file name has one of the supported extensions
func IsEligible(name string, ignoreCase bool) bool {
	if ignoreCase {
		name = strings.ToLower(name)
	}
	for _, ext := range eligibleExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// OutputFileName names the JSON report for a run started at t
func OutputFileName(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return "output_" + stamp + ".json"
}

// EligibleFiles lists the input directory in name order and returns the files
// to process. Page images written by the converter for a PDF in the same
// directory are left out so repeated runs see the same inputs.
func (b *Batch) EligibleFiles() ([]string, error) {
	entries, err := os.ReadDir(b.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("listing input directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	pdfs := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !IsEligible(entry.Name(), b.cfg.IgnoreExtCase) {
			continue
		}
		names = append(names, entry.Name())
		if isPDF(entry.Name()) {
			pdfs[scanning.ConvertedImageName(entry.Name())] = true
		}
	}

	files := make([]string, 0, len(names))
	for _, name := range names {
		if pdfs[name] {
			slog.Debug("Skipping converted page image", "file", name)
			continue
		}
		files = append(files, filepath.Join(b.cfg.InputDir, name))
	}
	return files, nil
}

// Run processes every eligible file and writes one JSON report when at least
// one record was produced
func (b *Batch) Run(ctx context.Context) (*RunSummary, error) {
	files, err := b.EligibleFiles()
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{Eligible: len(files)}
	if len(files) == 0 {
		slog.Info("Nothing to process", "dir", b.cfg.InputDir)
		return summary, nil
	}

	slog.Info("Found files, starting processing", "count", len(files), "workers", b.cfg.Workers)
	startedAt := b.timeSource.Now()

	results, err := b.processAll(ctx, files)
	if err != nil {
		return nil, err
	}

	records := make([]*FieldRecord, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			records = append(records, rec)
		}
	}
	summary.Records = len(records)
	summary.Skipped = len(files) - len(records)

	if len(records) == 0 {
		slog.Warn("Could not extract data from any file", "files", len(files))
		return summary, nil
	}

	data, err := encodeRecords(records)
	if err != nil {
		return nil, err
	}

	outputPath, err := b.storage.Save(OutputFileName(startedAt), data)
	if err != nil {
		return nil, fmt.Errorf("saving output: %w", err)
	}
	summary.OutputPath = outputPath

	slog.Info("Data saved", "path", outputPath, "records", len(records), "skipped", summary.Skipped)
	return summary, nil
}

// processAll runs the processor over files and returns results in file order
func (b *Batch) processAll(ctx context.Context, files []string) ([]*FieldRecord, error) {
	results := make([]*FieldRecord, len(files))

	if b.cfg.Workers == 1 {
		for i, file := range files {
			rec, err := b.processOne(ctx, file)
			if err != nil {
				return nil, err
			}
			results[i] = rec
		}
		return results, nil
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.cfg.Workers)
	for i, file := range files {
		eg.Go(func() error {
			rec, err := b.processOne(gctx, file)
			if err != nil {
				return err
			}
			results[i] = rec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *Batch) processOne(ctx context.Context, file string) (*FieldRecord, error) {
	slog.Info("Processing", "file", filepath.Base(file))
	rec, err := b.processor.ProcessFile(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("processing %s: %w", filepath.Base(file), err)
	}
	return rec, nil
}

// encodeRecords renders records as a 2-space indented JSON array
func encodeRecords(records []*FieldRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encoding records: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
