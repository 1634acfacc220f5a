package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"trashshred/internal/config"
	"trashshred/internal/erase"
)

const Version = "1.0.0"

// Report is the JSON record of one run.
type Report struct {
	RunID     string                 `json:"run_id"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Profile   string                 `json:"profile,omitempty"`
	Protocol  string                 `json:"protocol"`
	Passes    int                    `json:"passes"`
	Encrypt   bool                   `json:"encrypt"`
	Verify    bool                   `json:"verify"`
	DryRun    bool                   `json:"dry_run"`
	Config    map[string]interface{} `json:"config"`
	Files     []FileReport           `json:"files"`
	Summary   SummaryReport          `json:"summary"`
	ExitCode  int                    `json:"exit_code"`
	EndTime   time.Time              `json:"end_time"`
	Duration  string                 `json:"duration"`
}

// FileReport is the outcome of one erasure job.
type FileReport struct {
	Path     string `json:"path"`
	Status   string `json:"status"`
	Passes   int    `json:"passes"`
	Bytes    int64  `json:"bytes"`
	Duration string `json:"duration"`
	Kind     string `json:"failure_kind,omitempty"`
	Error    string `json:"error,omitempty"`
}

type SummaryReport struct {
	TotalFiles  int     `json:"total_files"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	Canceled    int     `json:"canceled"`
	TotalBytes  int64   `json:"total_bytes"`
	SuccessRate float64 `json:"success_rate"`
}

// Run describes the settings a summary was produced with.
type Run struct {
	Source  string
	Profile string
	Options erase.Options
	DryRun  bool
}

// GenerateReport builds the report of a finished run. A nil summary yields a
// report without files, as for dry runs.
func GenerateReport(summary *erase.Summary, run Run, cfg *config.Config, startTime, endTime time.Time, exitCode int) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		Version:   Version,
		Timestamp: startTime,
		Source:    run.Source,
		Profile:   run.Profile,
		Protocol:  run.Options.Protocol.String(),
		Passes:    run.Options.Protocol.PassCount(),
		Encrypt:   run.Options.Encrypt,
		Verify:    run.Options.Verify,
		DryRun:    run.DryRun,
		Config:    configToMap(cfg),
		Files:     []FileReport{},
		ExitCode:  exitCode,
		EndTime:   endTime,
		Duration:  endTime.Sub(startTime).String(),
	}
	if summary == nil {
		return report
	}

	report.Files = make([]FileReport, len(summary.Results))
	for i, r := range summary.Results {
		fr := FileReport{
			Path:     r.Path,
			Status:   string(r.Phase),
			Passes:   r.Passes,
			Bytes:    r.Bytes,
			Duration: r.Duration.String(),
		}
		if r.Err != nil {
			fr.Kind = erase.FailureKind(r.Err)
			fr.Error = r.Err.Error()
			if fr.Kind == "Canceled" {
				report.Summary.Canceled++
			}
		}
		report.Summary.TotalBytes += r.Bytes
		report.Files[i] = fr
	}

	report.Summary.TotalFiles = summary.Total
	report.Summary.Completed = summary.Completed
	report.Summary.Failed = summary.Failed
	if summary.Total > 0 {
		report.Summary.SuccessRate = float64(summary.Completed) / float64(summary.Total) * 100
	}
	return report
}

// SaveReport writes the report into reporting.local_path and returns the
// file name. Nothing is written when reporting is disabled.
func SaveReport(report *Report, cfg *config.Config) (string, error) {
	if !cfg.Reporting.Enabled {
		return "", nil
	}

	if err := os.MkdirAll(cfg.Reporting.LocalPath, 0755); err != nil {
		return "", fmt.Errorf("cannot create report directory: %w", err)
	}

	filename := fmt.Sprintf("trashshred_report_%s.json", report.Timestamp.Format("20060102_150405"))
	path := filepath.Join(cfg.Reporting.LocalPath, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("cannot encode report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("cannot write report: %w", err)
	}

	return path, nil
}

func configToMap(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"security": map[string]interface{}{
			"require_confirmation": cfg.Security.RequireConfirmation,
			"protected_paths":      cfg.Security.ProtectedPaths,
		},
		"erase": map[string]interface{}{
			"protocol":       cfg.Erase.Protocol,
			"encrypt":        cfg.Erase.Encrypt,
			"verify":         cfg.Erase.Verify,
			"chunk_size":     cfg.Erase.ChunkSize,
			"max_concurrent": cfg.Erase.MaxConcurrent,
			"max_speed_mbps": cfg.Erase.MaxSpeedMBps,
		},
		"trash": map[string]interface{}{
			"root":           cfg.Trash.Root,
			"windows_drives": cfg.Trash.WindowsDrives,
		},
		"logging": map[string]interface{}{
			"level": cfg.Logging.Level,
			"file":  cfg.Logging.File,
		},
	}
}
