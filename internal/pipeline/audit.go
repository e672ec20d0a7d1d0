package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kayz/cadforge/internal/config"
	"github.com/kayz/cadforge/internal/logger"
	"github.com/kayz/cadforge/internal/prompt"
)

var auditMu sync.Mutex

// Auditor appends one JSONL record per pipeline run to a per-day file and
// prunes files older than the retention window.
type Auditor struct {
	cfg  config.AuditConfig
	root string
}

// NewAuditor creates an auditor. Relative audit dirs resolve against root.
func NewAuditor(cfg config.AuditConfig, root string) *Auditor {
	if root == "" {
		root = "."
	}
	return &Auditor{cfg: cfg, root: root}
}

type auditRecord struct {
	Timestamp    string `json:"timestamp"`
	RunID        string `json:"run_id"`
	Provider     string `json:"provider,omitempty"`
	Model        string `json:"model,omitempty"`
	TaskKind     string `json:"task_kind"`
	PromptDigest string `json:"prompt_digest"`
	Stage        string `json:"stage"`
	CodeBytes    int    `json:"code_bytes"`
	Evaluated    bool   `json:"evaluated"`
	Verdict      string `json:"verdict,omitempty"`
}

// audit records the run if auditing is configured. Audit failures never
// fail the run.
func (p *Pipeline) audit(req Request, genPrompt string, outcome *Outcome, stage Stage) {
	if p.Auditor == nil {
		return
	}

	rec := auditRecord{
		RunID:        uuid.NewString(),
		Provider:     p.Provider,
		Model:        p.Model,
		TaskKind:     taskKindName(req.Task.Kind),
		PromptDigest: promptDigest(genPrompt),
		Stage:        string(stage),
	}
	if outcome != nil {
		rec.CodeBytes = len(outcome.Generation.Code)
		if outcome.Evaluation != nil {
			rec.Evaluated = true
			rec.Verdict = string(outcome.Evaluation.IsCorrect)
		}
	}

	if err := p.Auditor.write(rec); err != nil {
		logger.Warn("audit record failed: %v", err)
	}
}

func (a *Auditor) write(rec auditRecord) error {
	if a == nil || !a.cfg.Enabled {
		return nil
	}

	auditDir := a.resolveDir()
	if err := os.MkdirAll(auditDir, 0755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	now := time.Now()
	rec.Timestamp = now.Format(time.RFC3339)

	fileName := fmt.Sprintf("%s-%s.jsonl", a.prefix(), now.Format("2006-01-02"))
	filePath := filepath.Join(auditDir, fileName)

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if err := appendJSONL(filePath, line); err != nil {
		return err
	}
	return a.cleanupOldFilesWithNow(now)
}

func appendJSONL(filePath string, line []byte) error {
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit file: %w", err)
	}
	return nil
}

// CleanupOldFiles prunes audit files past the retention window.
func (a *Auditor) CleanupOldFiles() error {
	auditMu.Lock()
	defer auditMu.Unlock()
	return a.cleanupOldFilesWithNow(time.Now())
}

func (a *Auditor) cleanupOldFilesWithNow(now time.Time) error {
	if !a.cfg.Enabled || a.cfg.RetentionDays <= 0 {
		return nil
	}

	auditDir := a.resolveDir()
	entries, err := os.ReadDir(auditDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("list audit dir: %w", err)
	}

	prefix := a.prefix()
	cutoff := now.AddDate(0, 0, -a.cfg.RetentionDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ".jsonl") {
			continue
		}

		filePath := filepath.Join(auditDir, name)
		fileDate, ok := parseAuditDate(name, prefix)
		if ok {
			if fileDate.Before(startOfDay(cutoff)) {
				if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove old audit file %s: %w", filePath, err)
				}
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat audit file %s: %w", filePath, err)
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove old audit file %s: %w", filePath, err)
			}
		}
	}

	return nil
}

func (a *Auditor) resolveDir() string {
	dir := a.cfg.Dir
	if dir == "" {
		dir = ".cadforge/audit"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(a.root, dir)
}

func (a *Auditor) prefix() string {
	prefix := strings.TrimSpace(a.cfg.FilePrefix)
	if prefix == "" {
		prefix = "generate"
	}
	return prefix
}

func parseAuditDate(filename, prefix string) (time.Time, bool) {
	raw := strings.TrimSuffix(filename, ".jsonl")
	raw = strings.TrimPrefix(raw, prefix+"-")
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func promptDigest(p string) string {
	sum := sha256.Sum256([]byte(p))
	return hex.EncodeToString(sum[:])
}

func taskKindName(k prompt.TaskKind) string {
	switch k {
	case prompt.TaskDocument:
		return "document"
	default:
		return "freeform"
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
