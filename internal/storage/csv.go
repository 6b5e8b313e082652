package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

var columns = []string{"timestamp", "user_id", "username", "first_name", "last_name", "intent", "message", "reply"}

// CSVLog keeps the full interaction history in a single CSV file.
// Every append is a read-modify-write of the whole file; a crash during
// the rewrite can truncate the store. This is an accepted limitation
// for the expected low message volume.
type CSVLog struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

func NewCSVLog(path string) (*CSVLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure store dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to init store file: %w", err)
	}
	_ = f.Close()
	return &CSVLog{path: path, now: time.Now}, nil
}

func (l *CSVLog) Append(rec Interaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	recs, err := l.load()
	if err != nil {
		return err
	}
	recs = append(recs, rec)
	return l.writeAll(recs)
}

func (l *CSVLog) Load() ([]Interaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *CSVLog) Statistics() (Statistics, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	recs, err := l.load()
	if err != nil {
		return Statistics{}, err
	}
	st := Statistics{Total: len(recs), ByIntent: make(map[string]int)}
	today := l.now().Format("2006-01-02")
	for _, rec := range recs {
		st.ByIntent[rec.Intent]++
		if rec.Timestamp.Format("2006-01-02") == today {
			st.Today++
		}
	}
	return st, nil
}

// Backup copies the current store to a timestamped file under dir and
// returns its path.
func (l *CSVLog) Backup(dir string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, err := os.ReadFile(l.path)
	if err != nil {
		return "", fmt.Errorf("read store: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backup dir: %w", err)
	}
	dst := filepath.Join(dir, fmt.Sprintf("requests-%s.csv", l.now().Format("20060102-150405")))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return dst, nil
}

func (l *CSVLog) load() ([]Interaction, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}

	var recs []Interaction
	for i, row := range rows {
		if len(row) != len(columns) {
			continue
		}
		if i == 0 && row[0] == columns[0] {
			continue
		}
		rec, err := parseRow(row)
		if err != nil {
			// A malformed row is skipped rather than wedging the bot.
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (l *CSVLog) writeAll(recs []Interaction) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open store for rewrite: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range recs {
		row := []string{
			rec.Timestamp.Format(timeLayout),
			strconv.FormatInt(rec.UserID, 10),
			rec.Username,
			rec.FirstName,
			rec.LastName,
			rec.Intent,
			rec.Message,
			rec.Reply,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush store: %w", err)
	}
	return nil
}

func parseRow(row []string) (Interaction, error) {
	ts, err := time.ParseInLocation(timeLayout, row[0], time.Local)
	if err != nil {
		return Interaction{}, fmt.Errorf("bad timestamp %q: %w", row[0], err)
	}
	uid, err := strconv.ParseInt(row[1], 10, 64)
	if err != nil {
		return Interaction{}, fmt.Errorf("bad user_id %q: %w", row[1], err)
	}
	return Interaction{
		Timestamp: ts,
		UserID:    uid,
		Username:  row[2],
		FirstName: row[3],
		LastName:  row[4],
		Intent:    row[5],
		Message:   row[6],
		Reply:     row[7],
	}, nil
}
