package recorder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"RateSentinel/internal/model"
)

var csvHeader = []string{"date", "rate", "source"}

// CSVStore keeps the log as a flat CSV file with header date,rate,source.
// Every read and write holds a file lock on <path>.lock, so concurrent
// processes never interleave rows.
type CSVStore struct {
	path string
	lock *flock.Flock
}

// NewCSVStore returns a store for path. Nothing is touched until first use.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the backing file.
func (s *CSVStore) Path() string { return s.path }

// EnsureInitialized creates the file with its header if it does not exist yet.
func (s *CSVStore) EnsureInitialized() error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock store: %w", err)
	}
	defer s.lock.Unlock()
	return s.ensureLocked()
}

func (s *CSVStore) ensureLocked() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	if err := atomicWriteCSV(s.path, [][]string{csvHeader}); err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	log.Info().Str("path", s.path).Msg("created rate store")
	return nil
}

// Append writes one row and syncs it to disk.
func (s *CSVStore) Append(obs model.Observation) error {
	if err := validate(obs); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock store: %w", err)
	}
	defer s.lock.Unlock()
	if err := s.ensureLocked(); err != nil {
		return err
	}
	return s.appendRows([]model.Observation{obs})
}

// AppendRange writes the observations newer than the latest stored date and
// reports how many rows were added.
func (s *CSVStore) AppendRange(obs []model.Observation) (int, error) {
	for _, o := range obs {
		if err := validate(o); err != nil {
			return 0, err
		}
	}
	if err := s.lock.Lock(); err != nil {
		return 0, fmt.Errorf("lock store: %w", err)
	}
	defer s.lock.Unlock()
	if err := s.ensureLocked(); err != nil {
		return 0, err
	}

	current, err := s.readLocked()
	if err != nil {
		return 0, err
	}
	fresh := newerThan(model.BuildSeries(current).MaxDate(), obs)
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := s.appendRows(fresh); err != nil {
		return 0, err
	}
	return len(fresh), nil
}

// Load reads the whole log into a deduplicated, ascending series.
// Unparsable rows fail with model.ErrCorruptStore.
func (s *CSVStore) Load() (model.TimeSeries, error) {
	if err := s.lock.RLock(); err != nil {
		return model.TimeSeries{}, fmt.Errorf("lock store: %w", err)
	}
	defer s.lock.Unlock()
	obs, err := s.readLocked()
	if err != nil {
		return model.TimeSeries{}, err
	}
	return model.BuildSeries(obs), nil
}

// Close releases the lock file handle.
func (s *CSVStore) Close() error { return s.lock.Close() }

func (s *CSVStore) appendRows(obs []model.Observation) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	w := csv.NewWriter(f)
	for _, o := range obs {
		if err := w.Write([]string{o.Date.Format(model.DateLayout), o.Rate.String(), sourceOrUnknown(o.Source)}); err != nil {
			f.Close()
			return fmt.Errorf("write store: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write store: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync store: %w", err)
	}
	return f.Close()
}

// readLocked returns the rows in append order. A missing file is an empty log.
func (s *CSVStore) readLocked() ([]model.Observation, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([]model.Observation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", model.ErrCorruptStore, err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	dateIdx, okDate := col["date"]
	rateIdx, okRate := col["rate"]
	if !okDate || !okRate {
		return nil, fmt.Errorf("%w: header %v lacks date/rate", model.ErrCorruptStore, header)
	}
	srcIdx, hasSource := col["source"]

	var out []model.Observation
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", model.ErrCorruptStore, line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) <= dateIdx || len(rec) <= rateIdx {
			return nil, fmt.Errorf("%w: line %d: %d fields", model.ErrCorruptStore, line, len(rec))
		}
		d, err := model.ParseDay(strings.TrimSpace(rec[dateIdx]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad date %q", model.ErrCorruptStore, line, rec[dateIdx])
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(rec[rateIdx]))
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("%w: line %d: bad rate %q", model.ErrCorruptStore, line, rec[rateIdx])
		}
		source := model.UnknownSource
		if hasSource && len(rec) > srcIdx && strings.TrimSpace(rec[srcIdx]) != "" {
			source = strings.TrimSpace(rec[srcIdx])
		}
		out = append(out, model.Observation{Date: d, Rate: rate, Source: source})
	}
	return out, nil
}

func atomicWriteCSV(path string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*.csv")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
