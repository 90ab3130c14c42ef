package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Snapshotter records a snapshot of a sheet file after each write. The CSV
// store uses it for the optional git mirror; nil disables snapshots.
type Snapshotter interface {
	Commit(relPath, message string) error
}

// CSVStore keeps one CSV file per sheet under a base directory. It is the
// local variant of the backing store; a missing file reads as an empty table
// until EnsureHeader creates it.
type CSVStore struct {
	baseDir string
	mirror  Snapshotter

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewCSVStore(baseDir string, mirror Snapshotter) (*CSVStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create sheet dir: %v", ErrStoreUnavailable, err)
	}
	return &CSVStore{
		baseDir: baseDir,
		mirror:  mirror,
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

func (s *CSVStore) sheetLock(sheet string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[sheet]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sheet] = lock
	}
	return lock
}

func (s *CSVStore) fileName(sheet string) string {
	return sheet + ".csv"
}

func (s *CSVStore) path(sheet string) string {
	return filepath.Join(s.baseDir, s.fileName(sheet))
}

func (s *CSVStore) readRecords(sheet string) ([][]string, error) {
	file, err := os.Open(s.path(sheet))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, sheet, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrStoreUnavailable, sheet, err)
	}
	return records, nil
}

func (s *CSVStore) writeRecords(sheet string, records [][]string) error {
	tmp := s.path(sheet) + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrWriteFailed, sheet, err)
	}
	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: write %s: %v", ErrWriteFailed, sheet, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: flush %s: %v", ErrWriteFailed, sheet, err)
	}
	if err := os.Rename(tmp, s.path(sheet)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: replace %s: %v", ErrWriteFailed, sheet, err)
	}
	return nil
}

func (s *CSVStore) snapshot(sheet, message string) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Commit(s.fileName(sheet), message); err != nil {
		// The write itself succeeded; a failed snapshot only loses audit
		// granularity, so log and continue.
		log.Printf("sheet: mirror snapshot %s: %v", sheet, err)
	}
}

func (s *CSVStore) ReadAll(ctx context.Context, sheet string) (Table, error) {
	lock := s.sheetLock(sheet)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.readRecords(sheet)
	if err != nil {
		return Table{}, err
	}
	if len(records) == 0 {
		return Table{}, nil
	}
	return Table{Header: records[0], Rows: records[1:]}, nil
}

func (s *CSVStore) EnsureHeader(ctx context.Context, sheet string, header []string) error {
	lock := s.sheetLock(sheet)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.readRecords(sheet)
	if err != nil {
		return err
	}
	if len(records) > 0 && HeaderMatches(records[0], header) {
		return nil
	}
	if len(records) == 0 {
		records = [][]string{header}
	} else {
		records[0] = header
	}
	if err := s.writeRecords(sheet, records); err != nil {
		return err
	}
	s.snapshot(sheet, "Rewrite header for "+sheet)
	return nil
}

func (s *CSVStore) Append(ctx context.Context, sheet string, row []string) error {
	lock := s.sheetLock(sheet)
	lock.Lock()
	defer lock.Unlock()

	file, err := os.OpenFile(s.path(sheet), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrWriteFailed, sheet, err)
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(row); err != nil {
		file.Close()
		return fmt.Errorf("%w: append %s: %v", ErrWriteFailed, sheet, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return fmt.Errorf("%w: append %s: %v", ErrWriteFailed, sheet, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: flush %s: %v", ErrWriteFailed, sheet, err)
	}
	s.snapshot(sheet, "Append row to "+sheet)
	return nil
}

func (s *CSVStore) Overwrite(ctx context.Context, sheet string, position int, row []string) error {
	lock := s.sheetLock(sheet)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.readRecords(sheet)
	if err != nil {
		return err
	}
	if position < 1 || position > len(records) {
		return fmt.Errorf("%w: %s row %d out of range", ErrWriteFailed, sheet, position)
	}
	records[position-1] = row
	if err := s.writeRecords(sheet, records); err != nil {
		return err
	}
	s.snapshot(sheet, fmt.Sprintf("Overwrite row %d in %s", position, sheet))
	return nil
}
