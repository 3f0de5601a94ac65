package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/finsight/lendex/core"
)

const defaultLenderPageSize = 100

// LenderLister serves pages of the lender aggregate extract.
//
// Implementations must return lenders ordered by total volume descending,
// with unreported volumes after all reported ones, so that offset
// pagination walks a stable, prioritized sequence.
type LenderLister interface {
	// CountLenders returns the total number of lenders in the extract.
	CountLenders(ctx context.Context) (int, error)

	// ListLenders returns up to limit lenders starting at offset.
	ListLenders(ctx context.Context, offset, limit int) ([]core.Lender, error)
}

// LenderSource adapts an offset-based LenderLister to the cursor-based
// Source contract. Cursors encode the next offset as a decimal string.
type LenderSource struct {
	lister   LenderLister
	pageSize int
	logger   *slog.Logger
}

// NewLenderSource creates a source over the given lister. A pageSize <= 0
// falls back to the default.
func NewLenderSource(lister LenderLister, pageSize int) *LenderSource {
	if pageSize <= 0 {
		pageSize = defaultLenderPageSize
	}
	return &LenderSource{
		lister:   lister,
		pageSize: pageSize,
		logger:   slog.Default().With("component", "lender-source"),
	}
}

// Fetch returns the page of lenders at the given cursor.
func (s *LenderSource) Fetch(ctx context.Context, cursor Cursor) (*Page[core.Lender], error) {
	offset, err := offsetFromCursor(cursor)
	if err != nil {
		return nil, err
	}

	total, err := s.lister.CountLenders(ctx)
	if err != nil {
		return nil, &FetchError{URL: "lenders", Err: err}
	}

	lenders, err := s.lister.ListLenders(ctx, offset, s.pageSize)
	if err != nil {
		return nil, &FetchError{URL: "lenders", Err: err}
	}

	s.logger.Debug("fetched lenders page", "offset", offset, "count", len(lenders), "total", total)

	next := offset + len(lenders)
	return &Page[core.Lender]{
		Records: lenders,
		Next:    Cursor(strconv.Itoa(next)),
		HasNext: next < total && len(lenders) > 0,
	}, nil
}

func offsetFromCursor(cursor Cursor) (int, error) {
	if cursor == Start {
		return 0, nil
	}
	offset, err := strconv.Atoi(string(cursor))
	if err != nil || offset < 0 {
		return 0, ErrInvalidCursor
	}
	return offset, nil
}

// csvLender pairs a lender with whether its volume was actually reported,
// which only matters for ordering.
type csvLender struct {
	lender   core.Lender
	reported bool
}

// CSVLenderLister loads a lender extract from a CSV file and serves it as
// a LenderLister. The file is read once at construction; rows are held in
// memory sorted by volume descending with unreported volumes last.
//
// Expected columns: lender_id, name, state, loan_count, total_volume,
// as_of_date. An empty total_volume marks the volume as unreported.
type CSVLenderLister struct {
	lenders []core.Lender
}

// NewCSVLenderLister reads and orders the extract at the given path.
func NewCSVLenderLister(path string) (*CSVLenderLister, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lender extract: %w", err)
	}
	defer f.Close()

	return newCSVLenderLister(f)
}

func newCSVLenderLister(r io.Reader) (*CSVLenderLister, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 6

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading lender extract header: %w", err)
	}
	if header[0] != "lender_id" {
		return nil, fmt.Errorf("unexpected lender extract header: %v", header)
	}

	var rows []csvLender
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading lender extract row: %w", err)
		}

		row, err := lenderFromFields(fields)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	// Volume descending, unreported volumes after all reported ones.
	// Ties break on lender ID to keep offset pagination stable.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].reported != rows[j].reported {
			return rows[i].reported
		}
		if rows[i].lender.TotalVolume != rows[j].lender.TotalVolume {
			return rows[i].lender.TotalVolume > rows[j].lender.TotalVolume
		}
		return rows[i].lender.LenderID < rows[j].lender.LenderID
	})

	lenders := make([]core.Lender, len(rows))
	for i, row := range rows {
		lenders[i] = row.lender
	}
	return &CSVLenderLister{lenders: lenders}, nil
}

func lenderFromFields(fields []string) (csvLender, error) {
	loanCount, err := strconv.Atoi(fields[3])
	if err != nil {
		return csvLender{}, fmt.Errorf("parsing loan_count %q: %w", fields[3], err)
	}

	var volume float64
	reported := fields[4] != ""
	if reported {
		volume, err = strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return csvLender{}, fmt.Errorf("parsing total_volume %q: %w", fields[4], err)
		}
	}

	asOf, err := time.Parse("2006-01-02", fields[5])
	if err != nil {
		return csvLender{}, fmt.Errorf("parsing as_of_date %q: %w", fields[5], err)
	}

	return csvLender{
		lender: core.Lender{
			LenderID:    fields[0],
			Name:        fields[1],
			State:       fields[2],
			LoanCount:   loanCount,
			TotalVolume: volume,
			AsOfDate:    asOf.UTC(),
		},
		reported: reported,
	}, nil
}

// CountLenders returns the total number of lenders in the extract.
func (l *CSVLenderLister) CountLenders(ctx context.Context) (int, error) {
	return len(l.lenders), nil
}

// ListLenders returns up to limit lenders starting at offset.
func (l *CSVLenderLister) ListLenders(ctx context.Context, offset, limit int) ([]core.Lender, error) {
	if offset < 0 || limit < 0 {
		return nil, ErrInvalidCursor
	}
	if offset >= len(l.lenders) {
		return nil, nil
	}
	end := offset + limit
	if end > len(l.lenders) {
		end = len(l.lenders)
	}
	page := make([]core.Lender, end-offset)
	copy(page, l.lenders[offset:end])
	return page, nil
}
