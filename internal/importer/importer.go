package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fooddirect/internal/domain"
)

type MenuWriter interface {
	CreateSection(ctx context.Context, s domain.MenuSection) (*domain.MenuSection, error)
	ListSections(ctx context.Context, activeOnly bool) ([]domain.MenuSection, error)
	CreateItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
}

// CSVImporter reads a menu export and inserts sections and items. Sections
// are matched by name; existing sections are reused, items are always
// inserted.
type CSVImporter struct {
	reader *csv.Reader
	menu   MenuWriter
}

func NewCSVImporter(r io.Reader, menu MenuWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader: csvr,
		menu:   menu,
	}
}

type csvRow struct {
	Section     string
	SectionSort int
	Name        string
	Desc        string
	Cents       int64
	ImageURL    string
	Sort        int
	Available   bool
}

// Run parses CSV rows and inserts menu items, creating sections as needed.
// Returns the number of items imported.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	sections, err := i.loadSections(ctx)
	if err != nil {
		return 0, err
	}

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row, err := parseRow(record, index)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}

		sectionID, ok := sections[strings.ToLower(row.Section)]
		if !ok {
			created, err := i.menu.CreateSection(ctx, domain.MenuSection{
				Name:      row.Section,
				SortOrder: row.SectionSort,
				Active:    true,
			})
			if err != nil {
				return imported, fmt.Errorf("create section %q: %w", row.Section, err)
			}
			sectionID = created.ID
			sections[strings.ToLower(row.Section)] = sectionID
		}

		_, err = i.menu.CreateItem(ctx, domain.MenuItem{
			SectionID:   sectionID,
			Name:        row.Name,
			Description: row.Desc,
			PriceCents:  row.Cents,
			ImageURL:    row.ImageURL,
			Available:   row.Available,
			SortOrder:   row.Sort,
		})
		if err != nil {
			return imported, fmt.Errorf("create item %q: %w", row.Name, err)
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) loadSections(ctx context.Context) (map[string]string, error) {
	existing, err := i.menu.ListSections(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	sections := make(map[string]string, len(existing))
	for _, s := range existing {
		sections[strings.ToLower(s.Name)] = s.ID
	}
	return sections, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*csvRow, error) {
	section := pick(record, index, "section")
	name := pick(record, index, "name")
	if section == "" && name == "" {
		return nil, nil
	}
	if section == "" || name == "" {
		return nil, fmt.Errorf("row missing section or item name: %v", record)
	}

	centStr := pick(record, index, "price_cents")
	cents, err := strconv.ParseInt(centStr, 10, 64)
	if err != nil || cents < 0 {
		return nil, fmt.Errorf("invalid price for item %q: %q", name, centStr)
	}

	row := &csvRow{
		Section:   section,
		Name:      name,
		Desc:      pick(record, index, "description"),
		Cents:     cents,
		ImageURL:  pick(record, index, "image_url"),
		Available: true,
	}
	if v := pick(record, index, "section_sort"); v != "" {
		row.SectionSort, _ = strconv.Atoi(v)
	}
	if v := pick(record, index, "sort"); v != "" {
		row.Sort, _ = strconv.Atoi(v)
	}
	if v := pick(record, index, "available"); v != "" {
		avail, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid available flag for item %q: %q", name, v)
		}
		row.Available = avail
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
