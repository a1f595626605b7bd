package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"diorder/internal/domain"
)

type MenuWriter interface {
	Upsert(ctx context.Context, item domain.MenuItem) error
}

// CSVImporter reads a menu spreadsheet export and inserts/updates menu items.
// Item rows carry the name and price; continuation rows with an empty name
// attach configurable options to the item above them.
type CSVImporter struct {
	reader   *csv.Reader
	menuRepo MenuWriter
}

func NewCSVImporter(r io.Reader, repo MenuWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:   csvr,
		menuRepo: repo,
	}
}

type csvRow struct {
	MerchantID  int64
	Name        string
	Price       int64
	Category    string
	Image       string
	GroupTitle  string
	GroupType   string
	OptionName  string
	OptionExtra int64
}

// Run parses CSV rows and upserts menu items grouped by item row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var (
		current  *domain.MenuItem
		imported int
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}

		if row.Name != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = &domain.MenuItem{
				MerchantID: row.MerchantID,
				Name:       row.Name,
				Price:      row.Price,
				Image:      row.Image,
				Category:   row.Category,
				IsActive:   true,
			}
			if row.OptionName != "" {
				attachOption(current, row)
			}
			continue
		}

		// Continuation rows (options) belong to the current item.
		if current != nil && row.OptionName != "" {
			attachOption(current, row)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, item *domain.MenuItem) error {
	if item.MerchantID == 0 || item.Name == "" || item.Price <= 0 {
		return fmt.Errorf("invalid menu row (missing required fields) for %q", item.Name)
	}
	if err := i.menuRepo.Upsert(ctx, *item); err != nil {
		return fmt.Errorf("upsert menu item %q: %w", item.Name, err)
	}
	return nil
}

// attachOption appends one option to the named group, creating the group on
// first sight. The group type is fixed by its first row.
func attachOption(item *domain.MenuItem, row *csvRow) {
	groupID := slug(row.GroupTitle)
	option := domain.Option{
		ID:         slug(row.OptionName),
		Name:       row.OptionName,
		ExtraPrice: row.OptionExtra,
	}

	for gi := range item.OptionGroups {
		if item.OptionGroups[gi].ID == groupID {
			item.OptionGroups[gi].Options = append(item.OptionGroups[gi].Options, option)
			return
		}
	}

	item.OptionGroups = append(item.OptionGroups, domain.OptionGroup{
		ID:      groupID,
		Title:   row.GroupTitle,
		Type:    groupType(row.GroupType),
		Options: []domain.Option{option},
	})
}

func groupType(s string) domain.OptionGroupType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single_optional":
		return domain.SingleOptional
	case "multiple_optional", "multiple":
		return domain.MultipleOptional
	default:
		return domain.SingleRequired
	}
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "_")
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[h] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	name := pick(record, index, "name")
	optionName := pick(record, index, "option.name")
	if name == "" && optionName == "" {
		return nil
	}

	merchantID, _ := strconv.ParseInt(pick(record, index, "merchant_id"), 10, 64)
	price, _ := strconv.ParseInt(pick(record, index, "price"), 10, 64)
	extra, _ := strconv.ParseInt(pick(record, index, "option.extra"), 10, 64)

	return &csvRow{
		MerchantID:  merchantID,
		Name:        name,
		Price:       price,
		Category:    pick(record, index, "category"),
		Image:       pick(record, index, "image"),
		GroupTitle:  pick(record, index, "option.group"),
		GroupType:   pick(record, index, "option.type"),
		OptionName:  optionName,
		OptionExtra: extra,
	}
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
