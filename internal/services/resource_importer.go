package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"resource-system/internal/dto"
	"resource-system/pkg/constants"
	apperrors "resource-system/pkg/errors"
)

const resourceImportContext = "resource_import"

// ImportRowError describes a spreadsheet row that was not imported.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportReport struct {
	Sheet   string           `json:"sheet"`
	Created int              `json:"created"`
	Skipped int              `json:"skipped"`
	Errors  []ImportRowError `json:"errors"`
}

type ResourceImporterInterface interface {
	Import(ctx context.Context, file io.Reader) (*ImportReport, error)
}

// ResourceImporter loads resources from an inventory workbook. Rows go
// through ResourceService.Create so the usual permission checks apply.
type ResourceImporter struct {
	resources ResourceServiceInterface
	logger    *zap.Logger
}

func NewResourceImporter(resources ResourceServiceInterface, logger *zap.Logger) ResourceImporterInterface {
	return &ResourceImporter{resources: resources, logger: logger.Named("resource_import")}
}

// importColumns maps a lower-cased header to its column index.
type importColumns map[string]int

func (c importColumns) get(row []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// findHeader returns the first row on any sheet that names both a name and a
// type column.
func findHeader(f *excelize.File) (string, [][]string, int, importColumns, error) {
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", nil, 0, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for rIdx, row := range rows {
			cols := importColumns{}
			for cIdx, cell := range row {
				key := strings.ToLower(strings.TrimSpace(cell))
				if key != "" {
					cols[key] = cIdx
				}
			}
			_, hasName := cols["name"]
			_, hasType := cols["type"]
			if hasName && hasType {
				return sheet, rows, rIdx, cols, nil
			}
		}
	}
	return "", nil, 0, nil, apperrors.NewBadRequestError("Header row with Name and Type columns not found")
}

func (s *ResourceImporter) Import(ctx context.Context, file io.Reader) (*ImportReport, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "File is not a valid xlsx workbook", err)
	}
	defer f.Close()

	sheet, rows, headerRow, cols, err := findHeader(f)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{Sheet: sheet, Errors: []ImportRowError{}}
	for i := headerRow + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := rows[i]
		lineNum := i + 1

		payload, ok, err := rowToResource(cols, row)
		if !ok {
			report.Skipped++
			continue
		}
		if err != nil {
			report.Errors = append(report.Errors, ImportRowError{Row: lineNum, Message: err.Error()})
			continue
		}

		if _, err := s.resources.Create(ctx, payload); err != nil {
			report.Errors = append(report.Errors, ImportRowError{Row: lineNum, Message: importErrorMessage(err)})
			continue
		}
		report.Created++
	}

	s.logger.Info("inventory imported",
		zap.String("sheet", sheet),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Errors)))
	return report, nil
}

// rowToResource returns ok=false for blank rows.
func rowToResource(cols importColumns, row []string) (dto.CreateResourceDTO, bool, error) {
	name := cols.get(row, "name")
	if name == "" {
		return dto.CreateResourceDTO{}, false, nil
	}

	payload := dto.CreateResourceDTO{
		Name:        name,
		Description: cols.get(row, "description"),
		Type:        strings.ToLower(cols.get(row, "type")),
		Category:    strings.ToLower(cols.get(row, "category")),
		Department:  cols.get(row, "department"),
		Location: dto.LocationDTO{
			Building: cols.get(row, "building"),
			Room:     cols.get(row, "room"),
		},
	}
	if payload.Category == "" {
		payload.Category = constants.CategoryGeneral
	}
	if !constants.IsValidResourceType(payload.Type) {
		return payload, true, fmt.Errorf("unknown type %q", payload.Type)
	}
	if !constants.IsValidResourceCategory(payload.Category) {
		return payload, true, fmt.Errorf("unknown category %q", payload.Category)
	}
	if status := strings.ToLower(cols.get(row, "status")); status != "" {
		if !constants.IsValidResourceStatus(status) || status == constants.ResourceStatusReserved {
			return payload, true, fmt.Errorf("status %q cannot be imported", status)
		}
		payload.Status = null.StringFrom(status)
	}
	if raw := cols.get(row, "quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil || q < 0 {
			return payload, true, fmt.Errorf("invalid quantity %q", raw)
		}
		payload.Quantity = null.IntFrom(q)
	}
	return payload, true, nil
}

func importErrorMessage(err error) string {
	var httpErr *apperrors.HttpError
	switch {
	case errors.As(err, &httpErr) && httpErr.Kind != apperrors.KindInternal:
		return httpErr.Message
	case apperrors.KindOf(err) == apperrors.KindInternal:
		return "internal error"
	}
	return err.Error()
}
