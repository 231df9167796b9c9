package batches

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/tilsley/hgraph/apps/server/internal/batches/ingest"
	"github.com/tilsley/hgraph/pkg/api"
)

// Import creates records from the rows of a spreadsheet. Rows are
// independent: a failing row is reported in the result and the remaining
// rows are still imported. Missing dates default to today.
func (s *Service) Import(ctx context.Context, dt ingest.DataType, tbl *ingest.Table) (*api.ImportResult, error) {
	ctx, span := otel.Tracer(instrName).Start(ctx, "Import",
		trace.WithAttributes(
			attribute.String("import.data_type", string(dt)),
			attribute.Int("import.rows", tbl.Len()),
		),
	)
	defer span.End()

	res := &api.ImportResult{
		Message:   "Import completed",
		Errors:    []string{},
		TotalRows: tbl.Len(),
	}
	for i := range tbl.Len() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		warnings, err := s.importRow(ctx, dt, i, tbl.Row(i))
		res.Errors = append(res.Errors, warnings...)
		outcome := "imported"
		if err != nil {
			outcome = "failed"
			res.Errors = append(res.Errors, rowError(i, err).Error())
		} else {
			res.ImportedCount++
		}
		s.importRows.Add(ctx, 1, metric.WithAttributes(
			attribute.String("data_type", string(dt)),
			attribute.String("outcome", outcome),
		))
	}
	if res.ImportedCount > 0 {
		s.invalidate(ctx)
	}

	s.log.Info("import completed",
		"dataType", dt,
		"imported", res.ImportedCount,
		"errors", len(res.Errors),
		"rows", res.TotalRows,
	)
	return res, nil
}

func (s *Service) importRow(ctx context.Context, dt ingest.DataType, i int, row ingest.Row) ([]string, error) {
	switch dt {
	case ingest.Biochar:
		in, err := ingest.BiocharFromRow(i, row)
		if err != nil {
			return nil, err
		}
		if in.DateCreated == nil {
			today := s.today()
			in.DateCreated = &today
		}
		_, err = s.insertBiochar(ctx, in)
		return nil, err

	case ingest.Graphene:
		g, err := ingest.GrapheneFromRow(i, row)
		if err != nil {
			return nil, err
		}
		dated := g.Input.DateCreated != nil
		if !dated {
			today := s.today()
			g.Input.DateCreated = &today
		}
		ids, warnings, err := s.resolveLots(ctx, i, g.Lots)
		if err != nil {
			return nil, err
		}
		g.Input.ParentBiocharIDs = ids
		_, err = s.insertGraphene(ctx, g.Input, dated)
		return warnings, err

	case ingest.Analysis:
		a, err := ingest.AnalysisFromRow(i, row)
		if err != nil {
			return nil, err
		}
		batch, err := s.store.GetGrapheneByName(ctx, a.BatchName)
		if err != nil {
			return nil, fmt.Errorf("find graphene batch %q: %w", a.BatchName, err)
		}
		if batch == nil {
			return nil, ingest.RowError{Row: i, Reason: fmt.Sprintf("Batch %s not found", a.BatchName)}
		}
		a.Input.GrapheneBatchID = batch.ID
		if a.Input.DateAnalyzed == nil {
			today := s.today()
			a.Input.DateAnalyzed = &today
		}
		_, err = s.insertAnalysis(ctx, a.Input)
		return nil, err

	default:
		return nil, ingest.ErrInvalidDataType
	}
}

// resolveLots maps biochar batch names to IDs. Unknown lots become warnings.
func (s *Service) resolveLots(ctx context.Context, i int, lots []string) ([]string, []string, error) {
	var (
		ids      []string
		warnings []string
	)
	for _, lot := range lots {
		b, err := s.store.GetBiocharByName(ctx, lot)
		if err != nil {
			return nil, nil, fmt.Errorf("find biochar batch %q: %w", lot, err)
		}
		if b == nil {
			warnings = append(warnings, ingest.RowError{
				Row:    i,
				Reason: fmt.Sprintf("Lot %s not found, batch imported without it", lot),
			}.Error())
			continue
		}
		ids = append(ids, b.ID)
	}
	return ids, warnings, nil
}

func rowError(i int, err error) error {
	var re ingest.RowError
	if errors.As(err, &re) {
		return re
	}
	return ingest.RowError{Row: i, Reason: err.Error()}
}
