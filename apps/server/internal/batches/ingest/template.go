package ingest

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/tilsley/hgraph/pkg/api"
)

type templateColumn struct {
	header string
	values []any
}

var templates = map[DataType][]templateColumn{
	Graphene: {
		{colExperiment, []any{"MRa445", "MRa440", "TB1175B"}},
		{colOven, []any{"C", "C", "C"}},
		{colSpecies, []any{"Species 1", "Species 1", "Species 1"}},
		{colTempRate, []any{"800°C", "800°C", "800°C"}},
		{colTime, []any{"1h", "1h", "1h"}},
		{colOutput, []any{"14.2g", "23.3g", "739g"}},
		{colAppearance, []any{"black/grey brittle", "black/grey brittle", "black/grey brittle"}},
	},
	Biochar: {
		{colExperiment, []any{"MB3047", "MB3042", "MB3039"}},
		{colReactor, []any{"AV5", "AV5", "AV5"}},
		{colTemp, []any{"180°C", "180°C", "180°C"}},
		{colTime, []any{"24h", "24h", "24h"}},
		{colRawMaterial, []any{"80g", "80g", "80g"}},
		{colOutput, []any{"22.7g", "20.2g", "19.1g"}},
	},
	Analysis: {
		{colSample, []any{"MRa445", "MRa440", "TB1175B"}},
		{colBET, []any{1650, 1625, 1839}},
		{colLangmuir, []any{1677, 1650, 1850}},
		{colConductivity, []any{0.137, 0.137, 0.134}},
	},
}

// Template returns the example layout for dt.
func Template(dt DataType) (api.ImportTemplate, error) {
	cols, ok := templates[dt]
	if !ok {
		return api.ImportTemplate{}, ErrInvalidDataType
	}
	t := api.ImportTemplate{
		Columns:  make([]string, 0, len(cols)),
		Template: make(map[string][]any, len(cols)),
		Filename: fmt.Sprintf("hgraph2_%s_template.csv", dt),
	}
	for _, c := range cols {
		t.Columns = append(t.Columns, c.header)
		t.Template[c.header] = c.values
	}
	return t, nil
}

// WriteCSV renders a template as a CSV file in column order.
func WriteCSV(w io.Writer, t api.ImportTemplate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rows := 0
	for _, c := range t.Columns {
		rows = max(rows, len(t.Template[c]))
	}
	for i := range rows {
		rec := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			if vals := t.Template[c]; i < len(vals) {
				rec[j] = fmt.Sprint(vals[i])
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
