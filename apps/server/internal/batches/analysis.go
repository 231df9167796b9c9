package batches

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/tilsley/hgraph/apps/server/internal/batches/derived"
	"github.com/tilsley/hgraph/pkg/api"
)

// Image categories under the upload root.
const (
	CategorySEM = "sem_images"
	CategoryTEM = "tem_images"
)

// Upload is one file received for an analysis.
type Upload struct {
	Filename string
	Content  io.Reader
}

// CreateAnalysis records a measurement set against an existing graphene
// batch. Conductivity is stored in S/m.
func (s *Service) CreateAnalysis(ctx context.Context, in api.AnalysisResultInput) (*api.AnalysisResult, error) {
	a, err := s.insertAnalysis(ctx, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return a, nil
}

func (s *Service) insertAnalysis(ctx context.Context, in api.AnalysisResultInput) (*api.AnalysisResult, error) {
	if in.DateAnalyzed == nil {
		return nil, ValidationError{Field: "date_analyzed", Message: "is required"}
	}
	g, err := s.store.GetGraphene(ctx, in.GrapheneBatchID)
	if err != nil {
		return nil, fmt.Errorf("get graphene batch %q: %w", in.GrapheneBatchID, err)
	}
	if g == nil {
		return nil, NotFoundError{Resource: ResourceGraphene, ID: in.GrapheneBatchID}
	}

	a := api.AnalysisResult{
		ID:               uuid.New().String(),
		GrapheneBatchID:  in.GrapheneBatchID,
		DateAnalyzed:     *in.DateAnalyzed,
		BETSurfaceArea:   in.BETSurfaceArea,
		BETLangmuir:      in.BETLangmuir,
		ConductivityUnit: derived.UnitSiemensPerMetre,
		Capacitance:      in.Capacitance,
		PoreSize:         in.PoreSize,
		AnalysisMethod:   in.AnalysisMethod,
		Instrument:       in.Instrument,
		Analyst:          in.Analyst,
		SEMImages:        append([]string{}, in.SEMImages...),
		TEMImages:        append([]string{}, in.TEMImages...),
		Reports:          append([]string{}, in.Reports...),
		Comments:         in.Comments,
		CreatedAt:        s.now().UTC(),
	}
	if in.Conductivity != nil {
		unit := in.ConductivityUnit
		if unit == "" {
			unit = derived.UnitSiemensPerMetre
		}
		v, err := derived.ToSiemensPerMetre(*in.Conductivity, unit)
		if err != nil {
			return nil, ValidationError{Field: "conductivity_unit", Message: err.Error()}
		}
		a.Conductivity = &v
	}
	derived.ApplyAnalysis(&a)

	if err := s.store.CreateAnalysis(ctx, a); err != nil {
		return nil, fmt.Errorf("create analysis: %w", err)
	}
	s.analysesCreated.Add(ctx, 1)
	return &a, nil
}

// GetAnalysis returns an analysis result with its energy-storage grade.
func (s *Service) GetAnalysis(ctx context.Context, id string) (*api.AnalysisResult, error) {
	a, err := s.store.GetAnalysis(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get analysis %q: %w", id, err)
	}
	if a == nil {
		return nil, NotFoundError{Resource: ResourceAnalysis, ID: id}
	}
	derived.ApplyAnalysis(a)
	return a, nil
}

// ListAnalyses returns the graded analyses of one graphene batch, most
// recent first.
func (s *Service) ListAnalyses(ctx context.Context, batchID string) ([]api.AnalysisResult, error) {
	g, err := s.store.GetGraphene(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("get graphene batch %q: %w", batchID, err)
	}
	if g == nil {
		return nil, NotFoundError{Resource: ResourceGraphene, ID: batchID}
	}
	list, err := s.store.ListAnalysesByBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("list analyses for %q: %w", batchID, err)
	}
	for i := range list {
		derived.ApplyAnalysis(&list[i])
	}
	return list, nil
}

// DeleteAnalysis removes an analysis result.
func (s *Service) DeleteAnalysis(ctx context.Context, id string) error {
	if err := s.store.DeleteAnalysis(ctx, id); err != nil {
		return fmt.Errorf("delete analysis %q: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

// UploadImages stores SEM and TEM images and attaches their paths to an
// analysis. Uploads without a filename are ignored.
func (s *Service) UploadImages(ctx context.Context, analysisID string, sem, tem []Upload) (*api.UploadResult, error) {
	a, err := s.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("get analysis %q: %w", analysisID, err)
	}
	if a == nil {
		return nil, NotFoundError{Resource: ResourceAnalysis, ID: analysisID}
	}

	semPaths, err := s.saveImages(ctx, CategorySEM, sem)
	if err != nil {
		return nil, err
	}
	temPaths, err := s.saveImages(ctx, CategoryTEM, tem)
	if err != nil {
		s.removeImages(ctx, semPaths)
		return nil, err
	}
	if err := s.store.AppendAnalysisImages(ctx, analysisID, semPaths, temPaths); err != nil {
		s.removeImages(ctx, semPaths)
		s.removeImages(ctx, temPaths)
		return nil, fmt.Errorf("attach images to %q: %w", analysisID, err)
	}
	s.log.Info("images uploaded", "analysis", analysisID, "sem", len(semPaths), "tem", len(temPaths))
	return &api.UploadResult{
		Message:  "Images uploaded successfully",
		SEMCount: len(semPaths),
		TEMCount: len(temPaths),
	}, nil
}

func (s *Service) saveImages(ctx context.Context, category string, uploads []Upload) ([]string, error) {
	paths := make([]string, 0, len(uploads))
	for _, u := range uploads {
		if u.Filename == "" {
			continue
		}
		p, err := s.files.SaveImage(ctx, category, u.Filename, u.Content)
		if err != nil {
			s.removeImages(ctx, paths)
			return nil, fmt.Errorf("save %s %q: %w", category, u.Filename, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// removeImages deletes files written by a request that did not complete.
func (s *Service) removeImages(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.files.Remove(context.WithoutCancel(ctx), p); err != nil {
			s.log.Warn("remove orphaned upload", "path", p, "error", err)
		}
	}
}

// Grade classifies a BET value for an application. An empty application
// means supercapacitor.
func (s *Service) Grade(application string, bet float64) (*api.GradeResponse, error) {
	app, err := derived.ParseApplication(application)
	if err != nil {
		return nil, ValidationError{Field: "application", Message: err.Error()}
	}
	grade, err := derived.GradeFor(app, &bet)
	if err != nil {
		return nil, ValidationError{Field: "application", Message: err.Error()}
	}
	return &api.GradeResponse{
		Application: string(app),
		BET:         bet,
		Grade:       grade,
		Thresholds:  derived.BETTargets[app].Thresholds(),
	}, nil
}
