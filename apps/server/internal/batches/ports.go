package batches

import (
	"context"
	"io"

	"github.com/tilsley/hgraph/pkg/api"
)

// Page bounds for list endpoints.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page is an offset/limit window. A non-positive Limit means no limit.
type Page struct {
	Skip  int
	Limit int
}

// Normalize applies the default and maximum limit.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// BiocharFilter narrows a biochar listing.
type BiocharFilter struct {
	Page
	Oven     string
	Operator string
}

// GrapheneFilter narrows a graphene listing. Results are newest first.
type GrapheneFilter struct {
	Page
	Oven        string
	Species     *int
	ShippedOnly bool
	OvenCEra    *bool
}

// Store persists batches, analyses and the reference records around them.
// Get* methods return nil, nil when the record does not exist; Update* and
// Delete* return a NotFoundError.
type Store interface {
	CreateBiochar(ctx context.Context, b api.BiocharBatch) error
	GetBiochar(ctx context.Context, id string) (*api.BiocharBatch, error)
	GetBiocharByName(ctx context.Context, name string) (*api.BiocharBatch, error)
	ListBiochar(ctx context.Context, f BiocharFilter) ([]api.BiocharBatch, error)
	UpdateBiochar(ctx context.Context, b api.BiocharBatch) error
	DeleteBiochar(ctx context.Context, id string) error

	CreateGraphene(ctx context.Context, g api.GrapheneBatch) error
	GetGraphene(ctx context.Context, id string) (*api.GrapheneBatch, error)
	GetGrapheneByName(ctx context.Context, name string) (*api.GrapheneBatch, error)
	ListGraphene(ctx context.Context, f GrapheneFilter) ([]api.GrapheneBatch, error)
	UpdateGraphene(ctx context.Context, g api.GrapheneBatch) error
	DeleteGraphene(ctx context.Context, id string) error

	CreateAnalysis(ctx context.Context, a api.AnalysisResult) error
	GetAnalysis(ctx context.Context, id string) (*api.AnalysisResult, error)
	ListAnalysesByBatch(ctx context.Context, batchID string) ([]api.AnalysisResult, error)
	ListAnalysesByBatches(ctx context.Context, batchIDs []string) (map[string][]api.AnalysisResult, error)
	ListAnalyses(ctx context.Context) ([]api.AnalysisResult, error)
	AppendAnalysisImages(ctx context.Context, id string, sem, tem []string) error
	DeleteAnalysis(ctx context.Context, id string) error

	CreateMilestone(ctx context.Context, m api.Milestone) error
	ListMilestones(ctx context.Context) ([]api.Milestone, error)
	CreateEquipment(ctx context.Context, e api.Equipment) error
	ListEquipment(ctx context.Context) ([]api.Equipment, error)

	BatchPerformance(ctx context.Context) ([]api.BatchPerformance, error)
	Ping(ctx context.Context) error
}

// Cache holds serialised dashboard aggregates between writes. Entries are
// stored per generation; Invalidate starts a new one, so a value computed
// before a write and stored after it is never read.
type Cache interface {
	// Generation returns the current generation.
	Generation(ctx context.Context) (int64, error)
	// Get decodes the value stored under key for gen into dst and reports whether it was present.
	Get(ctx context.Context, gen int64, key string, dst any) (bool, error)
	Set(ctx context.Context, gen int64, key string, value any) error
	// Invalidate advances the generation and drops every cached aggregate.
	Invalidate(ctx context.Context) error
}

// FileStore keeps uploaded analysis attachments. Save returns the stored
// path; content that is not an image fails with ErrUnsupportedMedia.
type FileStore interface {
	SaveImage(ctx context.Context, category, filename string, r io.Reader) (string, error)
	// Remove deletes a path returned by SaveImage. A missing file is not an error.
	Remove(ctx context.Context, path string) error
}

// NopCache is a Cache that never holds anything.
type NopCache struct{}

// Generation implements Cache.
func (NopCache) Generation(context.Context) (int64, error) { return 0, nil }

// Get implements Cache.
func (NopCache) Get(context.Context, int64, string, any) (bool, error) { return false, nil }

// Set implements Cache.
func (NopCache) Set(context.Context, int64, string, any) error { return nil }

// Invalidate implements Cache.
func (NopCache) Invalidate(context.Context) error { return nil }
