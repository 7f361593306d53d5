package mediastorage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vortechron/go-mediastorage/storage"
)

// PlanRequest carries everything the planner needs to pick a target
// location for one file.
type PlanRequest struct {
	OwnerTable            string
	CollectionName        string
	OriginalName          string
	TransliterationLocale string
	AllowOverwrite        bool

	// Reserved holds full paths already claimed earlier in the same
	// batch, before their files hit storage.
	Reserved map[string]struct{}
}

// PlannedPath is a collision-free target location.
type PlannedPath struct {
	Directory string
	FileName  string
}

func (p PlannedPath) FullPath() string {
	return p.Directory + "/" + p.FileName
}

// PathPlanner computes target directories and collision-free file names.
type PathPlanner interface {
	Plan(ctx context.Context, disk storage.Storage, req PlanRequest) (PlannedPath, error)
}

// DefaultPathPlanner lays files out as
// {root}/{ownerTable/}{year}/{month}{/collection}/{fileName}. The date
// comes from the injected clock, read at plan time.
type DefaultPathPlanner struct {
	root  string
	clock Clock
}

func NewDefaultPathPlanner(root string, clock Clock) *DefaultPathPlanner {
	if clock == nil {
		clock = systemClock{}
	}
	return &DefaultPathPlanner{
		root:  root,
		clock: clock,
	}
}

func (p *DefaultPathPlanner) Plan(ctx context.Context, disk storage.Storage, req PlanRequest) (PlannedPath, error) {
	now := p.clock.Now()

	segments := []string{p.root}
	if req.OwnerTable != "" {
		segments = append(segments, req.OwnerTable)
	}
	segments = append(segments, now.Format("2006"), now.Format("01"))
	if req.CollectionName != "" {
		segments = append(segments, req.CollectionName)
	}
	dir := strings.Join(segments, "/")

	fileName := Transliterate(req.TransliterationLocale, req.OriginalName)

	if req.AllowOverwrite {
		return PlannedPath{Directory: dir, FileName: fileName}, nil
	}

	ext := strings.TrimPrefix(filepath.Ext(fileName), ".")
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	// Probe for a free name: stem.ext, then stem-2.ext, stem-3.ext, ...
	for n := 1; ; n++ {
		if n > 1 {
			if ext != "" {
				fileName = fmt.Sprintf("%s-%d.%s", stem, n, ext)
			} else {
				fileName = fmt.Sprintf("%s-%d", stem, n)
			}
		}

		full := dir + "/" + fileName
		if _, taken := req.Reserved[full]; taken {
			continue
		}

		exists, err := disk.Exists(ctx, full)
		if err != nil {
			return PlannedPath{}, fmt.Errorf("failed to probe target path %s: %w", full, err)
		}
		if !exists {
			break
		}
	}

	return PlannedPath{Directory: dir, FileName: fileName}, nil
}
