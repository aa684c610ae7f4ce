package identity

import (
	"context"
	"strings"

	"github.com/talenthub-app/hubtalk/internal/conversation"
	"github.com/talenthub-app/hubtalk/internal/portal"
	"go.uber.org/zap"
)

// Directory is the portal surface the resolver consumes.
type Directory interface {
	Employers(ctx context.Context) ([]portal.Employer, error)
	Candidates(ctx context.Context) ([]portal.Candidate, error)
	EmployerByID(ctx context.Context, id string) (portal.Employer, error)
	JobListingByID(ctx context.Context, id string) (portal.JobListing, error)
}

// Identity is the resolved display data for one participant id.
type Identity struct {
	Name           string
	FirmName       string
	ProfilePicture string
}

// Unknown is the fallback identity when every lookup fails.
var Unknown = Identity{Name: conversation.UnknownName}

// Resolver maps opaque participant and job-listing ids to display data.
// It is scoped to a single aggregation run: the bulk directories are
// fetched at most once and every distinct id is resolved at most once,
// keeping network calls O(1) in the number of messages.
type Resolver struct {
	dir    Directory
	logger *zap.Logger

	loaded     bool
	employers  map[string]portal.Employer
	candidates map[string]portal.Candidate

	cache     map[string]Identity
	positions map[string]string
}

// NewResolver creates a resolver for one aggregation run.
func NewResolver(dir Directory, logger *zap.Logger) *Resolver {
	return &Resolver{
		dir:       dir,
		logger:    logger,
		cache:     make(map[string]Identity),
		positions: make(map[string]string),
	}
}

// load fetches the bulk directories once. A failed side degrades to an
// empty directory; the per-id employer fallback still gets a chance later.
func (r *Resolver) load(ctx context.Context) {
	if r.loaded {
		return
	}
	r.loaded = true
	r.employers = make(map[string]portal.Employer)
	r.candidates = make(map[string]portal.Candidate)

	employers, err := r.dir.Employers(ctx)
	if err != nil {
		r.logger.Warn("bulk employer directory unavailable", zap.Error(err))
	}
	for _, e := range employers {
		r.employers[e.ID] = e
	}

	candidates, err := r.dir.Candidates(ctx)
	if err != nil {
		r.logger.Warn("bulk candidate directory unavailable", zap.Error(err))
	}
	for _, c := range candidates {
		r.candidates[c.ID] = c
	}
}

// Resolve maps a participant id to its display identity using the ordered
// fallback chain: validation, cache, bulk employers, bulk candidates,
// employer-by-id fetch, Unknown.
func (r *Resolver) Resolve(ctx context.Context, id string) Identity {
	if !ValidID(id) {
		return Unknown
	}
	if ident, ok := r.cache[id]; ok {
		return ident
	}

	r.load(ctx)

	if e, ok := r.employers[id]; ok {
		ident := employerIdentity(e)
		r.cache[id] = ident
		return ident
	}
	if c, ok := r.candidates[id]; ok {
		ident := candidateIdentity(c)
		r.cache[id] = ident
		return ident
	}

	e, err := r.dir.EmployerByID(ctx, id)
	if err != nil {
		r.logger.Info("identity unresolved", zap.String("id", id), zap.Error(err))
		r.cache[id] = Unknown
		return Unknown
	}
	ident := employerIdentity(e)
	r.cache[id] = ident
	return ident
}

// JobPosition maps a job-listing id to its position title. Invalid or
// sentinel ids short-circuit without a network call. The second return
// is false when no title could be resolved.
func (r *Resolver) JobPosition(ctx context.Context, jobListingID string) (string, bool) {
	if !ValidID(jobListingID) {
		return "", false
	}
	if pos, ok := r.positions[jobListingID]; ok {
		return pos, pos != ""
	}

	listing, err := r.dir.JobListingByID(ctx, jobListingID)
	if err != nil {
		r.logger.Info("job listing unresolved", zap.String("id", jobListingID), zap.Error(err))
		r.positions[jobListingID] = ""
		return "", false
	}
	r.positions[jobListingID] = listing.Position
	return listing.Position, listing.Position != ""
}

func employerIdentity(e portal.Employer) Identity {
	name := e.FirmName
	if name == "" {
		name = displayName(e.FirstName, e.LastName)
	}
	if name == "" {
		name = conversation.UnknownName
	}
	return Identity{
		Name:           name,
		FirmName:       e.FirmName,
		ProfilePicture: e.ProfilePicture,
	}
}

func candidateIdentity(c portal.Candidate) Identity {
	name := displayName(c.FirstName, c.LastName)
	if name == "" {
		name = conversation.UnknownName
	}
	return Identity{
		Name:           name,
		ProfilePicture: c.ProfilePicture,
	}
}

func displayName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
