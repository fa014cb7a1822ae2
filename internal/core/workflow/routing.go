// Package workflow holds the approval routing engine: the level graph, the
// per-requester routing strategies, the budget state machine, the action
// guard and the listing visibility scope. It is free of I/O; services load
// the inputs and persist the results.
package workflow

import (
	"fmt"
	"sort"

	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
)

// LevelGraph is the default promotion graph built from FlowRules.
type LevelGraph struct {
	levels map[string]domain.Level
	edges  map[string][]string
}

// NewLevelGraph indexes levels and rules. Rules pointing at unknown levels are kept
// but never chosen as a successor.
func NewLevelGraph(levels []domain.Level, rules []domain.FlowRule) *LevelGraph {
	g := &LevelGraph{
		levels: make(map[string]domain.Level, len(levels)),
		edges:  make(map[string][]string),
	}
	for _, l := range levels {
		g.levels[l.LevelID] = l
	}
	for _, r := range rules {
		g.edges[r.OriginLevelID] = append(g.edges[r.OriginLevelID], r.DestinationLevelID)
	}
	return g
}

// Level looks up a level by ID.
func (g *LevelGraph) Level(levelID string) (domain.Level, bool) {
	if g == nil {
		return domain.Level{}, false
	}
	l, ok := g.levels[levelID]
	return l, ok
}

// IsActive reports whether the level exists and is active.
func (g *LevelGraph) IsActive(levelID string) bool {
	l, ok := g.levels[levelID]
	return ok && l.IsActive
}

// Next returns the successor of origin. With several outgoing edges the active
// destination with the lowest priority wins.
func (g *LevelGraph) Next(originLevelID string) (string, bool) {
	var best *domain.Level
	for _, dest := range g.edges[originLevelID] {
		l, ok := g.levels[dest]
		if !ok || !l.IsActive || l.LevelID == originLevelID {
			continue
		}
		if best == nil || l.Priority < best.Priority {
			best = &l
		}
	}
	if best == nil {
		return "", false
	}
	return best.LevelID, true
}

// FinalLevel returns the single active purchasing level. It returns nil when none
// is configured and requireFinal is false.
func (g *LevelGraph) FinalLevel(requireFinal bool) (*domain.Level, error) {
	var finals []domain.Level
	for _, l := range g.levels {
		if l.IsActive && l.IsFinalLevel {
			finals = append(finals, l)
		}
	}
	switch {
	case len(finals) == 1:
		return &finals[0], nil
	case len(finals) > 1:
		return nil, fmt.Errorf("%w: %d active levels are flagged as final", apperrors.ErrMisconfiguredFinalLevel, len(finals))
	case requireFinal:
		return nil, fmt.Errorf("%w: no active level is flagged as final", apperrors.ErrMisconfiguredFinalLevel)
	}
	return nil, nil
}

// Placement is where a freshly created budget starts.
type Placement struct {
	CurrentLevelID string
	NextLevelID    *string // advisory only
}

// Router resolves the route of one requester's budgets.
type Router interface {
	InitialLevel() (Placement, error)
	NextLevel(currentLevelID string) (string, bool)
	Personalized() bool
}

// RouteInput holds the requester data a Router is built from.
type RouteInput struct {
	Flow       []domain.UserFlowEntry
	HeldLevels []domain.Level
	Graph      *LevelGraph
}

// NewRouter picks the personalized strategy when the requester has any active
// flow entries and the graph strategy otherwise.
func NewRouter(in RouteInput) Router {
	if flow := activeFlow(in.Flow, in.Graph); len(flow) > 0 {
		return &personalizedRouter{flow: flow}
	}
	return &graphRouter{held: in.HeldLevels, graph: in.Graph}
}

func activeFlow(entries []domain.UserFlowEntry, graph *LevelGraph) []string {
	active := make([]domain.UserFlowEntry, 0, len(entries))
	for _, e := range entries {
		if !e.IsActive {
			continue
		}
		if graph != nil && !graph.IsActive(e.LevelID) {
			continue
		}
		active = append(active, e)
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Position < active[j].Position })

	ids := make([]string, len(active))
	for i, e := range active {
		ids[i] = e.LevelID
	}
	return ids
}

type personalizedRouter struct {
	flow []string
}

func (r *personalizedRouter) Personalized() bool { return true }

func (r *personalizedRouter) InitialLevel() (Placement, error) {
	p := Placement{CurrentLevelID: r.flow[0]}
	if len(r.flow) > 1 {
		next := r.flow[1]
		p.NextLevelID = &next
	}
	return p, nil
}

// NextLevel returns the entry after currentLevelID. A level that is not part of
// the flow has no successor.
func (r *personalizedRouter) NextLevel(currentLevelID string) (string, bool) {
	for i, id := range r.flow {
		if id == currentLevelID {
			if i+1 < len(r.flow) {
				return r.flow[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

type graphRouter struct {
	held  []domain.Level
	graph *LevelGraph
}

func (r *graphRouter) Personalized() bool { return false }

func (r *graphRouter) InitialLevel() (Placement, error) {
	var initial *domain.Level
	for i := range r.held {
		l := r.held[i]
		if !l.IsActive {
			continue
		}
		if initial == nil || l.Priority < initial.Priority {
			initial = &l
		}
	}
	if initial == nil {
		return Placement{}, apperrors.ErrNoLevelAssigned
	}

	p := Placement{CurrentLevelID: initial.LevelID}
	if next, ok := r.NextLevel(initial.LevelID); ok {
		p.NextLevelID = &next
	}
	return p, nil
}

func (r *graphRouter) NextLevel(currentLevelID string) (string, bool) {
	if r.graph == nil {
		return "", false
	}
	return r.graph.Next(currentLevelID)
}
