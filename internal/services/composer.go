package services

import (
	"context"
	"errors"
	"pathbuilder-service/internal/domain"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DraftState is a read-only snapshot of a route under construction.
type DraftState struct {
	Name                 string
	Waypoints            []domain.Waypoint
	Geometry             []domain.Waypoint
	DistanceMiles        float64
	ElevationFeet        float64
	EstimatedTimeMinutes int
	Mode                 domain.TravelMode
	ManualMode           bool
	IsCalculating        bool
	Layer                domain.MapLayer
	SaveCompleted        bool
	CanUndo              bool
	CanRedo              bool
}

// AwaitingModeSelection reports whether the draft still needs a travel mode.
func (s DraftState) AwaitingModeSelection() bool { return s.Mode == domain.ModeUnset }

func (s DraftState) calculation() Calculation {
	return Calculation{
		Geometry:             s.Geometry,
		DistanceMiles:        s.DistanceMiles,
		ElevationFeet:        s.ElevationFeet,
		EstimatedTimeMinutes: s.EstimatedTimeMinutes,
	}
}

// Pending is closed once the computation started by a command has been
// applied or superseded.
type Pending <-chan struct{}

var settled Pending = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// RoutePersister durably stores a finished route and returns it with its
// assigned identity.
type RoutePersister interface {
	Save(ctx context.Context, route domain.RouteRecord) (domain.RouteRecord, error)
}

var ErrNoPersister = errors.New("composer: no route persister configured")

type snapshot struct {
	waypoints []domain.Waypoint
	calc      Calculation
}

// Composer owns one in-progress route: its waypoints, derived geometry and
// metrics, undo/redo history and travel mode. All commands are serialized.
//
// Remote computations run in the background. Each geometry-changing command
// advances the generation counter and a computation only lands if its
// generation is still current, so the latest request always wins.
type Composer struct {
	mu     sync.Mutex
	saveMu sync.Mutex

	calc      *RouteCalculator
	persister RoutePersister
	logger    *zap.Logger

	// background computations outlive the request that started them
	ctx    context.Context
	cancel context.CancelFunc

	state      DraftState
	undo, redo []snapshot
	generation uint64
	inflight   map[uint64]chan struct{}

	subs   map[int]chan DraftState
	nextID int
}

func NewComposer(calc *RouteCalculator, persister RoutePersister, logger *zap.Logger) *Composer {
	if calc == nil {
		calc = NewRouteCalculator(nil, 0, logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Composer{
		calc:      calc,
		persister: persister,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		state:     DraftState{Layer: domain.LayerStandard},
		inflight:  make(map[uint64]chan struct{}),
		subs:      make(map[int]chan DraftState),
	}
}

// State returns a copy of the current draft.
func (c *Composer) State() DraftState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Composer) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.undo) > 0
}

func (c *Composer) CanRedo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.redo) > 0
}

func (c *Composer) AwaitingModeSelection() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.AwaitingModeSelection()
}

// SetMode selects the travel mode. Invalid modes are ignored.
func (c *Composer) SetMode(mode domain.TravelMode) Pending {
	if !mode.IsValid() {
		return settled
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Mode = mode
	return c.recomputeLocked()
}

// ToggleManualMode flips between straight-line drawing and routed geometry.
func (c *Composer) ToggleManualMode() Pending {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.ManualMode = !c.state.ManualMode
	return c.recomputeLocked()
}

// AddWaypoint appends point to the route. Before a mode is selected the
// draft is measured at walking speed.
func (c *Composer) AddWaypoint(point domain.Waypoint) Pending {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.state.Waypoints) > 0 {
		c.undo = append(c.undo, c.currentSnapshotLocked())
		c.redo = nil
	}

	previous := c.state.calculation()
	waypoints := append(slices.Clone(c.state.Waypoints), point)
	c.state.Waypoints = waypoints
	c.state.SaveCompleted = false
	c.generation++

	if c.state.ManualMode || len(waypoints) < 2 || !c.calc.Remote() {
		c.applyLocked(ManualCalculation(waypoints, c.state.Mode))
		return settled
	}

	return c.startLocked(CalculationRequest{
		Waypoints: waypoints,
		Mode:      c.state.Mode,
		Previous:  previous,
	})
}

func (c *Composer) Undo() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.undo) == 0 {
		return
	}
	c.redo = append(c.redo, c.currentSnapshotLocked())
	c.restoreLocked(c.undo[len(c.undo)-1])
	c.undo = c.undo[:len(c.undo)-1]
}

func (c *Composer) Redo() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.redo) == 0 {
		return
	}
	c.undo = append(c.undo, c.currentSnapshotLocked())
	c.restoreLocked(c.redo[len(c.redo)-1])
	c.redo = c.redo[:len(c.redo)-1]
}

// Reset discards the draft and its history. The map layer is kept.
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.undo, c.redo = nil, nil
	c.state = DraftState{Layer: c.state.Layer}
	c.publishLocked()
}

func (c *Composer) UpdateName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Name = name
	c.publishLocked()
}

func (c *Composer) ToggleLayer() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Layer = c.state.Layer.Toggle()
	c.publishLocked()
}

// Save stores the draft under its current name. A blank name or an empty
// route is a no-op and reports false. On success the composer starts a fresh
// draft that keeps the travel mode and map layer, unless the route was edited
// while the store call was running; those edits are kept. On failure the
// draft is left as it was.
//
// The store call runs without the state lock. Saves are serialized.
func (c *Composer) Save(ctx context.Context) (domain.RouteRecord, bool, error) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	name := strings.TrimSpace(c.state.Name)
	if name == "" || len(c.state.Waypoints) == 0 {
		c.mu.Unlock()
		return domain.RouteRecord{}, false, nil
	}
	if c.persister == nil {
		c.mu.Unlock()
		return domain.RouteRecord{}, false, ErrNoPersister
	}
	draft := c.snapshotLocked()
	gen := c.generation
	c.mu.Unlock()

	draft.Name = name
	difficulty := domain.DifficultyFor(draft.DistanceMiles, draft.ElevationFeet)
	record, err := c.persister.Save(ctx, NewRouteRecord(draft, difficulty))
	if err != nil {
		return domain.RouteRecord{}, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Info("route saved; draft changed during save and was kept",
			zap.Int64("route_id", record.ID),
		)
		return record, true, nil
	}

	c.generation++
	c.undo, c.redo = nil, nil
	c.state = DraftState{
		Mode:          c.state.Mode,
		Layer:         c.state.Layer,
		SaveCompleted: true,
	}
	c.publishLocked()

	c.logger.Info("route saved",
		zap.Int64("route_id", record.ID),
		zap.String("difficulty", string(record.Difficulty)),
	)
	return record, true, nil
}

// Subscribe delivers state snapshots after every change. The channel holds
// only the latest snapshot; slow readers skip intermediate states. The
// current state is delivered immediately.
func (c *Composer) Subscribe() (<-chan DraftState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan DraftState, 1)
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	ch <- c.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
}

// Wait blocks until no remote computation is outstanding or ctx is done.
func (c *Composer) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		var next chan struct{}
		for _, ch := range c.inflight {
			next = ch
			break
		}
		c.mu.Unlock()

		if next == nil {
			return nil
		}
		select {
		case <-next:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close abandons outstanding computations and ends all subscriptions.
func (c *Composer) Close() {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

// recomputeLocked recalculates the whole route after a mode change.
func (c *Composer) recomputeLocked() Pending {
	c.generation++

	if len(c.state.Waypoints) < 2 {
		c.state.IsCalculating = false
		c.publishLocked()
		return settled
	}

	if c.state.ManualMode || !c.calc.Remote() {
		c.applyLocked(ManualCalculation(c.state.Waypoints, c.state.Mode))
		return settled
	}

	return c.startLocked(CalculationRequest{
		Waypoints: slices.Clone(c.state.Waypoints),
		Mode:      c.state.Mode,
		Previous:  c.state.calculation(),
	})
}

// startLocked issues a background calculation tagged with the current generation.
func (c *Composer) startLocked(req CalculationRequest) Pending {
	gen := c.generation
	done := make(chan struct{})
	c.inflight[gen] = done
	c.state.IsCalculating = true
	c.publishLocked()

	go func() {
		res := c.calc.Calculate(c.ctx, req)

		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.inflight, gen)
		defer close(done)

		if gen != c.generation {
			c.logger.Debug("discarding stale route calculation",
				zap.Uint64("generation", gen),
				zap.Uint64("current", c.generation),
			)
			return
		}
		c.applyLocked(res)
	}()

	return done
}

func (c *Composer) applyLocked(res Calculation) {
	c.state.Geometry = res.Geometry
	c.state.DistanceMiles = res.DistanceMiles
	c.state.ElevationFeet = res.ElevationFeet
	c.state.EstimatedTimeMinutes = res.EstimatedTimeMinutes
	c.state.IsCalculating = false
	c.state.SaveCompleted = false
	c.publishLocked()
}

func (c *Composer) currentSnapshotLocked() snapshot {
	return snapshot{
		waypoints: c.state.Waypoints,
		calc:      c.state.calculation(),
	}
}

func (c *Composer) restoreLocked(s snapshot) {
	c.generation++
	c.state.Waypoints = s.waypoints
	c.applyLocked(s.calc)
}

func (c *Composer) snapshotLocked() DraftState {
	s := c.state
	s.Waypoints = slices.Clone(s.Waypoints)
	s.Geometry = slices.Clone(s.Geometry)
	s.CanUndo = len(c.undo) > 0
	s.CanRedo = len(c.redo) > 0
	return s
}

func (c *Composer) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	s := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
