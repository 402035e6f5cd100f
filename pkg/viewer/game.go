package viewer

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tochemey/goakt/v3/actor"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/colreg"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/ui"
)

const (
	panelWidth = 240
	margin     = 20.0
	maxTrail   = 600
)

var (
	seaColor      = color.RGBA{R: 10, G: 30, B: 55, A: 255}
	gridColor     = color.RGBA{R: 30, G: 60, B: 90, A: 255}
	underWayColor = color.RGBA{R: 80, G: 220, B: 120, A: 255}
	giveWayColor  = color.RGBA{R: 240, G: 70, B: 60, A: 255}
	standOnColor  = color.RGBA{R: 250, G: 200, B: 40, A: 255}
	arrivedColor  = color.RGBA{R: 140, G: 140, B: 150, A: 255}
	riskLineColor = color.RGBA{R: 255, G: 140, B: 0, A: 200}
	trailColor    = color.RGBA{R: 120, G: 170, B: 220, A: 120}
)

// Options sizes the window and the chart.
type Options struct {
	Title   string
	MapSize float64 // NM shown along each side; 0 fits the fleet
	Height  int     // pixels; the chart is square, the panel sits to its right
	Logger  *slog.Logger
}

// Game renders snapshots pushed by a simulation.WorldActor and drives it
// from the ebiten update loop.
type Game struct {
	ctx        context.Context
	System     actor.ActorSystem
	worldPID   *actor.PID
	generation int
	snapshotCh chan *simulation.Snapshot
	last       *simulation.Snapshot

	fleet          []*simulation.Vessel // initial state, cloned on every restart
	params         simulation.Params
	logger         *slog.Logger
	proj           projection
	height         int
	paused         bool
	restartPending bool
	trails         map[string][]geometry.Vector2D

	panel             *ui.Panel
	widgetTicks       *ui.Slider
	widgetSafetyRings *ui.Checkbox
	widgetRiskRings   *ui.Checkbox
	widgetTrails      *ui.Checkbox
	widgetRoutes      *ui.Checkbox
	widgetRiskLines   *ui.Checkbox

	updateAvg float64 // ms, exponential moving average
	drawAvg   float64
}

// NewGame spawns a world actor for a fresh engine built from fleet and
// returns the ebiten game that displays it.
func NewGame(ctx context.Context, system actor.ActorSystem, fleet []*simulation.Vessel, params simulation.Params, opts Options) (*Game, error) {
	if opts.Height <= 0 {
		opts.Height = 720
	}
	mapSize := opts.MapSize
	if mapSize <= 0 {
		mapSize = fitMapSize(fleet)
	}

	g := &Game{
		ctx:        ctx,
		System:     system,
		snapshotCh: make(chan *simulation.Snapshot, 10),
		fleet:      fleet,
		params:     params,
		logger:     opts.Logger,
		proj:       newProjection(mapSize, float64(opts.Height)),
		height:     opts.Height,
		trails:     make(map[string][]geometry.Vector2D),
	}

	panel := ui.NewPanel(opts.Title, float64(opts.Height)+10, 10, panelWidth-20, float64(opts.Height)-20)
	panel.AddSection("Run")
	g.widgetTicks = panel.AddSlider("Ticks per frame", 1, 20, 1, 1)
	panel.AddButton("Pause / resume  [space]", g.togglePause)
	panel.AddButton("Restart  [r]", g.requestRestart)
	panel.AddSection("Display")
	g.widgetSafetyRings = panel.AddCheckbox("Safety rings", true)
	g.widgetRiskRings = panel.AddCheckbox("Risk band", false)
	g.widgetRiskLines = panel.AddCheckbox("At-risk pairs", true)
	g.widgetRoutes = panel.AddCheckbox("Routes", true)
	g.widgetTrails = panel.AddCheckbox("Trails", true)
	g.panel = panel

	if err := g.spawnWorld(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) spawnWorld() error {
	fleet := make([]*simulation.Vessel, len(g.fleet))
	for i, v := range g.fleet {
		fleet[i] = v.Clone()
	}
	engine, err := simulation.NewEngine(fleet, g.params, simulation.WithLogger(g.logger))
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	g.generation++
	pid, err := g.System.Spawn(g.ctx, fmt.Sprintf("world-%d", g.generation), simulation.NewWorldActor(engine, g.snapshotCh))
	if err != nil {
		return fmt.Errorf("spawning world: %w", err)
	}
	g.worldPID = pid
	g.last = engine.Snapshot()
	clear(g.trails)
	return nil
}

func (g *Game) togglePause() { g.paused = !g.paused }

// requestRestart defers the restart to the next Update, outside the widget loop.
func (g *Game) requestRestart() { g.restartPending = true }

func (g *Game) restart() error {
	if g.worldPID != nil {
		if err := g.worldPID.Shutdown(g.ctx); err != nil {
			return fmt.Errorf("stopping world: %w", err)
		}
	}
	// drop snapshots of the previous run
	for len(g.snapshotCh) > 0 {
		<-g.snapshotCh
	}
	return g.spawnWorld()
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	g.panel.Update()
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.togglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.requestRestart()
	}
	if g.restartPending {
		g.restartPending = false
		if err := g.restart(); err != nil {
			return err
		}
	}

	for drained := false; !drained; {
		select {
		case snap := <-g.snapshotCh:
			g.last = snap
			g.recordTrails(snap)
		default:
			drained = true
		}
	}

	if !g.paused && !g.last.AllArrived {
		if err := actor.Tell(g.ctx, g.worldPID, wrapperspb.UInt32(uint32(g.widgetTicks.Value))); err != nil {
			return fmt.Errorf("advancing world: %w", err)
		}
	}
	return nil
}

func (g *Game) recordTrails(snap *simulation.Snapshot) {
	for _, v := range snap.Vessels {
		g.trails[v.ID] = appendTrail(g.trails[v.ID], v.Position, maxTrail)
	}
}

// appendTrail adds p unless the vessel has not moved, keeping at most limit points.
func appendTrail(trail []geometry.Vector2D, p geometry.Vector2D, limit int) []geometry.Vector2D {
	if n := len(trail); n > 0 && trail[n-1].Eq(p) {
		return trail
	}
	trail = append(trail, p)
	if len(trail) > limit {
		trail = trail[len(trail)-limit:]
	}
	return trail
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(seaColor)
	g.drawGrid(screen)

	snap := g.last
	roles := vesselRoles(snap)

	if g.widgetTrails.Value {
		for _, trail := range g.trails {
			for i := 1; i < len(trail); i++ {
				g.line(screen, trail[i-1], trail[i], 1, trailColor)
			}
		}
	}
	if g.widgetRiskLines.Value {
		for _, c := range snap.Conflicts {
			clr := riskLineColor
			if c.Distance < g.params.SafeDistance {
				clr = giveWayColor
			}
			g.line(screen, snap.Vessels[c.I].Position, snap.Vessels[c.J].Position, 1, clr)
		}
	}

	for i, v := range snap.Vessels {
		g.drawVessel(screen, v, statusColor(v, roles, i))
	}

	g.drawHUD(screen, snap)
	g.panel.Draw(screen)
}

func (g *Game) drawGrid(screen *ebiten.Image) {
	size := g.proj.mapSize
	for k := 0.0; k <= size; k++ {
		g.line(screen, geometry.NewVector(k, 0), geometry.NewVector(k, size), 1, gridColor)
		g.line(screen, geometry.NewVector(0, k), geometry.NewVector(size, k), 1, gridColor)
	}
}

func (g *Game) drawVessel(screen *ebiten.Image, v *simulation.Vessel, clr color.RGBA) {
	x, y := g.proj.toScreen(v.Position)

	if g.widgetRoutes.Value && !v.Arrived() {
		g.line(screen, v.Position, v.Destination, 1, color.RGBA{R: clr.R, G: clr.G, B: clr.B, A: 60})
	}
	dx, dy := g.proj.toScreen(v.Destination)
	vector.StrokeLine(screen, dx-4, dy-4, dx+4, dy+4, 1, clr, true)
	vector.StrokeLine(screen, dx-4, dy+4, dx+4, dy-4, 1, clr, true)

	if g.widgetSafetyRings.Value {
		vector.StrokeCircle(screen, x, y, g.proj.length(g.params.SafeDistance), 1, clr, true)
	}
	if g.widgetRiskRings.Value {
		vector.StrokeCircle(screen, x, y, g.proj.length(g.params.RiskDistance()), 1,
			color.RGBA{R: clr.R, G: clr.G, B: clr.B, A: 70}, true)
	}

	// bow line along the heading, screen y points down
	rad := geometry.Radians(v.Heading)
	bx, by := x+float32(12*math.Cos(rad)), y-float32(12*math.Sin(rad))
	vector.StrokeLine(screen, x, y, bx, by, 2, clr, true)
	vector.FillCircle(screen, x, y, 4, clr, true)
	ebitenutil.DebugPrintAt(screen, v.ID, int(x)+6, int(y)+4)
}

func (g *Game) drawHUD(screen *ebiten.Image, snap *simulation.Snapshot) {
	st := snap.Stats
	msg := fmt.Sprintf("tick %d  t=%s  at risk %d\nturns: head-on %d  crossing %d  overtaking %d",
		snap.Tick,
		time.Duration(snap.Time*float64(time.Second)).String(),
		len(snap.Conflicts),
		st.HeadOnManeuvers, st.CrossingManeuvers, st.OvertakingManeuvers)
	switch {
	case snap.AllArrived:
		msg += "\nALL VESSELS ARRIVED"
	case g.paused:
		msg += "\nPAUSED"
	}
	ebitenutil.DebugPrintAt(screen, msg, int(margin), 4)

	perf := fmt.Sprintf("FPS %.1f  TPS %.1f  update %.2fms  draw %.2fms",
		ebiten.ActualFPS(), ebiten.ActualTPS(), g.updateAvg, g.drawAvg)
	ebitenutil.DebugPrintAt(screen, perf, int(margin), g.height-18)
}

func (g *Game) line(screen *ebiten.Image, a, b geometry.Vector2D, width float32, clr color.Color) {
	ax, ay := g.proj.toScreen(a)
	bx, by := g.proj.toScreen(b)
	vector.StrokeLine(screen, ax, ay, bx, by, width, clr, true)
}

func (g *Game) Layout(w, h int) (int, int) { return g.height + panelWidth, g.height }

// vesselRoles maps a vessel index to its role in the current conflicts;
// give-way wins when a vessel is in several pairs.
func vesselRoles(snap *simulation.Snapshot) map[int]colreg.Role {
	roles := make(map[int]colreg.Role)
	set := func(i int, r colreg.Role) {
		if prev, ok := roles[i]; !ok || prev == colreg.StandOn {
			roles[i] = r
		}
	}
	for _, c := range snap.Conflicts {
		set(c.I, c.RoleI)
		set(c.J, c.RoleJ)
	}
	return roles
}

func statusColor(v *simulation.Vessel, roles map[int]colreg.Role, idx int) color.RGBA {
	if v.Arrived() {
		return arrivedColor
	}
	role, ok := roles[idx]
	switch {
	case !ok:
		return underWayColor
	case role == colreg.GiveWay:
		return giveWayColor
	default:
		return standOnColor
	}
}

// fitMapSize returns the smallest whole number of NM holding every start
// and destination, with a mile of sea room.
func fitMapSize(fleet []*simulation.Vessel) float64 {
	size := 1.0
	for _, v := range fleet {
		size = max(size, v.Position.X, v.Position.Y, v.Destination.X, v.Destination.Y)
	}
	return math.Ceil(size) + 1
}

// projection maps chart coordinates (NM, north up) to screen pixels.
type projection struct {
	mapSize float64
	scale   float64 // pixels per NM
	height  float64
}

func newProjection(mapSize, height float64) projection {
	return projection{
		mapSize: mapSize,
		scale:   (height - 2*margin) / mapSize,
		height:  height,
	}
}

func (p projection) toScreen(v geometry.Vector2D) (float32, float32) {
	return float32(margin + v.X*p.scale), float32(p.height - margin - v.Y*p.scale)
}

func (p projection) length(nm float64) float32 {
	return float32(nm * p.scale)
}
