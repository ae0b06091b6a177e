package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/giftgraph/pkg/circulation"
	"github.com/matzehuels/giftgraph/pkg/config"
	"github.com/matzehuels/giftgraph/pkg/gift/filestore"
	"github.com/matzehuels/giftgraph/pkg/layout"
)

const (
	// cellWidth and cellHeight are simulation units per terminal cell.
	cellWidth  = 8.0
	cellHeight = 16.0

	frameInterval = time.Second / 30
	dragStep      = 16.0
	footerLines   = 3
	maxLabelRunes = 12
)

var (
	viewEdgeStyle     = lipgloss.NewStyle().Foreground(colorDim)
	viewSelectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	viewPinnedStyle   = lipgloss.NewStyle().Foreground(colorYellow)
)

// viewCommand runs the interactive terminal view.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		flags   layoutFlags
		noWatch bool
	)
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Explore the live force layout in the terminal",
		Long: `Explore the live force layout in the terminal.

The simulation runs at 30 frames per second and is rebuilt whenever the
terminal is resized or, with the file store, the data file changes.

Keys:
  tab / shift+tab   select the next / previous person
  arrow keys        drag the selected person
  space             release the selected person
  r                 reseed the layout
  q                 quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineDefaults()
			flags.apply(&opts)
			if err := opts.ValidateForLayout(); err != nil {
				return err
			}
			return c.runView(cmd.Context(), opts.LayoutOptions(), !noWatch)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when the data file changes")
	return cmd
}

func (c *CLI) runView(ctx context.Context, opts []layout.Option, watch bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctrl := layout.NewController(
		layout.WithLayoutOptions(opts...),
		layout.WithControllerLogger(c.Logger),
	)
	defer ctrl.Close()

	load := func() (circulation.Graph, error) { return c.loadGraph(ctx, "") }
	p := tea.NewProgram(newViewModel(ctrl, load), tea.WithAltScreen(), tea.WithContext(ctx))

	if watch && c.cfg.Store.Backend == config.StoreFile && c.store == nil {
		path := c.cfg.Store.Path
		if path == "" {
			var err error
			if path, err = filestore.DefaultPath(); err != nil {
				return err
			}
		}
		go func() {
			if err := watchFile(ctx, path, func() { p.Send(dataChangedMsg{}) }); err != nil {
				c.Logger.Warn("live reload disabled", "err", err)
			}
		}()
	}

	_, err := p.Run()
	return err
}

// =============================================================================
// viewModel - bubbletea model over a layout.Controller
// =============================================================================

type (
	frameMsg       time.Time
	dataChangedMsg struct{}
	graphMsg       struct {
		graph circulation.Graph
		err   error
	}
)

type viewModel struct {
	ctrl *layout.Controller
	load func() (circulation.Graph, error)

	graph      circulation.Graph
	cols, rows int
	selected   int
	pinned     map[string]layout.Position
	err        error
}

func newViewModel(ctrl *layout.Controller, load func() (circulation.Graph, error)) viewModel {
	return viewModel{
		ctrl:     ctrl,
		load:     load,
		selected: -1,
		pinned:   map[string]layout.Position{},
	}
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m viewModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		g, err := m.load()
		return graphMsg{graph: g, err: err}
	}
}

func (m viewModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), frameCmd())
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
		m.sync()
	case graphMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.graph = msg.graph
		if m.selected >= len(m.graph.Nodes) {
			m.selected = len(m.graph.Nodes) - 1
		}
		m.sync()
	case dataChangedMsg:
		return m, m.loadCmd()
	case frameMsg:
		if h := m.ctrl.Handle(); h != nil {
			h.Tick()
		}
		return m, frameCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m viewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		m.selectBy(1)
	case "shift+tab":
		m.selectBy(-1)
	case "up":
		m.drag(0, -dragStep)
	case "down":
		m.drag(0, dragStep)
	case "left":
		m.drag(-dragStep, 0)
	case "right":
		m.drag(dragStep, 0)
	case " ":
		m.release()
	case "r":
		rebuilt, err := m.ctrl.Reseed(m.ctrl.Seed() + 1)
		if err != nil {
			m.err = err
		}
		if rebuilt {
			clear(m.pinned)
		}
	}
	return m, nil
}

// viewport converts the terminal size to simulation units. The footer
// rows are not part of the canvas.
func (m viewModel) viewport() (float64, float64) {
	rows := m.rows - footerLines
	if m.cols <= 0 || rows <= 0 {
		return 0, 0
	}
	return float64(m.cols) * cellWidth, float64(rows) * cellHeight
}

func (m *viewModel) sync() {
	w, h := m.viewport()
	rebuilt, err := m.ctrl.Sync(m.graph, w, h)
	if err != nil {
		m.err = err
		return
	}
	if rebuilt {
		clear(m.pinned)
	}
}

func (m *viewModel) selectBy(delta int) {
	n := len(m.graph.Nodes)
	if n == 0 {
		return
	}
	if m.selected < 0 {
		if delta > 0 {
			m.selected = 0
		} else {
			m.selected = n - 1
		}
		return
	}
	m.selected = ((m.selected+delta)%n + n) % n
}

func (m *viewModel) selectedID() (string, bool) {
	if m.selected < 0 || m.selected >= len(m.graph.Nodes) {
		return "", false
	}
	return m.graph.Nodes[m.selected].ID, true
}

// drag pins the selected node and moves it by (dx, dy). Repeated presses
// accumulate from the pinned position, not from the last rendered one.
func (m *viewModel) drag(dx, dy float64) {
	h := m.ctrl.Handle()
	id, ok := m.selectedID()
	if h == nil || !ok {
		return
	}
	p, pinned := m.pinned[id]
	if !pinned {
		var found bool
		if p, found = h.Simulation().Position(id); !found {
			return
		}
	}
	w, hgt := h.Simulation().Size()
	r := float64(circulation.NodeRadius)
	p.X = math.Max(r, math.Min(w-r, p.X+dx))
	p.Y = math.Max(r, math.Min(hgt-r, p.Y+dy))
	if h.Pin(id, p.X, p.Y) {
		m.pinned[id] = p
	}
}

func (m *viewModel) release() {
	h := m.ctrl.Handle()
	id, ok := m.selectedID()
	if h == nil || !ok {
		return
	}
	h.Unpin(id)
	delete(m.pinned, id)
}

// =============================================================================
// Rendering
// =============================================================================

type cell struct {
	r     rune
	style *lipgloss.Style
}

func (m viewModel) View() string {
	var b strings.Builder

	h := m.ctrl.Handle()
	rows := m.rows - footerLines
	if h == nil || m.cols <= 0 || rows <= 0 {
		b.WriteString(StyleDim.Render("waiting for the terminal size..."))
		b.WriteString("\n")
		b.WriteString(m.footer(nil))
		return b.String()
	}

	positions, state := h.Snapshot()
	b.WriteString(m.canvas(positions, m.cols, rows))
	b.WriteString(m.footer(&viewStatus{
		ticks: h.Simulation().Ticks(),
		alpha: h.Simulation().Alpha(),
		state: state,
	}))
	return b.String()
}

type viewStatus struct {
	ticks int
	alpha float64
	state layout.State
}

func (m viewModel) canvas(positions []layout.Position, cols, rows int) string {
	grid := make([][]cell, rows)
	for i := range grid {
		grid[i] = make([]cell, cols)
		for j := range grid[i] {
			grid[i][j].r = ' '
		}
	}
	put := func(col, row int, r rune, st *lipgloss.Style) {
		if row >= 0 && row < rows && col >= 0 && col < cols {
			grid[row][col] = cell{r: r, style: st}
		}
	}
	toCell := func(p layout.Position) (int, int) {
		return int(p.X / cellWidth), int(p.Y / cellHeight)
	}

	at := make(map[string]layout.Position, len(positions))
	for _, p := range positions {
		at[p.ID] = p
	}

	for _, e := range m.graph.Edges {
		a, okA := at[e.From]
		z, okZ := at[e.To]
		if !okA || !okZ {
			continue
		}
		c0, r0 := toCell(a)
		c1, r1 := toCell(z)
		steps := max(abs(c1-c0), abs(r1-r0))
		for s := 1; s < steps; s++ {
			t := float64(s) / float64(steps)
			col := c0 + int(math.Round(t*float64(c1-c0)))
			row := r0 + int(math.Round(t*float64(r1-r0)))
			r := '·'
			if s == steps-1 {
				r = arrowRune(c1-c0, r1-r0)
			}
			put(col, row, r, &viewEdgeStyle)
		}
	}

	sel, _ := m.selectedID()
	for _, n := range m.graph.Nodes {
		p, ok := at[n.ID]
		if !ok {
			continue
		}
		col, row := toCell(p)
		st := lipgloss.NewStyle().Foreground(userColor(n.Color)).Bold(true)
		switch {
		case n.ID == sel:
			st = viewSelectedStyle.Foreground(userColor(n.Color))
		case m.isPinned(n.ID):
			st = viewPinnedStyle
		}
		put(col, row, '●', &st)
		label := []rune(n.Label)
		if len(label) > maxLabelRunes {
			label = append(label[:maxLabelRunes-1], '…')
		}
		for i, r := range label {
			put(col+2+i, row, r, &st)
		}
	}

	var b strings.Builder
	for _, line := range grid {
		for _, c := range line {
			if c.style == nil {
				b.WriteRune(c.r)
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m viewModel) isPinned(id string) bool {
	_, ok := m.pinned[id]
	return ok
}

func (m viewModel) footer(st *viewStatus) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%d people", len(m.graph.Nodes)), fmt.Sprintf("%d edges", len(m.graph.Edges)))
	if st != nil {
		parts = append(parts,
			fmt.Sprintf("tick %d", st.ticks),
			fmt.Sprintf("alpha %.3f", st.alpha),
			st.state.String())
	}
	parts = append(parts, fmt.Sprintf("seed %d", m.ctrl.Seed()))
	if id, ok := m.selectedID(); ok {
		name := m.graph.Nodes[m.selected].Label
		if name == "" {
			name = id
		}
		if m.isPinned(id) {
			name += " (pinned)"
		}
		parts = append(parts, StyleHighlight.Render(name))
	}

	var b strings.Builder
	b.WriteString(StyleDim.Render(strings.Join(parts, " · ")))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(styleIconError.Render(iconError + " " + m.err.Error()))
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("tab select  ←↑↓→ drag  space release  r reseed  q quit"))
	return b.String()
}

// arrowRune picks a head for an edge travelling (dc, dr) cells.
func arrowRune(dc, dr int) rune {
	if abs(dc) >= 2*abs(dr) {
		if dc > 0 {
			return '→'
		}
		return '←'
	}
	if abs(dr) >= 2*abs(dc) {
		if dr > 0 {
			return '↓'
		}
		return '↑'
	}
	switch {
	case dc > 0 && dr > 0:
		return '↘'
	case dc > 0:
		return '↗'
	case dr > 0:
		return '↙'
	}
	return '↖'
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
