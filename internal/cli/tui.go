package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/storybox/pkg/story"
)

var (
	walkFrameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 2)
	walkStageStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	walkOnStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	walkOffStyle    = lipgloss.NewStyle().Foreground(colorDim)
	walkOptionStyle = lipgloss.NewStyle().Foreground(colorCyan)
)

// WalkModel is the bubbletea model that plays a story with the keyboard.
// Keys map to the device controls: enter is ok, h is home, t ends the
// current sound, the arrow keys turn the wheel.
type WalkModel struct {
	pkg    *story.Package
	walker *story.Walker
	steps  int
	err    error
}

// NewWalkModel starts a walk at the package root.
func NewWalkModel(pkg *story.Package) WalkModel {
	return WalkModel{pkg: pkg, walker: story.NewWalker(pkg.Graph())}
}

func (m WalkModel) Init() tea.Cmd {
	return nil
}

func (m WalkModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	var err error
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "enter", "o":
		err = m.walker.Ok()
	case "h":
		err = m.walker.Home()
	case "t":
		err = m.walker.Timeout()
	case "right", "down", "l", "j":
		err = m.walker.Wheel(1)
	case "left", "up", "k":
		err = m.walker.Wheel(-1)
	case "r":
		m.walker.Reset()
	default:
		return m, nil
	}
	m.err = err
	if err == nil {
		m.steps++
	}
	return m, nil
}

func (m WalkModel) View() string {
	var b strings.Builder

	title := m.pkg.Info().Title
	if title == "" {
		title = m.pkg.ID()
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("enter ok  h home  t timeout  ←/→ wheel  r reset  q quit"))
	b.WriteString("\n\n")

	stage := m.walker.Stage()
	var body strings.Builder
	body.WriteString(walkStageStyle.Render(nodeTitle(stage)))
	body.WriteString(StyleDim.Render(fmt.Sprintf("  #%d", stage.Index)))
	body.WriteString("\n\n")
	if stage.Image != nil {
		body.WriteString("image  " + StyleValue.Render(stage.Image.Locator()) + "\n")
	}
	if stage.Audio != nil {
		body.WriteString("audio  " + StyleValue.Render(stage.Audio.Locator()) + "\n")
	}
	if !stage.HasMedia() {
		body.WriteString(StyleDim.Render("no media") + "\n")
	}
	body.WriteString("\n" + renderControls(stage.Controls))

	if action, ok := m.walker.Action(); ok {
		count := m.pkg.Graph().OptionCount(action)
		body.WriteString("\n" + walkOptionStyle.Render(fmt.Sprintf("%s · option %d of %d", nodeTitle(action), m.walker.Option()+1, count)))
	}

	b.WriteString(walkFrameStyle.Render(body.String()))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(StyleError.Render(iconError + " " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d steps", m.steps)))
	return b.String()
}

func nodeTitle(n story.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("%s %d", n.Kind, n.Index)
}

func renderControls(c story.Controls) string {
	parts := make([]string, 0, 5)
	for _, f := range []struct {
		name string
		on   bool
	}{
		{"wheel", c.Wheel}, {"ok", c.Ok}, {"home", c.Home}, {"pause", c.Pause}, {"autoplay", c.Autoplay},
	} {
		if f.on {
			parts = append(parts, walkOnStyle.Render(f.name))
		} else {
			parts = append(parts, walkOffStyle.Render(f.name))
		}
	}
	return strings.Join(parts, " ")
}
