package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/version"
)

// Title gradient stops: blue, purple, magenta, pink.
var titleStops = []colorful.Color{
	{R: 59.0 / 255, G: 130.0 / 255, B: 246.0 / 255},
	{R: 139.0 / 255, G: 92.0 / 255, B: 246.0 / 255},
	{R: 217.0 / 255, G: 70.0 / 255, B: 239.0 / 255},
	{R: 236.0 / 255, G: 72.0 / 255, B: 153.0 / 255},
}

// gradientColor returns the title color at position t in [0, 1].
func gradientColor(t float64) colorful.Color {
	if t <= 0 {
		return titleStops[0]
	}
	if t >= 1 {
		return titleStops[len(titleStops)-1]
	}
	seg := t * float64(len(titleStops)-1)
	i := int(seg)
	return titleStops[i].BlendLab(titleStops[i+1], seg-float64(i)).Clamped()
}

func renderTitle(text string) string {
	runes := []rune(text)
	var b strings.Builder
	for i, r := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradientColor(t).Hex())).Bold(true)
		b.WriteString(style.Render(string(r)))
	}
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// renderHUD draws the status line and the key help below the canvas.
func (m Model) renderHUD() string {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	v := m.engine.View()
	cam := m.engine.Camera()

	var b strings.Builder
	b.WriteString(renderTitle(" ls-orrery"))
	b.WriteString(dimStyle.Render(fmt.Sprintf(" v%s  ", version.Version)))

	if v.Selected != "" {
		name := v.Selected
		if entry, ok := m.engine.Registry().Lookup(v.Selected); ok {
			name = entry.Name
		}
		b.WriteString(headerStyle.Render("◆ " + name))
		b.WriteString("  ")
	}

	b.WriteString(dimStyle.Render("Mode:"))
	mode := cam.Mode().String()
	if cam.Flags().AutoRotate {
		mode += "+auto"
	}
	b.WriteString(valueStyle.Render(mode))
	if id := cam.TargetID(); id != "" && cam.Mode() == camera.ModeLocked {
		b.WriteString(dimStyle.Render("→" + id))
	}
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Speed:"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.2fx", v.Speed)))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("t:"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.0fs", v.Elapsed)))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Labels:"))
	b.WriteString(valueStyle.Render(onOff(v.ShowLabels)))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("FPS:"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.0f", m.hud.fps)))
	if m.hud.hasLast {
		b.WriteString("  ")
		b.WriteString(dimStyle.Render(fmt.Sprintf("last: %s (%s)", m.hud.last.Name, m.hud.last.Source)))
	}
	b.WriteString("\n")

	b.WriteString(dimStyle.Render(" click: select | drag/arrows: rotate | wheel/z/x: zoom | shift+arrows: pan | " +
		"1/2/3: orbit/free/locked | j/k: focus | l: labels | +/-: speed | a: auto | r: reset | o: orbits | t: stars | R: rebuild | q: quit"))
	if m.width > 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
	}
	return b.String()
}
