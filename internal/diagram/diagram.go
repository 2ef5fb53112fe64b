// Package diagram renders an insertion plan as an ASCII layer diagram.
// Tables with no dependencies form the top layer; every further layer
// holds the tables whose dependencies are all drawn above it.
package diagram

import (
	"fmt"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
)

// Renderer draws dependency layer diagrams.
type Renderer struct {
	colorize bool
}

// New creates a Renderer. With colorize false the output is plain text,
// suitable for piping and for tests.
func New(colorize bool) *Renderer {
	return &Renderer{colorize: colorize}
}

// Render draws the tables in dependency layers, in the given order within
// each layer. Tables whose dependencies never resolve (reference cycles)
// are listed below the diagram as unresolved.
func (r *Renderer) Render(order []string, deps map[string][]string) string {
	layers, unresolved := layerize(order, deps)

	var sb strings.Builder
	for i, layer := range layers {
		if i > 0 {
			sb.WriteString(r.arrowLine())
		}
		r.renderLayer(&sb, layer)
	}

	if len(unresolved) > 0 {
		sb.WriteString("\n")
		sb.WriteString(r.warn("unresolved (reference cycle): " + strings.Join(unresolved, ", ")))
		sb.WriteString("\n")
	}

	return sb.String()
}

// layerize groups tables into dependency layers. A table lands in the first
// layer where all of its dependencies sit in earlier layers. Tables that
// never qualify come back as unresolved.
func layerize(order []string, deps map[string][]string) ([][]string, []string) {
	placed := make(map[string]bool, len(order))
	remaining := append([]string(nil), order...)

	var layers [][]string
	for len(remaining) > 0 {
		var layer, rest []string
		for _, table := range remaining {
			if depsPlaced(deps[table], placed) {
				layer = append(layer, table)
			} else {
				rest = append(rest, table)
			}
		}
		if len(layer) == 0 {
			// No progress: the rest participate in or depend on a cycle.
			return layers, rest
		}
		for _, table := range layer {
			placed[table] = true
		}
		layers = append(layers, layer)
		remaining = rest
	}
	return layers, nil
}

func depsPlaced(deps []string, placed map[string]bool) bool {
	for _, dep := range deps {
		if !placed[dep] {
			return false
		}
	}
	return true
}

// renderLayer draws one row of boxes side by side.
func (r *Renderer) renderLayer(sb *strings.Builder, tables []string) {
	var top, mid, bottom []string
	for _, table := range tables {
		w := runewidth.StringWidth(table)
		top = append(top, "┌"+strings.Repeat("─", w+2)+"┐")
		mid = append(mid, "│ "+r.name(table)+" │")
		bottom = append(bottom, "└"+strings.Repeat("─", w+2)+"┘")
	}
	sb.WriteString(strings.Join(top, "  ") + "\n")
	sb.WriteString(strings.Join(mid, "  ") + "\n")
	sb.WriteString(strings.Join(bottom, "  ") + "\n")
}

func (r *Renderer) arrowLine() string {
	return "    │\n    ▼\n"
}

func (r *Renderer) name(table string) string {
	if r.colorize {
		return color.FgCyan.Render(table)
	}
	return table
}

func (r *Renderer) warn(msg string) string {
	if r.colorize {
		return color.FgYellow.Render(msg)
	}
	return msg
}

// Summary returns a one-line description of the plan shape.
func Summary(order []string, deps map[string][]string) string {
	layers, unresolved := layerize(order, deps)
	if len(unresolved) > 0 {
		return fmt.Sprintf("%d tables, %d layers, %d unresolved", len(order), len(layers), len(unresolved))
	}
	return fmt.Sprintf("%d tables, %d layers", len(order), len(layers))
}
