package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jackchuka/allerscan/internal/camera"
	"github.com/jackchuka/allerscan/internal/permission"
	"github.com/jackchuka/allerscan/internal/session"
)

func (m *Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	if m.showHelp {
		sections = append(sections, m.renderHelp())
		return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top,
			strings.Join(sections, "\n"))
	}

	bodyH := m.height - 4 // header(2) + footer(2)
	if bodyH < 1 {
		bodyH = 1
	}
	sections = append(sections, padLines(m.renderBody(), m.width, bodyH))
	sections = append(sections, m.renderFooter())

	view := lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top,
		strings.Join(sections, "\n"))

	// Overlay toasts on the view (bottom-right with padding)
	if len(m.toasts) > 0 {
		toast := m.renderToasts()
		tw := lipgloss.Width(toast)
		th := lipgloss.Height(toast)
		x := m.width - tw - 2
		y := m.height - th - 2
		view = placeOverlay(x, y, toast, view)
	}

	return view
}

func (m *Model) renderHeader() string {
	title := lipgloss.NewStyle().Foreground(lipgloss.Color("44")).Bold(true).Render("allerscan")

	snap := m.snapshot()

	var spinner string
	switch {
	case m.access == permission.Undetermined:
		spinner = "  " + renderSpinner(m.frame) + " Requesting permission..."
	case snap.Pending:
		spinner = "  " + renderSpinner(m.frame) + " Looking up " + snap.LastCode + "..."
	}

	left := title + spinner

	var right string
	if m.session != nil {
		right = styleDim.Render("sensor ") + styleKey.Render(iconSensor+" "+snap.Facing.String())
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	line := left + strings.Repeat(" ", gap) + right
	sep := styleDim.Render(strings.Repeat("─", m.width))

	return line + "\n" + sep
}

func (m *Model) renderBody() string {
	switch m.access {
	case permission.Undetermined:
		return "\n " + styleDim.Render("Requesting camera permission...")
	case permission.Denied:
		return "\n " + styleDanger.Render(iconWarn+" No access to camera") +
			"\n\n " + styleDim.Render("Check that "+m.cfg.BackDevice+" exists and is readable.")
	}
	if m.opening() {
		return "\n " + styleDim.Render("Opening scanner...")
	}

	snap := m.snapshot()
	if snap.Status == session.Idle {
		return m.renderIdle()
	}
	return m.renderResolved(snap)
}

func (m *Model) renderIdle() string {
	var lines []string
	lines = append(lines, "")
	lines = append(lines, " "+styleTitle.Render("Point a scanner at a barcode"))
	lines = append(lines, "")
	if m.manualMode {
		lines = append(lines, " "+m.manualInput.View())
	} else {
		lines = append(lines, " "+styleDim.Render("or press / to type a code"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderResolved(snap session.Snapshot) string {
	var lines []string
	lines = append(lines, "")
	lines = append(lines, " "+styleScanned.Render("Scanned!"))

	code := styleCode.Render(snap.LastCode)
	if m.symbology != "" && m.symbology != camera.Unknown {
		code += styleDim.Render(fmt.Sprintf(" (%s)", m.symbology))
	}
	lines = append(lines, " "+code)
	if snap.Product != "" {
		lines = append(lines, " "+styleDim.Render(truncateWithEllipsis(snap.Product, m.width-2)))
	}
	lines = append(lines, "")

	if snap.Pending {
		lines = append(lines, " "+renderSpinner(m.frame)+styleDim.Render(" fetching product data"))
		return strings.Join(lines, "\n")
	}

	lines = append(lines, " "+m.renderResult(snap.Result))
	return strings.Join(lines, "\n")
}

func (m *Model) renderResult(result string) string {
	var content string
	switch result {
	case session.ErrorMessage:
		content = styleDanger.Render(iconWarn + " " + result)
	case session.NotFoundMessage:
		content = styleAmber.Render(result)
	case "":
		content = styleCleanTxt.Render(iconOK + " no allergens declared")
	default:
		var tags []string
		for _, t := range strings.Split(result, "\n") {
			tags = append(tags, styleAmber.Render(iconAllergy+" ")+t)
		}
		content = strings.Join(tags, "\n")
	}

	box := styleAllergenBox
	if m.width > 8 {
		box = box.MaxWidth(m.width - 2)
	}
	return strings.ReplaceAll(box.Render(content), "\n", "\n ")
}

// --- Footer, toasts, help ---

func (m *Model) renderFooter() string {
	sep := styleDim.Render(strings.Repeat("─", m.width))

	var parts []string
	if m.session != nil {
		snap := m.snapshot()
		if snap.Status == session.Resolved {
			parts = append(parts, styleActiveTab.Render("r scan again"))
		} else {
			parts = append(parts, styleDim.Render("r scan again"))
			parts = append(parts, styleKey.Render("/")+" type code")
		}
		parts = append(parts, styleKey.Render("c")+" switch sensor")
	}
	parts = append(parts, styleKey.Render("?")+" help")
	parts = append(parts, styleKey.Render("q")+" quit")

	return sep + "\n " + truncateWithEllipsis(strings.Join(parts, "  "), m.width-2)
}

func (m *Model) renderToasts() string {
	var toastStrs []string
	for _, t := range m.toasts {
		var bc lipgloss.Color
		var icon string
		switch t.Level {
		case ToastSuccess:
			bc = colorGold
			icon = iconStar + " "
		case ToastError:
			bc = colorDangerRed
			icon = iconWarn + " "
		default:
			bc = colorCyan
			icon = ""
		}
		box := styleToastBox.BorderForeground(bc).Render(icon + t.Message)
		toastStrs = append(toastStrs, box)
	}
	return strings.Join(toastStrs, "\n")
}

func (m *Model) renderHelp() string {
	content := m.keys.helpText()

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(colorCyan).
		Padding(1, 2).
		Width(44).
		Render(styleTitle.Render("HELP") + "\n\n" + content + "\n\n" + styleDim.Render("press any key to close"))

	availH := m.height - 4
	if availH < 10 {
		availH = 10
	}
	return lipgloss.Place(m.width, availH, lipgloss.Center, lipgloss.Center, box)
}

// --- Layout utilities ---

// placeOverlay writes fg on top of bg at the given column (x) and row (y).
// It handles ANSI-styled strings correctly using ansi.Cut.
func placeOverlay(x, y int, fg, bg string) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")

	for i, fgLine := range fgLines {
		bgIdx := y + i
		if bgIdx < 0 || bgIdx >= len(bgLines) {
			continue
		}
		bgLine := bgLines[bgIdx]
		fgW := ansi.StringWidth(fgLine)
		bgW := ansi.StringWidth(bgLine)

		if x < 0 {
			x = 0
		}
		if x >= bgW {
			bgLines[bgIdx] = bgLine + strings.Repeat(" ", x-bgW) + fgLine
			continue
		}

		left := ansi.Cut(bgLine, 0, x)
		var right string
		if x+fgW < bgW {
			right = ansi.Cut(bgLine, x+fgW, bgW)
		}
		bgLines[bgIdx] = left + fgLine + right
	}
	return strings.Join(bgLines, "\n")
}

func padLines(content string, width, height int) string {
	lines := strings.Split(content, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		w := lipgloss.Width(line)
		if w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	return strings.Join(lines, "\n")
}
