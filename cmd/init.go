package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jackchuka/allerscan/internal/camera"
	"github.com/jackchuka/allerscan/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up allerscan config interactively",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

type initStep int

const (
	stepWelcome   initStep = iota
	stepOverwrite          // only if config exists
	stepBack
	stepFront
	stepConfirm
	stepDone
)

var (
	styleInitTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("73"))
	styleInitSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("71"))
	styleInitWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	styleInitDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

type initModel struct {
	step         initStep
	input        textinput.Model
	back         string
	front        string
	warnings     map[initStep]string
	configPath   string
	configExists bool
	err          error
	cancelled    bool
	needBack     bool
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := cfgFile
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	_, err := os.Stat(configPath)
	configExists := err == nil

	m := newInitModel(configPath, configExists)

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return err
	}

	if final, ok := result.(*initModel); ok && final.err != nil {
		return final.err
	}

	return nil
}

func newInitModel(configPath string, configExists bool) *initModel {
	ti := textinput.New()
	ti.Placeholder = "/dev/ttyACM0"
	ti.CharLimit = 256
	ti.Width = 50

	return &initModel{
		step:         stepWelcome,
		input:        ti,
		warnings:     make(map[initStep]string),
		configPath:   configPath,
		configExists: configExists,
	}
}

func (m *initModel) Init() tea.Cmd {
	return nil
}

func (m *initModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()

		// Global quit
		if key == "ctrl+c" {
			m.cancelled = true
			return m, tea.Quit
		}

		switch m.step {
		case stepWelcome:
			if key == "enter" {
				if m.configExists {
					m.step = stepOverwrite
				} else {
					return m, m.startBack()
				}
			}
			if key == "q" || key == "esc" {
				m.cancelled = true
				return m, tea.Quit
			}

		case stepOverwrite:
			if key == "y" || key == "Y" {
				return m, m.startBack()
			}
			m.cancelled = true
			return m, tea.Quit

		case stepBack:
			if key == "enter" {
				val := strings.TrimSpace(m.input.Value())
				if val == "" {
					m.needBack = true
					return m, nil
				}
				m.back = val
				m.needBack = false
				m.checkDevice(stepBack, val)
				m.input.Reset()
				m.input.Placeholder = "leave empty for none"
				m.step = stepFront
				return m, nil
			}
			if key == "esc" {
				m.cancelled = true
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd

		case stepFront:
			if key == "enter" {
				m.front = strings.TrimSpace(m.input.Value())
				if m.front != "" {
					m.checkDevice(stepFront, m.front)
				}
				m.input.Reset()
				m.step = stepConfirm
				return m, nil
			}
			if key == "esc" {
				return m, m.startBack()
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd

		case stepConfirm:
			if key == "enter" {
				cfg := config.NewConfig()
				cfg.BackDevice = m.back
				cfg.FrontDevice = m.front
				if err := config.Save(cfg, m.configPath); err != nil {
					m.err = err
				}
				m.step = stepDone
				return m, tea.Quit
			}
			if key == "esc" {
				return m, m.startBack()
			}

		case stepDone:
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *initModel) startBack() tea.Cmd {
	m.step = stepBack
	m.back, m.front = "", ""
	m.warnings = make(map[initStep]string)
	m.input.Reset()
	m.input.Placeholder = "/dev/ttyACM0"
	m.input.Focus()
	return textinput.Blink
}

func (m *initModel) checkDevice(step initStep, path string) {
	if path == camera.StdinDevice {
		m.warnings[step] = "  stdin only works with 'allerscan watch'"
		return
	}
	if _, err := os.Stat(config.ExpandHome(path)); err != nil {
		m.warnings[step] = fmt.Sprintf("  %s is not connected right now", path)
	}
}

func (m *initModel) View() string {
	var b strings.Builder

	switch m.step {
	case stepWelcome:
		b.WriteString(styleInitTitle.Render("Welcome to allerscan!"))
		b.WriteString("\n\n")
		b.WriteString("Config will be saved to ")
		b.WriteString(styleInitDim.Render(m.configPath))
		b.WriteString("\n\n")
		b.WriteString(styleInitDim.Render("Press Enter to continue, Esc to cancel"))
		b.WriteString("\n")

	case stepOverwrite:
		b.WriteString(styleInitWarn.Render("Config already exists"))
		b.WriteString(" at ")
		b.WriteString(styleInitDim.Render(m.configPath))
		b.WriteString("\n\n")
		b.WriteString("Overwrite? ")
		b.WriteString(styleInitDim.Render("[y/N]"))
		b.WriteString("\n")

	case stepBack:
		b.WriteString(styleInitTitle.Render("Back scanner"))
		b.WriteString("\n\n")
		b.WriteString("Device the main barcode scanner writes to:\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		if m.needBack {
			b.WriteString(styleInitWarn.Render("  A back scanner is required"))
			b.WriteString("\n")
		}

	case stepFront:
		b.WriteString(styleInitTitle.Render("Front scanner"))
		b.WriteString("\n\n")
		b.WriteString(styleInitSuccess.Render("  + back: " + m.back))
		b.WriteString("\n")
		if w, ok := m.warnings[stepBack]; ok {
			b.WriteString(styleInitWarn.Render(w))
			b.WriteString("\n")
		}
		b.WriteString("\nOptional second scanner (press Enter to skip):\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")

	case stepConfirm:
		b.WriteString(styleInitTitle.Render("Ready to write config"))
		b.WriteString(":\n\n")
		b.WriteString("  back:  " + m.back + "\n")
		if w, ok := m.warnings[stepBack]; ok {
			b.WriteString(styleInitWarn.Render(w) + "\n")
		}
		front := m.front
		if front == "" {
			front = "(none)"
		}
		b.WriteString("  front: " + front + "\n")
		if w, ok := m.warnings[stepFront]; ok {
			b.WriteString(styleInitWarn.Render(w) + "\n")
		}
		b.WriteString("\n")
		b.WriteString(styleInitDim.Render("[Enter] Write config  [Esc] Start over"))
		b.WriteString("\n")

	case stepDone:
		if m.err != nil {
			b.WriteString(styleInitWarn.Render("Error: " + m.err.Error()))
			b.WriteString("\n")
		} else {
			b.WriteString(styleInitSuccess.Render("Config saved to " + m.configPath))
			b.WriteString("\n\n")
			b.WriteString("Run ")
			b.WriteString(styleInitTitle.Render("allerscan"))
			b.WriteString(" and scan a product!\n")
		}
	}

	return b.String()
}
