// SPDX-License-Identifier: MIT

// Package tui renders the live terminal monitor: the currently tuned
// peaks with magnitude meters, the runtime controls, and a device
// screen for picking IDs to pass on the command line.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/W47K3R9/SpectralDev/internal/analysis"
	"github.com/W47K3R9/SpectralDev/internal/audio"
	"github.com/W47K3R9/SpectralDev/internal/engine"
	"github.com/W47K3R9/SpectralDev/internal/osc"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// refreshInterval paces the peak snapshots. Faster than the eye needs
// is wasted work; slower looks stuck next to the audio.
const refreshInterval = 100 * time.Millisecond

const meterWidth = 30

// ScreenType defines which screen is currently active.
type ScreenType int

const (
	MonitorScreen ScreenType = iota
	DeviceScreen
)

type tickMsg time.Time

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// MonitorModel is the Bubble Tea model for the live session.
type MonitorModel struct {
	eng *engine.Engine

	peaks  []analysis.Peak
	n      int
	params engine.Params
	rate   float64
	block  int

	devices       []audio.Device
	selectedIndex int

	viewport     viewport.Model
	ready        bool
	err          error
	activeScreen ScreenType
}

// NewMonitorModel builds the model around a running engine.
func NewMonitorModel(eng *engine.Engine) MonitorModel {
	return MonitorModel{
		eng:   eng,
		peaks: make([]analysis.Peak, eng.BlockSize()/2),
		rate:  eng.SampleRate(),
		block: eng.BlockSize(),
	}
}

// Init starts the refresh ticker and fetches the device list once.
func (m MonitorModel) Init() tea.Cmd {
	return tea.Batch(fetchDevices, tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchDevices gets the available audio devices.
func fetchDevices() tea.Msg {
	devices, err := audio.HostDevices()
	if err != nil {
		return errMsg{err}
	}
	return devicesMsg{devices}
}

// Update handles input, refresh ticks and updates the model.
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
			m.viewport.SetContent(m.renderActive())
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}

	case tickMsg:
		m.n = m.eng.PeaksInto(m.peaks)
		m.params = m.eng.Params()
		if m.ready && m.activeScreen == MonitorScreen {
			m.viewport.SetContent(m.renderMonitor())
		}
		cmds = append(cmds, tick())

	case devicesMsg:
		m.devices = msg.devices
		if m.ready && m.activeScreen == DeviceScreen {
			m.viewport.SetContent(m.renderDevices())
		}

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		// First check for keys that should work everywhere.
		if key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))) {
			return m, tea.Quit
		}

		if m.activeScreen == MonitorScreen {
			switch {
			case key.Matches(msg, key.NewBinding(key.WithKeys("f"))):
				m.eng.SetFreeze(!m.params.Freeze)
				m.params.Freeze = !m.params.Freeze

			case key.Matches(msg, key.NewBinding(key.WithKeys("c"))):
				m.eng.SetContinuousTuning(!m.params.ContinuousTuning)
				m.params.ContinuousTuning = !m.params.ContinuousTuning

			case key.Matches(msg, key.NewBinding(key.WithKeys("t"))):
				m.eng.TriggerTuning()

			case key.Matches(msg, key.NewBinding(key.WithKeys("w"))):
				next := m.params.Waveform + 1
				if next > osc.Sawtooth {
					next = osc.Sine
				}
				m.eng.SelectWaveform(next)
				m.params.Waveform = next

			case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
				m.eng.SetGain(m.params.Gain + 0.05)
				m.params = m.eng.Params()

			case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
				m.eng.SetGain(m.params.Gain - 0.05)
				m.params = m.eng.Params()

			case key.Matches(msg, key.NewBinding(key.WithKeys("d"))):
				m.activeScreen = DeviceScreen
				if m.ready {
					m.viewport.SetContent(m.renderDevices())
				}
			}
			if m.ready && m.activeScreen == MonitorScreen {
				m.viewport.SetContent(m.renderMonitor())
			}
		} else if m.activeScreen == DeviceScreen {
			switch {
			case key.Matches(msg, key.NewBinding(key.WithKeys("esc", "d"))):
				m.activeScreen = MonitorScreen
				if m.ready {
					m.viewport.SetContent(m.renderMonitor())
				}

			case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
				if m.selectedIndex > 0 {
					m.selectedIndex--
					m.viewport.SetContent(m.renderDevices())
				}

			case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
					m.viewport.SetContent(m.renderDevices())
				}
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m MonitorModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	var title, help string

	if m.activeScreen == MonitorScreen {
		title = titleStyle.Render("Spectral Monitor")
		help = infoStyle.Render("f: Freeze • c: Continuous • t: Retune • w: Waveform • ↑/↓: Gain • d: Devices • q: Quit")
	} else {
		title = titleStyle.Render("Audio Devices")
		help = infoStyle.Render("↑/↓: Navigate • Esc: Monitor • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m MonitorModel) renderActive() string {
	if m.activeScreen == DeviceScreen {
		return m.renderDevices()
	}
	return m.renderMonitor()
}

// renderMonitor formats the parameter line and one meter row per
// audible voice.
func (m MonitorModel) renderMonitor() string {
	var sb strings.Builder

	p := m.params
	state := "live"
	if p.Freeze {
		state = "frozen"
	}
	tuning := "triggered"
	if p.ContinuousTuning {
		tuning = "continuous"
	}

	sb.WriteString(fmt.Sprintf("%d-point analysis @ %.0f Hz (%.2f Hz per bin)\n",
		m.block, m.rate, m.rate/float64(m.block)))
	sb.WriteString(fmt.Sprintf("%s • %s tuning • %s • gain %.2f • threshold %.3g\n\n",
		p.Waveform, tuning, state, p.Gain, p.Threshold))

	if m.n == 0 {
		sb.WriteString(mutedStyle.Render("no peaks above threshold") + "\n")
		return sb.String()
	}

	// Snapshots arrive sorted by magnitude, so the first row is the
	// loudest partial and scales the meters.
	ref := m.peaks[0].Mag
	for i := 0; i < m.n && i < p.Voices; i++ {
		pk := m.peaks[i]
		row := fmt.Sprintf("%2d  %9.2f Hz  bin %4d  %s %.4g\n",
			i+1, m.eng.FrequencyForBin(pk.Bin), pk.Bin, meter(pk.Mag, ref), pk.Mag)
		if i == 0 {
			row = highlightStyle.Render(row)
		}
		sb.WriteString(row)
	}
	for i := m.n; i < p.Voices; i++ {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("%2d  muted\n", i+1)))
	}

	return sb.String()
}

// meter renders a magnitude bar relative to the loudest peak.
func meter(mag, ref float64) string {
	if ref <= 0 {
		return strings.Repeat("░", meterWidth)
	}
	filled := int(mag / ref * meterWidth)
	if filled > meterWidth {
		filled = meterWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)
}

// renderDevices formats the device list.
func (m MonitorModel) renderDevices() string {
	var sb strings.Builder

	if len(m.devices) == 0 {
		return "No audio devices found."
	}

	for i, device := range m.devices {
		deviceType := ""
		if device.MaxInputChannels > 0 && device.MaxOutputChannels > 0 {
			deviceType = "Input/Output"
		} else if device.MaxInputChannels > 0 {
			deviceType = "Input"
		} else if device.MaxOutputChannels > 0 {
			deviceType = "Output"
		}

		deviceInfo := fmt.Sprintf("[%d] %s (%s)\n",
			device.ID, device.Name, deviceType)
		deviceInfo += fmt.Sprintf("    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)
		deviceInfo += fmt.Sprintf("    Default sample rate: %.0f Hz\n",
			device.DefaultSampleRate)

		if i == m.selectedIndex {
			deviceInfo = highlightStyle.Render(deviceInfo)
		}

		sb.WriteString(deviceInfo)
		sb.WriteString("\n")
	}

	return sb.String()
}

// Run launches the monitor in the alternate screen and blocks until
// the user quits.
func Run(eng *engine.Engine) error {
	p := tea.NewProgram(NewMonitorModel(eng), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
