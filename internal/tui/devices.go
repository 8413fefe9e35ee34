// Package tui holds the interactive output device picker.
package tui

import (
	"fmt"
	"strings"

	"visualizer/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)
)

var keys = struct {
	quit, up, down, choose, back key.Binding
}{
	quit:   key.NewBinding(key.WithKeys("q", "ctrl+c")),
	up:     key.NewBinding(key.WithKeys("up", "k")),
	down:   key.NewBinding(key.WithKeys("down", "j")),
	choose: key.NewBinding(key.WithKeys("enter")),
	back:   key.NewBinding(key.WithKeys("esc")),
}

// SampleRates are the context rates offered once a device is chosen.
var SampleRates = []float64{44100, 48000, 88200, 96000}

// Selection is the result of the picker.
type Selection struct {
	DeviceID   int
	DeviceName string
	SampleRate float64
}

type deviceItem struct{ audio.Device }

func (i deviceItem) Title() string {
	if i.HostAPI == "" {
		return fmt.Sprintf("[%d] %s", i.ID, i.Name)
	}
	return fmt.Sprintf("[%d] %s (%s)", i.ID, i.Name, i.HostAPI)
}

func (i deviceItem) Description() string {
	return fmt.Sprintf("%d ch • %.0f Hz • %s latency",
		i.MaxOutputChannels, i.DefaultSampleRate, i.LowLatency)
}

func (i deviceItem) FilterValue() string { return i.Name }

// DeviceListModel lists output devices, then asks for a sample rate for the
// highlighted one.
type DeviceListModel struct {
	fetch func() ([]audio.Device, error)
	list  list.Model
	err   error

	device *audio.Device // set while choosing a rate
	rate   int

	selection *Selection
}

// NewDeviceListModel creates a picker over the devices fetch returns.
func NewDeviceListModel(fetch func() ([]audio.Device, error)) DeviceListModel {
	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.Title = "Output Devices"
	l.Styles.Title = titleStyle
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetStatusBarItemName("device", "devices")
	return DeviceListModel{fetch: fetch, list: l}
}

type devicesMsg []audio.Device

type errMsg struct{ err error }

// Init fetches the device list.
func (m DeviceListModel) Init() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		devices, err := fetch()
		if err != nil {
			return errMsg{err}
		}
		return devicesMsg(devices)
	}
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case devicesMsg:
		items := make([]list.Item, len(msg))
		for i, d := range msg {
			items[i] = deviceItem{d}
		}
		return m, m.list.SetItems(items)

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case tea.KeyMsg:
		if m.err != nil || key.Matches(msg, keys.quit) {
			return m, tea.Quit
		}
		if m.device != nil {
			return m.updateRate(msg)
		}
		if key.Matches(msg, keys.choose) {
			if item, ok := m.list.SelectedItem().(deviceItem); ok {
				d := item.Device
				m.device = &d
				m.rate = rateIndex(d.DefaultSampleRate)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m DeviceListModel) updateRate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.back):
		m.device = nil
	case key.Matches(msg, keys.up):
		m.rate = max(m.rate-1, 0)
	case key.Matches(msg, keys.down):
		m.rate = min(m.rate+1, len(SampleRates)-1)
	case key.Matches(msg, keys.choose):
		m.selection = &Selection{
			DeviceID:   m.device.ID,
			DeviceName: m.device.Name,
			SampleRate: SampleRates[m.rate],
		}
		return m, tea.Quit
	}
	return m, nil
}

// rateIndex returns the offered rate matching rate, or the first.
func rateIndex(rate float64) int {
	for i, r := range SampleRates {
		if r == rate {
			return i
		}
	}
	return 0
}

// Selection returns the confirmed choice, if any.
func (m DeviceListModel) Selection() (Selection, bool) {
	if m.selection == nil {
		return Selection{}, false
	}
	return *m.selection, true
}

func (m DeviceListModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress any key to exit.", m.err)
	}
	if m.device != nil {
		return m.rateView() + "\n" + helpStyle.Render("↑/↓ rate • enter select • esc back • q quit")
	}
	if len(m.list.Items()) == 0 {
		return titleStyle.Render("Output Devices") + "\n\nNo output devices found.\n\n" + helpStyle.Render("q quit")
	}
	return m.list.View() + "\n" + helpStyle.Render("↑/↓ navigate • enter configure • q quit")
}

func (m DeviceListModel) rateView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Device Configuration"))
	fmt.Fprintf(&sb, "\n\n%s\n\nSample Rate:\n", m.device.Name)
	for i, r := range SampleRates {
		line := fmt.Sprintf("    %.0f Hz", r)
		if i == m.rate {
			line = selectedStyle.Render(fmt.Sprintf("  ▶ %.0f Hz", r))
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// StartDeviceListUI runs the picker on the terminal and returns the
// confirmed selection. ok is false when the user quit without choosing.
func StartDeviceListUI() (sel Selection, ok bool, err error) {
	final, err := tea.NewProgram(NewDeviceListModel(audio.GetDevices), tea.WithAltScreen()).Run()
	if err != nil {
		return Selection{}, false, err
	}
	m := final.(DeviceListModel)
	if m.err != nil {
		return Selection{}, false, m.err
	}
	sel, ok = m.Selection()
	return sel, ok, nil
}
