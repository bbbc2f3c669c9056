package setup

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/notify-center/internal/config"
	"github.com/nhle/notify-center/internal/credential"
	"github.com/nhle/notify-center/internal/gateway"
	"github.com/nhle/notify-center/internal/theme"
)

// Mode represents the current state of the setup flow.
type Mode int

const (
	ModeForm       Mode = iota // Collecting server URL and token
	ModeValidating             // Testing the connection
	ModeResult                 // Showing the validation outcome
)

// DoneMsg signals setup finished and the main app can start syncing.
type DoneMsg struct {
	BaseURL string
}

// AbortedMsg signals the user backed out of setup.
type AbortedMsg struct{}

// validateResultMsg carries the outcome of the connection test.
type validateResultMsg struct {
	err error
}

const validateTimeout = 15 * time.Second

// Model is the first-run setup flow: server URL plus API token,
// validated against the server before anything is persisted.
type Model struct {
	mode Mode

	cfg        *config.AppConfig
	configPath string
	logger     *zap.Logger

	form        *huh.Form
	formBaseURL string
	formToken   string

	spinner  spinner.Model
	validErr error

	width, height int
}

// New creates the setup model. cfg is mutated and saved on success.
func New(cfg *config.AppConfig, configPath string, logger *zap.Logger, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		mode:        ModeForm,
		cfg:         cfg,
		configPath:  configPath,
		logger:      logger,
		formBaseURL: cfg.Server.BaseURL,
		spinner:     sp,
		width:       width,
		height:      height,
	}
	m.form = m.buildForm()
	return m
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles setup flow messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case validateResultMsg:
		m.validErr = msg.err
		m.mode = ModeResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == ModeResult {
			return m.handleResultKeys(msg)
		}
		if m.mode == ModeValidating {
			if msg.String() == "esc" {
				m.mode = ModeForm
				m.form = m.buildForm()
				return m, m.form.Init()
			}
			return m, nil
		}
	}

	return m.updateForm(msg)
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validateAndSave())
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return AbortedMsg{} }
	}

	return m, cmd
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.validErr == nil {
		baseURL := strings.TrimRight(strings.TrimSpace(m.formBaseURL), "/")
		return m, func() tea.Msg { return DoneMsg{BaseURL: baseURL} }
	}
	switch msg.String() {
	case "esc", "q":
		return m, func() tea.Msg { return AbortedMsg{} }
	default:
		m.mode = ModeForm
		m.form = m.buildForm()
		return m, m.form.Init()
	}
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Description("Notification server base URL").
				Placeholder("https://notify.example.com").
				Value(&m.formBaseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("API Token").
				Description("Your personal API token").
				EchoMode(huh.EchoModePassword).
				Value(&m.formToken).
				Validate(validateRequired("Token")),
		),
	).WithWidth(m.formWidth())
}

// validateAndSave probes the server with the entered credentials, then
// persists config and token only if the probe succeeds.
func (m Model) validateAndSave() tea.Cmd {
	baseURL := strings.TrimRight(strings.TrimSpace(m.formBaseURL), "/")
	token := strings.TrimSpace(m.formToken)
	cfg := m.cfg
	path := m.configPath
	logger := m.logger

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
		defer cancel()

		gw := gateway.New(baseURL, token, logger)
		if _, err := gw.UnreadCount(ctx); err != nil {
			return validateResultMsg{err: err}
		}

		if err := credential.SetToken(token); err != nil {
			return validateResultMsg{err: fmt.Errorf("store token: %w", err)}
		}

		cfg.Server.BaseURL = baseURL
		if err := config.Save(path, cfg); err != nil {
			return validateResultMsg{err: fmt.Errorf("connection OK but save failed: %w", err)}
		}

		return validateResultMsg{err: nil}
	}
}

// View renders the current setup step.
func (m Model) View() string {
	switch m.mode {
	case ModeValidating:
		return m.centered(m.spinner.View() + " checking connection…")

	case ModeResult:
		if m.validErr != nil {
			return m.centered(
				theme.ErrorStyle.Render("Connection failed") + "\n\n" +
					m.validErr.Error() + "\n\n" +
					theme.HelpStyle.Render("any key to edit · esc to quit"))
		}
		return m.centered(
			"Connected.\n\n" +
				theme.HelpStyle.Render("press any key to continue"))

	default:
		header := theme.HeaderStyle.Render("Notify Center Setup")
		return lipgloss.JoinVertical(lipgloss.Left, header, "", m.form.View())
	}
}

func (m Model) centered(s string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(s)
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w > 72 {
		w = 72
	}
	if w < 40 {
		w = 40
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}
