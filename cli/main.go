package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)

	recommendedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#30d158"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const transcriptLines = 8

const helpText = "/add <id>  /cart  /menu [category]  /apply  /clear  /checkout  /quit"

// Model defines the application state
type Model struct {
	client     *ApiClient
	view       *View
	category   string
	cartTable  table.Model
	textInput  textinput.Model
	spinner    spinner.Model
	transcript []string
	showCart   bool
	loading    bool
	notice     string
	error      string
}

type viewMsg struct{ view *View }

type turnMsg struct {
	resp  *viewResponse
	quiet bool
}

type errMsg struct{ err error }

func initialModel(client *ApiClient) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Tell me how you feel, or type a command..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	columns := []table.Column{
		{Title: "ID", Width: 4},
		{Title: "Dish", Width: 28},
		{Title: "Qty", Width: 5},
		{Title: "Total", Width: 10},
	}
	cartTable := table.New(table.WithColumns(columns), table.WithHeight(6))

	return Model{
		client:    client,
		cartTable: cartTable,
		textInput: ti,
		spinner:   s,
		loading:   true,
	}
}

// Init loads the first view
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink, m.fetchView())
}

func (m Model) fetchView() tea.Cmd {
	category := m.category
	return func() tea.Msg {
		v, err := m.client.View(category)
		if err != nil {
			return errMsg{err}
		}
		return viewMsg{v}
	}
}

func call(fn func() (*viewResponse, error), quiet bool) tea.Cmd {
	return func() tea.Msg {
		resp, err := fn()
		if err != nil {
			return errMsg{err}
		}
		return turnMsg{resp: resp, quiet: quiet}
	}
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textInput.Value())
			m.textInput.SetValue("")
			if input == "" || m.loading {
				return m, nil
			}
			return m.submit(input)
		}

	case viewMsg:
		m.loading = false
		m.error = ""
		m.setView(msg.view)
		return m, nil

	case turnMsg:
		m.loading = false
		m.error = ""
		if msg.resp == nil {
			return m, nil
		}
		m.setView(&msg.resp.View)
		if r := msg.resp.Result; r != nil && r.Reply != "" && !msg.quiet {
			m.transcript = append(m.transcript, "Assistant: "+r.Reply)
		}
		if msg.resp.Message != "" {
			m.notice = msg.resp.Message
		}
		return m, nil

	case errMsg:
		m.loading = false
		m.error = msg.err.Error()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m Model) submit(input string) (tea.Model, tea.Cmd) {
	m.notice = ""
	if !strings.HasPrefix(input, "/") {
		m.transcript = append(m.transcript, "You: "+input)
		m.loading = true
		return m, call(func() (*viewResponse, error) { return m.client.Chat(input) }, false)
	}

	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit":
		return m, tea.Quit
	case "/add":
		if len(fields) < 2 {
			m.error = "usage: /add <dish id>"
			return m, nil
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			m.error = "dish id must be a number"
			return m, nil
		}
		m.loading = true
		return m, call(func() (*viewResponse, error) { return m.client.AddItem(id) }, true)
	case "/cart":
		m.showCart = !m.showCart
		return m, nil
	case "/menu":
		m.category = ""
		if len(fields) > 1 {
			m.category = fields[1]
		}
		m.loading = true
		return m, m.fetchView()
	case "/apply":
		m.loading = true
		return m, call(m.client.Apply, false)
	case "/clear":
		m.transcript = nil
		m.loading = true
		return m, call(m.client.ClearChat, true)
	case "/checkout":
		m.loading = true
		m.showCart = false
		return m, call(m.client.Checkout, true)
	}
	m.error = "unknown command; " + helpText
	return m, nil
}

func (m *Model) setView(v *View) {
	m.view = v
	rows := make([]table.Row, 0, len(v.Cart.Lines))
	for _, l := range v.Cart.Lines {
		rows = append(rows, table.Row{strconv.Itoa(l.DishID), l.Emoji + " " + l.Name, strconv.Itoa(l.Quantity), l.LineTotal})
	}
	m.cartTable.SetRows(rows)
}

// View renders the UI
func (m Model) View() string {
	var b strings.Builder

	if m.view == nil {
		if m.error != "" {
			return docStyle.Render(errorStyle.Render("Error: " + m.error))
		}
		return docStyle.Render(m.spinner.View() + " Loading menu...")
	}

	v := m.view
	b.WriteString(titleStyle.Render(v.Header.Title))
	header := fmt.Sprintf(" %s %s", v.Header.Date, v.Header.Time)
	if v.Header.Weather != "" {
		header += "  " + v.Header.Weather
	}
	if v.Header.Special != "" {
		header += "  " + v.Header.Special
	}
	b.WriteString(mutedStyle.Render(header) + "\n\n")

	if v.MenuError != nil {
		b.WriteString(errorStyle.Render(v.MenuError.Message) + " (type /menu to retry)\n")
	}
	for _, c := range v.Cards {
		line := fmt.Sprintf("%3d  %s %-26s %8s", c.ID, c.Emoji, c.Name, c.Price)
		if c.Recommended {
			line = recommendedStyle.Render(line + "  " + c.Badge)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + infoStyle.Render(fmt.Sprintf("Cart: %d items, %s", v.Cart.ItemCount, v.Cart.Total)) + "\n")
	if m.showCart {
		if len(v.Cart.Lines) == 0 {
			b.WriteString(mutedStyle.Render(v.Cart.EmptyText) + "\n")
		} else {
			b.WriteString(m.cartTable.View() + "\n")
		}
	}

	b.WriteString("\n")
	start := 0
	if len(m.transcript) > transcriptLines {
		start = len(m.transcript) - transcriptLines
	}
	for _, line := range m.transcript[start:] {
		b.WriteString(line + "\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + successStyle.Render(m.notice) + "\n")
	}
	if m.error != "" {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.error) + "\n")
	}

	b.WriteString("\n")
	if m.loading {
		b.WriteString(m.spinner.View() + " ")
	}
	b.WriteString(m.textInput.View() + "\n")
	b.WriteString(mutedStyle.Render(helpText))

	return docStyle.Render(b.String())
}

func main() {
	client := NewApiClient()
	if ok, err := client.CheckHealth(); !ok {
		fmt.Printf("API server at %s is not available: %v\n", client.BaseURL, err)
		os.Exit(1)
	}
	if err := client.StartSession(); err != nil {
		fmt.Printf("Failed to start a session: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(initialModel(client), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
