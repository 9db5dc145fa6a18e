package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const statusPending = "pending"

// Column is one column of the step table. Width caps the cell text; zero
// leaves the cell uncapped.
type Column struct {
	Header string
	Width  int
}

// Row is one step of a run, keyed by step name.
type Row struct {
	Key    string
	Fields []string
}

// ProgressModel renders the steps of a bootstrap run as a table with a
// spinner footer until the work finishes.
type ProgressModel struct {
	title     string
	columns   []Column
	statusCol int
	rows      []Row
	rowIndex  map[string]int
	spinner   spinner.Model
	done      bool
	err       error
}

// NewProgressModel returns an empty table. Rows arrive through RowsMsg or
// AddRow.
func NewProgressModel(title string, columns []Column) ProgressModel {
	m := ProgressModel{
		title:     title,
		columns:   columns,
		statusCol: -1,
		rowIndex:  make(map[string]int),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	for i, c := range columns {
		if c.Header == "STATUS" {
			m.statusCol = i
			break
		}
	}
	return m
}

// AddRow appends a row unless key is already present.
func (m *ProgressModel) AddRow(key string, fields []string) {
	if _, ok := m.rowIndex[key]; ok {
		return
	}
	row := Row{Key: key, Fields: make([]string, len(m.columns))}
	copy(row.Fields, fields)
	m.rowIndex[key] = len(m.rows)
	m.rows = append(m.rows, row)
}

func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case RowsMsg:
		for _, key := range msg.Keys {
			fields := []string{key}
			if m.statusCol > 0 {
				fields = make([]string, m.statusCol+1)
				fields[0] = key
				fields[m.statusCol] = statusPending
			}
			m.AddRow(key, fields)
		}
	case RowUpdateMsg:
		if idx, ok := m.rowIndex[msg.Key]; ok {
			for i, col := range m.columns {
				if v, ok := msg.Fields[col.Header]; ok {
					m.rows[idx].Fields[i] = v
				}
			}
		}
	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit
	case ErrorMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	case tea.KeyMsg:
		if k := msg.String(); k == "ctrl+c" || k == "q" {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ProgressModel) View() string {
	if m.done && m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	headers := make([]string, len(m.columns))
	for i, c := range m.columns {
		headers[i] = c.Header
	}
	cells := make([][]string, len(m.rows))
	for r, row := range m.rows {
		cells[r] = make([]string, len(m.columns))
		for i, c := range m.columns {
			v := row.Fields[i]
			if c.Width > 0 {
				v = TruncateWithEllipsis(v, c.Width)
			}
			cells[r][i] = v
		}
	}

	cell := lipgloss.NewStyle().PaddingRight(2)
	t := table.New().
		BorderTop(false).BorderBottom(false).BorderLeft(false).BorderRight(false).
		BorderHeader(false).BorderColumn(false).BorderRow(false).
		Wrap(false).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return HeaderStyle.PaddingRight(2)
			case col == m.statusCol && row < len(cells):
				return StatusStyle(cells[row][col]).PaddingRight(2)
			}
			return cell
		})

	var b strings.Builder
	if m.title != "" {
		b.WriteString(HeaderStyle.Render(m.title))
		b.WriteString("\n\n")
	}
	b.WriteString(t.Render())
	b.WriteByte('\n')
	if !m.done {
		finished, total := m.progressCounts()
		fmt.Fprintf(&b, "\n%s Installing %d/%d...\n", m.spinner.View(), finished, total)
	}
	return b.String()
}

// progressCounts returns how many rows reached a final status and how many
// rows there are.
func (m ProgressModel) progressCounts() (int, int) {
	if m.statusCol < 0 {
		return 0, len(m.rows)
	}
	finished := 0
	for _, row := range m.rows {
		switch strings.TrimSpace(row.Fields[m.statusCol]) {
		case "", statusPending, "running":
		default:
			finished++
		}
	}
	return finished, len(m.rows)
}

// Done reports whether the work finished or the user quit.
func (m ProgressModel) Done() bool { return m.done }

// Err returns the error delivered by ErrorMsg, if any.
func (m ProgressModel) Err() error { return m.err }

// NonEmptyOrDash returns "-" for blank values.
func NonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

// TruncateWithEllipsis shortens value to max bytes, ending in "..." when
// there is room for it.
func TruncateWithEllipsis(value string, max int) string {
	value = strings.TrimSpace(value)
	switch {
	case max <= 0:
		return ""
	case len(value) <= max:
		return value
	case max <= 3:
		return value[:max]
	}
	return value[:max-3] + "..."
}
