package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/zvilnymo/casecheck/internal/history"
)

// UsageHint is the reply to a request without a usable phone.
const UsageHint = "Будь ласка, надішліть номер у форматі: /check +380XXXXXXXXX"

// UkrainianUnits renders durations as "2 д 3 год 5 хв".
var UkrainianUnits = history.Units{Day: "д", Hour: "год", Minute: "хв"}

const timeLayout = "2006-01-02 15:04"

// Renderer formats reports for display, as Telegram HTML or plain text.
type Renderer struct {
	loc   *time.Location
	units history.Units
	m     markup
}

// NewHTMLRenderer renders Telegram HTML with times in loc.
func NewHTMLRenderer(loc *time.Location) Renderer {
	return newRenderer(loc, htmlMarkup{})
}

// NewTextRenderer renders plain text with times in loc.
func NewTextRenderer(loc *time.Location) Renderer {
	return newRenderer(loc, plainMarkup{})
}

func newRenderer(loc *time.Location, m markup) Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return Renderer{loc: loc, units: UkrainianUnits, m: m}
}

// Failure renders a report that could not be built.
func (rr Renderer) Failure(err error) string {
	return "⚠️ Помилка CRM (" + rr.m.esc(DescribeError(err)) + ")"
}

// Render renders r.
func (rr Renderer) Render(r *Report) string {
	switch r.Outcome {
	case OutcomeInvalidPhone:
		return UsageHint
	case OutcomeNoContact:
		return "❌ Клієнта з таким номером у CRM не знайдено."
	case OutcomeNoDeal:
		return fmt.Sprintf("ℹ️ У клієнта немає угоди у воронці №%d.", r.CategoryID)
	}

	m := rr.m
	d := r.Deal
	if d == nil {
		d = &Deal{}
	}

	stage := m.esc(d.Stage)
	if cur, ok := r.CurrentStage(); ok {
		stage += " (" + rr.units.Format(cur.Duration) + ")"
	}

	lines := []string{
		"📄 " + m.bold("Клієнт:") + " " + m.esc(r.Client),
		"📊 " + m.bold("Угода:") + fmt.Sprintf(" №%d — ", d.ID) + m.esc(d.Title),
		"🔗 " + m.bold("Посилання:") + " " + m.link(d.URL, "відкрити угоду"),
		"📌 " + m.bold("Стадія:") + " " + stage,
		"👨‍💼 " + m.bold("Відповідальний юрист:") + " " + m.esc(d.Responsible),
		"🧑‍💼 " + m.bold("Менеджер з продажу:") + " " + m.esc(d.Consultant),
		"🏠 " + m.bold("Суд:") + " " + m.esc(d.Court),
		"💰 " + m.bold("Загальна сума боргу:") + " " + m.esc(d.Debt),
		"📎 " + m.bold("Документи:") + " " + rr.documentLine(r.Document),
	}

	switch {
	case r.HistoryError != "":
		lines = append(lines, "🧭 "+m.bold("Історія стадій:")+" недоступна ("+m.esc(r.HistoryError)+")")
	case len(r.History) > 0:
		lines = append(lines, "🧭 "+m.bold("Історія стадій:"))
		for _, s := range r.History {
			lines = append(lines, rr.historyLine(s))
		}
	}
	return strings.Join(lines, "\n")
}

func (rr Renderer) documentLine(doc *Document) string {
	if doc == nil {
		return Placeholder
	}
	switch doc.Status {
	case DocFound:
		return rr.m.link(doc.Link, strings.TrimSuffix(doc.Plan, ".docx"))
	case DocPlanNotFound:
		return "План не знайдено у папці клієнта"
	case DocFolderNotFound:
		return "Папку клієнта не знайдено"
	case DocDriveError:
		return "Помилка доступу до Drive (" + rr.m.esc(doc.Error) + ")"
	default:
		return "Помилка: " + rr.m.esc(doc.Error)
	}
}

// historyLine renders one bullet of the history block.
func (rr Renderer) historyLine(s Stage) string {
	tail := " (поточна)"
	if !s.Current {
		tail = " (до " + s.End.In(rr.loc).Format(timeLayout) + ")"
	}
	return "• " + s.Start.In(rr.loc).Format(timeLayout) +
		" → " + rr.m.esc(s.Label) +
		" — " + rr.units.Format(s.Duration) + tail
}

type markup interface {
	bold(s string) string
	link(href, text string) string
	esc(s string) string
}

type htmlMarkup struct{}

func (htmlMarkup) bold(s string) string { return "<b>" + html.EscapeString(s) + "</b>" }

func (htmlMarkup) link(href, text string) string {
	if href == "" {
		return html.EscapeString(text)
	}
	return `<a href="` + html.EscapeString(href) + `">` + html.EscapeString(text) + "</a>"
}

func (htmlMarkup) esc(s string) string { return html.EscapeString(s) }

type plainMarkup struct{}

func (plainMarkup) bold(s string) string { return s }

func (plainMarkup) link(href, text string) string {
	if href == "" {
		return text
	}
	return text + ": " + href
}

func (plainMarkup) esc(s string) string { return s }
