package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	validStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")).Bold(true)
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#585b70")).
			Padding(0, 1)
)

type renderer struct {
	w io.Writer
}

func newRenderer(w io.Writer) *renderer {
	return &renderer{w: w}
}

func (r *renderer) line(s string) {
	fmt.Fprintln(r.w, s)
}

func (r *renderer) envelope(title string, env *envelope) {
	r.line(r.envelopeView(title, env))
}

func (r *renderer) envelopeView(title string, env *envelope) string {
	status := validStyle.Render("VALID")
	if !env.Success {
		status = invalidStyle.Render("INVALID")
	}
	header := labelStyle.Render(title) + "  " + status
	if !env.Success {
		detail := env.Error
		switch {
		case env.ErrorCode != "" && env.ErrorSource != "":
			detail += mutedStyle.Render(" (" + env.ErrorCode + " in " + env.ErrorSource + ")")
		case env.ErrorCode != "":
			detail += mutedStyle.Render(" (" + env.ErrorCode + ")")
		}
		return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, detail))
	}
	body := header
	if len(env.Data) > 0 && string(env.Data) != "null" {
		body = lipgloss.JoinVertical(lipgloss.Left, header, indentJSON(env.Data))
	}
	return boxStyle.Render(body)
}

func (r *renderer) batch(resp *batchResponse) {
	valid := 0
	for _, res := range resp.Results {
		if res.Success {
			valid++
		}
		r.envelope(res.Type+" "+res.Value, &res.envelope)
	}
	r.line(mutedStyle.Render(fmt.Sprintf("%d/%d valid", valid, resp.Total)))
}

func (r *renderer) stats(s *statsResponse) {
	rows := []string{
		labelStyle.Render("key       ") + s.Name,
		labelStyle.Render("tier      ") + s.Tier,
		labelStyle.Render("limit     ") + fmt.Sprint(s.DailyLimit),
		labelStyle.Render("used      ") + fmt.Sprint(s.UsedToday),
		labelStyle.Render("remaining ") + fmt.Sprint(s.Remaining),
	}
	r.line(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func (r *renderer) failure(err error) {
	r.line(invalidStyle.Render("error: ") + err.Error())
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
