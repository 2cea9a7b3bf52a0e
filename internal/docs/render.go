package docs

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5B47E0")).
			Padding(0, 2)

	methodStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#98C379")).
			Padding(0, 1)

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B")).
			Bold(true)

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ABB2BF"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#61AFEF")).
			MarginTop(1)

	paramStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98C379"))

	requiredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E06C75")).
			Bold(true)

	codeStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#2C323C")).
			Foreground(lipgloss.Color("#ABB2BF")).
			Padding(0, 1)
)

// StatusStyle colors a status code by class.
func StatusStyle(code string) lipgloss.Style {
	if len(code) > 0 {
		switch code[0] {
		case '2':
			return lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379")).Bold(true)
		case '3':
			return lipgloss.NewStyle().Foreground(lipgloss.Color("#61AFEF")).Bold(true)
		case '4':
			return lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")).Bold(true)
		case '5':
			return lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75")).Bold(true)
		}
	}
	return codeStyle
}

// Render produces the terminal view of the document.
func (d *Docs) Render() string {
	var out strings.Builder

	if info := d.Info(); info != nil {
		title := fmt.Sprintf(" %s ", info.Title)
		if info.Version != "" {
			title += fmt.Sprintf("v%s ", info.Version)
		}
		out.WriteString(titleStyle.Render(title))
		out.WriteString("\n\n")
		if info.Description != "" {
			out.WriteString(summaryStyle.Render(strings.TrimSpace(info.Description)))
			out.WriteString("\n")
		}
	}

	if url := d.ServerURL(); url != "" {
		out.WriteString(sectionStyle.Render("Server"))
		out.WriteString("\n\n  ")
		out.WriteString(codeStyle.Render(url))
		out.WriteString("\n")
	}

	if auth := d.renderAuth(); auth != "" {
		out.WriteString(sectionStyle.Render("Authentication"))
		out.WriteString("\n\n  ")
		out.WriteString(auth)
		out.WriteString("\n")
	}

	for _, op := range d.Operations() {
		out.WriteString(sectionStyle.Render("Operation"))
		out.WriteString("\n\n  ")
		out.WriteString(methodStyle.Render(op.Method))
		out.WriteString(" ")
		out.WriteString(pathStyle.Render(op.Path))
		if op.Summary != "" {
			out.WriteString("  ")
			out.WriteString(summaryStyle.Render(op.Summary))
		}
		out.WriteString("\n")
		if op.Description != "" {
			out.WriteString("  ")
			out.WriteString(summaryStyle.Render(op.Description))
			out.WriteString("\n")
		}

		if op.RequestBody != nil {
			out.WriteString(sectionStyle.Render("Request Body"))
			out.WriteString("\n\n")
			out.WriteString(renderRequestBody(op.RequestBody))
		}
		if op.Responses != nil {
			out.WriteString(sectionStyle.Render("Responses"))
			out.WriteString("\n\n")
			out.WriteString(renderResponses(op.Responses))
		}
	}

	return out.String()
}

func (d *Docs) renderAuth() string {
	schemes := d.SecuritySchemes()
	if schemes == nil {
		return ""
	}

	var names []string
	for _, req := range d.Security() {
		if req == nil || req.Requirements == nil {
			continue
		}
		for name := range req.Requirements.FromOldest() {
			label := name
			if scheme := schemes.GetOrZero(name); scheme != nil && scheme.Type == "http" && scheme.Scheme != "" {
				label = fmt.Sprintf("%s (%s)", name, scheme.Scheme)
			}
			names = append(names, paramStyle.Render(label))
		}
	}
	return strings.Join(names, " OR ")
}

func renderRequestBody(body *v3.RequestBody) string {
	var out strings.Builder
	if body.Required != nil && *body.Required {
		out.WriteString("  ")
		out.WriteString(requiredStyle.Render("Required"))
		out.WriteString("\n")
	}
	if body.Content == nil {
		return out.String()
	}
	for contentType, media := range body.Content.FromOldest() {
		out.WriteString("  Content Type: ")
		out.WriteString(codeStyle.Render(contentType))
		out.WriteString("\n")
		if media.Schema != nil {
			out.WriteString(renderSchema(media.Schema.Schema(), 2))
		}
	}
	return out.String()
}

func renderResponses(responses *v3.Responses) string {
	var out strings.Builder
	if responses.Codes == nil {
		return ""
	}
	for code, resp := range responses.Codes.FromOldest() {
		out.WriteString("  ")
		out.WriteString(StatusStyle(code).Render(code))
		if resp.Description != "" {
			out.WriteString(" - ")
			out.WriteString(summaryStyle.Render(resp.Description))
		}
		out.WriteString("\n")
		if resp.Content == nil {
			continue
		}
		for contentType, media := range resp.Content.FromOldest() {
			out.WriteString("    Content Type: ")
			out.WriteString(codeStyle.Render(contentType))
			out.WriteString("\n")
			if media.Schema != nil && code == "200" {
				out.WriteString(renderSchema(media.Schema.Schema(), 3))
			}
		}
	}
	return out.String()
}

func renderSchema(schema *base.Schema, indent int) string {
	if schema == nil || schema.Properties == nil {
		return ""
	}
	pad := strings.Repeat("  ", indent)

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	var out strings.Builder
	for name, proxy := range schema.Properties.FromOldest() {
		prop := proxy.Schema()
		out.WriteString(pad)
		out.WriteString(paramStyle.Render(name))
		if prop != nil && len(prop.Type) > 0 {
			out.WriteString(" ")
			out.WriteString(summaryStyle.Render(prop.Type[0]))
		}
		if required[name] {
			out.WriteString(" ")
			out.WriteString(requiredStyle.Render("required"))
		}
		if prop != nil && prop.Description != "" {
			out.WriteString("  ")
			out.WriteString(summaryStyle.Render(prop.Description))
		}
		out.WriteString("\n")
	}
	return out.String()
}
