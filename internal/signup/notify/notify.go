// Package notify renders the emails the portal sends.
package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/aussiebroadwan/signup/internal/signup/domain"
	"github.com/aussiebroadwan/signup/pkg/mailx"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"days": func(d time.Duration) string {
		return strconv.FormatFloat(d.Hours()/24, 'f', -1, 64)
	},
}

// Composer builds invitation and bulk job emails for one organisation.
type Composer struct {
	org  string
	tmpl *template.Template
}

func NewComposer(org string) (*Composer, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("notify: parse templates: %w", err)
	}
	return &Composer{org: org, tmpl: tmpl}, nil
}

// Invitation is the sign-up mail sent to an invitee.
func (c *Composer) Invitation(to, link string, validFor time.Duration) (mailx.Message, error) {
	return c.render(to, c.org+" - Sign Up", "invitation.html", map[string]any{
		"Org":      c.org,
		"Link":     link,
		"ValidFor": validFor,
	})
}

// BulkReport tells the inviter how a bulk job went.
func (c *Composer) BulkReport(job domain.BulkInviteJob, counts domain.InviteOutcomeCounts) (mailx.Message, error) {
	return c.render(job.InviterEmail, c.org+" - Bulk invitation report", "bulk_report.html", map[string]any{
		"InviterName": inviterName(job),
		"JobID":       job.ID,
		"Counts":      counts,
	})
}

// BulkFailure tells the inviter a bulk job did not finish.
func (c *Composer) BulkFailure(job domain.BulkInviteJob) (mailx.Message, error) {
	return c.render(job.InviterEmail, c.org+" - Bulk invitation failed", "bulk_failure.html", map[string]any{
		"InviterName": inviterName(job),
		"JobID":       job.ID,
	})
}

func (c *Composer) render(to, subject, name string, data any) (mailx.Message, error) {
	var buf bytes.Buffer
	if err := c.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return mailx.Message{}, fmt.Errorf("notify: render %s: %w", name, err)
	}
	return mailx.Message{To: to, Subject: subject, HTML: buf.String()}, nil
}

func inviterName(job domain.BulkInviteJob) string {
	if job.InviterName != "" {
		return job.InviterName
	}
	return job.InviterEmail
}
