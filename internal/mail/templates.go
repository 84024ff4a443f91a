// Package mail renders the notification emails for request lifecycle events.
// Rendering is recipient-agnostic so one template pair is reused across every
// recipient of an event.
package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/fixpoint/repair-api/internal/domain/model"
)

// eventMeta is the static per-event-type lookup the subject and layout draw
// from. The subject prefix convention (emoji + label + request id) is the only
// externally meaningful contract.
type eventMeta struct {
	Emoji string
	Label string
	Color string
}

var eventMetas = map[model.EventType]eventMeta{
	model.EventRequestCreated:   {Emoji: "🔧", Label: "New Repair Request", Color: "#2563eb"},
	model.EventRequestAssigned:  {Emoji: "📋", Label: "Repair Request Assigned", Color: "#4f46e5"},
	model.EventRequestAccepted:  {Emoji: "✅", Label: "Repair Request Accepted", Color: "#16a34a"},
	model.EventRequestRejected:  {Emoji: "⚠️", Label: "Assignment Declined", Color: "#d97706"},
	model.EventRequestStarted:   {Emoji: "🛠️", Label: "Repair In Progress", Color: "#2563eb"},
	model.EventRequestOnHold:    {Emoji: "⏸️", Label: "Repair On Hold", Color: "#d97706"},
	model.EventRequestCompleted: {Emoji: "🎉", Label: "Repair Completed", Color: "#16a34a"},
	model.EventRequestCancelled: {Emoji: "❌", Label: "Repair Request Cancelled", Color: "#dc2626"},
}

// layoutTmpl is the shared email shell. CSS is inlined since mail clients
// strip style sheets.
var layoutTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f3f4f6;font-family:Arial,Helvetica,sans-serif;">
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:24px;">
      <table role="presentation" width="560" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;overflow:hidden;">
        <tr><td style="background-color:{{.Color}};padding:20px 28px;">
          <h1 style="margin:0;color:#ffffff;font-size:20px;">{{.Emoji}} {{.Label}}</h1>
        </td></tr>
        <tr><td style="padding:24px 28px;">
          <p style="margin:0 0 16px;color:#111827;font-size:14px;">{{.Message}}</p>
          <table role="presentation" cellpadding="0" cellspacing="0" style="width:100%;">
            {{range .Details}}<tr>
              <td style="padding:6px 0;color:#6b7280;font-size:13px;width:160px;">{{.Label}}</td>
              <td style="padding:6px 0;color:#111827;font-size:13px;">{{.Value}}</td>
            </tr>{{end}}
          </table>
          <p style="margin:24px 0 0;">
            <a href="{{.Link}}" style="display:inline-block;background-color:{{.Color}};color:#ffffff;text-decoration:none;padding:10px 20px;border-radius:6px;font-size:14px;">View Request</a>
          </p>
        </td></tr>
        <tr><td style="padding:16px 28px;background-color:#f9fafb;color:#9ca3af;font-size:12px;">
          Request #{{.ShortID}} · This is an automated message, please do not reply.
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>
`))

type detailRow struct {
	Label string
	Value string
}

type layoutData struct {
	Emoji   string
	Label   string
	Color   string
	Message string
	Details []detailRow
	Link    string
	ShortID string
}

// Renderer produces the subject and HTML body for a lifecycle event.
type Renderer struct {
	baseURL string
}

// NewRenderer builds a renderer. baseURL should not carry a trailing slash;
// config sanitisation guarantees that.
func NewRenderer(baseURL string) *Renderer {
	return &Renderer{baseURL: baseURL}
}

// Subject returns the subject line for an event.
func (r *Renderer) Subject(ev model.RequestEvent) string {
	meta := eventMetas[ev.EventType()]
	return fmt.Sprintf("%s %s - #%s", meta.Emoji, meta.Label, shortID(ev.RequestRef()))
}

// Render returns the subject and HTML body for an event.
func (r *Renderer) Render(ev model.RequestEvent) (subject, html string, err error) {
	meta, ok := eventMetas[ev.EventType()]
	if !ok {
		return "", "", fmt.Errorf("no email template for event type %q", ev.EventType())
	}

	message, details := eventBody(ev)
	data := layoutData{
		Emoji:   meta.Emoji,
		Label:   meta.Label,
		Color:   meta.Color,
		Message: message,
		Details: details,
		Link:    r.baseURL + "/requests/" + ev.RequestRef(),
		ShortID: shortID(ev.RequestRef()),
	}

	var buf bytes.Buffer
	if execErr := layoutTmpl.Execute(&buf, data); execErr != nil {
		return "", "", fmt.Errorf("render %s email: %w", ev.EventType(), execErr)
	}
	return r.Subject(ev), buf.String(), nil
}

// eventBody returns the lead message and detail rows for each concrete event.
func eventBody(ev model.RequestEvent) (string, []detailRow) {
	switch e := ev.(type) {
	case model.RequestCreatedEvent:
		return "A new repair request was submitted and is waiting for assignment.", []detailRow{
			{Label: "Customer", Value: e.CustomerName},
			{Label: "Service", Value: e.ServiceType},
		}
	case model.RequestAssignedEvent:
		return "A technician has been assigned to the repair request.", []detailRow{
			{Label: "Technician", Value: e.EmployeeName},
			{Label: "Service", Value: e.ServiceType},
		}
	case model.RequestAcceptedEvent:
		return "The assigned technician accepted the repair request.", []detailRow{
			{Label: "Technician", Value: e.EmployeeName},
		}
	case model.RequestRejectedEvent:
		return "The assigned technician declined the repair request. It is back in the queue for reassignment.", []detailRow{
			{Label: "Technician", Value: e.EmployeeName},
			{Label: "Reason", Value: e.Reason},
		}
	case model.RequestStartedEvent:
		return "Work on the repair request has started.", []detailRow{
			{Label: "Technician", Value: e.EmployeeName},
		}
	case model.RequestOnHoldEvent:
		return "The repair request was put on hold.", []detailRow{
			{Label: "Reason", Value: e.Reason},
			{Label: "Details", Value: e.Details},
		}
	case model.RequestCompletedEvent:
		return "The repair request was completed.", []detailRow{
			{Label: "Technician", Value: e.EmployeeName},
			{Label: "Total", Value: fmt.Sprintf("%.2f", e.TotalAmount)},
		}
	case model.RequestCancelledEvent:
		return "The repair request was cancelled.", []detailRow{
			{Label: "Reason", Value: e.Reason},
		}
	default:
		return "", nil
	}
}

// shortID keeps the first uuid segment so subjects stay scannable.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
