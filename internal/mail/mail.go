// Package mail sends the report and summary emails through Resend.
// Delivery is fire-and-forget: no retry, no queue, just the provider's
// synchronous acknowledgment.
package mail

import (
	"context"
	"fmt"
	"regexp"

	"github.com/cbroglie/mustache"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"valuecards/internal/fault"
)

// emailRe accepts the local@domain.tld shape and nothing fancier.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// attachmentNameRe strips everything but letters, digits and spaces from the
// sharer's name before it becomes a filename.
var attachmentNameRe = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

const reportBodyTemplate = `<div style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 24px;">
  <p style="color: #444; font-size: 16px; line-height: 1.6;">Hi,</p>
  <p style="color: #444; font-size: 16px; line-height: 1.6;">
    {{fromName}} wanted to share their results from the Values Card Exercise. Please see the attached report to view them.
  </p>
  <p style="color: #444; font-size: 16px; line-height: 1.6;">
    <a href="{{appURL}}" style="color: #2d5a3d; text-decoration: underline;">Click here</a> to complete your own Values Card exercise for free.
  </p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 32px 0;" />
  <p style="color: #999; font-size: 12px;">Purpose Built Values Cards</p>
</div>`

const summaryBodyTemplate = `<div style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 24px;">
  <h1 style="color: #1a1a1a; font-size: 24px;">Hi {{greeting}},</h1>
  <p style="color: #444; font-size: 16px; line-height: 1.6;">
    Thank you for completing the Purpose Built Values exercise! Here are the core values you identified:
  </p>
  <ul style="color: #333; font-size: 16px; line-height: 1.6; padding-left: 20px;">
    {{#coreValues}}
    <li style="margin-bottom: 12px;"><strong>{{label}}</strong>{{#description}}<br/><span style="color: #666;">{{description}}</span>{{/description}}</li>
    {{/coreValues}}
  </ul>
  {{#hasOthers}}
  <p style="margin-top: 24px;"><strong>Other values that matter to you:</strong><br/>{{otherLabels}}</p>
  {{/hasOthers}}
  <p style="margin-top: 32px;">
    <a href="{{shareURL}}" style="background-color: #4a5568; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">
      View Your Full Summary
    </a>
  </p>
  <p style="color: #666; font-size: 14px; margin-top: 32px;">
    Save this email to revisit your values anytime, or share your summary page with others.
  </p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 32px 0;" />
  <p style="color: #999; font-size: 12px;">Purpose Built Values Exercise</p>
</div>`

// SummaryValue is one value listed in the summary email body.
type SummaryValue struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Sender is the narrow slice of the Resend client the gateway needs.
// Tests swap in a capture fake.
type Sender interface {
	Send(ctx context.Context, params *resend.SendEmailRequest) (id string, err error)
}

type resendSender struct {
	client *resend.Client
}

func (r *resendSender) Send(ctx context.Context, params *resend.SendEmailRequest) (string, error) {
	sent, err := r.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}

// Gateway sends transactional email for the exercise.
type Gateway struct {
	sender Sender
	from   string
	appURL string
	log    *zap.Logger
}

// New builds a Gateway backed by the Resend API. from is the fully formed
// sender header, e.g. `Purpose Built <onboarding@resend.dev>`.
func New(apiKey, from, appURL string, log *zap.Logger) *Gateway {
	return NewWithSender(&resendSender{client: resend.NewClient(apiKey)}, from, appURL, log)
}

// NewWithSender builds a Gateway over an explicit Sender.
func NewWithSender(s Sender, from, appURL string, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{sender: s, from: from, appURL: appURL, log: log}
}

// ValidEmail reports whether addr has the local@domain.tld shape.
func ValidEmail(addr string) bool {
	return emailRe.MatchString(addr)
}

// SendReport emails the rendered PDF report to toEmail on behalf of the
// sharer. Returns the provider's message ID.
func (g *Gateway) SendReport(ctx context.Context, toEmail, fromEmail, fromName string, pdf []byte) (string, error) {
	if !ValidEmail(toEmail) || !ValidEmail(fromEmail) {
		return "", fmt.Errorf("invalid email address: %w", fault.ErrValidation)
	}
	if fromName == "" {
		return "", fmt.Errorf("sender name is required: %w", fault.ErrValidation)
	}

	html, err := mustache.Render(reportBodyTemplate, map[string]string{
		"fromName": fromName,
		"appURL":   g.appURL,
	})
	if err != nil {
		return "", fmt.Errorf("render report body: %w", err)
	}

	filename := attachmentNameRe.ReplaceAllString(fromName, "") + "-values-report.pdf"
	id, err := g.sender.Send(ctx, &resend.SendEmailRequest{
		From:    g.from,
		To:      []string{toEmail},
		ReplyTo: fromEmail,
		Subject: fmt.Sprintf("%s shared their Values Card Results with You", fromName),
		Html:    html,
		Attachments: []*resend.Attachment{
			{Filename: filename, Content: pdf},
		},
	})
	if err != nil {
		g.log.Warn("report delivery failed", zap.String("to", toEmail), zap.Error(err))
		return "", fmt.Errorf("%w: %w", fault.ErrDelivery, err)
	}
	g.log.Info("report delivered", zap.String("to", toEmail), zap.String("message_id", id))
	return id, nil
}

// SendSummary emails the core-values summary with a link to the share page.
func (g *Gateway) SendSummary(ctx context.Context, toEmail string, name *string, shareURL string, core, others []SummaryValue) (string, error) {
	if !ValidEmail(toEmail) {
		return "", fmt.Errorf("invalid email address: %w", fault.ErrValidation)
	}

	greeting := "there"
	subject := "Your Core Values Summary is ready"
	if name != nil && *name != "" {
		greeting = *name
		subject = fmt.Sprintf("%s, your Core Values Summary is ready", *name)
	}

	coreData := make([]map[string]string, 0, len(core))
	for _, v := range core {
		coreData = append(coreData, map[string]string{"label": v.Label, "description": v.Description})
	}
	otherLabels := ""
	for i, v := range others {
		if i > 0 {
			otherLabels += ", "
		}
		otherLabels += v.Label
	}

	html, err := mustache.Render(summaryBodyTemplate, map[string]interface{}{
		"greeting":    greeting,
		"coreValues":  coreData,
		"hasOthers":   len(others) > 0,
		"otherLabels": otherLabels,
		"shareURL":    shareURL,
	})
	if err != nil {
		return "", fmt.Errorf("render summary body: %w", err)
	}

	id, err := g.sender.Send(ctx, &resend.SendEmailRequest{
		From:    g.from,
		To:      []string{toEmail},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		g.log.Warn("summary delivery failed", zap.String("to", toEmail), zap.Error(err))
		return "", fmt.Errorf("%w: %w", fault.ErrDelivery, err)
	}
	g.log.Info("summary delivered", zap.String("to", toEmail), zap.String("message_id", id))
	return id, nil
}
