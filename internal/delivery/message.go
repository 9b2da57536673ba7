package delivery

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/outreach-pipeline/internal/domain"
	"gopkg.in/gomail.v2"
)

// Kind distinguishes the first contact from a follow-up.
type Kind string

const (
	KindInitial  Kind = "initial"
	KindFollowUp Kind = "followup"
)

func (k Kind) String() string { return string(k) }

// Message is a rendered outreach email. Nothing here is transmitted over SMTP.
type Message struct {
	ID        string
	Kind      Kind
	LeadID    string
	From      string
	To        string
	Subject   string
	Body      string
	CreatedAt time.Time
}

var (
	initialSubject = template.Must(template.New("initial_subject").
			Parse(`Quick question for {{.ContactName}} at {{.CompanyName}}`))
	initialBody = template.Must(template.New("initial_body").Parse(`Hi {{.ContactName}},

Hope you're having a great week!

I was browsing {{.CompanyName}}'s website ({{.Website}}) and was particularly interested in your work in the {{.Industry}} space, especially regarding {{.Role}}.

We help companies like yours streamline their outreach. I thought a brief chat about how we could potentially help you with lead generation might be valuable.

Would you be open to a quick 15-minute call sometime next week?

Best regards,

Outreach Pipeline
`))

	followUpSubject = template.Must(template.New("followup_subject").
			Parse(`Following up: {{.ContactName}} at {{.CompanyName}}`))
	followUpBody = template.Must(template.New("followup_body").Parse(`Hi {{.ContactName}},

Just wanted to gently follow up on my previous email. I know you're busy, but I genuinely believe that our outreach pipeline could bring significant value to {{.CompanyName}}.

If now isn't the best time, perhaps you could suggest a better moment to connect?

Looking forward to hearing from you.

Best regards,

Outreach Pipeline
`))
)

// RenderInitial personalizes the first outreach email for lead.
func RenderInitial(lead *domain.Lead, from string) (Message, error) {
	return render(KindInitial, lead, from, initialSubject, initialBody)
}

// RenderFollowUp personalizes the follow-up email for lead.
func RenderFollowUp(lead *domain.Lead, from string) (Message, error) {
	return render(KindFollowUp, lead, from, followUpSubject, followUpBody)
}

func render(kind Kind, lead *domain.Lead, from string, subjectTmpl, bodyTmpl *template.Template) (Message, error) {
	if lead == nil {
		return Message{}, fmt.Errorf("%w: lead is required", domain.ErrValidation)
	}

	var subject, body bytes.Buffer
	if err := subjectTmpl.Execute(&subject, lead); err != nil {
		return Message{}, fmt.Errorf("render %s subject: %w", kind, err)
	}
	if err := bodyTmpl.Execute(&body, lead); err != nil {
		return Message{}, fmt.Errorf("render %s body: %w", kind, err)
	}

	return Message{
		ID:        uuid.NewString(),
		Kind:      kind,
		LeadID:    lead.ID,
		From:      from,
		To:        lead.Email,
		Subject:   subject.String(),
		Body:      body.String(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// RFC5322 renders the message as a complete internet message.
func (m Message) RFC5322() ([]byte, error) {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.From)
	gm.SetHeader("To", m.To)
	gm.SetHeader("Subject", m.Subject)
	gm.SetHeader("Message-ID", fmt.Sprintf("<%s@%s>", m.ID, messageIDDomain(m.From)))
	gm.SetHeader("X-Lead-ID", m.LeadID)
	gm.SetDateHeader("Date", m.CreatedAt)
	gm.SetBody("text/plain", m.Body)

	var buf bytes.Buffer
	if _, err := gm.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write message: %w", err)
	}

	return buf.Bytes(), nil
}

func messageIDDomain(from string) string {
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		return strings.Trim(from[at+1:], "> ")
	}
	return "outreach.local"
}
