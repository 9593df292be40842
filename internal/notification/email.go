package notification

import (
	"bytes"
	"fmt"
	"log"
	"net/smtp"
	"text/template"
	"time"

	"github.com/smukkama/phenocover/internal/protocol"
	"github.com/smukkama/phenocover/pkg/config"
)

const analysisTemplate = `
Wheat Season Analysis Completed
===============================

Run ID: {{.RunID}}
Field: {{printf "%.5f" .Latitude}}, {{printf "%.5f" .Longitude}}
Season: {{.SowingDate}} to {{.HarvestDate}} ({{.Summary.Days}} days)
Weather source: {{.WeatherSource}}
FVC method: {{.FVCMethod}} (soil {{printf "%.3f" .NDVISoil}}, vegetation {{printf "%.3f" .NDVIVeg}})
Interpolation: {{.Interpolation}}

Peak NDVI: {{printf "%.3f" .Summary.PeakNDVI}} on {{.Summary.PeakNDVIDate.Format "2006-01-02"}}
Max ground cover: {{printf "%.1f" .Summary.MaxGroundCoverPct}}%
Total GDD: {{printf "%.0f" .Summary.TotalGDD}}
Final stage: {{.Summary.FinalStage}}

Stress days: heat {{.Summary.HeatStressDays}}, cold {{.Summary.ColdStressDays}}, drought {{.Summary.DroughtStressDays}}
Optimal days: {{.Summary.OptimalDays}}
Precipitation: {{printf "%.1f" .Summary.TotalPrecipMm}} mm

Growth stages:
{{range .Stages}}  {{.Date.Format "2006-01-02"}}  {{printf "%-16s" .Stage}} {{printf "%6.0f" .GDD}} GDD
{{end}}
---
PhenoCover Notification Service
`

var analysisTmpl = template.Must(template.New("analysis").Parse(analysisTemplate))

// EmailNotifier sends email notifications
type EmailNotifier struct {
	config *config.SMTPConfig
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(cfg *config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{config: cfg}
}

// SendAnalysisSummary e-mails the summary of a completed analysis
func (e *EmailNotifier) SendAnalysisSummary(msg *protocol.AnalysisCompleted) error {
	body, err := RenderAnalysisSummary(msg)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Wheat analysis %s: %s, peak cover %.0f%%",
		msg.RunID, msg.Summary.FinalStage, msg.Summary.MaxGroundCoverPct)
	return e.sendEmail(subject, body)
}

// RenderAnalysisSummary renders the plain-text body of an analysis summary e-mail
func RenderAnalysisSummary(msg *protocol.AnalysisCompleted) (string, error) {
	var buf bytes.Buffer
	if err := analysisTmpl.Execute(&buf, msg); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *EmailNotifier) sendEmail(subject, body string) error {
	// Skip sending if SMTP is not configured
	if e.config.Username == "" || e.config.Password == "" {
		log.Printf("SMTP not configured, skipping email:\nSubject: %s\n%s", subject, body)
		return nil
	}

	message := fmt.Sprintf("From: %s\r\n", e.config.From)
	message += fmt.Sprintf("To: %s\r\n", e.config.To)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	message += "\r\n"
	message += body

	auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)

	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	if err := smtp.SendMail(addr, auth, e.config.From, []string{e.config.To}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("Email sent successfully: %s", subject)
	return nil
}

// TestConnection tests the SMTP connection
func (e *EmailNotifier) TestConnection() error {
	if e.config.Username == "" {
		return fmt.Errorf("SMTP not configured")
	}

	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	log.Println("SMTP connection test successful")
	return nil
}
