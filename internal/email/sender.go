package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	jemail "github.com/jordan-wright/email"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"ministore/internal/logging"
)

// AnalysisResult is one analyzed attachment in the digest.
type AnalysisResult struct {
	Filename     string
	EmailSubject string
	EmailFrom    string
	EmailDate    time.Time
	Summary      string
	Topics       []string
	Ministores   []string
	Error        string
}

// SenderConfig holds SMTP settings.
type SenderConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Sender mails digests over SMTP.
type Sender struct {
	config SenderConfig
	logger *zap.Logger
	now    func() time.Time

	// send delivers a composed message; replaced in tests.
	send func(e *jemail.Email) error
}

// NewSender creates a Sender using SMTP PLAIN auth.
func NewSender(config SenderConfig, logger *zap.Logger) *Sender {
	s := &Sender{config: config, logger: logging.OrNop(logger), now: time.Now}
	s.send = s.sendSMTP
	return s
}

// SendDigest mails an HTML digest of results. Nothing is sent for an
// empty slice.
func (s *Sender) SendDigest(results []AnalysisResult) error {
	if len(results) == 0 {
		s.logger.Info("no analysis results to send")
		return nil
	}

	html, err := s.renderDigest(results)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Ministores del día - %s", s.now().Format("2006-01-02"))
	return s.deliver(subject, html)
}

// SendErrorNotification mails a short error report.
func (s *Sender) SendErrorNotification(errorMsg string) error {
	var buf bytes.Buffer
	err := errorTemplate.Execute(&buf, struct {
		Timestamp string
		Message   string
	}{s.now().Format("2006-01-02 15:04:05"), errorMsg})
	if err != nil {
		return fmt.Errorf("failed to render error email: %w", err)
	}
	return s.deliver("Ministore inbox error", buf.String())
}

func (s *Sender) renderDigest(results []AnalysisResult) (string, error) {
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	data := struct {
		Timestamp    string
		Count        int
		Results      []AnalysisResult
		SuccessCount int
		ErrorCount   int
	}{
		Timestamp:    s.now().Format("2006-01-02 15:04:05"),
		Count:        len(results),
		Results:      results,
		SuccessCount: len(results) - failed,
		ErrorCount:   failed,
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func (s *Sender) deliver(subject, html string) error {
	e := jemail.NewEmail()
	e.From = s.config.From
	e.To = []string{s.config.To}
	e.Subject = subject
	e.HTML = []byte(html)

	s.logger.Info("sending email", zap.String("to", s.config.To), zap.String("subject", subject))
	if err := s.send(e); err != nil {
		return err
	}
	s.logger.Info("email sent")
	return nil
}

func (s *Sender) sendSMTP(e *jemail.Email) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	if err := e.Send(addr, auth); err != nil {
		return smtpError(err)
	}
	return nil
}

func smtpError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "535"):
		return fmt.Errorf("SMTP authentication failed (535), for Gmail use an App Password: %w", err)
	case strings.Contains(msg, "530"):
		return fmt.Errorf("SMTP authentication failed (530), check username and password: %w", err)
	case strings.Contains(msg, "550"):
		return fmt.Errorf("SMTP sender rejected (550), check the From address: %w", err)
	}
	return fmt.Errorf("failed to send email: %w", err)
}

// markdownToHTML renders a summary written in markdown.
func markdownToHTML(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"markdown": markdownToHTML,
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Ministores del día</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #f0f0f0; padding: 15px; border-radius: 5px; }
        .result { margin: 20px 0; padding: 15px; border: 1px solid #ddd; border-radius: 5px; }
        .summary-text { color: #333; line-height: 1.5; }
        .topics li { margin: 5px 0; }
        .error { color: #d32f2f; background-color: #ffebee; padding: 10px; border-radius: 3px; }
        .totals { background-color: #e8f5e8; padding: 10px; border-radius: 3px; margin-top: 10px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Ministores del día</h1>
        <p>Generado el {{.Timestamp}}</p>
        <p>{{.Count}} PDF{{if ne .Count 1}}s{{end}} procesado{{if ne .Count 1}}s{{end}}</p>
    </div>
    {{range .Results}}
    <div class="result">
        <h3>{{.Filename}}</h3>
        <p><strong>Email:</strong> {{.EmailSubject}} ({{.EmailFrom}}, {{.EmailDate.Format "2006-01-02 15:04"}})</p>
        {{if .Error}}
        <div class="error"><strong>Error:</strong> {{.Error}}</div>
        {{else}}
        <div class="summary-text">{{markdown .Summary}}</div>
        <ul class="topics">
        {{range .Topics}}
            <li>{{.}}</li>
        {{end}}
        </ul>
        <ol class="ministores">
        {{range .Ministores}}
            <li><a href="{{.}}">{{.}}</a></li>
        {{end}}
        </ol>
        {{end}}
    </div>
    {{end}}
    <div class="totals">
        <p>Total: {{.Count}}</p>
        <p>Correctos: {{.SuccessCount}}</p>
        <p>Con error: {{.ErrorCount}}</p>
    </div>
</body>
</html>`))

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Ministore inbox error</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .error { color: #d32f2f; background-color: #ffebee; padding: 15px; border-radius: 5px; }
    </style>
</head>
<body>
    <h1>Ministore inbox error</h1>
    <div class="error">
        <strong>Fecha:</strong> {{.Timestamp}}<br>
        <strong>Error:</strong> {{.Message}}
    </div>
</body>
</html>`))
