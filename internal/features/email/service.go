package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"path/filepath"
	"strings"

	"flowcrm/internal/config"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type EmailService interface {
	SendEmail(ctx context.Context, tenantID primitive.ObjectID, to []string, subject, body string) error
	SendEmailWithAttachment(ctx context.Context, tenantID primitive.ObjectID, to []string, subject, body string, attachmentName string, attachmentData []byte) error
}

type EmailServiceImpl struct {
	Config *config.Config
	Repo   *EmailRepository
	Logger *zap.Logger
}

func NewEmailService(cfg *config.Config, repo *EmailRepository, logger *zap.Logger) EmailService {
	return &EmailServiceImpl{
		Config: cfg,
		Repo:   repo,
		Logger: logger,
	}
}

func (s *EmailServiceImpl) smtpConfig() (addr, from string, auth smtp.Auth, err error) {
	if s.Config.SMTPHost == "" || s.Config.SMTPPort == 0 {
		return "", "", nil, errors.New("invalid email configuration: missing host or port")
	}

	auth = smtp.PlainAuth("", s.Config.SMTPUser, s.Config.SMTPPass, s.Config.SMTPHost)
	addr = fmt.Sprintf("%s:%d", s.Config.SMTPHost, s.Config.SMTPPort)
	from = s.Config.FromEmail
	if from == "" {
		from = s.Config.SMTPUser
	}
	return addr, from, auth, nil
}

func (s *EmailServiceImpl) SendEmail(ctx context.Context, tenantID primitive.ObjectID, to []string, subject, body string) error {
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	addr, from, auth, err := s.smtpConfig()
	if err != nil {
		return err
	}

	record := &Email{
		ID:       primitive.NewObjectID(),
		TenantID: tenantID,
		From:     from,
		To:       to,
		Subject:  subject,
		HtmlBody: body,
		Status:   EmailQueued,
	}
	if s.Repo != nil {
		_ = s.Repo.Create(ctx, record)
	}

	err = smtp.SendMail(addr, auth, from, to, plainMessage(to, subject, body))

	status := EmailSent
	errMsg := ""
	if err != nil {
		status = EmailFailed
		errMsg = err.Error()
	}
	if s.Repo != nil {
		_ = s.Repo.UpdateStatus(ctx, record.ID, status, errMsg)
	}

	if err != nil {
		s.Logger.Warn("email delivery failed",
			zap.Strings("to", to),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.Logger.Debug("email sent", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}

func (s *EmailServiceImpl) SendEmailWithAttachment(ctx context.Context, tenantID primitive.ObjectID, to []string, subject, body string, attachmentName string, attachmentData []byte) error {
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	addr, from, auth, err := s.smtpConfig()
	if err != nil {
		return err
	}

	msg := mimeMessage(from, to, subject, body, attachmentName, attachmentData)
	if err := smtp.SendMail(addr, auth, from, to, msg); err != nil {
		return fmt.Errorf("failed to send email with attachment: %w", err)
	}
	return nil
}

func plainMessage(to []string, subject, body string) []byte {
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", strings.Join(to, ", "), subject, body))
}

func mimeMessage(from string, to []string, subject, body, attachmentName string, attachmentData []byte) []byte {
	marker := "FlowCRMMarker"
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%s\r\n", marker))
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", marker))
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n")

	if len(attachmentData) > 0 {
		buf.WriteString(fmt.Sprintf("--%s\r\n", marker))
		ext := filepath.Ext(attachmentName)
		contentType := mime.TypeByExtension(ext)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		buf.WriteString(fmt.Sprintf("Content-Type: %s; name=\"%s\"\r\n", contentType, attachmentName))
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		buf.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", attachmentName))
		buf.WriteString("\r\n")

		b := make([]byte, base64.StdEncoding.EncodedLen(len(attachmentData)))
		base64.StdEncoding.Encode(b, attachmentData)
		buf.Write(b)
		buf.WriteString("\r\n")
	}

	buf.WriteString(fmt.Sprintf("--%s--", marker))
	return buf.Bytes()
}
