package email

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestPlainMessageListsAllRecipients(t *testing.T) {
	msg := string(plainMessage([]string{"a@example.com", "b@example.com"}, "Weekly digest", "Hello"))

	if !strings.Contains(msg, "To: a@example.com, b@example.com\r\n") {
		t.Errorf("To header missing recipients:\n%s", msg)
	}
	if !strings.Contains(msg, "Subject: Weekly digest\r\n") {
		t.Errorf("Subject header wrong:\n%s", msg)
	}
	if !strings.Contains(msg, "\r\n\r\nHello\r\n") {
		t.Errorf("body missing:\n%s", msg)
	}
}

func TestMimeMessageListsAllRecipients(t *testing.T) {
	data := []byte("col1,col2\nval1,val2\n")
	msg := string(mimeMessage("crm@example.com",
		[]string{"ops@example.com", "sales@example.com"},
		"Lead export", "Attached.", "leads.csv", data))

	if !strings.Contains(msg, "To: ops@example.com, sales@example.com\r\n") {
		t.Errorf("To header missing recipients:\n%s", msg)
	}
	if !strings.Contains(msg, "From: crm@example.com\r\n") {
		t.Errorf("From header wrong:\n%s", msg)
	}
	if !strings.Contains(msg, `Content-Disposition: attachment; filename="leads.csv"`) {
		t.Errorf("attachment disposition missing:\n%s", msg)
	}
	if !strings.Contains(msg, base64.StdEncoding.EncodeToString(data)) {
		t.Errorf("attachment payload missing:\n%s", msg)
	}
}

func TestMimeMessageWithoutAttachment(t *testing.T) {
	msg := string(mimeMessage("crm@example.com", []string{"a@example.com"},
		"Note", "Just text.", "", nil))

	if strings.Contains(msg, "Content-Disposition: attachment") {
		t.Errorf("unexpected attachment part:\n%s", msg)
	}
	if !strings.Contains(msg, "Just text.") {
		t.Errorf("body missing:\n%s", msg)
	}
}
