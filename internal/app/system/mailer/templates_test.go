package mailer

import (
	"html/template"
	"strings"
	"testing"
	"time"
)

func TestBuildInvitationEmail(t *testing.T) {
	e := BuildInvitationEmail(CodeEmailData{
		SiteName:  "Hackathon",
		TeamName:  "Alpha",
		Code:      "012345",
		ExpiresIn: "10 minutes",
	})
	if e.Subject != "Hackathon Team Invitation" {
		t.Errorf("Subject = %q", e.Subject)
	}
	for _, body := range []string{e.TextBody, e.HTMLBody} {
		if !strings.Contains(body, "012345") {
			t.Error("body missing code")
		}
		if !strings.Contains(body, "Alpha") {
			t.Error("body missing team name")
		}
		if !strings.Contains(body, "10 minutes") {
			t.Error("body missing expiry")
		}
	}
	if e.To != "" {
		t.Errorf("To should be set by caller, got %q", e.To)
	}
}

func TestBuildResendEmail(t *testing.T) {
	e := BuildResendEmail(CodeEmailData{SiteName: "Hackathon", Code: "999999", ExpiresIn: "10 minutes"})
	if e.Subject != "Hackathon Team Invitation - New OTP" {
		t.Errorf("Subject = %q", e.Subject)
	}
	if !strings.Contains(e.TextBody, "Your new OTP for verification is: 999999") {
		t.Errorf("TextBody = %q", e.TextBody)
	}
	if strings.Contains(e.HTMLBody, "invited to join") {
		t.Error("resend email should not repeat the invitation text")
	}
}

func TestBuildInvitationEmail_StripsMarkupFromTeamName(t *testing.T) {
	e := BuildInvitationEmail(CodeEmailData{TeamName: `<img src=x onerror=alert(1)>Pwn`, Code: "1"})
	if strings.Contains(e.HTMLBody, "<img") || strings.Contains(e.HTMLBody, "onerror") {
		t.Errorf("markup leaked into HTML body")
	}
	if !strings.Contains(e.TextBody, "Pwn") {
		t.Errorf("visible text should survive: %q", e.TextBody)
	}
	if !strings.HasPrefix(e.Subject, "Hackathon") {
		t.Errorf("blank site name should default, got %q", e.Subject)
	}
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{10 * time.Minute, "10 minutes"},
		{time.Minute, "1 minute"},
		{time.Hour, "1 hour"},
		{90 * time.Second, "90 seconds"},
		{2 * time.Hour, "2 hours"},
	}
	for _, tt := range tests {
		if got := HumanDuration(tt.d); got != tt.want {
			t.Errorf("HumanDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestNewSMTPSender_Validates(t *testing.T) {
	if _, err := NewSMTPSender(Config{From: "a@b.c"}, nil); err == nil {
		t.Error("expected error without host")
	}
	if _, err := NewSMTPSender(Config{Host: "localhost"}, nil); err == nil {
		t.Error("expected error without from address")
	}
	s, err := NewSMTPSender(Config{Host: "localhost", From: "a@b.c"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.cfg.Port != 587 || s.cfg.Timeout == 0 {
		t.Errorf("defaults not applied: %+v", s.cfg)
	}
}

func TestSMTPSender_Message(t *testing.T) {
	s, _ := NewSMTPSender(Config{Host: "localhost", From: "noreply@hack.test", FromName: "Hackathon"}, nil)
	if _, err := s.message(Email{To: "not an address", Subject: "x"}); err == nil {
		t.Error("expected invalid recipient to fail")
	}
	if _, err := s.message(Email{To: "asha.1@vitapstudent.ac.in", Subject: "x", TextBody: "y", HTMLBody: "<p>y</p>"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBuildCodeHTML_RenderErrorFallsBackToText(t *testing.T) {
	orig := codeHTML
	t.Cleanup(func() { codeHTML = orig })
	codeHTML = template.Must(template.New("code").Parse("{{.Code}}{{.NoSuchField}}"))

	if _, err := buildCodeHTML(CodeEmailData{Code: "012345"}, true); err == nil {
		t.Fatal("expected a render error")
	}

	e := BuildInvitationEmail(CodeEmailData{Code: "012345", ExpiresIn: "10 minutes"})
	if e.HTMLBody != "" {
		t.Errorf("HTMLBody should be empty on render error, got %q", e.HTMLBody)
	}
	if !strings.Contains(e.TextBody, "012345") {
		t.Errorf("TextBody missing code: %q", e.TextBody)
	}
}
