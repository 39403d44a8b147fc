package whatsapp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mamadbah2/dairy-dashboard/internal/config"
	client "github.com/mamadbah2/dairy-dashboard/pkg/clients/whatsapp"
)

type recordingClient struct {
	sent []client.SendTextMessageRequest
	err  error
}

func (c *recordingClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.sent = append(c.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

func TestSplitMessage(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		limit int
		want  []string
	}{
		{"empty", "  \n", 10, nil},
		{"fits", "a\nb", 10, []string{"a\nb"}},
		{"breaks on lines", "aaaa\nbbbb\ncc", 9, []string{"aaaa\nbbbb", "cc"}},
		{"cuts long line", "abcdefghij\nk", 4, []string{"abcd", "efgh", "ij\nk"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitMessage(tc.body, tc.limit)
			if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSplitMessageRespectsLimitWithMultibyteText(t *testing.T) {
	line := strings.Repeat("दूध ", 40)
	body := strings.TrimSpace(strings.Repeat(line+"\n", 60))

	for _, part := range SplitMessage(body, MaxMessageLength) {
		if n := utf8.RuneCountInString(part); n > MaxMessageLength {
			t.Fatalf("part has %d characters", n)
		}
	}
}

func TestSendDigestTargetsFieldTeam(t *testing.T) {
	rec := &recordingClient{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{FieldTeamID: "919800000000"}, rec, nil)

	body := strings.Repeat("- BMC BMC004 needs a visit\n", 400)
	if err := svc.SendDigest(context.Background(), body); err != nil {
		t.Fatalf("send digest: %v", err)
	}

	if len(rec.sent) < 2 {
		t.Fatalf("expected the digest to be split, got %d messages", len(rec.sent))
	}
	for _, msg := range rec.sent {
		if msg.To != "919800000000" {
			t.Fatalf("unexpected recipient %q", msg.To)
		}
	}
}

func TestSendDigestErrors(t *testing.T) {
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, &recordingClient{}, nil)
	if err := svc.SendDigest(context.Background(), "hi"); err == nil {
		t.Fatal("expected an error without a recipient")
	}

	boom := errors.New("boom")
	svc = NewMetaWhatsAppService(config.WhatsAppConfig{FieldTeamID: "1"}, &recordingClient{err: boom}, nil)
	if err := svc.SendDigest(context.Background(), "hi"); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
