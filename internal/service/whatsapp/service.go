package whatsapp

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-dashboard/internal/config"
	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
	client "github.com/mamadbah2/dairy-dashboard/pkg/clients/whatsapp"
)

// MaxMessageLength is the WhatsApp text body limit in characters.
const MaxMessageLength = 4096

// MessagingService describes the messages the dashboard pushes to field teams.
type MessagingService interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
	SendDigest(ctx context.Context, body string) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg    config.WhatsAppConfig
	client client.Client
	logger *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// SendOutbound lets operators push quick notifications via HTTP.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         req.To,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
	})
	return err
}

// SendDigest delivers body to the configured field team, split into as many
// messages as the length limit requires.
func (s *MetaWhatsAppService) SendDigest(ctx context.Context, body string) error {
	if s.cfg.FieldTeamID == "" {
		return errors.New("no field team recipient configured")
	}

	parts := SplitMessage(body, MaxMessageLength)
	for i, part := range parts {
		req := models.OutboundMessageRequest{To: s.cfg.FieldTeamID, Message: part}
		if err := s.SendOutbound(ctx, req); err != nil {
			s.logger.Error("digest part failed", zap.Int("part", i+1), zap.Int("parts", len(parts)), zap.Error(err))
			return err
		}
	}

	s.logger.Info("digest delivered", zap.Int("parts", len(parts)))
	return nil
}

// SplitMessage breaks body on line boundaries into chunks of at most limit
// characters. Lines longer than limit are cut.
func SplitMessage(body string, limit int) []string {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	if utf8.RuneCountInString(body) <= limit {
		return []string{body}
	}

	var (
		parts []string
		cur   strings.Builder
		size  int
	)
	flush := func() {
		if size > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			size = 0
		}
	}

	for _, line := range strings.Split(body, "\n") {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			parts = append(parts, string(runes[:limit]))
			runes = runes[limit:]
		}

		n := len(runes)
		sep := 0
		if size > 0 {
			sep = 1
		}
		if size+sep+n > limit {
			flush()
			sep = 0
		}
		if sep == 1 {
			cur.WriteByte('\n')
		}
		cur.WriteString(string(runes))
		size += sep + n
	}
	flush()

	return parts
}
