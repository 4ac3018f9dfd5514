package alerting

import (
	"context"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/k3a/html2text"
	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/plantwatch/plantwatch-go/internal/anomaly"
	"github.com/plantwatch/plantwatch-go/internal/conf"
	"github.com/plantwatch/plantwatch-go/internal/logging"
)

// Service delivers health check reports through shoutrrr service URLs.
// One sender fans out to every configured URL; services that cannot render
// HTML get a plain-text conversion of the same report.
type Service struct {
	settings conf.AlertSettings
	sender   *router.ServiceRouter
	logger   *slog.Logger
	now      func() time.Time
}

// NewService validates the configured URLs and builds the sender. A
// disabled alert section yields a service whose Send is a no-op.
func NewService(settings conf.AlertSettings) (*Service, error) {
	s := &Service{
		settings: settings,
		logger:   logging.ForComponent("alerting"),
		now:      time.Now,
	}
	if !settings.Enabled {
		return s, nil
	}

	sender, err := shoutrrr.CreateSender(settings.URLs...)
	if err != nil {
		return nil, err
	}
	if settings.Timeout > 0 {
		sender.Timeout = settings.Timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	s.sender = sender
	return s, nil
}

// Send renders the result into a report and pushes it to every configured
// service. An empty result is not sent; silence means healthy.
func (s *Service) Send(ctx context.Context, result anomaly.Result, window time.Duration) error {
	if s.sender == nil {
		s.logger.Debug("alerting disabled, skipping report")
		return nil
	}
	if result.Empty() {
		s.logger.Info("health check clean, no report sent")
		return nil
	}
	_ = ctx // the router applies its own timeout per service

	html, err := RenderReport(result, s.settings.Recipients, window, s.now())
	if err != nil {
		return err
	}
	body := html2text.HTML2Text(html)

	params := stypes.Params{}
	params.SetTitle("Plant health check report")
	for _, err := range s.sender.Send(body, &params) {
		if err != nil {
			return err
		}
	}

	s.logger.Info("health check report sent",
		"services", len(s.settings.URLs),
		"missing", len(result.Missing),
		"outliers", len(result.SoilMoisture)+len(result.Temperature))
	return nil
}
