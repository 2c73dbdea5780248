package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender writes rendered alerts to the log instead of a chat. Used when
// no delivery credentials are configured, so a dev setup still shows what
// would have been sent.
type LogSender struct {
	logger *logrus.Logger
}

func NewLogSender(logger *logrus.Logger) *LogSender {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, alert Alert) {
	s.logger.WithFields(logrus.Fields{
		"token":    alert.Event.TokenSymbol,
		"patterns": len(alert.Patterns),
	}).Info("alert (delivery disabled):\n" + RenderAlert(alert))
}
