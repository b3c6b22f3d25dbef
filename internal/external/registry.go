package external

import (
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"

	"outagealert/internal/config"
)

// ClientRegistry holds the provider for each transport. A nil field means
// the transport is not configured; the matching channel then fails every
// send.
type ClientRegistry struct {
	Email    EmailProvider
	SMS      SMSProvider
	Push     PushProvider
	WhatsApp WhatsAppProvider
}

// NewClientRegistry builds providers from cfg. APP_ENV=local uses stubs for
// every enabled transport; elsewhere the real AWS and WhatsApp clients are
// created.
func NewClientRegistry(cfg *config.Config, awsCfg aws.Config, logger *slog.Logger) *ClientRegistry {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Environment == "local" {
		stubLogger := logger.With("mode", "stub")
		logger.Info("initializing transports in STUB mode")
		reg := &ClientRegistry{Email: NewStubEmailProvider(stubLogger)}
		if cfg.SMS.Enabled {
			reg.SMS = NewStubSMSProvider(stubLogger)
		}
		if cfg.WhatsApp.Configured() {
			reg.WhatsApp = NewStubSMSProvider(stubLogger)
		}
		if cfg.Push.Enabled {
			reg.Push = NewStubPushProvider(stubLogger)
		}
		return reg
	}

	reg := &ClientRegistry{}

	switch cfg.Email.Provider {
	case "ses":
		reg.Email = NewSESClient(awsCfg, SESClientConfig{
			ConfigSetName: cfg.Email.ConfigSetName,
			Logger:        logger.With("client", "ses"),
		})
	default:
		reg.Email = NewStubEmailProvider(logger.With("client", "email-stub"))
	}

	if cfg.SMS.Enabled || cfg.Push.Enabled {
		snsClient := NewSNSClient(awsCfg, SNSClientConfig{
			SenderID: cfg.SMS.SenderID,
			Logger:   logger.With("client", "sns"),
		})
		if cfg.SMS.Enabled {
			reg.SMS = snsClient
		}
		if cfg.Push.Enabled {
			reg.Push = snsClient
		}
	}

	if cfg.WhatsApp.Configured() {
		base := NewBaseClient(
			&http.Client{Timeout: cfg.WhatsApp.Timeout},
			"whatsapp",
			DefaultRetryPolicy(),
			"OutageAlert/"+cfg.Build.Version,
		)
		reg.WhatsApp = NewWhatsAppClient(base, WhatsAppClientConfig{
			APIURL:        cfg.WhatsApp.APIURL,
			PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
			AccessToken:   cfg.WhatsApp.AccessToken.Unmask(),
		})
	}

	logger.Info("transports initialized",
		"environment", cfg.Environment,
		"email", cfg.Email.Provider,
		"sms", reg.SMS != nil,
		"push", reg.Push != nil,
		"whatsapp", reg.WhatsApp != nil,
	)
	return reg
}
