package emailverify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/optimode/emailverify/check"
)

// Config is the explicit configuration of a Verifier.
type Config struct {
	// DisposableDomains replaces the embedded disposable-domain list when
	// non-nil. Keys are matched case-insensitively.
	DisposableDomains map[string]struct{}

	// SMTPTimeout bounds the whole SMTP probe, connect included. Default: 10s
	SMTPTimeout time.Duration `validate:"gt=0"`
	// DNSTimeout bounds the MX lookup. Default: 5s
	DNSTimeout time.Duration `validate:"gt=0"`

	// HeloIdentity is the name sent with HELO. Default: verify.local
	HeloIdentity string `validate:"required,hostname_rfc1123"`
	// VerificationSender is the MAIL FROM address. Empty sends the null
	// reverse-path, MAIL FROM:<>. Default: verify@verify.local
	VerificationSender string `validate:"omitempty,email"`
	// SMTPPort is the port dialed on the MX host. Default: 25
	SMTPPort string `validate:"required,numeric"`

	// Nameservers, when set, are queried directly instead of the system
	// resolver, e.g. "1.1.1.1:53".
	Nameservers []string `validate:"omitempty,dive,required"`
	// ProxyURL routes SMTP connections through a proxy, e.g. socks5://host:1080.
	ProxyURL string `validate:"omitempty,url"`

	// TypoThreshold is the Levenshtein distance under which a domain close to
	// a known provider gets a suggestion. Zero disables suggestions. Default: 2
	TypoThreshold int `validate:"gte=0"`
	// KnownProviders overrides the provider list used for suggestions.
	KnownProviders []string `validate:"omitempty,dive,required"`
}

// DefaultConfig returns the configuration the verification service runs with.
func DefaultConfig() Config {
	return Config{
		SMTPTimeout:        10 * time.Second,
		DNSTimeout:         5 * time.Second,
		HeloIdentity:       "verify.local",
		VerificationSender: "verify@verify.local",
		SMTPPort:           "25",
		TypoThreshold:      2,
		KnownProviders:     check.DefaultKnownProviders(),
	}
}

var validate = validator.New()

// Validate checks the configuration. The returned error wraps
// ErrInvalidConfig and names every offending field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "gt":
			msgs = append(msgs, field+" must be greater than "+fe.Param())
		case "gte":
			msgs = append(msgs, field+" must be at least "+fe.Param())
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "hostname_rfc1123":
			msgs = append(msgs, field+" must be a valid hostname")
		case "numeric":
			msgs = append(msgs, field+" must be numeric")
		case "url":
			msgs = append(msgs, field+" must be a valid URL")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, ", "))
}
