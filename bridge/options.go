package bridge

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// TLSOptions is the opaque TLS options bag from §6's `ssl_opts`, decoded
// into a typed struct. Certificate management beyond this pass-through is a
// non-goal: callers hand us PEM bytes, we build a tls.Config and nothing
// more.
type TLSOptions struct {
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
	ServerName         string `mapstructure:"server_name"`
	RootCAPEM          string `mapstructure:"root_ca_pem"`
	ClientCertPEM      string `mapstructure:"client_cert_pem"`
	ClientKeyPEM       string `mapstructure:"client_key_pem"`
}

// Config builds a *tls.Config from o. A nil TLSOptions (i.e. `secure: true`
// with no `ssl_opts`) yields a zero-value config: default verification
// against the system root pool.
func (o *TLSOptions) Config() (*tls.Config, error) {
	if o == nil {
		return &tls.Config{}, nil
	}
	cfg := &tls.Config{
		InsecureSkipVerify: o.InsecureSkipVerify,
		ServerName:         o.ServerName,
	}
	if o.RootCAPEM != "" {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM([]byte(o.RootCAPEM)) {
			return nil, fmt.Errorf("bridge: root_ca_pem did not contain a valid certificate")
		}
		cfg.RootCAs = pool
	}
	if o.ClientCertPEM != "" || o.ClientKeyPEM != "" {
		cert, err := tls.X509KeyPair([]byte(o.ClientCertPEM), []byte(o.ClientKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("bridge: loading client cert/key: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// ConnectOptions is the typed form of the options bag Connect accepts,
// decoded via mapstructure the way the teacher's model package decodes an
// unwrapped payload into a caller-supplied type.
type ConnectOptions struct {
	Timeout time.Duration          `mapstructure:"timeout"`
	Secure  bool                   `mapstructure:"secure"`
	SSLOpts *TLSOptions            `mapstructure:"ssl_opts"`
	// HeartBeat is threaded through to the handshake's heart-beat header
	// for brokers that refuse a connection lacking one. This library never
	// emits client-originated heartbeats (§1 Non-goals) regardless of its
	// value.
	HeartBeat string `mapstructure:"heart_beat"`
	// AcceptVersion overrides the offered accept-version list. Empty means
	// "1.2" alone, per §6.
	AcceptVersion string `mapstructure:"accept_version"`
	// Backoff is read only by cmd/stompcli's reconnect loop; the
	// connection manager itself never reconnects (§1 Non-goals).
	Backoff BackoffOptions `mapstructure:"backoff"`
}

// BackoffOptions configures the demonstration CLI's reconnect loop.
type BackoffOptions struct {
	Initial    time.Duration `mapstructure:"initial"`
	Max        time.Duration `mapstructure:"max"`
	Multiplier float64       `mapstructure:"multiplier"`
}

// defaultConnectOptions returns the options a caller gets when they pass no
// options bag at all.
func defaultConnectOptions() ConnectOptions {
	return ConnectOptions{
		Timeout:       10 * time.Second,
		AcceptVersion: "1.2",
		Backoff: BackoffOptions{
			Initial:    500 * time.Millisecond,
			Max:        30 * time.Second,
			Multiplier: 2,
		},
	}
}

// decodeOptions merges raw into the defaults via mapstructure. A nil raw is
// valid and yields the defaults unchanged.
func decodeOptions(raw map[string]interface{}) (ConnectOptions, error) {
	opts := defaultConnectOptions()
	if raw == nil {
		return opts, nil
	}
	if err := mapstructure.Decode(raw, &opts); err != nil {
		return opts, fmt.Errorf("bridge: decoding connect options: %w", err)
	}
	if opts.AcceptVersion == "" {
		opts.AcceptVersion = "1.2"
	}
	return opts, nil
}

// DecodeConnectOptions exposes decodeOptions to callers that need the
// resolved options bag before calling Connect — e.g. a reconnect loop that
// wants the same Backoff settings Connect itself would see.
func DecodeConnectOptions(raw map[string]interface{}) (ConnectOptions, error) {
	return decodeOptions(raw)
}
