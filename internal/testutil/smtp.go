// Package testutil holds helpers shared by tests.
package testutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
)

// SMTPServerOptions tunes the fake relay. The zero value is a relay that
// offers STARTTLS and accepts AUTH PLAIN for any credentials.
type SMTPServerOptions struct {
	// DisableTLS stops the relay from advertising STARTTLS.
	DisableTLS bool
	// DisableAuth stops the relay from advertising or accepting AUTH.
	DisableAuth bool
	// RejectAuth fails every AUTH attempt with 535.
	RejectAuth bool
}

// Message is one message accepted by the relay.
type Message struct {
	From string
	To   []string
	Data string
	// TLS reports whether the session had been upgraded when MAIL was sent.
	TLS bool
	// Username is the identity the session authenticated as, if any.
	Username string
}

// SMTPServer is an in-process submission relay on the loopback interface.
type SMTPServer struct {
	Host string
	Port int

	opts   SMTPServerOptions
	server *gosmtp.Server
	cert   *x509.Certificate
	done   chan struct{}

	mu          sync.Mutex
	connections int
	messages    []Message
}

// StartSMTPServer listens on a random loopback port until the test ends.
func StartSMTPServer(t *testing.T, opts SMTPServerOptions) *SMTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := &SMTPServer{
		Host: "127.0.0.1",
		Port: ln.Addr().(*net.TCPAddr).Port,
		opts: opts,
		done: make(chan struct{}),
	}

	srv := gosmtp.NewServer(&relayBackend{relay: s})
	srv.Domain = "localhost"
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.AllowInsecureAuth = false
	if !opts.DisableTLS {
		cert, parsed, err := selfSignedCert()
		if err != nil {
			ln.Close()
			t.Fatalf("failed to create certificate: %v", err)
		}
		s.cert = parsed
		srv.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}
	s.server = srv

	go func() {
		defer close(s.done)
		srv.Serve(&countingListener{Listener: ln, relay: s})
	}()
	t.Cleanup(s.Close)
	return s
}

// Close stops the relay and waits for it to exit.
func (s *SMTPServer) Close() {
	s.server.Close()
	<-s.done
}

// ClientTLSConfig returns a client configuration that trusts the relay's
// certificate. It is nil when STARTTLS is disabled.
func (s *SMTPServer) ClientTLSConfig() *tls.Config {
	if s.cert == nil {
		return nil
	}
	pool := x509.NewCertPool()
	pool.AddCert(s.cert)
	return &tls.Config{RootCAs: pool, ServerName: s.Host}
}

// Connections returns the number of accepted client connections.
func (s *SMTPServer) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connections
}

// Messages returns every accepted message, in order.
func (s *SMTPServer) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

type countingListener struct {
	net.Listener
	relay *SMTPServer
}

func (l *countingListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err == nil {
		l.relay.mu.Lock()
		l.relay.connections++
		l.relay.mu.Unlock()
	}
	return conn, err
}

type relayBackend struct {
	relay *SMTPServer
}

func (b *relayBackend) NewSession(c *gosmtp.Conn) (gosmtp.Session, error) {
	if b.relay.opts.DisableAuth {
		return &relaySession{relay: b.relay, conn: c}, nil
	}
	return &authSession{relaySession{relay: b.relay, conn: c}}, nil
}

// relaySession accepts mail without any authentication.
type relaySession struct {
	relay    *SMTPServer
	conn     *gosmtp.Conn
	username string
	msg      Message
}

func (s *relaySession) Mail(from string, opts *gosmtp.MailOptions) error {
	_, isTLS := s.conn.TLSConnectionState()
	s.msg = Message{From: from, TLS: isTLS, Username: s.username}
	return nil
}

func (s *relaySession) Rcpt(to string, opts *gosmtp.RcptOptions) error {
	s.msg.To = append(s.msg.To, to)
	return nil
}

func (s *relaySession) Data(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.msg.Data = string(b)

	s.relay.mu.Lock()
	s.relay.messages = append(s.relay.messages, s.msg)
	s.relay.mu.Unlock()
	return nil
}

func (s *relaySession) Reset() {
	s.msg = Message{}
}

func (s *relaySession) Logout() error {
	return nil
}

// authSession requires AUTH PLAIN before MAIL.
type authSession struct {
	relaySession
}

func (s *authSession) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *authSession) Auth(mech string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if s.relay.opts.RejectAuth {
			return gosmtp.ErrAuthFailed
		}
		s.username = username
		return nil
	}), nil
}

func (s *authSession) Mail(from string, opts *gosmtp.MailOptions) error {
	if s.username == "" {
		return gosmtp.ErrAuthRequired
	}
	return s.relaySession.Mail(from, opts)
}

func selfSignedCert() (tls.Certificate, *x509.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, nil, err
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, nil, err
	}
	parsed, err := x509.ParseCertificate(der)
	if err != nil {
		return tls.Certificate{}, nil, err
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, parsed, nil
}
