package deploy

import (
	"crypto/ed25519"
	"crypto/rand"
	"net"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/stephentwig/shipgate/internal/config"
)

func generateHostKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("Failed to wrap key: %v", err)
	}
	return sshPub
}

func TestHostKeyNotCheckedWithoutKnownHosts(t *testing.T) {
	i := NewInvoker(&config.Config{}, zap.NewNop())

	callback, err := i.hostKeyCallback()
	if err != nil {
		t.Fatalf("Fallback callback failed: %v", err)
	}
	if err := callback("deploy.example.com:22", nil, generateHostKey(t)); err != nil {
		t.Fatalf("Fallback must accept any host key, got: %v", err)
	}
}

func TestHostKeyVerifiedAgainstKnownHosts(t *testing.T) {
	hostKey := generateHostKey(t)
	path := filepath.Join(t.TempDir(), "known_hosts")
	line := knownhosts.Line([]string{"deploy.example.com"}, hostKey)
	if err := os.WriteFile(path, []byte(line+"\n"), 0o600); err != nil {
		t.Fatalf("Failed to write known_hosts: %v", err)
	}

	conf := &config.Config{}
	conf.Deploy.KnownHostsFile = path
	i := NewInvoker(conf, zap.NewNop())

	callback, err := i.hostKeyCallback()
	if err != nil {
		t.Fatalf("Failed to load known_hosts: %v", err)
	}

	addr := &net.TCPAddr{IP: net.IPv4(203, 0, 113, 10), Port: 22}
	if err := callback("deploy.example.com:22", addr, hostKey); err != nil {
		t.Fatalf("Known host key must be accepted, got: %v", err)
	}
	if err := callback("deploy.example.com:22", addr, generateHostKey(t)); err == nil {
		t.Fatalf("A different host key must be rejected")
	}
}

func TestHostKeyCallbackMissingKnownHosts(t *testing.T) {
	conf := &config.Config{}
	conf.Deploy.KnownHostsFile = filepath.Join(t.TempDir(), "no_such_file")
	i := NewInvoker(conf, zap.NewNop())

	if _, err := i.hostKeyCallback(); err == nil {
		t.Fatalf("A missing known_hosts file must fail the dial")
	}
}
