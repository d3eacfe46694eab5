package deploy

import (
	goerrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const dialTimeout = time.Second * 30

type sshShell struct {
	client *ssh.Client
}

func (i *Invoker) dialSSH() (remoteShell, error) {
	key, err := i.privateKey()
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to parse private key")
	}

	hostKeys, err := i.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            i.config.Deploy.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeys,
		Timeout:         dialTimeout,
	}

	addr := fmt.Sprintf("%s:%d", i.config.Deploy.Host, i.config.Deploy.Port)
	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to dial deploy host")
	}

	return &sshShell{client}, nil
}

// hostKeyCallback verifies the host against the configured known_hosts file.
// Without one the host key is not checked at all.
func (i *Invoker) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if i.config.Deploy.KnownHostsFile == "" {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	callback, err := knownhosts.New(i.config.Deploy.KnownHostsFile)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to load known hosts")
	}
	return callback, nil
}

// privateKey loads the credential supplied out-of-band; it never lives in source.
func (i *Invoker) privateKey() ([]byte, error) {
	if i.config.Deploy.KeyData != "" {
		return []byte(i.config.Deploy.KeyData), nil
	}
	if i.config.Deploy.KeyFile != "" {
		key, err := os.ReadFile(i.config.Deploy.KeyFile)
		return key, errors.Wrap(err, "Failed to read private key file")
	}
	return nil, errors.New("No deploy key configured")
}

func (s *sshShell) Run(command string, timeout time.Duration) ([]byte, int, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return nil, -1, errors.Wrap(err, "Failed to open session")
	}
	defer session.Close()

	type result struct {
		output []byte
		err    error
	}
	done := make(chan result, 1)
	go func() {
		output, err := session.CombinedOutput(command)
		done <- result{output, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			code := -1
			var exitErr *ssh.ExitError
			if goerrors.As(res.err, &exitErr) {
				code = exitErr.ExitStatus()
			}
			return res.output, code, res.err
		}
		return res.output, 0, nil
	case <-time.After(timeout):
		session.Close()
		return nil, -1, errors.Errorf("Command timed out after %s", timeout)
	}
}

func (s *sshShell) Close() error {
	return s.client.Close()
}
