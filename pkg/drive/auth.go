package drive

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scope grants full Drive access; read-only is not enough for shared
// drives the service account was added to as a manager.
const Scope = "https://www.googleapis.com/auth/drive"

// LocalKeyFile is looked up beside the executable when the configured key
// path does not exist.
const LocalKeyFile = "main_acc.json"

// ServiceAccount is an authenticated HTTP client plus the identity it acts as.
type ServiceAccount struct {
	Email   string
	KeyPath string
	HTTP    *http.Client
}

// ServiceAccountClient loads a service-account JSON key and returns an
// HTTP client that signs requests with it. keyPath is tried first, then
// LocalKeyFile beside the running executable.
func ServiceAccountClient(ctx context.Context, keyPath string, timeout time.Duration) (*ServiceAccount, error) {
	path, err := locateKey(keyPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "drive: read key %s", path)
	}

	jwtCfg, err := google.JWTConfigFromJSON(data, Scope)
	if err != nil {
		return nil, eris.Wrapf(err, "drive: parse key %s", path)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
	hc := oauth2.NewClient(ctx, jwtCfg.TokenSource(ctx))
	hc.Timeout = timeout

	zap.L().Info("drive: using service account",
		zap.String("email", jwtCfg.Email),
		zap.String("key", path),
	)
	return &ServiceAccount{Email: jwtCfg.Email, KeyPath: path, HTTP: hc}, nil
}

func locateKey(keyPath string) (string, error) {
	if keyPath != "" {
		if _, err := os.Stat(keyPath); err == nil {
			return keyPath, nil
		}
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), LocalKeyFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", eris.Errorf("drive: service account key not found at %q or %s beside the executable", keyPath, LocalKeyFile)
}
