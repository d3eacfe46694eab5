package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stephentwig/shipgate/internal/app"
	"github.com/stephentwig/shipgate/internal/config"
)

// appChecks is the fixed suite: the service constructs without error and
// answers on its routes. The application is exercised in-process.
func appChecks(conf *config.Config, logger *zap.Logger) []Check {
	var a *app.App

	request := func(ctx context.Context, path string) (*httptest.ResponseRecorder, error) {
		if a == nil {
			return nil, errors.New("App was not constructed")
		}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
		a.Router().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			return nil, errors.Errorf("Unexpected status %d for %s", w.Code, path)
		}
		return w, nil
	}

	return []Check{
		{
			Name: "app-constructs",
			Run: func(ctx context.Context) error {
				var err error
				a, err = app.New(conf, logger)
				return errors.Wrap(err, "Failed to construct app")
			},
		},
		{
			Name: "root-route",
			Run: func(ctx context.Context) error {
				w, err := request(ctx, "/")
				if err != nil {
					return err
				}
				if body := w.Body.String(); body != conf.App.Greeting {
					return errors.Errorf("Unexpected body %q, expected %q", body, conf.App.Greeting)
				}
				return nil
			},
		},
		{
			Name: "ping-route",
			Run: func(ctx context.Context) error {
				w, err := request(ctx, "/ping")
				if err != nil {
					return err
				}
				if !strings.HasPrefix(w.Body.String(), "pong") {
					return errors.Errorf("Unexpected ping body %q", w.Body.String())
				}
				return nil
			},
		},
	}
}
