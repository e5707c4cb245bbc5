// Package cloudinary stores place photos on the Cloudinary CDN.
package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cldsdk "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
	"golang.org/x/time/rate"

	"tenmunches/internal/adapters/observability"
)

const (
	// DefaultBase is the API host; the SDK appends /v1_1/<cloud>.
	DefaultBase = "https://api.cloudinary.com"

	folder         = "tenmunches"
	transformation = "c_fill,g_auto,h_600,w_800/f_auto,q_auto"
)

var errNotFound = errors.New("cloudinary: resource not found")

type Client struct {
	cld *cldsdk.Cloudinary
	rl  *rate.Limiter
}

func New(base, cloud, key, secret string) (*Client, error) {
	if cloud == "" || key == "" || secret == "" {
		return nil, fmt.Errorf("cloudinary: cloud name, api key and secret are required")
	}
	conf, err := config.NewFromParams(cloud, key, secret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	if base == "" {
		base = DefaultBase
	}
	conf.API.UploadPrefix = strings.TrimRight(base, "/")

	c, err := cldsdk.NewFromConfiguration(*conf)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &Client{cld: c, rl: rate.NewLimiter(rate.Limit(10), 10)}, nil
}

// UploadPhoto stores sourceURL under the public id tenmunches/<placeID> and
// returns an auto-format, auto-quality delivery URL. An already uploaded
// photo is reused. Non-http sources yield "" and no error.
func (c *Client) UploadPhoto(ctx context.Context, sourceURL, placeID string) (string, error) {
	if !strings.HasPrefix(sourceURL, "http://") && !strings.HasPrefix(sourceURL, "https://") {
		return "", nil
	}
	publicID := folder + "/" + placeID

	existing, err := c.resource(ctx, publicID)
	switch {
	case err == nil && existing != "":
		return optimizedURL(existing), nil
	case err != nil && !errors.Is(err, errNotFound):
		return "", err
	}

	var secureURL string
	err = c.call(ctx, "upload", func() (string, error) {
		res, err := c.cld.Upload.Upload(ctx, sourceURL, uploader.UploadParams{
			PublicID:       publicID,
			Overwrite:      api.Bool(true),
			Transformation: transformation,
		})
		if err != nil {
			return "", err
		}
		secureURL = res.SecureURL
		return res.Error.Message, nil
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", publicID, err)
	}
	if secureURL == "" {
		return "", fmt.Errorf("upload %s: response without secure_url", publicID)
	}
	return optimizedURL(secureURL), nil
}

// Ping verifies the credentials against the admin API.
func (c *Client) Ping(ctx context.Context) error {
	var status string
	err := c.call(ctx, "ping", func() (string, error) {
		res, err := c.cld.Admin.Ping(ctx)
		if err != nil {
			return "", err
		}
		status = res.Status
		return res.Error.Message, nil
	})
	if err != nil {
		return err
	}
	if status != "ok" {
		return fmt.Errorf("cloudinary: ping status %q", status)
	}
	return nil
}

func (c *Client) resource(ctx context.Context, publicID string) (string, error) {
	var secureURL string
	err := c.call(ctx, "resource", func() (string, error) {
		res, err := c.cld.Admin.Asset(ctx, admin.AssetParams{
			AssetType:    api.Image,
			DeliveryType: api.Upload,
			PublicID:     publicID,
		})
		if err != nil {
			return "", err
		}
		secureURL = res.SecureURL
		return res.Error.Message, nil
	})
	return secureURL, err
}

// call rate-limits fn and records it as an external call. fn returns the
// API error message from the response body, if any, separately from
// transport errors.
func (c *Client) call(ctx context.Context, endpoint string, fn func() (string, error)) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	start := time.Now()
	msg, err := fn()
	status := http.StatusOK
	switch {
	case err != nil && isNotFound(err.Error()):
		status, err = http.StatusNotFound, errNotFound
	case err != nil:
		status, err = 0, fmt.Errorf("cloudinary: %w", err)
	case isNotFound(msg):
		status, err = http.StatusNotFound, errNotFound
	case msg != "":
		status, err = http.StatusBadRequest, fmt.Errorf("cloudinary: %s", msg)
	}
	observability.ObserveExternal("cloudinary", endpoint, status, time.Since(start))
	return err
}

func isNotFound(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "not found")
}

func optimizedURL(u string) string {
	if strings.Contains(u, "/f_auto,q_auto/") || strings.Contains(u, "/q_auto,f_auto/") {
		return u
	}
	return strings.Replace(u, "/upload/", "/upload/f_auto,q_auto/", 1)
}
