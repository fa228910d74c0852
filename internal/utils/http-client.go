package utils

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"
)

type HTTPClientConfig struct {
	Timeout        time.Duration     `yaml:"timeout"`
	KATimeout      time.Duration     `yaml:"keep_alive_timeout"`
	ProxyURL       string            `yaml:"proxy"`
	ProxyUsername  string            `yaml:"proxy_username"`
	ProxyPassword  string            `yaml:"proxy_password"`
	UserAgent      string            `yaml:"user_agent"`
	Headers        map[string]string `yaml:"headers"`
	HighThreadMode bool              `yaml:"-"` // advanced socket options for high concurrency
}

// HTTPDoer is the request surface the downloaders depend on.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type SymHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewSymHTTPClient(cfg HTTPClientConfig) (*SymHTTPClient, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = DefaultKATimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		IdleConnTimeout:     cfg.KATimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		DisableCompression:  true, // byte ranges must address the raw entity
		MaxConnsPerHost:     0,
	}
	if cfg.HighThreadMode {
		transport.DialContext = (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			Control: func(network, address string, c syscall.RawConn) error {
				return c.Control(func(fd uintptr) {
					setSocketOptions(fd)
				})
			},
		}).DialContext
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		if proxyURL.User != nil && cfg.ProxyUsername == "" {
			cfg.ProxyUsername = proxyURL.User.Username()
			if password, set := proxyURL.User.Password(); set {
				cfg.ProxyPassword = password
			}
		}
		if cfg.ProxyUsername != "" {
			if cfg.ProxyPassword != "" {
				proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
			} else {
				proxyURL.User = url.User(cfg.ProxyUsername)
			}
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &SymHTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		config: cfg,
	}, nil
}

func (c *SymHTTPClient) UserAgent() string {
	return c.config.UserAgent
}

// Do stamps the configured identification and extra headers on req.
// Headers already present on req (User-Agent, Range) are left alone.
func (c *SymHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	for k, v := range c.config.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return c.client.Do(req)
}
