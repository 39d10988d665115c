package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/plugfox/addonhub/internal/config"
	"golang.org/x/net/proxy"
)

// New - http client for outgoing API calls (Telegram), dialing through the SOCKS5 proxy when one is configured.
func New(cfg *config.ProxyConfig, timeout time.Duration) (*http.Client, error) {
	if cfg == nil || cfg.Address == "" || cfg.Port == 0 {
		return &http.Client{Timeout: timeout}, nil
	}

	addr := net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port))
	var auth *proxy.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = &proxy.Auth{User: cfg.Username, Password: cfg.Password}
	}

	dialer, err := proxy.SOCKS5("tcp", addr, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("cannot init socks5 proxy client dialer: %w", err)
	}

	transport := &http.Transport{}
	if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = contextDialer.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, address string) (net.Conn, error) {
			return dialer.Dial(network, address)
		}
	}

	return &http.Client{Transport: transport, Timeout: timeout}, nil
}
