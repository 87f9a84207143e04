package aoscx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/a-light-win/lldp-webhook/pkg/httpclient"
	"github.com/a-light-win/lldp-webhook/pkg/link"
	"github.com/a-light-win/lldp-webhook/pkg/lldp"
)

const DefaultAPIVersion = "v10.08"

var errUnauthorized = errors.New("unauthorized")

type Config struct {
	URL                string
	APIVersion         string
	Username           string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration
	Retries            int
}

// Client reads system, interface and LLDP data from the switch REST API.
type Client struct {
	config  Config
	baseURL string
	client  *retryablehttp.Client

	mu       sync.Mutex
	loggedIn bool
}

type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

func NewClient(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, errors.New("switch URL is required")
	}
	if config.APIVersion == "" {
		config.APIVersion = DefaultAPIVersion
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		config:  config,
		baseURL: strings.TrimRight(config.URL, "/") + "/rest/" + config.APIVersion + "/",
		client: httpclient.New(httpclient.Options{
			Retries:            config.Retries,
			Timeout:            config.Timeout,
			InsecureSkipVerify: config.InsecureSkipVerify,
			Jar:                jar,
		}),
	}, nil
}

// Hostname returns the configured hostname of the switch.
func (c *Client) Hostname(ctx context.Context) (string, error) {
	var system struct {
		Hostname string `json:"hostname"`
	}
	if err := c.get(ctx, "system", url.Values{"attributes": {"hostname"}}, &system); err != nil {
		return "", err
	}
	if system.Hostname == "" {
		return "", errors.New("switch did not report a hostname")
	}
	return system.Hostname, nil
}

// LinkStates returns the link state of every interface keyed by name.
func (c *Client) LinkStates(ctx context.Context) (map[string]link.LinkState, error) {
	var interfaces map[string]struct {
		LinkState string `json:"link_state"`
	}
	query := url.Values{"attributes": {"link_state"}, "depth": {"2"}}
	if err := c.get(ctx, "system/interfaces", query, &interfaces); err != nil {
		return nil, err
	}

	states := make(map[string]link.LinkState, len(interfaces))
	for name, attrs := range interfaces {
		states[name] = link.ParseLinkState(attrs.LinkState)
	}
	return states, nil
}

type neighborEntry struct {
	ChassisID    string `json:"chassis_id"`
	PortID       string `json:"port_id"`
	NeighborInfo struct {
		ChassisName              string          `json:"chassis_name"`
		ChassisID                string          `json:"chassis_id"`
		PortDescription          string          `json:"port_description"`
		MgmtIPList               json.RawMessage `json:"mgmt_ip_list"`
		ChassisCapabilityEnabled json.RawMessage `json:"chassis_capability_enabled"`
	} `json:"neighbor_info"`
}

// Neighbor implements lldp.NeighborLookup. When the switch reports several
// neighbors the one with the lowest key is returned.
func (c *Client) Neighbor(ctx context.Context, iface string) (*lldp.Neighbor, error) {
	var entries map[string]neighborEntry
	path := "system/interfaces/" + url.PathEscape(iface) + "/lldp_neighbors"
	if err := c.get(ctx, path, url.Values{"depth": {"2"}}, &entries); err != nil {
		return nil, &lldp.NeighborLookupError{Interface: iface, Err: err}
	}
	if len(entries) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	entry := entries[keys[0]]

	chassisID := entry.ChassisID
	if chassisID == "" {
		chassisID = entry.NeighborInfo.ChassisID
	}
	return &lldp.Neighbor{
		Interface:       iface,
		ChassisID:       chassisID,
		PortID:          entry.PortID,
		SystemName:      entry.NeighborInfo.ChassisName,
		PortDescription: entry.NeighborInfo.PortDescription,
		MgmtIPs:         stringList(entry.NeighborInfo.MgmtIPList),
		Capabilities:    stringList(entry.NeighborInfo.ChassisCapabilityEnabled),
		Count:           len(entries),
	}, nil
}

// stringList accepts either a JSON list of strings or a comma separated string.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		list = strings.Split(s, ",")
	}

	var out []string
	for _, item := range list {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	err := c.doGet(ctx, path, query, out)
	if errors.Is(err, errUnauthorized) && c.config.Username != "" {
		// The session expired, log in again once.
		c.setLoggedIn(false)
		err = c.doGet(ctx, path, query, out)
	}
	return err
}

func (c *Client) doGet(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.ensureLogin(ctx); err != nil {
		return err
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("GET %s: %w", target, errUnauthorized)
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: http.MethodGet, URL: target, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: failed to decode response: %w", target, err)
	}
	return nil
}

func (c *Client) setLoggedIn(v bool) {
	c.mu.Lock()
	c.loggedIn = v
	c.mu.Unlock()
}

func (c *Client) ensureLogin(ctx context.Context) error {
	if c.config.Username == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loggedIn {
		return nil
	}

	form := url.Values{"username": {c.config.Username}, "password": {c.config.Password}}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("switch login failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("switch login failed: %w", &StatusError{Method: http.MethodPost, URL: c.baseURL + "login", StatusCode: resp.StatusCode})
	}

	log.Debug().Str("Switch", c.config.URL).Str("Username", c.config.Username).Msg("Logged in to switch REST API")
	c.loggedIn = true
	return nil
}

// Close ends the REST session, if one was opened.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loggedIn {
		return nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"logout", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("switch logout failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.loggedIn = false
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Method: http.MethodPost, URL: c.baseURL + "logout", StatusCode: resp.StatusCode}
	}
	return nil
}
