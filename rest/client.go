// Copyright 2026 The Govisor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	user   string // HTTP Basic-Auth
	pass   string
	base   string // URI to root of tree on server
	auth   bool
	client *http.Client
}

func (c *Client) SetAuth(user string, pass string) {
	c.user = user
	c.pass = pass
	c.auth = true
}

func (c *Client) request(ctx context.Context, method, url string) (*http.Request, error) {
	req, e := http.NewRequestWithContext(ctx, method, url, nil)
	if e != nil {
		return nil, e
	}
	if c.auth {
		req.SetBasicAuth(c.user, c.pass)
	}
	return req, nil
}

// responseError decodes the server's JSON error, falling back to the HTTP
// status line.
func responseError(res *http.Response) error {
	e := &Error{}
	if b, err := io.ReadAll(res.Body); err == nil && json.Unmarshal(b, e) == nil && e.Message != "" {
		e.Code = res.StatusCode
		return e
	}
	return &Error{Code: res.StatusCode, Message: res.Status}
}

// poll issues an HTTP GET against the URL, optionally checking for a cache,
// including optionally issuing a long poll that tries to wait until the
// value changes.  The return values are the new Etag and any error.  If the
// value did not change, then the returned etag will be "", but the error will
// be nil.
func (c *Client) poll(ctx context.Context, url string, etag string, wait int, v interface{}) (string, error) {
	req, e := c.request(ctx, "GET", url)
	if e != nil {
		return "", e
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
		if wait > 0 {
			req.Header.Set(PollEtagHeader, etag)
			req.Header.Set(PollTimeHeader, strconv.Itoa(wait))
		}
	}

	res, e := c.client.Do(req)
	if e != nil {
		return "", e
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotModified {
		return "", nil
	}
	if res.StatusCode != http.StatusOK {
		return "", responseError(res)
	}
	body, e := io.ReadAll(res.Body)
	if e != nil {
		return "", e
	}
	if e := json.Unmarshal(body, v); e != nil {
		return "", e
	}
	return res.Header.Get("Etag"), nil
}

func (c *Client) post(ctx context.Context, url string, v interface{}) error {
	req, e := c.request(ctx, "POST", url)
	if e != nil {
		return e
	}
	req.Header.Set("Content-Type", "text/plain") // we don't really care
	res, e := c.client.Do(req)
	if e != nil {
		return e
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return responseError(res)
	}
	if v == nil {
		return nil
	}
	body, e := io.ReadAll(res.Body)
	if e != nil {
		return e
	}
	return json.Unmarshal(body, v)
}

func (c *Client) pollStatus(ctx context.Context, secs int, last *ProcessStatus) (*ProcessStatus, error) {
	otag := ""
	if last == nil {
		secs = 0
	} else {
		otag = last.etag
	}
	v := &ProcessStatus{}
	etag, e := c.poll(ctx, c.base+"/process", otag, secs, v)
	if e != nil {
		return nil, e
	}
	if etag == "" {
		return last, nil
	}
	v.etag = etag
	return v, nil
}

// GetStatus returns the current status of the supervised process.
func (c *Client) GetStatus() (*ProcessStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.pollStatus(ctx, 0, nil)
}

// WatchStatus waits for the status to differ from last, returning last
// if nothing changed within the server's poll window.  A nil last returns
// the current status immediately.
func (c *Client) WatchStatus(ctx context.Context, last *ProcessStatus) (*ProcessStatus, error) {
	return c.pollStatus(ctx, 300, last)
}

// Start asks the server to start the process, and returns the status
// that resulted.  A start that fails to launch is not an error; the
// status reports StartFailed instead.
func (c *Client) Start() (*ProcessStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	v := &ProcessStatus{}
	if e := c.post(ctx, c.base+"/process/start", v); e != nil {
		return nil, e
	}
	return v, nil
}

// Stop asks the server to stop the process.  A negative timeout uses the
// server's default.  If wait is set, Stop returns once the shutdown has
// completed or ctx expires.
func (c *Client) Stop(ctx context.Context, timeout time.Duration, wait bool) (*ProcessStatus, error) {
	q := url.Values{}
	if timeout >= 0 {
		q.Set("timeout", timeout.String())
	}
	if wait {
		q.Set("wait", "true")
	}
	u := c.base + "/process/stop"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	v := &ProcessStatus{}
	if e := c.post(ctx, u, v); e != nil {
		return nil, e
	}
	return v, nil
}

func (c *Client) logURL(daemon bool) string {
	if daemon {
		return c.base + "/log"
	}
	return c.base + "/process/log"
}

func (c *Client) pollLog(ctx context.Context, daemon bool, secs int, last *LogInfo) (*LogInfo, error) {
	otag := ""
	if last == nil {
		secs = 0
	} else {
		otag = last.etag
	}
	v := &LogInfo{}
	etag, e := c.poll(ctx, c.logURL(daemon), otag, secs, &v.Records)
	if e != nil {
		return nil, e
	}
	if etag == "" {
		return last, nil
	}
	v.etag = etag
	return v, nil
}

// GetLog returns the process output, or with daemon set, the daemon's own
// log.
func (c *Client) GetLog(daemon bool) (*LogInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.pollLog(ctx, daemon, 0, nil)
}

func (c *Client) WatchLog(ctx context.Context, daemon bool, last *LogInfo) (*LogInfo, error) {
	// Let the poll wait for up to 300 secs (5 minutes).
	return c.pollLog(ctx, daemon, 300, last)
}

// ClearLog discards the process output held by the server.
func (c *Client) ClearLog() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.post(ctx, c.base+"/process/log/clear", nil)
}

// Graph returns the DOT rendering of the state machine.
func (c *Client) Graph() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, e := c.request(ctx, "GET", c.base+"/process/graph")
	if e != nil {
		return "", e
	}
	res, e := c.client.Do(req)
	if e != nil {
		return "", e
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", responseError(res)
	}
	b, e := io.ReadAll(res.Body)
	if e != nil {
		return "", e
	}
	return string(b), nil
}

// NewClient returns a Client handle.  The transport maybe nil to use
// a default transport, but it may also be adjusted to support additional
// options such as TLS.  baseURI is the base URL to use.
func NewClient(t *http.Transport, baseURI string) *Client {
	if t == nil {
		t = &http.Transport{}
	}
	return &Client{
		base:   strings.TrimRight(baseURI, "/"),
		client: &http.Client{Transport: t},
	}
}
