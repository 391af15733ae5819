package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nas_control"
	"nas_control/internal/logger"
	"nas_control/internal/models"

	"github.com/google/uuid"
)

// API is the remote device-control service as seen by the client engine.
type API interface {
	GetStatus(ctx context.Context) (models.DeviceStatus, error)
	Start(ctx context.Context) (models.Result, error)
	Stop(ctx context.Context) (models.Result, error)
	ClearAction(ctx context.Context) (models.Result, error)
	ListSchedules(ctx context.Context) ([]models.WeeklyScheduleEntry, error)
	UpdateSchedule(ctx context.Context, day int, e models.WeeklyScheduleEntry) (models.Result, error)
	ListScheduledShutdowns(ctx context.Context) ([]models.ScheduledShutdown, error)
	CreateScheduledShutdown(ctx context.Context, at time.Time) (models.Result, error)
	DeleteScheduledShutdown(ctx context.Context, id int64) (models.Result, error)
}

// Route names relative to the API prefix.
const (
	routeStatus             = "/status"
	routeStart              = "/start"
	routeStop               = "/stop"
	routeClearAction        = "/clear-action"
	routeSchedules          = "/schedules"
	routeScheduledShutdowns = "/scheduled-shutdowns"

	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20 // 1 MB

	defaultTimeout = 10 * time.Second
	dialTimeout    = 5 * time.Second
	keepAlive      = 30 * time.Second
	idleConnTTL    = 90 * time.Second
)

// ScheduledAtLayout is the wire format of scheduled_at: device-local, no timezone.
const ScheduledAtLayout = "2006-01-02T15:04:05"

// Client talks to the NAS control service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
	loc        *time.Location
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL   string
	APIPrefix string
	Timeout   time.Duration
	Location  *time.Location // zone used to read scheduled_at values without an offset
	HTTP      *http.Client
	Log       *logger.Logger
}

// NewHTTPClient builds an http.Client with bounded dial and request timeouts.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			DialContext:     dialer.DialContext,
			MaxIdleConns:    10,
			IdleConnTimeout: idleConnTTL,
		},
	}
}

func NewClient(opts Options) *Client {
	hc := opts.HTTP
	if hc == nil {
		hc = NewHTTPClient(opts.Timeout)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	prefix := opts.APIPrefix
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/") + strings.TrimRight(prefix, "/"),
		httpClient: hc,
		log:        opts.Log,
		loc:        loc,
	}
}

// GetStatus reads the current power and action state.
func (c *Client) GetStatus(ctx context.Context) (models.DeviceStatus, error) {
	var resp nas_control.StatusResponse
	if err := c.read(ctx, "get_status", routeStatus, &resp); err != nil {
		return models.DeviceStatus{}, err
	}
	st, err := statusFromWire(resp)
	if err != nil {
		return models.DeviceStatus{}, newFailure("get_status", http.StatusOK, err)
	}
	return st, nil
}

func (c *Client) Start(ctx context.Context) (models.Result, error) {
	return c.mutate(ctx, "start", http.MethodPost, routeStart, nil)
}

func (c *Client) Stop(ctx context.Context) (models.Result, error) {
	return c.mutate(ctx, "stop", http.MethodPost, routeStop, nil)
}

// ClearAction drops the server-side record of an action in progress.
func (c *Client) ClearAction(ctx context.Context) (models.Result, error) {
	return c.mutate(ctx, "clear_action", http.MethodPost, routeClearAction, nil)
}

func (c *Client) ListSchedules(ctx context.Context) ([]models.WeeklyScheduleEntry, error) {
	var resp nas_control.SchedulesResponse
	if err := c.read(ctx, "list_schedules", routeSchedules, &resp); err != nil {
		return nil, err
	}
	out := make([]models.WeeklyScheduleEntry, 0, len(resp.Schedules))
	for _, s := range resp.Schedules {
		if !models.ValidDay(s.DayOfWeek) {
			continue
		}
		out = append(out, models.WeeklyScheduleEntry{
			Day:       s.DayOfWeek,
			Name:      models.DayName(s.DayOfWeek),
			Enabled:   s.Enabled,
			StartTime: s.StartTime,
			StopTime:  s.StopTime,
		})
	}
	return out, nil
}

// UpdateSchedule sends the full enabled/start/stop triple of one day.
func (c *Client) UpdateSchedule(ctx context.Context, day int, e models.WeeklyScheduleEntry) (models.Result, error) {
	body := nas_control.ScheduleUpdateRequest{
		Enabled:   e.Enabled,
		StartTime: e.StartTime,
		StopTime:  e.StopTime,
	}
	return c.mutate(ctx, "update_schedule", http.MethodPut, routeSchedules+"/"+strconv.Itoa(day), body)
}

func (c *Client) ListScheduledShutdowns(ctx context.Context) ([]models.ScheduledShutdown, error) {
	var resp nas_control.ScheduledShutdownsResponse
	if err := c.read(ctx, "list_scheduled_shutdowns", routeScheduledShutdowns, &resp); err != nil {
		return nil, err
	}
	out := make([]models.ScheduledShutdown, 0, len(resp.Shutdowns))
	for _, s := range resp.Shutdowns {
		at, err := ParseScheduledAt(s.ScheduledAt, c.loc)
		if err != nil {
			return nil, newFailure("list_scheduled_shutdowns", http.StatusOK, err)
		}
		out = append(out, models.ScheduledShutdown{ID: s.ID, ScheduledAt: at})
	}
	return out, nil
}

func (c *Client) CreateScheduledShutdown(ctx context.Context, at time.Time) (models.Result, error) {
	body := nas_control.ScheduledShutdownRequest{ScheduledAt: at.Format(ScheduledAtLayout)}
	return c.mutate(ctx, "create_scheduled_shutdown", http.MethodPost, routeScheduledShutdowns, body)
}

func (c *Client) DeleteScheduledShutdown(ctx context.Context, id int64) (models.Result, error) {
	path := routeScheduledShutdowns + "/" + strconv.FormatInt(id, 10)
	return c.mutate(ctx, "delete_scheduled_shutdown", http.MethodDelete, path, nil)
}

// ParseScheduledAt accepts ISO8601 values with or without offset and fractional seconds.
// Values without an offset are read in loc.
func ParseScheduledAt(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{ScheduledAtLayout + ".999999999", "2006-01-02T15:04", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid scheduled_at %q", s)
}

// read performs a GET and decodes a 2xx body into out.
func (c *Client) read(ctx context.Context, op, path string, out any) error {
	status, body, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return newFailure(op, status, errUnexpectedStatus)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return newFailure(op, status, errEmptyBody)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return newFailure(op, status, fmt.Errorf("decode body: %w", err))
	}
	return nil
}

// mutate performs a write call. A decodable {success, message} body is a valid answer
// whatever the status code; anything else is a transport Failure.
func (c *Client) mutate(ctx context.Context, op, method, path string, payload any) (models.Result, error) {
	status, body, err := c.do(ctx, op, method, path, payload)
	if err != nil {
		return models.Result{}, err
	}
	var resp nas_control.MutationResponse
	if len(bytes.TrimSpace(body)) == 0 {
		return models.Result{}, newFailure(op, status, errEmptyBody)
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Result{}, newFailure(op, status, fmt.Errorf("decode body: %w", err))
	}
	if resp.Success == nil {
		return models.Result{}, newFailure(op, status, errMissingSuccess)
	}
	if *resp.Success {
		return models.Succeeded(resp.Message), nil
	}
	return models.Failed(models.FailureApplication, resp.Message), nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, newFailure(op, 0, fmt.Errorf("encode body: %w", err))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, newFailure(op, 0, err)
	}
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.debugw("device_request_failed", "op", op, "request_id", reqID, "err", err)
		return 0, nil, newFailure(op, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, newFailure(op, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	c.debugw("device_request",
		"op", op,
		"request_id", reqID,
		"status", resp.StatusCode,
		"took_ms", time.Since(started).Milliseconds(),
	)
	return resp.StatusCode, body, nil
}

func (c *Client) debugw(msg string, kv ...interface{}) {
	if c.log != nil {
		c.log.Debugw(msg, kv...)
	}
}

func statusFromWire(r nas_control.StatusResponse) (models.DeviceStatus, error) {
	st := models.DeviceStatus{
		Online:           models.BoolPtr(r.Online),
		ActionInProgress: r.ActionInProgress,
	}
	if r.ActionType != nil {
		st.ActionType = models.ActionType(*r.ActionType)
	}
	if r.ActionElapsed != nil {
		st.ActionElapsedSeconds = *r.ActionElapsed
	}
	if st.ActionInProgress && !st.ActionType.Valid() {
		return models.DeviceStatus{}, fmt.Errorf("%w: action_type %q", errBadActionType, st.ActionType)
	}
	return st.Normalize(), nil
}
