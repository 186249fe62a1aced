package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"OFTester/internal/model"
	"OFTester/internal/openflow"
	"OFTester/pkg/packet"

	log "github.com/sirupsen/logrus"
)

// REST paths of the controller's management API.
const (
	PathFlowAdd     = "/stats/flowentry/add"
	PathFlowClear   = "/stats/flowentry/clear/"
	PathGroupAdd    = "/stats/groupentry/add"
	PathGroupDelete = "/stats/groupentry/delete"
	PathPortModify  = "/stats/portdesc/modify"
	PathPacketOut   = "/tpn/packet_out/"
)

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

// PortMod is the body of a port config change. Config bit 1 marks the port down.
type PortMod struct {
	DPID   uint64 `json:"dpid"`
	PortNo uint32 `json:"port_no"`
	Config uint32 `json:"config"`
	Mask   uint32 `json:"mask"`
}

// Client talks to the controller's REST surface. Every call is synchronous.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the controller at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// AddFlow installs one flow.
func (c *Client) AddFlow(ctx context.Context, flow openflow.Flow) error {
	log.Debugf("Sending flowmod %s", flow)
	return c.do(ctx, http.MethodPost, PathFlowAdd, flow)
}

// ClearFlows deletes every flow on a switch.
func (c *Client) ClearFlows(ctx context.Context, dpid uint64) error {
	if err := c.do(ctx, http.MethodDelete, PathFlowClear+strconv.FormatUint(dpid, 10), nil); err != nil {
		return err
	}
	log.Infof("Deleted all flows for %d", dpid)
	return nil
}

// AddGroup installs a group.
func (c *Client) AddGroup(ctx context.Context, group openflow.Group) error {
	log.Debugf("Sending add group command for group %d on %d", group.GroupID, group.DPID)
	return c.do(ctx, http.MethodPost, PathGroupAdd, group)
}

// DeleteGroup removes a group by id.
func (c *Client) DeleteGroup(ctx context.Context, ref openflow.GroupRef) error {
	if err := c.do(ctx, http.MethodPost, PathGroupDelete, ref); err != nil {
		return err
	}
	log.Infof("Deleted group (id: %d) for %d", ref.GroupID, ref.DPID)
	return nil
}

// ModifyPort changes a port's config bits.
func (c *Client) ModifyPort(ctx context.Context, mod PortMod) error {
	return c.do(ctx, http.MethodPost, PathPortModify, mod)
}

// PortUp clears the administrative down bit.
func (c *Client) PortUp(ctx context.Context, dpid uint64, port uint32) error {
	return c.ModifyPort(ctx, PortMod{DPID: dpid, PortNo: port, Config: 0, Mask: 1})
}

// PortDown sets the administrative down bit.
func (c *Client) PortDown(ctx context.Context, dpid uint64, port uint32) error {
	return c.ModifyPort(ctx, PortMod{DPID: dpid, PortNo: port, Config: 1, Mask: 1})
}

// PacketOut asks the controller to synthesize and emit packets.
func (c *Client) PacketOut(ctx context.Context, dpid uint64, p packet.Params) error {
	if err := c.do(ctx, http.MethodPost, PathPacketOut+strconv.FormatUint(dpid, 10), p); err != nil {
		return err
	}
	log.Debugf("Sent %d packet(s) out to port %d of size %d", p.Count, p.Port, p.PktSize)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) error {
	url := c.baseURL + path
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &model.ControlPlaneError{Op: method, URL: url, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &model.ControlPlaneError{Op: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &model.ControlPlaneError{
			Op:         method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
