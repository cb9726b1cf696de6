package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/idilsaglam/violet/internal/model"
)

// ClientQuery narrows a client listing. Matching is done by the server.
type ClientQuery struct {
	Name string
	City string
}

func (q ClientQuery) encode() string {
	v := url.Values{}
	if q.Name != "" {
		v.Set("nombre", q.Name)
	}
	if q.City != "" {
		v.Set("ciudad", q.City)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// LetterQuery narrows a letter listing.
type LetterQuery struct {
	ClientID uint64
	Status   model.Status
}

func (q LetterQuery) encode() string {
	v := url.Values{}
	if q.ClientID != 0 {
		v.Set("cliente", strconv.FormatUint(q.ClientID, 10))
	}
	if q.Status != "" {
		v.Set("estado", string(q.Status))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func itemPath(kind model.Kind, id uint64) string {
	return kind.Path() + "/" + strconv.FormatUint(id, 10)
}

func (c *Client) ListAgents(ctx context.Context) ([]model.Agent, error) {
	var out []model.Agent
	if err := c.Request(ctx, http.MethodGet, model.KindAgents.Path(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAgent posts a new agent. The letter counter is always sent as zero.
func (c *Client) CreateAgent(ctx context.Context, a model.Agent) (model.Agent, error) {
	a.ID = 0
	a.Letters = 0
	var out model.Agent
	err := c.Request(ctx, http.MethodPost, model.KindAgents.Path(), a, &out)
	return out, err
}

func (c *Client) UpdateAgent(ctx context.Context, id uint64, p model.AgentPatch) (model.Agent, error) {
	var out model.Agent
	err := c.Request(ctx, http.MethodPut, itemPath(model.KindAgents, id), p, &out)
	return out, err
}

func (c *Client) DeleteAgent(ctx context.Context, id uint64) error {
	return c.Request(ctx, http.MethodDelete, itemPath(model.KindAgents, id), nil, nil)
}

func (c *Client) ListClients(ctx context.Context, q ClientQuery) ([]model.Client, error) {
	var out []model.Client
	if err := c.Request(ctx, http.MethodGet, model.KindClients.Path()+q.encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateClient(ctx context.Context, cl model.Client) (model.Client, error) {
	cl.ID = 0
	var out model.Client
	err := c.Request(ctx, http.MethodPost, model.KindClients.Path(), cl, &out)
	return out, err
}

func (c *Client) UpdateClient(ctx context.Context, id uint64, cl model.Client) (model.Client, error) {
	cl.ID = 0
	var out model.Client
	err := c.Request(ctx, http.MethodPut, itemPath(model.KindClients, id), cl, &out)
	return out, err
}

func (c *Client) DeleteClient(ctx context.Context, id uint64) error {
	return c.Request(ctx, http.MethodDelete, itemPath(model.KindClients, id), nil, nil)
}

func (c *Client) ListLetters(ctx context.Context, q LetterQuery) ([]model.Letter, error) {
	var out []model.Letter
	if err := c.Request(ctx, http.MethodGet, model.KindLetters.Path()+q.encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateLetter(ctx context.Context, l model.Letter) (model.Letter, error) {
	l.ID = 0
	var out model.Letter
	err := c.Request(ctx, http.MethodPost, model.KindLetters.Path(), l, &out)
	return out, err
}

// PatchLetterStatus sends only the status field.
func (c *Client) PatchLetterStatus(ctx context.Context, id uint64, s model.Status) (model.Letter, error) {
	body := struct {
		Status model.Status `json:"estado"`
	}{s}
	var out model.Letter
	err := c.Request(ctx, http.MethodPut, itemPath(model.KindLetters, id), body, &out)
	return out, err
}

func (c *Client) DeleteLetter(ctx context.Context, id uint64) error {
	return c.Request(ctx, http.MethodDelete, itemPath(model.KindLetters, id), nil, nil)
}

// AgentReport fetches the per-agent letter summary.
func (c *Client) AgentReport(ctx context.Context, id uint64) (model.AgentReport, error) {
	var out model.AgentReport
	err := c.Request(ctx, http.MethodGet, "/reportes/dolls/"+strconv.FormatUint(id, 10), nil, &out)
	return out, err
}
