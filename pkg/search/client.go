// Copyright 2026 The Paperdex Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Client wraps an Elasticsearch connection bound to one alias.
type Client struct {
	es      *elasticsearch.Client
	alias   string
	manager *IndexManager
}

// New connects to the cluster at url. alias is the logical index name
// (ES_INDEX); it is never a physical index.
func New(url, alias string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{url}})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return newClient(es, alias), nil
}

func newClient(es *elasticsearch.Client, alias string) *Client {
	return &Client{
		es:      es,
		alias:   alias,
		manager: &IndexManager{es: es, alias: alias},
	}
}

// Alias returns the logical index name this client is bound to.
func (c *Client) Alias() string { return c.alias }

// Manager returns the versioned-index manager for this alias.
func (c *Client) Manager() *IndexManager { return c.manager }

// EnsureIndex makes sure the alias exists, creating <alias>_v1 if needed.
func (c *Client) EnsureIndex(ctx context.Context) error {
	_, err := c.manager.Initialize(ctx)
	return err
}

// Refresh makes recent writes searchable immediately.
func (c *Client) Refresh(ctx context.Context) error {
	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithContext(ctx),
		c.es.Indices.Refresh.WithIndex(c.alias),
	)
	if err != nil {
		return fmt.Errorf("failed to refresh index: %w", err)
	}
	defer res.Body.Close()
	return responseError("refresh", res)
}

// decodeResponse drains an esapi response into out after checking for an
// error status.
func decodeResponse(op string, res *esapi.Response, out any) error {
	defer res.Body.Close()
	if err := responseError(op, res); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// responseError turns a non-2xx esapi response into an error carrying the
// body, which is where Elasticsearch puts the actual reason.
func responseError(op string, res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("elasticsearch %s failed: %s: %s", op, res.Status(), string(body))
}
