package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// Client talks to the private API of other nodes.
type Client struct {
	http      *http.Client
	evHandler database.EvHandler
}

// NewClient constructs a client whose requests time out after timeout.
func NewClient(timeout time.Duration, evHandler database.EvHandler) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		evHandler: evHandler,
	}
}

// RequestPeerStatus asks the peer for its chain status and known peers.
func (c *Client) RequestPeerStatus(ctx context.Context, pr peer.Peer) (peer.Status, error) {
	c.evHandler("network: RequestPeerStatus: started: %s", pr)
	defer c.evHandler("network: RequestPeerStatus: completed: %s", pr)

	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.Status
	if err := c.send(ctx, http.MethodGet, url, nil, &ps); err != nil {
		return peer.Status{}, err
	}

	c.evHandler("network: RequestPeerStatus: peer-node[%s]: next-blknum[%d]: peer-list[%s]", pr, ps.NextBlock, ps.KnownPeers)

	return ps, nil
}

// RequestPeerBlocks asks the peer for the blocks numbered from to to
// inclusive. The peer returns fewer blocks when it doesn't have them all.
func (c *Client) RequestPeerBlocks(ctx context.Context, pr peer.Peer, from uint64, to uint64) ([]database.Block, error) {
	c.evHandler("network: RequestPeerBlocks: started: %s: from[%d]: to[%d]", pr, from, to)
	defer c.evHandler("network: RequestPeerBlocks: completed: %s", pr)

	url := fmt.Sprintf("%s/block/list/%d/%d", fmt.Sprintf(baseURL, pr.Host), from, to)

	var blocks []database.Block
	if err := c.send(ctx, http.MethodGet, url, nil, &blocks); err != nil {
		return nil, err
	}

	c.evHandler("network: RequestPeerBlocks: found blocks[%d]", len(blocks))

	return blocks, nil
}

// SendBlockToPeer proposes a newly appended block to the peer.
func (c *Client) SendBlockToPeer(ctx context.Context, pr peer.Peer, block database.Block) error {
	url := fmt.Sprintf("%s/block/propose", fmt.Sprintf(baseURL, pr.Host))

	var status struct {
		Status string `json:"status"`
	}

	if err := c.send(ctx, http.MethodPost, url, block, &status); err != nil {
		return fmt.Errorf("%s: %w", pr.Host, err)
	}

	c.evHandler("network: SendBlockToPeer: sent blk[%d] to peer[%s]: %s", block.Header.Number, pr, status.Status)

	return nil
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func (c *Client) send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("status %d: %w", resp.StatusCode, errors.New(string(bytes.TrimSpace(msg))))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
