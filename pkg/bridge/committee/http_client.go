// Copyright 2025 Certen Protocol
//
// HTTP transport for requesting a single authority's signature, following
// the peer-broadcast pattern of pkg/attestation/service.go's
// requestFromPeer.
package committee

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
	"github.com/mangonet-labs/bridge-node/pkg/crypto/bls"
)

// HTTPAuthorityClient requests a signature over HTTP from one authority
// endpoint.
type HTTPAuthorityClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPAuthorityClient builds a client for a single authority endpoint.
func NewHTTPAuthorityClient(endpoint string, httpClient *http.Client) *HTTPAuthorityClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: httpRequestTimeout}
	}
	return &HTTPAuthorityClient{endpoint: endpoint, httpClient: httpClient}
}

type signatureRequest struct {
	ActionDigest  string `json:"action_digest"`
	ActionPayload string `json:"action_payload"`
}

type signatureResponse struct {
	AuthorityID string `json:"authority_id"`
	PublicKey   string `json:"public_key"`
	Signature   string `json:"signature"`
}

// RequestSignature implements AuthorityClient.
func (c *HTTPAuthorityClient) RequestSignature(ctx context.Context, action bridge.Action) (*AuthoritySignatureResponse, error) {
	digest := action.Digest()
	reqBody, err := json.Marshal(signatureRequest{
		ActionDigest:  digest.String(),
		ActionPayload: hex.EncodeToString(action.Bytes()),
	})
	if err != nil {
		return nil, fmt.Errorf("committee: marshal signature request: %w", err)
	}

	url := c.endpoint + "/api/bridge/sign"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("committee: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("committee: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("committee: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("committee: authority returned status %d: %s", resp.StatusCode, string(body))
	}

	var sigResp signatureResponse
	if err := json.Unmarshal(body, &sigResp); err != nil {
		return nil, fmt.Errorf("committee: parse response: %w", err)
	}

	pk, err := bls.PublicKeyFromHex(sigResp.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("committee: parse public key: %w", err)
	}
	sig, err := bls.SignatureFromHex(sigResp.Signature)
	if err != nil {
		return nil, fmt.Errorf("committee: parse signature: %w", err)
	}

	return &AuthoritySignatureResponse{
		AuthorityID: bridge.AuthorityID(sigResp.AuthorityID),
		PublicKey:   pk,
		Signature:   sig,
	}, nil
}
