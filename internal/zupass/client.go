package zupass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ProverClient implements ProofSystem against the prover sidecar that hosts
// the circuit artifacts. The sidecar exposes /authenticate and /verify; a 400
// response is a definitive rejection, anything else non-200 is a transport
// failure the caller may retry or fall back from.
type ProverClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewProverClient constructs the client. Per-call deadlines come from the
// caller's context; the transport itself carries no timeout.
func NewProverClient(baseURL string, logger *zap.Logger) *ProverClient {
	return &ProverClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: http.DefaultTransport},
		logger:  logger,
	}
}

type authenticateRequest struct {
	PCD            string        `json:"pcd"`
	Watermark      string        `json:"watermark"`
	Config         []EventConfig `json:"config"`
	FieldsToReveal RevealSpec    `json:"fieldsToReveal"`
}

type authenticateResponse struct {
	Type  string `json:"type"`
	Claim Claim  `json:"claim"`
	Error string `json:"error,omitempty"`
}

type verifyRequest struct {
	PCD string `json:"pcd"`
}

type verifyResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Authenticate submits the tagged envelope for full authenticated
// verification.
func (c *ProverClient) Authenticate(ctx context.Context, envelope string, args AuthenticateArgs) (*VerifiedClaim, error) {
	reqBody := authenticateRequest{
		PCD:            envelope,
		Config:         args.Config,
		FieldsToReveal: args.FieldsToReveal,
	}
	if args.Watermark != nil {
		reqBody.Watermark = args.Watermark.String()
	}

	var resp authenticateResponse
	status, err := c.post(ctx, "/authenticate", reqBody, &resp)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK:
		return &VerifiedClaim{Type: resp.Type, PartialTicket: resp.Claim.PartialTicket}, nil
	case status == http.StatusBadRequest:
		reason := resp.Error
		if reason == "" {
			reason = "authentication rejected"
		}
		return nil, &RejectionError{Reason: reason}
	default:
		return nil, fmt.Errorf("prover returned status %d", status)
	}
}

// Deserialize parses a bare serialized proof locally. The heavy lifting of
// proving happens remotely; the container itself is plain JSON.
func (c *ProverClient) Deserialize(_ context.Context, serialized string) (*ProofObject, error) {
	var proof ProofObject
	if err := json.Unmarshal([]byte(serialized), &proof); err != nil {
		return nil, fmt.Errorf("deserialize proof: %w", err)
	}
	if proof.Type != "" && proof.Type != PCDType {
		return nil, fmt.Errorf("unsupported proof type %q", proof.Type)
	}
	proof.serialized = serialized
	return &proof, nil
}

// Verify submits the deserialized proof for a bare validity check.
func (c *ProverClient) Verify(ctx context.Context, proof *ProofObject) (bool, error) {
	var resp verifyResponse
	status, err := c.post(ctx, "/verify", verifyRequest{PCD: proof.Serialized()}, &resp)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, fmt.Errorf("prover returned status %d", status)
	}
	return resp.Valid, nil
}

func (c *ProverClient) post(ctx context.Context, path string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	c.logger.Debug("prover call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode prover response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
