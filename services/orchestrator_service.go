package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rangeapi/config"

	"github.com/google/uuid"
)

// StartChallengeRequest is the provisioning request body sent to the
// orchestration backend. RequestID is generated client-side so a retried
// request is recognizable by the backend.
type StartChallengeRequest struct {
	RequestID      string `json:"request_id"`
	UserID         string `json:"user_id"`
	ChallengeImage string `json:"challenge_image"`
	AppsConfig     string `json:"apps_config"`
	ChalType       string `json:"chal_type"`
}

// StartChallengeResponse is the backend's answer to a provisioning request.
// DeploymentName is the backend's handle for the instance and is
// authoritative for actual resource state.
type StartChallengeResponse struct {
	DeploymentName string `json:"deployment_name"`
	Status         string `json:"status"`
}

// Orchestrator issues start/stop/status requests to the external workload
// backend. The client performs no silent retries: every call either succeeds
// or returns one typed failure. Bounded retrying is the coordinator's job.
type Orchestrator interface {
	StartChallenge(req StartChallengeRequest) (*StartChallengeResponse, error)
	StopChallenge(deploymentName string) error
	ChallengeStatus(deploymentName string) (string, error)
}

// OrchestratorClient talks HTTP to the orchestration backend
type OrchestratorClient struct {
	baseURL string
	client  *http.Client
}

// NewOrchestratorClient builds a client from the loaded configuration.
// The HTTP timeout is the provisioning deadline: a timed-out call surfaces
// as a ProvisionError, never as a running instance.
func NewOrchestratorClient() *OrchestratorClient {
	return NewOrchestratorClientWith(config.OrchestratorURL, config.OrchestratorTimeout)
}

// NewOrchestratorClientWith builds a client against an explicit base URL
func NewOrchestratorClientWith(baseURL string, timeout time.Duration) *OrchestratorClient {
	return &OrchestratorClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (o *OrchestratorClient) post(operation, deployment, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &ProvisionError{Operation: operation, Deployment: deployment, Err: err}
	}

	resp, err := o.client.Post(o.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return &ProvisionError{Operation: operation, Deployment: deployment, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProvisionError{Operation: operation, Deployment: deployment, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Keep the raw backend body for diagnostics; callers branch on the
		// error type, never on the body content.
		return &ProvisionError{
			Operation:  operation,
			Deployment: deployment,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &ProvisionError{Operation: operation, Deployment: deployment, Err: fmt.Errorf("malformed backend response: %w", err)}
		}
	}
	return nil
}

// StartChallenge issues a provisioning call for one challenge environment
func (o *OrchestratorClient) StartChallenge(req StartChallengeRequest) (*StartChallengeResponse, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	var resp StartChallengeResponse
	if err := o.post("start-challenge", "", "/start-challenge", req, &resp); err != nil {
		return nil, err
	}
	if resp.DeploymentName == "" {
		// older backends omit the deployment name and key the workload on
		// the request id instead
		resp.DeploymentName = "chal-" + req.RequestID
	}
	return &resp, nil
}

// StopChallenge requests teardown of a deployment. The backend remains the
// source of truth for actual teardown timing.
func (o *OrchestratorClient) StopChallenge(deploymentName string) error {
	body := map[string]string{"deployment_name": deploymentName}
	return o.post("stop-challenge", deploymentName, "/stop-challenge", body, nil)
}

// ChallengeStatus asks the backend for the current state of a deployment
func (o *OrchestratorClient) ChallengeStatus(deploymentName string) (string, error) {
	body := map[string]string{"deployment_name": deploymentName}
	var resp StartChallengeResponse
	if err := o.post("challenge-status", deploymentName, "/challenge-status", body, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
