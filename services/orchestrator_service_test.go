package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestratorClientStartChallenge(t *testing.T) {
	t.Run("success returns the backend deployment name", func(t *testing.T) {
		var received StartChallengeRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/start-challenge", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			json.NewEncoder(w).Encode(StartChallengeResponse{DeploymentName: "dep-42", Status: "running"})
		}))
		defer server.Close()

		client := NewOrchestratorClientWith(server.URL, time.Second)
		resp, err := client.StartChallenge(StartChallengeRequest{UserID: "user-1", ChallengeImage: "ctf/web:latest"})
		require.NoError(t, err)
		assert.Equal(t, "dep-42", resp.DeploymentName)
		assert.Equal(t, "running", resp.Status)
		assert.NotEmpty(t, received.RequestID, "client should stamp a request id")
	})

	t.Run("missing deployment name falls back to the request id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(StartChallengeResponse{Status: "running"})
		}))
		defer server.Close()

		client := NewOrchestratorClientWith(server.URL, time.Second)
		resp, err := client.StartChallenge(StartChallengeRequest{RequestID: "req-7", UserID: "user-1"})
		require.NoError(t, err)
		assert.Equal(t, "chal-req-7", resp.DeploymentName)
	})

	t.Run("backend rejection preserves status and body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"error":"unknown image"}`))
		}))
		defer server.Close()

		client := NewOrchestratorClientWith(server.URL, time.Second)
		_, err := client.StartChallenge(StartChallengeRequest{UserID: "user-1"})
		require.Error(t, err)

		var pe *ProvisionError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, http.StatusUnprocessableEntity, pe.StatusCode)
		assert.Contains(t, pe.Body, "unknown image")
		assert.True(t, IsProvisionFailed(err))
	})

	t.Run("timeout surfaces as a transport-level provision error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client := NewOrchestratorClientWith(server.URL, 20*time.Millisecond)
		_, err := client.StartChallenge(StartChallengeRequest{UserID: "user-1"})
		require.Error(t, err)

		var pe *ProvisionError
		require.ErrorAs(t, err, &pe)
		assert.Zero(t, pe.StatusCode, "transport failures carry no HTTP status")
	})
}

func TestOrchestratorClientStopChallenge(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/stop-challenge", r.URL.Path)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "dep-42", body["deployment_name"])
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewOrchestratorClientWith(server.URL, time.Second)
		assert.NoError(t, client.StopChallenge("dep-42"))
	})

	t.Run("unknown deployment carries the deployment name in the error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("no such deployment"))
		}))
		defer server.Close()

		client := NewOrchestratorClientWith(server.URL, time.Second)
		err := client.StopChallenge("dep-42")
		require.Error(t, err)

		var pe *ProvisionError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "dep-42", pe.Deployment)
		assert.Equal(t, http.StatusNotFound, pe.StatusCode)
	})
}

func TestOrchestratorClientChallengeStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/challenge-status", r.URL.Path)
		json.NewEncoder(w).Encode(StartChallengeResponse{DeploymentName: "dep-42", Status: "ready"})
	}))
	defer server.Close()

	client := NewOrchestratorClientWith(server.URL, time.Second)
	status, err := client.ChallengeStatus("dep-42")
	require.NoError(t, err)
	assert.Equal(t, "ready", status)
}
