//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("TYPEQUIZ_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

// TestQuizJourneyIntegration drives one user through a full quiz against a
// running server, then exercises the cooldown and the admin override.
func TestQuizJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()
	userID := fmt.Sprintf("itest_%d", time.Now().UnixNano())

	var startResp struct {
		Status         string `json:"status"`
		TotalQuestions int    `json:"total_questions"`
	}
	doPost(t, client, base+"/api/quiz/start", "", map[string]any{
		"user_id": userID,
	}, &startResp)
	if startResp.Status != "started" || startResp.TotalQuestions == 0 {
		t.Fatalf("unexpected start response: %+v", startResp)
	}

	for cursor := 0; cursor < startResp.TotalQuestions; cursor++ {
		var prompt struct {
			Cursor  int    `json:"cursor"`
			Total   int    `json:"total"`
			Text    string `json:"text"`
			Wording string `json:"wording"`
		}
		waitForPrompt(t, client, base, userID, cursor, &prompt)
		if prompt.Text == "" {
			t.Fatalf("question %d has no text: %+v", cursor, prompt)
		}
		// Read the plain phrasing once along the way.
		if cursor == 0 {
			doPost(t, client, base+"/api/quiz/wording", "", map[string]any{
				"user_id": userID, "cursor": 0, "wording": "plain",
			}, nil)
		}
		doPost(t, client, base+"/api/quiz/answer", "", map[string]any{
			"user_id": userID, "cursor": cursor, "score": cursor%5 + 1,
		}, nil)
	}

	// Finalization is asynchronous; wait until the session is gone before
	// probing the cooldown, so the restart cannot race the last answer.
	waitForSessionEnd(t, client, base, userID)
	var cooldownResp struct {
		Status      string `json:"status"`
		NextAllowed string `json:"next_allowed"`
	}
	doPost(t, client, base+"/api/quiz/start", "", map[string]any{"user_id": userID}, &cooldownResp)
	if cooldownResp.Status != "cooldown" {
		t.Fatalf("restart did not hit the cooldown: %+v", cooldownResp)
	}
	if _, err := time.Parse(time.RFC3339, cooldownResp.NextAllowed); err != nil {
		t.Fatalf("next_allowed %q: %v", cooldownResp.NextAllowed, err)
	}

	// Admin: register an operator, inspect the ledger, clear the cooldown.
	opEmail := fmt.Sprintf("op_%d@example.com", time.Now().UnixNano())
	var authResp struct {
		Token string `json:"token"`
	}
	doPost(t, client, base+"/api/admin/register", "", map[string]any{
		"email": opEmail, "password": "Secret123!",
	}, &authResp)
	if authResp.Token == "" {
		t.Fatal("register did not return a token")
	}

	var ledgerResp struct {
		Entries []struct {
			UserID string `json:"user_id"`
		} `json:"entries"`
	}
	doGet(t, client, base+"/api/admin/ledger", authResp.Token, &ledgerResp)
	found := false
	for _, e := range ledgerResp.Entries {
		if e.UserID == userID {
			found = true
		}
	}
	if !found {
		t.Fatalf("ledger does not list %s: %+v", userID, ledgerResp)
	}

	req, err := http.NewRequest(http.MethodDelete, base+"/api/admin/ledger/"+userID, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+authResp.Token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("clear cooldown: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("clear cooldown status %d body %s", resp.StatusCode, string(body))
	}

	doPost(t, client, base+"/api/quiz/start", "", map[string]any{"user_id": userID}, &startResp)
	if startResp.Status != "started" {
		t.Fatalf("start after clear: %+v", startResp)
	}
}

// waitForPrompt polls the pull endpoint until the question at the expected
// cursor is pending; presentation is paced, so the next question may lag the
// previous answer.
func waitForPrompt(t *testing.T, client *http.Client, base, userID string, cursor int, out any) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp, err := client.Get(fmt.Sprintf("%s/api/quiz/question?user_id=%s", base, userID))
		if err != nil {
			t.Fatalf("get question: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			var probe struct {
				Cursor int `json:"cursor"`
			}
			if err := json.Unmarshal(body, &probe); err == nil && probe.Cursor == cursor {
				if err := json.Unmarshal(body, out); err != nil {
					t.Fatalf("decode question: %v", err)
				}
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("question %d never became pending; last status %d body %s", cursor, resp.StatusCode, string(body))
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// waitForSessionEnd polls the pull endpoint until it reports no pending
// question, which means the session has finalized and been removed.
func waitForSessionEnd(t *testing.T, client *http.Client, base, userID string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp, err := client.Get(fmt.Sprintf("%s/api/quiz/question?user_id=%s", base, userID))
		if err != nil {
			t.Fatalf("get question: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("session never finalized; last status %d", resp.StatusCode)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func doPost(t *testing.T, client *http.Client, url, token string, body any, out any) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	do(t, client, req, out)
}

func doGet(t *testing.T, client *http.Client, url, token string, out any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	do(t, client, req, out)
}

func do(t *testing.T, client *http.Client, req *http.Request, out any) {
	t.Helper()
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, req.URL, string(bodyBytes))
	}
	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", req.URL, err)
		}
	}
}
