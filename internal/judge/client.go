// Package judge talks to the external question/judging API: random
// question selection at room creation and the submit-then-fetch-result
// flow for code submissions.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"coderoom/internal/domain"
)

var ErrJudgeFailed = errors.New("judge request failed")

// Question is the judge API's view of a question.
type Question struct {
	ID        int    `json:"id"`
	TitleSlug string `json:"titleSlug"`
	Status    string `json:"status,omitempty"`
	Message   string `json:"message,omitempty"`
}

type JudgeClient interface {
	RandomQuestion(ctx context.Context) (*Question, error)
	// Submit sends the code for judging and returns the submission state
	// once the judge reports it.
	Submit(ctx context.Context, question domain.QuestionMeta, language, code string) (string, error)
}

// HTTPClient implements JudgeClient against the judge HTTP API. No
// timeout is set beyond the client's own; callers run submissions off
// the dispatch path.
type HTTPClient struct {
	base   string
	client *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{base: baseURL, client: http.DefaultClient}
}

func (c *HTTPClient) RandomQuestion(ctx context.Context) (*Question, error) {
	url := fmt.Sprintf("%s/api/v1/leetcode/questions/random", c.base)
	var q Question
	if err := c.getJSON(ctx, url, &q); err != nil {
		return nil, err
	}
	if q.Status == "error" {
		return nil, fmt.Errorf("%w: %s", ErrJudgeFailed, q.Message)
	}
	return &q, nil
}

func (c *HTTPClient) Submit(ctx context.Context, question domain.QuestionMeta, language, code string) (string, error) {
	reqBody, err := json.Marshal(map[string]any{
		"question_id": question.ID,
		"lang":        language,
		"typed_code":  code,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/api/v1/leetcode/questions/%s/submit", c.base, question.TitleSlug)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrJudgeFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: submit returned %d", ErrJudgeFailed, resp.StatusCode)
	}

	var submitted struct {
		SubmissionID json.Number `json:"submission_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return "", fmt.Errorf("%w: %v", ErrJudgeFailed, err)
	}

	log.Debug().Str("module", "judge").Str("question", question.TitleSlug).Str("submission", submitted.SubmissionID.String()).Msg("submission accepted")
	return c.fetchResult(ctx, submitted.SubmissionID.String())
}

func (c *HTTPClient) fetchResult(ctx context.Context, submissionID string) (string, error) {
	url := fmt.Sprintf("%s/api/v1/leetcode/questions/submissions/%s", c.base, submissionID)
	var result struct {
		State string `json:"state"`
	}
	if err := c.getJSON(ctx, url, &result); err != nil {
		return "", err
	}
	return result.State, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJudgeFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: got %d from %s", ErrJudgeFailed, resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrJudgeFailed, err)
	}
	return nil
}
