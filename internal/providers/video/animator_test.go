package video

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"fitstudio/internal/domain"
	"fitstudio/internal/providers/genai"
)

type scriptedClient struct {
	submitOp   string
	submitErr  error
	submitReq  genai.VideoJobRequest
	states     []*genai.VideoOperation
	pollErr    error
	polls      int
	downloads  int
	videoBytes []byte
	videoMIME  string
	downErr    error
}

func (s *scriptedClient) SubmitVideoJob(ctx context.Context, req genai.VideoJobRequest) (string, error) {
	s.submitReq = req
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return s.submitOp, nil
}

func (s *scriptedClient) PollVideoJob(ctx context.Context, operation string) (*genai.VideoOperation, error) {
	if s.pollErr != nil {
		return nil, s.pollErr
	}
	idx := s.polls
	s.polls++
	if idx >= len(s.states) {
		idx = len(s.states) - 1
	}
	return s.states[idx], nil
}

func (s *scriptedClient) DownloadVideo(ctx context.Context, uri string) ([]byte, string, error) {
	s.downloads++
	if s.downErr != nil {
		return nil, "", s.downErr
	}
	return s.videoBytes, s.videoMIME, nil
}

func (s *scriptedClient) VideoModel() string { return "video-model" }

func fastPolicy(maxAttempts int) PollPolicy {
	return PollPolicy{
		Interval:    time.Millisecond,
		MaxInterval: 2 * time.Millisecond,
		Multiplier:  1.5,
		MaxAttempts: maxAttempts,
		MaxWait:     time.Minute,
	}
}

func newTestAnimator(client videoClient, policy PollPolicy) *VeoAnimator {
	logger := zerolog.Nop()
	return &VeoAnimator{client: client, policy: policy.normalized(), logger: &logger}
}

func running() *genai.VideoOperation {
	return &genai.VideoOperation{Name: "op-1", Done: false}
}

func doneWithURI(uri string) *genai.VideoOperation {
	return &genai.VideoOperation{Name: "op-1", Done: true, ResultURI: uri}
}

func TestAnimatePollsUntilDoneThenFetchesOnce(t *testing.T) {
	client := &scriptedClient{
		submitOp:   "op-1",
		states:     []*genai.VideoOperation{running(), running(), doneWithURI("https://files.example/v.mp4")},
		videoBytes: []byte("clip"),
		videoMIME:  "video/mp4",
	}
	animator := newTestAnimator(client, fastPolicy(10))

	result, err := animator.Animate(context.Background(), AnimationRequest{
		Image: []byte("composite"),
		MIME:  "image/png",
		Scene: "night market",
	})
	if err != nil {
		t.Fatalf("Animate error: %v", err)
	}
	if client.polls != 3 {
		t.Fatalf("polls = %d, want exactly 3", client.polls)
	}
	if client.downloads != 1 {
		t.Fatalf("downloads = %d, want exactly 1", client.downloads)
	}
	if string(result.Video) != "clip" || result.MIME != "video/mp4" {
		t.Fatalf("result = %q %q", result.Video, result.MIME)
	}
	if result.Polls != 3 {
		t.Fatalf("result.Polls = %d, want 3", result.Polls)
	}
}

func TestAnimateDoneOnFirstPoll(t *testing.T) {
	client := &scriptedClient{
		submitOp:   "op-1",
		states:     []*genai.VideoOperation{doneWithURI("u")},
		videoBytes: []byte("clip"),
	}
	animator := newTestAnimator(client, fastPolicy(10))

	if _, err := animator.Animate(context.Background(), AnimationRequest{Image: []byte("c"), MIME: "image/png"}); err != nil {
		t.Fatalf("Animate error: %v", err)
	}
	if client.polls != 1 || client.downloads != 1 {
		t.Fatalf("polls = %d downloads = %d, want 1 and 1", client.polls, client.downloads)
	}
}

func TestAnimateTimesOutAfterMaxAttempts(t *testing.T) {
	client := &scriptedClient{submitOp: "op-1", states: []*genai.VideoOperation{running()}}
	animator := newTestAnimator(client, fastPolicy(3))

	_, err := animator.Animate(context.Background(), AnimationRequest{Image: []byte("c"), MIME: "image/png"})
	if domain.Classify(err) != domain.KindTimeout {
		t.Fatalf("Classify = %q, want timeout (%v)", domain.Classify(err), err)
	}
	if client.polls != 3 {
		t.Fatalf("polls = %d, want the configured bound of 3", client.polls)
	}
	if client.downloads != 0 {
		t.Fatalf("downloads = %d, want 0 after timeout", client.downloads)
	}
}

func TestAnimateTimesOutOnWaitBudget(t *testing.T) {
	client := &scriptedClient{submitOp: "op-1", states: []*genai.VideoOperation{running()}}
	policy := fastPolicy(1000)
	policy.Interval = 5 * time.Millisecond
	policy.MaxWait = time.Millisecond
	animator := newTestAnimator(client, policy)

	_, err := animator.Animate(context.Background(), AnimationRequest{Image: []byte("c"), MIME: "image/png"})
	if domain.Classify(err) != domain.KindTimeout {
		t.Fatalf("Classify = %q, want timeout (%v)", domain.Classify(err), err)
	}
}

func TestAnimateDoneWithoutLocatorIsProtocolError(t *testing.T) {
	client := &scriptedClient{
		submitOp: "op-1",
		states:   []*genai.VideoOperation{{Name: "op-1", Done: true}},
	}
	animator := newTestAnimator(client, fastPolicy(10))

	_, err := animator.Animate(context.Background(), AnimationRequest{Image: []byte("c"), MIME: "image/png"})
	if domain.Classify(err) != domain.KindProtocol {
		t.Fatalf("Classify = %q, want protocol (%v)", domain.Classify(err), err)
	}
	if client.downloads != 0 {
		t.Fatalf("downloads = %d, want 0", client.downloads)
	}
}

func TestAnimateFilteredResultIsRefusal(t *testing.T) {
	client := &scriptedClient{
		submitOp: "op-1",
		states: []*genai.VideoOperation{{
			Name:            "op-1",
			Done:            true,
			FilteredReasons: []string{"flagged by safety filters"},
		}},
	}
	animator := newTestAnimator(client, fastPolicy(10))

	_, err := animator.Animate(context.Background(), AnimationRequest{Image: []byte("c"), MIME: "image/png"})
	var ge *domain.GenError
	if !errors.As(err, &ge) || ge.Kind != domain.KindContentRefusal {
		t.Fatalf("want refusal, got %v", err)
	}
	if !strings.Contains(ge.Message, "flagged by safety filters") {
		t.Fatalf("refusal text not carried: %q", ge.Message)
	}
}

func TestAnimateSubmitErrorPassesThrough(t *testing.T) {
	authErr := domain.NewAuthError("genai: http 404: Requested entity was not found.", nil)
	client := &scriptedClient{submitErr: authErr}
	animator := newTestAnimator(client, fastPolicy(10))

	_, err := animator.Animate(context.Background(), AnimationRequest{Image: []byte("c"), MIME: "image/png"})
	if domain.Classify(err) != domain.KindAuth {
		t.Fatalf("Classify = %q, want auth (%v)", domain.Classify(err), err)
	}
	if client.polls != 0 {
		t.Fatalf("polls = %d, want 0 after failed submit", client.polls)
	}
}

func TestAnimateCancelledBetweenPolls(t *testing.T) {
	client := &scriptedClient{submitOp: "op-1", states: []*genai.VideoOperation{running()}}
	policy := fastPolicy(1000)
	policy.Interval = 50 * time.Millisecond
	animator := newTestAnimator(client, policy)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err := animator.Animate(ctx, AnimationRequest{Image: []byte("c"), MIME: "image/png"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Animate error = %v, want context.Canceled", err)
	}
}

func TestAnimateSendsConfiguredParameters(t *testing.T) {
	client := &scriptedClient{
		submitOp:   "op-1",
		states:     []*genai.VideoOperation{doneWithURI("u")},
		videoBytes: []byte("clip"),
	}
	animator := newTestAnimator(client, fastPolicy(10))

	if _, err := animator.Animate(context.Background(), AnimationRequest{Image: []byte("c"), MIME: "image/png", Scene: "at dusk"}); err != nil {
		t.Fatalf("Animate error: %v", err)
	}
	req := client.submitReq
	if req.SampleCount != 1 || req.Resolution != "720p" || req.AspectRatio != "9:16" {
		t.Fatalf("submit parameters = %+v", req)
	}
	if req.Image.MIME != "image/png" || string(req.Image.Data) != "c" {
		t.Fatalf("submit image = %+v", req.Image)
	}
	if !strings.Contains(req.Prompt, "at dusk") {
		t.Fatalf("prompt does not carry scene: %q", req.Prompt)
	}
}

func TestBuildMotionPromptFallback(t *testing.T) {
	withScene := buildMotionPrompt("rainy street")
	if !strings.Contains(withScene, "rainy street") {
		t.Fatalf("prompt missing scene: %q", withScene)
	}
	blank := buildMotionPrompt("   ")
	if !strings.Contains(blank, "Preserve the atmosphere") {
		t.Fatalf("blank scene should fall back to the atmosphere directive: %q", blank)
	}
}

func TestNextIntervalGrowsAndCaps(t *testing.T) {
	policy := PollPolicy{Interval: 4 * time.Second, MaxInterval: 10 * time.Second, Multiplier: 2}

	next := nextInterval(4*time.Second, policy)
	if next != 8*time.Second {
		t.Fatalf("nextInterval = %v, want 8s", next)
	}
	capped := nextInterval(8*time.Second, policy)
	if capped != 10*time.Second {
		t.Fatalf("nextInterval = %v, want the 10s cap", capped)
	}
}
