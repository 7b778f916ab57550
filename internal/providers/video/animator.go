package video

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fitstudio/internal/domain"
	"fitstudio/internal/infra"
	"fitstudio/internal/providers/genai"
)

// Parameters sent with every video submission.
const (
	videoSampleCount = 1
	videoResolution  = "720p"
	videoAspectRatio = "9:16"
)

// AnimationRequest describes one video generation run: the composite to
// animate plus the scene description its motion derives from.
type AnimationRequest struct {
	Image []byte
	MIME  string
	Scene string
}

// AnimationResult is the retrieved video payload.
type AnimationResult struct {
	Operation string
	Video     []byte
	MIME      string
	Model     string
	Polls     int
}

// Animator is the contract for turning a composite image into a short clip.
type Animator interface {
	Animate(ctx context.Context, req AnimationRequest) (*AnimationResult, error)
}

// videoClient is the slice of the genai client the animator needs.
type videoClient interface {
	SubmitVideoJob(ctx context.Context, req genai.VideoJobRequest) (string, error)
	PollVideoJob(ctx context.Context, operation string) (*genai.VideoOperation, error)
	DownloadVideo(ctx context.Context, uri string) ([]byte, string, error)
	VideoModel() string
}

// PollPolicy bounds the status-poll loop. The interval grows by Multiplier
// up to MaxInterval; the whole run fails with a timeout once MaxAttempts
// polls or MaxWait elapsed time is exceeded, whichever comes first.
type PollPolicy struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
	MaxAttempts int
	MaxWait     time.Duration
	Jitter      bool
}

// DefaultPollPolicy mirrors the upstream guidance of polling every few
// seconds while keeping the run bounded.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:    5 * time.Second,
		MaxInterval: 20 * time.Second,
		Multiplier:  1.5,
		MaxAttempts: 60,
		MaxWait:     6 * time.Minute,
		Jitter:      true,
	}
}

func (p PollPolicy) normalized() PollPolicy {
	def := DefaultPollPolicy()
	if p.Interval <= 0 {
		p.Interval = def.Interval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = def.MaxInterval
	}
	if p.Multiplier < 1 {
		p.Multiplier = def.Multiplier
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.MaxWait <= 0 {
		p.MaxWait = def.MaxWait
	}
	return p
}

// VeoAnimator drives a long-running video job to completion and fetches
// the result payload exactly once.
type VeoAnimator struct {
	client videoClient
	policy PollPolicy
	logger *infra.Logger
}

// NewVeoAnimator constructs the animator. A zero policy gets defaults.
func NewVeoAnimator(client *genai.Client, policy PollPolicy, logger *infra.Logger) *VeoAnimator {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &VeoAnimator{client: client, policy: policy.normalized(), logger: logger}
}

// Animate runs the full job. Every wait between polls is a select on the
// context, so cancellation takes effect at the next suspension point.
func (a *VeoAnimator) Animate(ctx context.Context, req AnimationRequest) (*AnimationResult, error) {
	operation, err := a.client.SubmitVideoJob(ctx, genai.VideoJobRequest{
		Prompt:      buildMotionPrompt(req.Scene),
		Image:       genai.InlineImage{MIME: req.MIME, Data: req.Image},
		SampleCount: videoSampleCount,
		Resolution:  videoResolution,
		AspectRatio: videoAspectRatio,
		RequestID:   uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info().
		Str("operation", operation).
		Str("model", a.client.VideoModel()).
		Msg("video: job submitted")

	started := time.Now()
	interval := a.policy.Interval
	polls := 0
	for {
		if polls >= a.policy.MaxAttempts {
			return nil, domain.NewTimeoutError(fmt.Sprintf("video job still running after %d polls", polls))
		}
		if err := waitFor(ctx, interval); err != nil {
			return nil, err
		}
		if time.Since(started) > a.policy.MaxWait {
			return nil, domain.NewTimeoutError(fmt.Sprintf("video job exceeded %s wait budget", a.policy.MaxWait))
		}

		status, err := a.client.PollVideoJob(ctx, operation)
		if err != nil {
			return nil, err
		}
		polls++

		if !status.Done {
			a.logger.Debug().
				Str("operation", operation).
				Int("polls", polls).
				Dur("next_interval", interval).
				Msg("video: job still running")
			interval = nextInterval(interval, a.policy)
			continue
		}

		if status.ResultURI == "" {
			if len(status.FilteredReasons) > 0 {
				return nil, domain.NewRefusal(strings.Join(status.FilteredReasons, "; "))
			}
			return nil, domain.NewProtocolError("video job finished without a result locator")
		}

		data, mime, err := a.client.DownloadVideo(ctx, status.ResultURI)
		if err != nil {
			return nil, err
		}
		if mime == "" {
			mime = "video/mp4"
		}

		a.logger.Info().
			Str("operation", operation).
			Int("polls", polls).
			Int("bytes", len(data)).
			Msg("video: job finished")

		return &AnimationResult{
			Operation: operation,
			Video:     data,
			MIME:      mime,
			Model:     a.client.VideoModel(),
			Polls:     polls,
		}, nil
	}
}

// waitFor sleeps for d or returns early when ctx ends.
func waitFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextInterval(current time.Duration, p PollPolicy) time.Duration {
	next := time.Duration(float64(current) * p.Multiplier)
	if next > p.MaxInterval {
		next = p.MaxInterval
	}
	if p.Jitter {
		next += time.Duration(rand.Int63n(int64(next)/10 + 1))
	}
	return next
}

// buildMotionPrompt derives the clip direction from the scene description,
// falling back to a generic atmosphere directive when the scene is blank.
func buildMotionPrompt(scene string) string {
	var b strings.Builder
	b.WriteString("Animate this look with subtle, natural motion: gentle fabric movement, soft breathing, a slight shift of stance. Keep the camera steady.")
	if scene = strings.TrimSpace(scene); scene != "" {
		b.WriteString("\nScene: ")
		b.WriteString(scene)
	} else {
		b.WriteString("\nPreserve the atmosphere of the image.")
	}
	return b.String()
}

var _ Animator = (*VeoAnimator)(nil)
