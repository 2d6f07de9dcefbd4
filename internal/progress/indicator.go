package progress

import (
	"io"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// LoadingMessages are shown while the model works.
var LoadingMessages = []string{
	"Analyzing your text...",
	"Consulting with the AI core...",
	"Generating insights...",
	"Crafting the perfect response...",
	"Finalizing the output...",
}

const (
	// TickInterval is how often the indicator advances.
	TickInterval = 400 * time.Millisecond
	// Step is the percentage added per tick.
	Step = 5
	// Ceiling is the highest percentage shown before the work completes.
	Ceiling = 95
)

// Advance returns the percentage after one tick from p.
func Advance(p int) int {
	if p+Step >= Ceiling {
		return Ceiling
	}
	return p + Step
}

// Indicator is an animated progress bar with rotating messages. It never
// reaches 100% on its own; Stop completes or clears it.
type Indicator struct {
	bar      *progressbar.ProgressBar
	interval time.Duration
	pick     func() string

	mu      sync.Mutex
	percent int
	message string

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// IndicatorOption configures an Indicator.
type IndicatorOption func(*Indicator)

// WithInterval overrides TickInterval.
func WithInterval(d time.Duration) IndicatorOption {
	return func(i *Indicator) { i.interval = d }
}

// WithMessagePicker overrides the random message choice.
func WithMessagePicker(pick func() string) IndicatorOption {
	return func(i *Indicator) { i.pick = pick }
}

func randomMessage() string {
	return LoadingMessages[rand.IntN(len(LoadingMessages))]
}

// StartIndicator draws the indicator on w (stderr when nil) and animates it
// until Stop is called.
func StartIndicator(w io.Writer, opts ...IndicatorOption) *Indicator {
	if w == nil {
		w = os.Stderr
	}
	i := &Indicator{
		interval: TickInterval,
		pick:     randomMessage,
		message:  LoadingMessages[0],
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.bar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(i.message),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	go i.run()
	return i
}

func (i *Indicator) run() {
	defer close(i.done)
	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()
	for {
		select {
		case <-i.stop:
			return
		case <-ticker.C:
			i.mu.Lock()
			i.percent = Advance(i.percent)
			i.message = i.pick()
			p, msg := i.percent, i.message
			i.mu.Unlock()

			i.bar.Describe(msg)
			_ = i.bar.Set(p)
		}
	}
}

// State returns the current percentage and message.
func (i *Indicator) State() (int, string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.percent, i.message
}

// Stop halts the animation. When success is true the bar is filled
// before it is cleared. Stop is safe to call more than once.
func (i *Indicator) Stop(success bool) {
	i.once.Do(func() {
		close(i.stop)
		<-i.done
		if success {
			_ = i.bar.Finish()
			return
		}
		_ = i.bar.Clear()
	})
}
