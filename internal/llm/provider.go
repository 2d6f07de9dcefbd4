package llm

import "context"

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// StreamProvider is implemented by providers that can deliver a reply
// incrementally. onDelta receives text fragments in arrival order.
type StreamProvider interface {
	Provider
	Stream(ctx context.Context, req CompletionRequest, onDelta func(string)) (*CompletionResponse, error)
}

// Stream sends req to p and reports the reply through onDelta. Providers that
// cannot stream are called once and the whole reply is emitted as one delta.
func Stream(ctx context.Context, p Provider, req CompletionRequest, onDelta func(string)) (*CompletionResponse, error) {
	if sp, ok := p.(StreamProvider); ok {
		return sp.Stream(ctx, req, onDelta)
	}
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if onDelta != nil && resp.Content != "" {
		onDelta(resp.Content)
	}
	return resp, nil
}
