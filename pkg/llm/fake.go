package llm

import "context"

// FakeProvider is an in-memory Provider implementation for tests, returning
// a scripted sequence of responses, one per call to Complete.
type FakeProvider struct {
	ProviderName string
	Responses    []CompletionResponse
	calls        int
	Requests     []CompletionRequest
}

// Name returns the provider's registry key.
func (f *FakeProvider) Name() string {
	if f.ProviderName == "" {
		return "fake"
	}
	return f.ProviderName
}

// Complete returns the next scripted response, or an error if the script is
// exhausted.
func (f *FakeProvider) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	f.Requests = append(f.Requests, req)
	if f.calls >= len(f.Responses) {
		return nil, errScriptExhausted
	}
	resp := f.Responses[f.calls]
	f.calls++
	return &resp, nil
}

var errScriptExhausted = &scriptExhaustedError{}

type scriptExhaustedError struct{}

func (*scriptExhaustedError) Error() string {
	return "fake provider: response script exhausted"
}
