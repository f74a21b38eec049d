package mail

import (
	"context"
	"sync"
)

type sentMail struct {
	serviceID  string
	templateID string
	params     map[string]any
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeDispatcher) Send(ctx context.Context, serviceID, templateID string, params map[string]any) (Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return Receipt{}, f.err
	}
	f.sent = append(f.sent, sentMail{serviceID: serviceID, templateID: templateID, params: params})
	return Receipt{StatusCode: 202, MessageID: "msg-1"}, nil
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

