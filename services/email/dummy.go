package emailsvc

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

// DummyService records messages instead of sending them; meant for tests.
// Fail makes every subsequent attempt return an error.
type DummyService struct {
	mu           sync.Mutex
	sentMessages []core.EmailMessage
	fail         bool
}

var _ core.EmailService = (*DummyService)(nil)

func NewDummyService() *DummyService {
	return &DummyService{sentMessages: make([]core.EmailMessage, 0)}
}

func (svc *DummyService) SendMessage(msg *core.EmailMessage) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.fail {
		return errors.New("email service unavailable")
	}
	if msg.HasRecipients() && msg.HasContent() {
		svc.sentMessages = append(svc.sentMessages, *msg)
	}
	return nil
}

func (svc *DummyService) Fail(fail bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.fail = fail
}

func (svc *DummyService) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]core.EmailMessage, len(svc.sentMessages))
	copy(out, svc.sentMessages)
	return out
}

func (svc *DummyService) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sentMessages = svc.sentMessages[:0]
}
