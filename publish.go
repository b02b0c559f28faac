package newsdesk

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/newsdesk/wordpress"
)

// Publisher sends drafts to WordPress.
type Publisher interface {
	Publish(ctx context.Context, creds wordpress.Credentials, in wordpress.PublishInput) (wordpress.Result, error)
	Check(ctx context.Context, creds wordpress.Credentials) (wordpress.User, error)
}

// wpPublisher reuses one client per set of credentials so resolved term
// ids survive between publishes.
type wpPublisher struct {
	log     wordpress.Logger
	termTTL time.Duration

	mu     sync.Mutex
	creds  wordpress.Credentials
	client *wordpress.Client
}

func newWordPressPublisher(log wordpress.Logger, termTTL time.Duration) *wpPublisher {
	return &wpPublisher{log: log, termTTL: termTTL}
}

func (p *wpPublisher) clientFor(creds wordpress.Credentials) (*wordpress.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil && p.creds == creds {
		return p.client, nil
	}
	c, err := wordpress.NewClient(creds, wordpress.WithLogger(p.log), wordpress.WithTermTTL(p.termTTL))
	if err != nil {
		return nil, err
	}
	p.creds, p.client = creds, c
	return c, nil
}

func (p *wpPublisher) Publish(ctx context.Context, creds wordpress.Credentials, in wordpress.PublishInput) (wordpress.Result, error) {
	c, err := p.clientFor(creds)
	if err != nil {
		return wordpress.Result{}, err
	}
	return wordpress.NewPublisher(c).Run(ctx, in)
}

func (p *wpPublisher) Check(ctx context.Context, creds wordpress.Credentials) (wordpress.User, error) {
	c, err := p.clientFor(creds)
	if err != nil {
		return wordpress.User{}, err
	}
	return c.Me(ctx)
}
